// Package capture acquires audio streams for the visualizer: a primary
// source (tab or display capture) and a microphone fallback.
package capture

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrPermissionDenied means the user or the platform refused the capture.
	ErrPermissionDenied = errors.New("capture permission denied")
	// ErrUnavailable means the source cannot be captured right now.
	ErrUnavailable = errors.New("capture source unavailable")
	// ErrNoAudioTrack means the stream carried no audio.
	ErrNoAudioTrack = errors.New("no audio track available in the captured stream")
)

// TrackKind distinguishes audio from video tracks.
type TrackKind string

const (
	KindAudio TrackKind = "audio"
	KindVideo TrackKind = "video"
)

// Track is one media track of a captured stream.
type Track struct {
	ID    string
	Kind  TrackKind
	Label string

	mu      sync.Mutex
	enabled bool
	stopped bool
	onStop  func()
}

// NewTrack creates an enabled, live track. onStop runs once when the track
// is stopped and may be nil.
func NewTrack(id string, kind TrackKind, label string, onStop func()) *Track {
	return &Track{ID: id, Kind: kind, Label: label, enabled: true, onStop: onStop}
}

// Enabled reports whether the track is enabled.
func (t *Track) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// SetEnabled toggles the track without stopping it.
func (t *Track) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

// Stop ends the track permanently. Further calls are no-ops.
func (t *Track) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.enabled = false
	onStop := t.onStop
	t.mu.Unlock()

	if onStop != nil {
		onStop()
	}
}

// Stopped reports whether Stop has been called.
func (t *Track) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Stream is a captured media stream. Read yields interleaved float samples
// of the stream's audio.
type Stream interface {
	Tracks() []*Track
	RemoveTrack(id string)
	SampleRate() int
	Channels() int
	// Read fills dst with whole interleaved frames and returns the number of
	// frames read.
	Read(dst []float32) (int, error)
	// Close stops every track and releases the underlying device.
	Close() error
}

// Source requests a stream. Request may block while the capture is being
// negotiated.
type Source interface {
	Name() string
	Request(ctx context.Context) (Stream, error)
}

// AudioTracks returns the stream's audio tracks.
func AudioTracks(s Stream) []*Track {
	return tracksOfKind(s, KindAudio)
}

// VideoTracks returns the stream's video tracks.
func VideoTracks(s Stream) []*Track {
	return tracksOfKind(s, KindVideo)
}

// DiscardVideo disables, stops and removes every video track of s and
// returns how many were dropped.
func DiscardVideo(s Stream) int {
	video := VideoTracks(s)
	for _, t := range video {
		t.SetEnabled(false)
		t.Stop()
		s.RemoveTrack(t.ID)
	}
	return len(video)
}

func tracksOfKind(s Stream, kind TrackKind) []*Track {
	var out []*Track
	for _, t := range s.Tracks() {
		if t.Kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// trackSet is the track bookkeeping shared by stream implementations.
type trackSet struct {
	mu     sync.Mutex
	tracks []*Track
}

func (ts *trackSet) add(t *Track) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tracks = append(ts.tracks, t)
}

// Tracks returns a snapshot of the live track list.
func (ts *trackSet) Tracks() []*Track {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]*Track(nil), ts.tracks...)
}

// RemoveTrack drops the track with id from the stream.
func (ts *trackSet) RemoveTrack(id string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for i, t := range ts.tracks {
		if t.ID == id {
			ts.tracks = append(ts.tracks[:i], ts.tracks[i+1:]...)
			return
		}
	}
}

func (ts *trackSet) stopAll() {
	for _, t := range ts.Tracks() {
		t.Stop()
	}
}
