package pipeline

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/sonascope/internal/meter"
	"github.com/RMahshie/sonascope/internal/render"
	"github.com/RMahshie/sonascope/internal/theme"
)

var (
	ErrNoFrame     = errors.New("no frame rendered yet")
	ErrUnknownView = errors.New("unknown view")
)

// View names one of the three visualizations.
type View string

const (
	ViewOscilloscope View = "oscilloscope"
	ViewSpectrum     View = "spectrum"
	ViewMeters       View = "meters"
)

// Views lists every view in display order.
var Views = []View{ViewOscilloscope, ViewSpectrum, ViewMeters}

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Frame is one rendered update of all three views.
type Frame struct {
	Seq    uint64
	At     time.Time
	Theme  theme.Theme
	Levels meter.Stereo

	Oscilloscope *image.RGBA
	Spectrum     *image.RGBA
	Meters       *image.RGBA
}

// Image returns the frame's image for v, or nil.
func (f Frame) Image(v View) *image.RGBA {
	switch v {
	case ViewOscilloscope:
		return f.Oscilloscope
	case ViewSpectrum:
		return f.Spectrum
	case ViewMeters:
		return f.Meters
	}
	return nil
}

// Sink receives rendered frames.
type Sink interface {
	Publish(f Frame) error
	// Reset drops whatever the sink shows once capture stops.
	Reset()
}

// SinkFunc adapts a function to a Sink with a no-op Reset.
type SinkFunc func(f Frame) error

func (fn SinkFunc) Publish(f Frame) error { return fn(f) }
func (fn SinkFunc) Reset()                {}

// FrameStore keeps the most recent frame for the HTTP surface.
type FrameStore struct {
	mu     sync.RWMutex
	latest *Frame
	pngs   map[View][]byte
}

func NewFrameStore() *FrameStore {
	return &FrameStore{pngs: make(map[View][]byte)}
}

func (s *FrameStore) Publish(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &f
	clear(s.pngs)
	return nil
}

func (s *FrameStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = nil
	clear(s.pngs)
}

// Latest returns the last published frame.
func (s *FrameStore) Latest() (Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Frame{}, false
	}
	return *s.latest, true
}

// Levels returns the latest stereo reading, or the floor when idle.
func (s *FrameStore) Levels() meter.Stereo {
	if f, ok := s.Latest(); ok {
		return f.Levels
	}
	floor := meter.DefaultScale().Read(0)
	return meter.Stereo{Left: floor, Right: floor}
}

// PNG encodes the latest frame's view, caching the result until the next
// frame arrives.
func (s *FrameStore) PNG(v View) ([]byte, uint64, error) {
	s.mu.RLock()
	latest := s.latest
	cached, ok := s.pngs[v]
	s.mu.RUnlock()

	if latest == nil {
		return nil, 0, ErrNoFrame
	}
	if ok {
		return cached, latest.Seq, nil
	}

	img := latest.Image(v)
	if img == nil {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownView, v)
	}
	data, err := render.EncodePNG(img)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode %s frame: %w", v, err)
	}

	s.mu.Lock()
	if s.latest == latest {
		s.pngs[v] = data
	}
	s.mu.Unlock()

	return data, latest.Seq, nil
}

// DirSink writes every frame as numbered PNG files.
type DirSink struct {
	dir   string
	views []View
}

// NewDirSink creates dir if needed. With no views, all three are written.
func NewDirSink(dir string, views ...View) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if len(views) == 0 {
		views = Views
	}
	return &DirSink{dir: dir, views: views}, nil
}

// Path is the file a view of frame seq is written to.
func (d *DirSink) Path(v View, seq uint64) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s-%06d.png", v, seq))
}

func (d *DirSink) Publish(f Frame) error {
	for _, v := range d.views {
		img := f.Image(v)
		if img == nil {
			return fmt.Errorf("%w: %q", ErrUnknownView, v)
		}
		data, err := render.EncodePNG(img)
		if err != nil {
			return fmt.Errorf("failed to encode %s frame %d: %w", v, f.Seq, err)
		}
		path := d.Path(v, f.Seq)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	log.Debug().Uint64("seq", f.Seq).Str("dir", d.dir).Msg("frame written")
	return nil
}

func (d *DirSink) Reset() {}
