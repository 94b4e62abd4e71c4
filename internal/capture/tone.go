package capture

import (
	"context"
	"io"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ToneConfig describes a synthetic stereo test signal.
type ToneConfig struct {
	Name       string
	SampleRate int
	LeftFreq   float64
	RightFreq  float64
	LeftAmp    float64
	RightAmp   float64
	// Duration bounds the stream; zero means endless.
	Duration time.Duration
	// Realtime paces Read to the wall clock.
	Realtime bool
	// WithVideo adds a video track, as a display capture would.
	WithVideo bool
	// NoAudio yields a stream without an audio track.
	NoAudio bool
	// Err, when set, is returned by every Request.
	Err error
}

// DefaultToneConfig is a 440 Hz / 660 Hz stereo pair at -6 dBFS.
func DefaultToneConfig() ToneConfig {
	return ToneConfig{
		Name:       "tone",
		SampleRate: 48000,
		LeftFreq:   440,
		RightFreq:  660,
		LeftAmp:    0.5,
		RightAmp:   0.5,
		Realtime:   true,
	}
}

// ToneSource generates sine waves instead of capturing a device.
type ToneSource struct {
	cfg ToneConfig
}

// NewToneSource returns a tone source for cfg.
func NewToneSource(cfg ToneConfig) *ToneSource {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Name == "" {
		cfg.Name = "tone"
	}
	return &ToneSource{cfg: cfg}
}

func (s *ToneSource) Name() string { return s.cfg.Name }

// Request returns a fresh tone stream or the configured error.
func (s *ToneSource) Request(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.cfg.Err != nil {
		return nil, s.cfg.Err
	}

	st := &toneStream{
		cfg:    s.cfg,
		closed: make(chan struct{}),
		start:  time.Now(),
		now:    time.Now,
	}
	if s.cfg.Duration > 0 {
		st.limit = int64(math.Round(s.cfg.Duration.Seconds() * float64(s.cfg.SampleRate)))
	}
	if s.cfg.WithVideo {
		st.add(NewTrack(uuid.NewString(), KindVideo, s.cfg.Name+" video", nil))
	}
	if !s.cfg.NoAudio {
		st.add(NewTrack(uuid.NewString(), KindAudio, s.cfg.Name+" audio", nil))
	}
	return st, nil
}

type toneStream struct {
	trackSet

	cfg ToneConfig

	mu       sync.Mutex
	produced int64
	limit    int64
	start    time.Time
	now      func() time.Time

	closed    chan struct{}
	closeOnce sync.Once
}

func (s *toneStream) SampleRate() int { return s.cfg.SampleRate }
func (s *toneStream) Channels() int   { return 2 }

func (s *toneStream) Read(dst []float32) (int, error) {
	if len(AudioTracks(s)) == 0 {
		return 0, ErrNoAudioTrack
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.closed:
		return 0, io.EOF
	default:
	}

	frames := int64(len(dst) / 2)
	if s.limit > 0 {
		if s.produced >= s.limit {
			return 0, io.EOF
		}
		frames = min(frames, s.limit-s.produced)
	}
	if frames == 0 {
		return 0, nil
	}

	if s.cfg.Realtime {
		due := s.start.Add(time.Duration(float64(s.produced+frames) / float64(s.cfg.SampleRate) * float64(time.Second)))
		if wait := due.Sub(s.now()); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-s.closed:
				timer.Stop()
				return 0, io.EOF
			}
		}
	}

	rate := float64(s.cfg.SampleRate)
	for f := int64(0); f < frames; f++ {
		t := float64(s.produced+f) / rate
		dst[2*f] = float32(s.cfg.LeftAmp * math.Sin(2*math.Pi*s.cfg.LeftFreq*t))
		dst[2*f+1] = float32(s.cfg.RightAmp * math.Sin(2*math.Pi*s.cfg.RightFreq*t))
	}
	s.produced += frames

	return int(frames), nil
}

func (s *toneStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.stopAll()
	})
	return nil
}
