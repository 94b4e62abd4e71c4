package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/sonascope/internal/capture"
	"github.com/RMahshie/sonascope/internal/config"
	"github.com/RMahshie/sonascope/internal/pipeline"
	"github.com/RMahshie/sonascope/internal/repository/memory"
	"github.com/RMahshie/sonascope/internal/theme"
)

// limitSink forwards the first n frames and signals once they are out.
type limitSink struct {
	next pipeline.Sink
	n    uint64

	mu    sync.Mutex
	count uint64
	err   error
	done  chan struct{}
}

func newLimitSink(next pipeline.Sink, n int) *limitSink {
	return &limitSink{next: next, n: uint64(n), done: make(chan struct{})}
}

func (s *limitSink) Publish(f pipeline.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count >= s.n || s.err != nil {
		return nil
	}
	if err := s.next.Publish(f); err != nil {
		s.err = err
		close(s.done)
		return err
	}
	s.count++
	if s.count == s.n {
		close(s.done)
	}
	return nil
}

func (s *limitSink) Reset() { s.next.Reset() }

func (s *limitSink) result() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count, s.err
}

// source builds the capture source selected by --tone or --input.
func source(cfg *config.Config) (capture.Source, error) {
	switch {
	case tone && input != "":
		return nil, errors.New("--tone and --input are mutually exclusive")
	case tone:
		tc := capture.DefaultToneConfig()
		tc.Name = "tone"
		tc.SampleRate = cfg.Capture.SampleRate
		tc.LeftFreq = leftFreq
		tc.RightFreq = rightFreq
		return capture.NewToneSource(tc), nil
	case input != "":
		return capture.NewFFmpegSource(capture.FFmpegConfig{
			Name:       "file",
			Input:      input,
			Realtime:   true,
			SampleRate: cfg.Capture.SampleRate,
			Channels:   cfg.Capture.Channels,
			FFmpegCmd:  cfg.Capture.FFmpegCmd,
			FFprobeCmd: cfg.Capture.FFprobeCmd,
		}), nil
	}
	return nil, errors.New("one of --tone or --input is required")
}

// runSession captures from the selected source and renders frames into sink
// until the frame limit is reached or the process is interrupted.
func runSession(ctx context.Context, sink pipeline.Sink) (uint64, error) {
	if frames <= 0 {
		return 0, fmt.Errorf("--frames must be positive, got %d", frames)
	}
	active, err := theme.Parse(themeName)
	if err != nil {
		return 0, err
	}

	cfg, err := config.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load configuration: %w", err)
	}
	if fps <= 0 {
		fps = cfg.Render.FrameRate
	}

	src, err := source(cfg)
	if err != nil {
		return 0, err
	}

	themes := theme.NewService(memory.NewPreferenceRepository(), active.IsDark())
	limit := newLimitSink(sink, frames)
	engine, err := pipeline.NewEngine(cfg.EngineConfig(), pipeline.NewTickerClock(fps), limit, themes)
	if err != nil {
		return 0, err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stream, err := src.Request(ctx)
	if err != nil {
		return 0, fmt.Errorf("capture failed: %w", err)
	}
	capture.DiscardVideo(stream)
	if len(capture.AudioTracks(stream)) == 0 {
		stream.Close()
		return 0, capture.ErrNoAudioTrack
	}

	if err := engine.Start(stream); err != nil {
		stream.Close()
		return 0, err
	}
	log.Debug().
		Str("source", src.Name()).
		Int("sample_rate", stream.SampleRate()).
		Int("fps", fps).
		Str("theme", active.String()).
		Msg("Rendering")

	select {
	case <-limit.done:
	case <-ctx.Done():
		log.Warn().Msg("Interrupted")
	}
	engine.Stop()

	return limit.result()
}
