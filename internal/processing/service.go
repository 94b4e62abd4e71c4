package processing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/sonascope/internal/capture"
	"github.com/RMahshie/sonascope/pkg/models"
)

const (
	StatusReady       = "Status: Ready to capture"
	StatusTrying      = "Status: Trying to capture..."
	StatusRequesting  = "Status: Requesting audio share..."
	StatusFallback    = "Status: Trying microphone as fallback..."
	StatusUsingMic    = "Status: Using microphone (not system audio)"
	StatusCaptured    = "Status: Audio captured successfully!"
	StatusAnalyzing   = "Status: Analyzing audio..."
	StatusStopped     = "Status: Capture stopped"
	statusErrorPrefix = "Status: Capture error - "
)

var (
	ErrAlreadyCapturing = errors.New("capture already running")
	ErrCaptureStopped   = errors.New("capture stopped")
)

// Pipeline is the analysis and rendering side of a capture.
type Pipeline interface {
	Start(stream capture.Stream) error
	Stop()
	Running() bool
}

// CaptureService drives the start/stop controls: it requests the primary
// source, falls back to the microphone and hands the stream to the pipeline.
type CaptureService interface {
	Start(ctx context.Context) (models.CaptureStatus, error)
	Stop() models.CaptureStatus
	Status() models.CaptureStatus
}

type captureService struct {
	primary  capture.Source
	fallback capture.Source
	pipeline Pipeline
	listener func(models.CaptureStatus)

	// lifecycle serializes Start and Stop; status reads never wait on it.
	lifecycle sync.Mutex

	mu     sync.RWMutex
	status models.CaptureStatus
	cancel context.CancelCauseFunc // set while a Start is in flight
}

// Option configures a CaptureService.
type Option func(*captureService)

// WithStatusListener registers fn to receive every status change.
func WithStatusListener(fn func(models.CaptureStatus)) Option {
	return func(s *captureService) { s.listener = fn }
}

// NewCaptureService creates the lifecycle service. fallback may be nil.
func NewCaptureService(primary, fallback capture.Source, pipeline Pipeline, opts ...Option) CaptureService {
	s := &captureService{
		primary:  primary,
		fallback: fallback,
		pipeline: pipeline,
		status: models.CaptureStatus{
			Message:      StatusReady,
			Level:        models.LevelInfo,
			StartEnabled: true,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *captureService) Status() models.CaptureStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *captureService) setStatus(st models.CaptureStatus) models.CaptureStatus {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()

	evt := log.Info()
	switch st.Level {
	case models.LevelWarning:
		evt = log.Warn()
	case models.LevelError:
		evt = log.Error()
	}
	evt.Str("session_id", st.SessionID).Str("source", st.Source).Msg(st.Message)

	if s.listener != nil {
		s.listener(st)
	}
	return st
}

// pending is the control state while a request is in flight.
func pending(message string) models.CaptureStatus {
	return models.CaptureStatus{
		Message:     message,
		Level:       models.LevelInfo,
		StopEnabled: true,
	}
}

func (s *captureService) Start(ctx context.Context) (models.CaptureStatus, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.pipeline.Running() {
		return s.Status(), ErrAlreadyCapturing
	}

	ctx, cancel := context.WithCancelCause(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel(nil)
	}()

	s.setStatus(pending(StatusTrying))
	s.setStatus(pending(StatusRequesting))

	source, fallback := s.primary, false
	stream, primaryErr := request(ctx, s.primary)
	if primaryErr != nil {
		log.Warn().Err(primaryErr).Str("source", s.primary.Name()).Msg("Primary capture failed")

		if ctx.Err() != nil {
			cause := context.Cause(ctx)
			return s.fail(cause, errors.Join(cause, primaryErr))
		}
		if s.fallback == nil {
			return s.fail(primaryErr, primaryErr)
		}

		s.setStatus(pending(StatusFallback))
		var fallbackErr error
		stream, fallbackErr = request(ctx, s.fallback)
		if fallbackErr != nil {
			log.Warn().Err(fallbackErr).Str("source", s.fallback.Name()).Msg("Microphone fallback failed")
			if ctx.Err() != nil {
				cause := context.Cause(ctx)
				return s.fail(cause, errors.Join(cause, primaryErr, fallbackErr))
			}
			return s.fail(primaryErr, errors.Join(primaryErr, fallbackErr))
		}
		source, fallback = s.fallback, true
	}

	if err := s.pipeline.Start(stream); err != nil {
		if cerr := stream.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to release capture stream")
		}
		err = fmt.Errorf("start pipeline: %w", err)
		return s.fail(err, err)
	}

	now := time.Now()
	running := models.CaptureStatus{
		Level:       models.LevelSuccess,
		Capturing:   true,
		StopEnabled: true,
		Source:      source.Name(),
		SessionID:   uuid.New().String(),
		StartedAt:   &now,
	}

	if fallback {
		running.Message = StatusUsingMic
		running.Level = models.LevelWarning
		return s.setStatus(running), nil
	}

	running.Message = StatusCaptured
	s.setStatus(running)

	running.Message = StatusAnalyzing
	return s.setStatus(running), nil
}

// request asks src for a stream, drops its video and rejects streams
// without audio.
func request(ctx context.Context, src capture.Source) (capture.Stream, error) {
	stream, err := src.Request(ctx)
	if err != nil {
		return nil, err
	}

	if n := capture.DiscardVideo(stream); n > 0 {
		log.Debug().Int("tracks", n).Str("source", src.Name()).Msg("Discarded video tracks")
	}

	if len(capture.AudioTracks(stream)) == 0 {
		if cerr := stream.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("Failed to release capture stream")
		}
		return nil, capture.ErrNoAudioTrack
	}
	return stream, nil
}

// fail re-enables the start control and puts shown on the status line.
func (s *captureService) fail(shown, err error) (models.CaptureStatus, error) {
	st := s.setStatus(models.CaptureStatus{
		Message:      statusErrorPrefix + shown.Error(),
		Level:        models.LevelError,
		StartEnabled: true,
	})
	return st, fmt.Errorf("capture failed: %w", err)
}

// Stop cancels a pending capture request, then releases the running one.
func (s *captureService) Stop() models.CaptureStatus {
	s.mu.RLock()
	cancel := s.cancel
	s.mu.RUnlock()
	if cancel != nil {
		cancel(ErrCaptureStopped)
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.pipeline.Stop()

	return s.setStatus(models.CaptureStatus{
		Message:      StatusStopped,
		Level:        models.LevelInfo,
		StartEnabled: true,
	})
}
