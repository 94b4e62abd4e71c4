package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/sonascope/internal/capture"
	"github.com/RMahshie/sonascope/internal/processing"
	"github.com/RMahshie/sonascope/pkg/models"
)

// CaptureHandler handles the start/stop controls
type CaptureHandler struct {
	svc processing.CaptureService
}

// NewCaptureHandler creates a new capture handler
func NewCaptureHandler(svc processing.CaptureService) *CaptureHandler {
	return &CaptureHandler{svc: svc}
}

// StartCapture requests the primary source, falling back to the microphone
func (h *CaptureHandler) StartCapture(ctx context.Context, _ *struct{}) (*models.CaptureStatusResponse, error) {
	st, err := h.svc.Start(ctx)
	if err != nil {
		log.Warn().Err(err).Str("status", st.Message).Msg("Capture start failed")

		switch {
		case errors.Is(err, processing.ErrAlreadyCapturing):
			return nil, huma.Error409Conflict("Capture already running. Stop it first.", err)
		case errors.Is(err, processing.ErrCaptureStopped):
			return nil, huma.Error409Conflict("Capture was stopped before it started.", err)
		case errors.Is(err, capture.ErrPermissionDenied):
			return nil, huma.Error403Forbidden(st.Message, err)
		case errors.Is(err, capture.ErrNoAudioTrack):
			return nil, huma.Error422UnprocessableEntity(st.Message, err)
		}
		return nil, huma.Error503ServiceUnavailable(st.Message, err)
	}

	return &models.CaptureStatusResponse{Body: st}, nil
}

// StopCapture releases the capture; repeated calls are harmless
func (h *CaptureHandler) StopCapture(ctx context.Context, _ *struct{}) (*models.CaptureStatusResponse, error) {
	return &models.CaptureStatusResponse{Body: h.svc.Stop()}, nil
}

// GetCaptureStatus returns the current status line and control state
func (h *CaptureHandler) GetCaptureStatus(ctx context.Context, _ *struct{}) (*models.CaptureStatusResponse, error) {
	return &models.CaptureStatusResponse{Body: h.svc.Status()}, nil
}
