package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/sonascope/internal/pipeline"
	"github.com/RMahshie/sonascope/internal/processing"
	"github.com/RMahshie/sonascope/internal/storage"
	"github.com/RMahshie/sonascope/pkg/models"
)

// SnapshotHandler uploads the latest frame to object storage
type SnapshotHandler struct {
	svc     processing.SnapshotService
	capture processing.CaptureService
}

// NewSnapshotHandler creates a new snapshot handler. svc may be nil when no
// storage is configured.
func NewSnapshotHandler(svc processing.SnapshotService, capture processing.CaptureService) *SnapshotHandler {
	return &SnapshotHandler{svc: svc, capture: capture}
}

// CreateSnapshot stores the three views and returns download URLs
func (h *SnapshotHandler) CreateSnapshot(ctx context.Context, _ *struct{}) (*models.CreateSnapshotResponse, error) {
	if h.svc == nil {
		return nil, huma.Error503ServiceUnavailable("Snapshot storage is not configured", nil)
	}

	sessionID := h.capture.Status().SessionID
	body, err := h.svc.Create(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrNoFrame):
			return nil, huma.Error409Conflict("Nothing to snapshot. Start a capture first.", err)
		case errors.Is(err, storage.ErrInvalidContentType):
			return nil, huma.Error400BadRequest("Snapshot format not supported", err)
		}
		log.Error().Err(err).Str("session_id", sessionID).Msg("Snapshot failed")
		return nil, huma.Error502BadGateway("Failed to store snapshot. Please try again.", err)
	}

	return &models.CreateSnapshotResponse{Body: *body}, nil
}
