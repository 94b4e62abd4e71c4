package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RMahshie/sonascope/internal/meter"
	"github.com/RMahshie/sonascope/internal/pipeline"
	"github.com/RMahshie/sonascope/internal/processing"
	"github.com/RMahshie/sonascope/pkg/models"
)

// FrameReader exposes the latest rendered frame
type FrameReader interface {
	Latest() (pipeline.Frame, bool)
	Levels() meter.Stereo
	PNG(v pipeline.View) ([]byte, uint64, error)
}

// FrameHandler serves meter levels and rendered views
type FrameHandler struct {
	frames FrameReader
}

// NewFrameHandler creates a new frame handler
func NewFrameHandler(frames FrameReader) *FrameHandler {
	return &FrameHandler{frames: frames}
}

// GetLevels returns the latest stereo reading, the floor when idle
func (h *FrameHandler) GetLevels(ctx context.Context, _ *struct{}) (*models.LevelsResponse, error) {
	resp := &models.LevelsResponse{}
	if f, ok := h.frames.Latest(); ok {
		resp.Body.Seq = f.Seq
	}

	levels := h.frames.Levels()
	resp.Body.Left = processing.ChannelLevel(levels.Left)
	resp.Body.Right = processing.ChannelLevel(levels.Right)
	return resp, nil
}

// GetFrame returns one view of the latest frame as PNG
func (h *FrameHandler) GetFrame(ctx context.Context, req *models.FrameRequest) (*models.FrameResponse, error) {
	view, err := pipeline.ParseView(req.View)
	if err != nil {
		return nil, huma.Error400BadRequest("Unknown view. Use oscilloscope, spectrum or meters.", err)
	}

	data, seq, err := h.frames.PNG(view)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoFrame) {
			return nil, huma.Error404NotFound("No frame rendered yet. Start a capture first.", err)
		}
		return nil, huma.Error500InternalServerError("Failed to encode frame", err)
	}

	return &models.FrameResponse{
		ContentType:  "image/png",
		CacheControl: "no-store",
		Seq:          strconv.FormatUint(seq, 10),
		Body:         data,
	}, nil
}
