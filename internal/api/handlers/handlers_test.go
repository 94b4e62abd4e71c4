package handlers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/sonascope/internal/capture"
	"github.com/RMahshie/sonascope/internal/meter"
	"github.com/RMahshie/sonascope/internal/pipeline"
	"github.com/RMahshie/sonascope/internal/processing"
	"github.com/RMahshie/sonascope/internal/storage"
	"github.com/RMahshie/sonascope/internal/theme"
	"github.com/RMahshie/sonascope/pkg/models"
)

// MockCaptureService implements processing.CaptureService for testing
type MockCaptureService struct {
	mock.Mock
}

func (m *MockCaptureService) Start(ctx context.Context) (models.CaptureStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.CaptureStatus), args.Error(1)
}

func (m *MockCaptureService) Stop() models.CaptureStatus {
	args := m.Called()
	return args.Get(0).(models.CaptureStatus)
}

func (m *MockCaptureService) Status() models.CaptureStatus {
	args := m.Called()
	return args.Get(0).(models.CaptureStatus)
}

// MockSnapshotService implements processing.SnapshotService for testing
type MockSnapshotService struct {
	mock.Mock
}

func (m *MockSnapshotService) Create(ctx context.Context, sessionID string) (*models.CreateSnapshotResponseBody, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreateSnapshotResponseBody), args.Error(1)
}

// MockThemeService implements ThemeService for testing
type MockThemeService struct {
	mock.Mock
}

func (m *MockThemeService) Active() theme.Theme {
	args := m.Called()
	return args.Get(0).(theme.Theme)
}

func (m *MockThemeService) Set(ctx context.Context, t theme.Theme) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockThemeService) Toggle(ctx context.Context) (theme.Theme, error) {
	args := m.Called(ctx)
	return args.Get(0).(theme.Theme), args.Error(1)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.True(t, errors.As(err, &se), "expected a huma status error, got %v", err)
	return se.GetStatus()
}

func TestStartCapture(t *testing.T) {
	tests := []struct {
		name       string
		status     models.CaptureStatus
		err        error
		wantStatus int
	}{
		{
			name:   "started",
			status: models.CaptureStatus{Message: processing.StatusAnalyzing, Level: models.LevelSuccess, Capturing: true, StopEnabled: true},
		},
		{
			name:       "already capturing",
			err:        processing.ErrAlreadyCapturing,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "stopped while pending",
			err:        processing.ErrCaptureStopped,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "permission denied",
			status:     models.CaptureStatus{Message: "Status: Capture error - capture permission denied", Level: models.LevelError},
			err:        errors.Join(capture.ErrPermissionDenied, capture.ErrUnavailable),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no audio",
			err:        capture.ErrNoAudioTrack,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unavailable",
			err:        capture.ErrUnavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockCaptureService{}
			svc.On("Start", mock.Anything).Return(tt.status, tt.err)

			handler := NewCaptureHandler(svc)
			resp, err := handler.StartCapture(context.Background(), &struct{}{})

			if tt.wantStatus != 0 {
				assert.Nil(t, resp)
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.status, resp.Body)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestStopCapture(t *testing.T) {
	stopped := models.CaptureStatus{Message: processing.StatusStopped, Level: models.LevelInfo, StartEnabled: true}

	svc := &MockCaptureService{}
	svc.On("Stop").Return(stopped)
	svc.On("Status").Return(stopped)

	handler := NewCaptureHandler(svc)

	resp, err := handler.StopCapture(context.Background(), &struct{}{})
	require.NoError(t, err)
	assert.Equal(t, stopped, resp.Body)

	resp, err = handler.GetCaptureStatus(context.Background(), &struct{}{})
	require.NoError(t, err)
	assert.True(t, resp.Body.StartEnabled)
}

func TestGetLevels(t *testing.T) {
	store := pipeline.NewFrameStore()
	handler := NewFrameHandler(store)

	resp, err := handler.GetLevels(context.Background(), &struct{}{})
	require.NoError(t, err)
	assert.Zero(t, resp.Body.Seq)
	assert.Equal(t, meter.FloorDB, resp.Body.Left.DB)
	assert.Equal(t, "-∞ dB", resp.Body.Left.Label)

	scale := meter.DefaultScale()
	require.NoError(t, store.Publish(pipeline.Frame{
		Seq:    9,
		Levels: meter.Stereo{Left: scale.Read(1), Right: scale.Read(0.001)},
	}))

	resp, err = handler.GetLevels(context.Background(), &struct{}{})
	require.NoError(t, err)
	assert.Equal(t, uint64(9), resp.Body.Seq)
	assert.InDelta(t, 100.0, resp.Body.Left.Percent, 1e-9)
	assert.Equal(t, "0.0 dB", resp.Body.Left.Label)
	assert.InDelta(t, -60.0, resp.Body.Right.DB, 1e-9)
	assert.InDelta(t, 0.0, resp.Body.Right.Percent, 1e-9)
}

func TestGetFrame(t *testing.T) {
	store := pipeline.NewFrameStore()
	handler := NewFrameHandler(store)

	_, err := handler.GetFrame(context.Background(), &models.FrameRequest{View: "spectrum"})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = handler.GetFrame(context.Background(), &models.FrameRequest{View: "waterfall"})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	require.NoError(t, store.Publish(pipeline.Frame{Seq: 3, Oscilloscope: img, Spectrum: img, Meters: img}))

	resp, err := handler.GetFrame(context.Background(), &models.FrameRequest{View: "spectrum"})
	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.Equal(t, "no-store", resp.CacheControl)
	assert.Equal(t, "3", resp.Seq)
	assert.True(t, bytes.HasPrefix(resp.Body, []byte("\x89PNG")))
}

func TestThemeHandler(t *testing.T) {
	svc := &MockThemeService{}
	svc.On("Active").Return(theme.Light)
	svc.On("Set", mock.Anything, theme.Dark).Return(nil)
	svc.On("Toggle", mock.Anything).Return(theme.Light, nil)

	handler := NewThemeHandler(svc)

	resp, err := handler.GetTheme(context.Background(), &struct{}{})
	require.NoError(t, err)
	assert.Equal(t, models.ThemeBody{Dark: false, Theme: "light"}, resp.Body)

	resp, err = handler.SetTheme(context.Background(), &models.SetThemeRequest{Body: models.SetThemeBody{Dark: true}})
	require.NoError(t, err)
	assert.Equal(t, models.ThemeBody{Dark: true, Theme: "dark"}, resp.Body)

	resp, err = handler.ToggleTheme(context.Background(), &struct{}{})
	require.NoError(t, err)
	assert.False(t, resp.Body.Dark)

	svc.AssertExpectations(t)
}

func TestThemeHandler_PersistFailure(t *testing.T) {
	svc := &MockThemeService{}
	svc.On("Set", mock.Anything, theme.Light).Return(assert.AnError)
	svc.On("Toggle", mock.Anything).Return(theme.Dark, assert.AnError)

	handler := NewThemeHandler(svc)

	_, err := handler.SetTheme(context.Background(), &models.SetThemeRequest{})
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))

	_, err = handler.ToggleTheme(context.Background(), &struct{}{})
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))
}

func TestCreateSnapshot(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "stored"},
		{name: "no frame", err: pipeline.ErrNoFrame, wantStatus: http.StatusConflict},
		{name: "bad content type", err: storage.ErrInvalidContentType, wantStatus: http.StatusBadRequest},
		{name: "storage down", err: assert.AnError, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capture := &MockCaptureService{}
			capture.On("Status").Return(models.CaptureStatus{SessionID: "sess-1"})

			svc := &MockSnapshotService{}
			if tt.err != nil {
				svc.On("Create", mock.Anything, "sess-1").Return(nil, tt.err)
			} else {
				svc.On("Create", mock.Anything, "sess-1").Return(&models.CreateSnapshotResponseBody{ID: "snap", Seq: 5}, nil)
			}

			handler := NewSnapshotHandler(svc, capture)
			resp, err := handler.CreateSnapshot(context.Background(), &struct{}{})

			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, "snap", resp.Body.ID)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestCreateSnapshot_NotConfigured(t *testing.T) {
	handler := NewSnapshotHandler(nil, &MockCaptureService{})

	_, err := handler.CreateSnapshot(context.Background(), &struct{}{})
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
}
