package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RMahshie/sonascope/internal/api/handlers"
	"github.com/RMahshie/sonascope/internal/processing"
)

// Services bundles what the routes depend on
type Services struct {
	Capture   processing.CaptureService
	Snapshots processing.SnapshotService // nil without object storage
	Frames    handlers.FrameReader
	Theme     handlers.ThemeService
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, svc Services) {
	// Initialize handlers
	captureHandler := handlers.NewCaptureHandler(svc.Capture)
	frameHandler := handlers.NewFrameHandler(svc.Frames)
	themeHandler := handlers.NewThemeHandler(svc.Theme)
	snapshotHandler := handlers.NewSnapshotHandler(svc.Snapshots, svc.Capture)

	// Register capture routes
	huma.Register(api, huma.Operation{
		OperationID: "startCapture",
		Method:      http.MethodPost,
		Path:        "/api/capture/start",
		Summary:     "Start capture",
		Description: "Requests system audio, falling back to the microphone, and starts the visualizations",
		Tags:        []string{"Capture"},
	}, captureHandler.StartCapture)

	huma.Register(api, huma.Operation{
		OperationID: "stopCapture",
		Method:      http.MethodPost,
		Path:        "/api/capture/stop",
		Summary:     "Stop capture",
		Description: "Releases the capture and analysis resources. Safe to call repeatedly",
		Tags:        []string{"Capture"},
	}, captureHandler.StopCapture)

	huma.Register(api, huma.Operation{
		OperationID: "getCaptureStatus",
		Method:      http.MethodGet,
		Path:        "/api/capture/status",
		Summary:     "Get capture status",
		Description: "Returns the status line and which controls are enabled",
		Tags:        []string{"Capture"},
	}, captureHandler.GetCaptureStatus)

	// Register visualization routes
	huma.Register(api, huma.Operation{
		OperationID: "getLevels",
		Method:      http.MethodGet,
		Path:        "/api/levels",
		Summary:     "Get VU levels",
		Description: "Returns the latest per-channel RMS, dB and meter percentage",
		Tags:        []string{"Visualization"},
	}, frameHandler.GetLevels)

	huma.Register(api, huma.Operation{
		OperationID: "getFrame",
		Method:      http.MethodGet,
		Path:        "/api/frames/{view}",
		Summary:     "Get rendered frame",
		Description: "Returns the latest oscilloscope, spectrum or meters frame as PNG",
		Tags:        []string{"Visualization"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "PNG image",
				Content:     map[string]*huma.MediaType{"image/png": {}},
			},
		},
	}, frameHandler.GetFrame)

	// Register theme routes
	huma.Register(api, huma.Operation{
		OperationID: "getTheme",
		Method:      http.MethodGet,
		Path:        "/api/theme",
		Summary:     "Get theme",
		Tags:        []string{"Theme"},
	}, themeHandler.GetTheme)

	huma.Register(api, huma.Operation{
		OperationID: "setTheme",
		Method:      http.MethodPut,
		Path:        "/api/theme",
		Summary:     "Set theme",
		Description: "Persists the light or dark theme preference",
		Tags:        []string{"Theme"},
	}, themeHandler.SetTheme)

	huma.Register(api, huma.Operation{
		OperationID: "toggleTheme",
		Method:      http.MethodPost,
		Path:        "/api/theme/toggle",
		Summary:     "Toggle theme",
		Description: "Switches between light and dark and persists the result",
		Tags:        []string{"Theme"},
	}, themeHandler.ToggleTheme)

	// Register snapshot routes
	huma.Register(api, huma.Operation{
		OperationID: "createSnapshot",
		Method:      http.MethodPost,
		Path:        "/api/snapshots",
		Summary:     "Create snapshot",
		Description: "Uploads the latest frames to object storage and returns download URLs",
		Tags:        []string{"Snapshots"},
	}, snapshotHandler.CreateSnapshot)
}
