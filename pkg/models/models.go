package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status    string    `json:"status" example:"healthy" doc:"Service health status"`
		Version   string    `json:"version" example:"1.0.0" doc:"API version"`
		Time      time.Time `json:"time" doc:"Current server time"`
		Capturing bool      `json:"capturing" doc:"Whether an audio capture is running"`
	}
}

// StatusLevel classifies a capture status message for display
type StatusLevel string

const (
	LevelInfo    StatusLevel = "info"
	LevelSuccess StatusLevel = "success"
	LevelWarning StatusLevel = "warning"
	LevelError   StatusLevel = "error"
)

// CaptureStatus is the user-visible state of the capture controls
type CaptureStatus struct {
	Message      string      `json:"message" example:"Status: Ready to capture" doc:"Human-readable status line"`
	Level        StatusLevel `json:"level" enum:"info,success,warning,error" doc:"Status severity"`
	Capturing    bool        `json:"capturing" doc:"Whether audio is being analysed"`
	StartEnabled bool        `json:"start_enabled" doc:"Whether the start control is enabled"`
	StopEnabled  bool        `json:"stop_enabled" doc:"Whether the stop control is enabled"`
	Source       string      `json:"source,omitempty" doc:"Name of the source in use"`
	SessionID    string      `json:"session_id,omitempty" doc:"Identifier of the running capture"`
	StartedAt    *time.Time  `json:"started_at,omitempty" doc:"When the running capture started"`
}

// CaptureStatusResponse wraps the capture status
type CaptureStatusResponse struct {
	Body CaptureStatus
}

// ChannelLevel is one channel's meter reading
type ChannelLevel struct {
	RMS     float64 `json:"rms" doc:"Root-mean-square amplitude"`
	DB      float64 `json:"db" doc:"Level in dBFS, -100 when silent"`
	Percent float64 `json:"percent" minimum:"0" maximum:"100" doc:"Meter fill percentage"`
	Label   string  `json:"label" example:"-12.5 dB" doc:"Display label"`
}

// LevelsResponse carries the latest stereo meter reading
type LevelsResponse struct {
	Body struct {
		Seq   uint64       `json:"seq" doc:"Frame sequence number, 0 when idle"`
		Left  ChannelLevel `json:"left" doc:"Left channel"`
		Right ChannelLevel `json:"right" doc:"Right channel"`
	}
}

// FrameRequest selects one of the rendered views
type FrameRequest struct {
	View string `path:"view" enum:"oscilloscope,spectrum,meters" doc:"Visualization to fetch"`
}

// FrameResponse is a rendered PNG frame
type FrameResponse struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Seq          string `header:"X-Frame-Seq" doc:"Frame sequence number"`
	Body         []byte
}

// ThemeBody is the binary theme preference
type ThemeBody struct {
	Dark  bool   `json:"dark" doc:"Whether the dark theme is active"`
	Theme string `json:"theme,omitempty" enum:"light,dark" doc:"Theme name" readOnly:"true"`
}

// ThemeResponse returns the active theme
type ThemeResponse struct {
	Body ThemeBody
}

// SetThemeBody is the requested theme
type SetThemeBody struct {
	Dark bool `json:"dark" doc:"Use the dark theme"`
}

// SetThemeRequest persists a theme choice
type SetThemeRequest struct {
	Body SetThemeBody
}
