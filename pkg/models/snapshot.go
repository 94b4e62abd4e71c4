package models

import (
	"time"
)

// SnapshotFile is one uploaded frame
type SnapshotFile struct {
	View        string `json:"view" enum:"oscilloscope,spectrum,meters" doc:"Visualization name"`
	Key         string `json:"key" doc:"Object storage key"`
	DownloadURL string `json:"download_url" doc:"Pre-signed download URL"`
}

// CreateSnapshotResponseBody is the body of the create snapshot response
type CreateSnapshotResponseBody struct {
	ID        string         `json:"id" doc:"Snapshot unique identifier"`
	Seq       uint64         `json:"seq" doc:"Frame sequence number captured"`
	Theme     string         `json:"theme" enum:"light,dark" doc:"Theme the frame was drawn in"`
	Files     []SnapshotFile `json:"files" doc:"Uploaded frames"`
	ExpiresIn int            `json:"expires_in" doc:"URL expiration time in seconds"`
	CreatedAt time.Time      `json:"created_at" doc:"Snapshot creation timestamp"`
}

// CreateSnapshotResponse represents the response from creating a snapshot
type CreateSnapshotResponse struct {
	Body CreateSnapshotResponseBody
}

// SnapshotManifest is stored next to the frames as manifest.json
type SnapshotManifest struct {
	ID        string       `json:"id"`
	SessionID string       `json:"session_id,omitempty"`
	Seq       uint64       `json:"seq"`
	Theme     string       `json:"theme"`
	Left      ChannelLevel `json:"left"`
	Right     ChannelLevel `json:"right"`
	Keys      []string     `json:"keys"`
	CreatedAt time.Time    `json:"created_at"`
}
