package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/sonascope/internal/meter"
	"github.com/RMahshie/sonascope/internal/pipeline"
	"github.com/RMahshie/sonascope/internal/render"
	"github.com/RMahshie/sonascope/internal/storage"
	"github.com/RMahshie/sonascope/pkg/models"
)

// FrameSource provides the most recent rendered frame.
type FrameSource interface {
	Latest() (pipeline.Frame, bool)
}

// SnapshotService uploads the latest frame to object storage.
type SnapshotService interface {
	Create(ctx context.Context, sessionID string) (*models.CreateSnapshotResponseBody, error)
}

type snapshotService struct {
	store  storage.SnapshotStore
	frames FrameSource
	now    func() time.Time
}

func NewSnapshotService(store storage.SnapshotStore, frames FrameSource) SnapshotService {
	return &snapshotService{store: store, frames: frames, now: time.Now}
}

// SnapshotKey is the object key of one view of a snapshot.
func SnapshotKey(id string, view pipeline.View) string {
	return fmt.Sprintf("snapshots/%s/%s.png", id, view)
}

// ManifestKey is the object key of a snapshot's manifest.
func ManifestKey(id string) string {
	return fmt.Sprintf("snapshots/%s/manifest.json", id)
}

func (s *snapshotService) Create(ctx context.Context, sessionID string) (*models.CreateSnapshotResponseBody, error) {
	frame, ok := s.frames.Latest()
	if !ok {
		return nil, pipeline.ErrNoFrame
	}

	id := uuid.New().String()
	body := &models.CreateSnapshotResponseBody{
		ID:        id,
		Seq:       frame.Seq,
		Theme:     frame.Theme.String(),
		ExpiresIn: int(storage.DownloadURLExpiry.Seconds()),
		CreatedAt: s.now(),
	}

	manifest := models.SnapshotManifest{
		ID:        id,
		SessionID: sessionID,
		Seq:       frame.Seq,
		Theme:     frame.Theme.String(),
		Left:      ChannelLevel(frame.Levels.Left),
		Right:     ChannelLevel(frame.Levels.Right),
		CreatedAt: body.CreatedAt,
	}

	var uploaded []string
	upload := func(key string, data []byte, contentType string) error {
		if err := s.store.UploadFile(ctx, key, data, contentType); err != nil {
			return err
		}
		uploaded = append(uploaded, key)
		return nil
	}

	for _, view := range pipeline.Views {
		img := frame.Image(view)
		if img == nil {
			s.discard(ctx, id, uploaded)
			return nil, fmt.Errorf("%w: %s missing from frame %d", pipeline.ErrNoFrame, view, frame.Seq)
		}
		data, err := render.EncodePNG(img)
		if err != nil {
			s.discard(ctx, id, uploaded)
			return nil, fmt.Errorf("failed to encode %s: %w", view, err)
		}

		key := SnapshotKey(id, view)
		if err := upload(key, data, "image/png"); err != nil {
			s.discard(ctx, id, uploaded)
			return nil, err
		}

		url, err := s.store.GenerateDownloadURL(ctx, key)
		if err != nil {
			s.discard(ctx, id, uploaded)
			return nil, err
		}

		body.Files = append(body.Files, models.SnapshotFile{View: string(view), Key: key, DownloadURL: url})
		manifest.Keys = append(manifest.Keys, key)
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		s.discard(ctx, id, uploaded)
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := upload(ManifestKey(id), data, "application/json"); err != nil {
		s.discard(ctx, id, uploaded)
		return nil, err
	}

	log.Info().Str("snapshot_id", id).Uint64("seq", frame.Seq).Msg("Snapshot stored")
	return body, nil
}

// discard removes the objects of a snapshot that failed part way. Delete
// errors are logged and dropped.
func (s *snapshotService) discard(ctx context.Context, id string, keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	for _, key := range keys {
		if err := s.store.DeleteFile(ctx, key); err != nil {
			log.Warn().Err(err).Str("snapshot_id", id).Str("key", key).Msg("Failed to remove partial snapshot object")
		}
	}
}

// ChannelLevel converts a meter reading to its API form.
func ChannelLevel(r meter.Reading) models.ChannelLevel {
	return models.ChannelLevel{RMS: r.RMS, DB: r.DB, Percent: r.Percent, Label: r.Label}
}
