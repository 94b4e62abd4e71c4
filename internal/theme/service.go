package theme

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/sonascope/internal/repository"
)

// Service holds the active theme and persists changes through a
// PreferenceRepository. Without a stored preference the system default
// applies.
type Service struct {
	repo         repository.PreferenceRepository
	systemPrefer Theme
	active       atomic.Int32

	// writes serializes changes so a toggle reads and stores atomically.
	writes sync.Mutex
}

// NewService creates a theme service; prefersDark is the system default used
// when nothing has been persisted yet.
func NewService(repo repository.PreferenceRepository, prefersDark bool) *Service {
	s := &Service{repo: repo, systemPrefer: FromDark(prefersDark)}
	s.active.Store(int32(s.systemPrefer))
	return s
}

// Load reads the persisted preference and makes it active.
func (s *Service) Load(ctx context.Context) (Theme, error) {
	s.writes.Lock()
	defer s.writes.Unlock()

	value, err := s.repo.Get(ctx, PreferenceKey)
	if errors.Is(err, repository.ErrPreferenceNotFound) {
		s.active.Store(int32(s.systemPrefer))
		return s.systemPrefer, nil
	}
	if err != nil {
		return s.Active(), fmt.Errorf("load theme: %w", err)
	}

	t, err := Parse(value)
	if err != nil {
		log.Warn().Str("value", value).Msg("Ignoring unknown persisted theme")
		t = s.systemPrefer
	}

	s.active.Store(int32(t))
	return t, nil
}

// Active returns the theme in effect without touching the repository.
func (s *Service) Active() Theme {
	return Theme(s.active.Load())
}

// Set persists t and makes it active.
func (s *Service) Set(ctx context.Context, t Theme) error {
	s.writes.Lock()
	defer s.writes.Unlock()
	return s.set(ctx, t)
}

func (s *Service) set(ctx context.Context, t Theme) error {
	if err := s.repo.Set(ctx, PreferenceKey, t.String()); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	s.active.Store(int32(t))
	log.Info().Str("theme", t.String()).Msg("Theme changed")
	return nil
}

// Toggle flips the active theme and persists the result.
func (s *Service) Toggle(ctx context.Context) (Theme, error) {
	s.writes.Lock()
	defer s.writes.Unlock()

	next := s.Active().Toggle()
	if err := s.set(ctx, next); err != nil {
		return s.Active(), err
	}
	return next, nil
}
