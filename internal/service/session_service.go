package service

import (
	"errors"
	"log/slog"

	"github.com/niarxxi/webmusic/internal/domain"
	"github.com/niarxxi/webmusic/internal/ports"
)

// SessionService persists the surviving subset of state across sessions:
// the selected category, the playlists, and the active-playlist pointer.
// The catalog, the current song, and the play/shuffle/loop flags reset
// every session by design.
//
// At startup Load restores the persisted snapshot (falling back to defaults
// when nothing was stored or the stored state cannot be parsed — a broken
// snapshot must never block startup). Afterwards the service subscribes to
// every mutation of persisted state and writes the combined snapshot
// synchronously on each one.
type SessionService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.StateRepository
	player     *PlayerService
	playlists  *PlaylistService
	bus        ports.EventBus

	// Event subscriptions
	subs []domain.SubscriptionID
}

// NewSessionService creates a session service. Call Start to restore state
// and begin persisting.
func NewSessionService(
	logger *slog.Logger,
	repository ports.StateRepository,
	player *PlayerService,
	playlists *PlaylistService,
	bus ports.EventBus,
) *SessionService {
	return &SessionService{
		logger:     logger,
		repository: repository,
		player:     player,
		playlists:  playlists,
		bus:        bus,
	}
}

// Start restores the persisted snapshot and subscribes to state mutations.
func (s *SessionService) Start() {
	snapshot, err := s.repository.Load()
	if err != nil {
		if !errors.Is(err, domain.ErrNoSnapshot) {
			s.logger.Warn("persisted state unusable, falling back to defaults",
				slog.Any("error", err))
		}
		snapshot = domain.DefaultSnapshot()
	}
	snapshot = snapshot.Normalize()

	s.playlists.Restore(snapshot.Playlists)
	s.player.RestoreFilters(snapshot.SelectedCategory, snapshot.ActivePlaylist)

	// Every event that mutates persisted state triggers a save.
	persisted := []domain.EventType{
		domain.EventCategoryChanged,
		domain.EventActivePlaylistChanged,
		domain.EventPlaylistCreated,
		domain.EventPlaylistRenamed,
		domain.EventPlaylistDeleted,
		domain.EventPlaylistSongsChanged,
	}
	for _, eventType := range persisted {
		s.subs = append(s.subs, s.bus.Subscribe(eventType, s.handleMutation))
	}

	s.logger.Info("session restored",
		slog.String("category", snapshot.SelectedCategory),
		slog.Int("playlists", len(snapshot.Playlists)))
}

// Snapshot assembles the current persistable state.
func (s *SessionService) Snapshot() domain.StateSnapshot {
	return domain.StateSnapshot{
		SelectedCategory: s.player.SelectedCategory(),
		Playlists:        s.playlists.All(),
		ActivePlaylist:   s.player.ActivePlaylist(),
	}
}

// handleMutation saves the combined snapshot. A failed save is logged and
// dropped: persistence failures never crash the session.
func (s *SessionService) handleMutation(domain.Event) {
	if err := s.repository.Save(s.Snapshot()); err != nil {
		s.logger.Warn("failed to persist state", slog.Any("error", err))
	}
}

// Shutdown unsubscribes and writes a final snapshot.
func (s *SessionService) Shutdown() error {
	for _, sub := range s.subs {
		s.bus.Unsubscribe(sub)
	}
	s.subs = nil

	return s.repository.Save(s.Snapshot())
}
