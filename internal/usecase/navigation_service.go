package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gradecard/backend/internal/domain"
	"github.com/gradecard/backend/internal/logger"
)

const ackMessage = "ACK"

// NavigationConfig holds configuration for the navigation service
type NavigationConfig struct {
	RerunDelay time.Duration
	SessionTTL time.Duration
}

// binding ties an in-flight resolution to the epoch it started in
type binding struct {
	id     uint64
	epoch  uint64
	cancel context.CancelFunc
}

// NavigationService decides when a client-side navigation needs a new
// resolution, and cancels resolutions started for a page the user has left.
type NavigationService struct {
	sessions   domain.SessionRepository
	adapters   domain.PageAdapters
	rerunDelay time.Duration
	sessionTTL time.Duration
	log        *logger.Logger

	mu       sync.Mutex
	inflight map[string][]binding
	nextID   uint64
}

// NewNavigationService creates a new navigation service
func NewNavigationService(
	sessions domain.SessionRepository,
	adapters domain.PageAdapters,
	config NavigationConfig,
	log *logger.Logger,
) *NavigationService {
	delay := config.RerunDelay
	if delay < 0 {
		delay = 0
	}
	ttl := config.SessionTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if log == nil {
		log = logger.Discard()
	}

	return &NavigationService{
		sessions:   sessions,
		adapters:   adapters,
		rerunDelay: delay,
		sessionTTL: ttl,
		log:        log.With("component", "navigation"),
		inflight:   make(map[string][]binding),
	}
}

// Notify handles a page navigation in a session. The decision is always
// acknowledged; it asks for a rerun only when the restaurant changed.
func (s *NavigationService) Notify(ctx context.Context, sessionID, pageURL string) (*domain.NavigationDecision, error) {
	if sessionID == "" || pageURL == "" {
		return nil, domain.ErrInvalidRequest
	}

	// Pages on unsupported sites are acknowledged without touching the session.
	key, ok, err := s.adapters.RestaurantKey(pageURL)
	if errors.Is(err, domain.ErrUnsupportedSite) {
		return &domain.NavigationDecision{Message: ackMessage}, nil
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	decision := &domain.NavigationDecision{Message: ackMessage, Epoch: session.Epoch}
	if !ok || key == session.RestaurantKey {
		return decision, nil
	}

	session.RestaurantKey = key
	session.Epoch++
	if err := s.sessions.Save(ctx, session, s.sessionTTL); err != nil {
		return nil, err
	}
	s.cancelBefore(sessionID, session.Epoch)

	s.log.Info("restaurant changed", "session", sessionID, "key", key, "epoch", session.Epoch)

	decision.Rerun = true
	decision.DelayMs = s.rerunDelay.Milliseconds()
	decision.Epoch = session.Epoch
	return decision, nil
}

// Begin binds a resolution to the session's current epoch. The returned
// context is cancelled when the session moves to a new restaurant; release
// must be called when the resolution finishes. pageURL may be empty; when it
// names a restaurant and the session has none yet, it seeds the session.
func (s *NavigationService) Begin(ctx context.Context, sessionID, pageURL string) (context.Context, uint64, func(), error) {
	if sessionID == "" {
		return ctx, 0, func() {}, nil
	}

	var key string
	if pageURL != "" {
		if k, ok, err := s.adapters.RestaurantKey(pageURL); err == nil && ok {
			key = k
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, 0, nil, err
	}
	if session.RestaurantKey == "" {
		session.RestaurantKey = key
	}
	if err := s.sessions.Save(ctx, session, s.sessionTTL); err != nil {
		return nil, 0, nil, err
	}

	bound, cancel := context.WithCancel(ctx)
	s.nextID++
	id := s.nextID
	s.inflight[sessionID] = append(s.inflight[sessionID], binding{id: id, epoch: session.Epoch, cancel: cancel})

	release := func() {
		cancel()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.remove(sessionID, id)
	}
	return bound, session.Epoch, release, nil
}

// IsCurrent reports whether epoch is still the session's epoch. Sessions that
// expired in the meantime have not moved on, so they count as current.
func (s *NavigationService) IsCurrent(ctx context.Context, sessionID string, epoch uint64) bool {
	if sessionID == "" {
		return true
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return true
	}
	return session.Epoch == epoch
}

// InFlight returns the number of resolutions bound to a session
func (s *NavigationService) InFlight(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight[sessionID])
}

// loadSession returns the stored session or a fresh one. Callers hold s.mu.
func (s *NavigationService) loadSession(ctx context.Context, sessionID string) (*domain.NavigationSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return &domain.NavigationSession{ID: sessionID}, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// cancelBefore cancels resolutions bound to an older epoch. Callers hold s.mu.
func (s *NavigationService) cancelBefore(sessionID string, epoch uint64) {
	kept := s.inflight[sessionID][:0]
	for _, b := range s.inflight[sessionID] {
		if b.epoch < epoch {
			b.cancel()
			continue
		}
		kept = append(kept, b)
	}
	if len(kept) == 0 {
		delete(s.inflight, sessionID)
		return
	}
	s.inflight[sessionID] = kept
}

// remove drops a finished binding. Callers hold s.mu.
func (s *NavigationService) remove(sessionID string, id uint64) {
	bindings := s.inflight[sessionID]
	for i, b := range bindings {
		if b.id == id {
			s.inflight[sessionID] = append(bindings[:i], bindings[i+1:]...)
			break
		}
	}
	if len(s.inflight[sessionID]) == 0 {
		delete(s.inflight, sessionID)
	}
}
