package chat

import (
	"context"
	"sync"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"parlance/services/chat-api/internal/domain/conversation"
	"parlance/services/chat-api/internal/domain/principal"
	"parlance/services/chat-api/internal/domain/provider"
	"parlance/services/chat-api/internal/infrastructure/metrics"
)

// DefaultSessionTTL is how long an untouched session survives before the
// janitor drops it.
const DefaultSessionTTL = 30 * time.Minute

// Manager maps principals to their live chat sessions. A session is
// created lazily on first use and invalidated when the principal changes
// or goes idle.
type Manager struct {
	store    conversation.Repository
	registry *provider.Registry
	log      zerolog.Logger
	ttl      time.Duration
	opts     []Option

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager builds a session manager over the shared store and registry.
func NewManager(store conversation.Repository, registry *provider.Registry, log zerolog.Logger, opts ...Option) *Manager {
	return &Manager{
		store:    store,
		registry: registry,
		log:      log,
		ttl:      DefaultSessionTTL,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// SetSessionTTL overrides how long an untouched session survives.
func (m *Manager) SetSessionTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	m.ttl = ttl
	m.mu.Unlock()
}

// Session returns the live session for the principal, loading history on
// first use.
func (m *Manager) Session(ctx context.Context, owner principal.Principal) (*Session, error) {
	if owner.ID == "" {
		return nil, AuthRequiredError{}
	}

	m.mu.Lock()
	if s, ok := m.sessions[owner.ID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	s, err := NewSession(ctx, owner, m.store, m.registry, m.log, m.opts...)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[owner.ID]; ok {
		// Lost the race; keep the first loaded session.
		s.Close()
		return existing, nil
	}
	m.sessions[owner.ID] = s
	metrics.SetActiveSessions(len(m.sessions))
	return s, nil
}

// Invalidate closes and forgets the principal's session. Any in-flight
// send for that principal discards its result on completion.
func (m *Manager) Invalidate(ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[ownerID]; ok {
		s.Close()
		delete(m.sessions, ownerID)
		metrics.SetActiveSessions(len(m.sessions))
	}
}

// Run schedules the idle-session janitor every minute and blocks until
// the context is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	ctab := crontab.New()
	if err := ctab.AddJob("* * * * *", m.prune); err != nil {
		return err
	}
	<-ctx.Done()
	ctab.Shutdown()
	return ctx.Err()
}

func (m *Manager) prune() {
	cutoff := time.Now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.IsTyping() {
			continue
		}
		if s.idleSince().Before(cutoff) {
			s.Close()
			delete(m.sessions, id)
			m.log.Debug().Str("owner", id).Msg("pruned idle chat session")
		}
	}
	metrics.SetActiveSessions(len(m.sessions))
}
