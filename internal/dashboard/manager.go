package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yegors/wx-dash/pkg/logger"
)

// ManagerConfig configures session lifetime
type ManagerConfig struct {
	IdleTimeout   time.Duration // Sessions idle longer are evicted; 0 disables eviction
	SweepInterval time.Duration
}

// Manager owns the live sessions keyed by session id
type Manager struct {
	config    Config
	lifetime  ManagerConfig
	fetcher   Fetcher
	prefs     Preferences
	publisher Publisher
	now       func() time.Time
	logger    *logger.Logger

	sessions map[string]*Session
	mu       sync.RWMutex

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	runMu   sync.Mutex
}

// NewManager creates a session manager
func NewManager(config Config, lifetime ManagerConfig, fetcher Fetcher, prefs Preferences, publisher Publisher, log *logger.Logger) *Manager {
	if lifetime.SweepInterval <= 0 {
		lifetime.SweepInterval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		config:    config,
		lifetime:  lifetime,
		fetcher:   fetcher,
		prefs:     prefs,
		publisher: publisher,
		now:       time.Now,
		logger:    log.Named("dashboard"),
		sessions:  make(map[string]*Session),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Context is cancelled when the manager stops. Work started outside a
// request (websocket messages) runs under it.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Get returns an existing session
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// GetOrCreate returns the session for id, creating it when missing. An id
// that is not a UUID is replaced by a fresh one; callers must use the
// returned session's ID.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s, false
	}

	s := NewSession(id, m.config, m.fetcher, m.prefs, m.publisher, m.now, m.logger)
	m.sessions[id] = s
	m.logger.Debug("Session created",
		logger.String("session_id", id),
		logger.Int("session_count", len(m.sessions)))
	return s, true
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Start begins the idle-session sweep
func (m *Manager) Start() error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.started || m.lifetime.IdleTimeout <= 0 {
		return nil
	}

	m.logger.Info("Starting session manager",
		logger.Duration("idle_timeout", m.lifetime.IdleTimeout),
		logger.Duration("sweep_interval", m.lifetime.SweepInterval))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.sweepLoop()
	}()

	m.started = true
	return nil
}

// Stop cancels in-flight session work and waits for the sweep to exit
func (m *Manager) Stop() error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	m.cancel()
	m.wg.Wait()

	if m.started {
		m.started = false
		m.logger.Info("Session manager stopped")
	}
	return nil
}

func (m *Manager) sweepLoop() {
	ticker := time.NewTicker(m.lifetime.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.EvictIdle(); n > 0 {
				m.logger.Info("Evicted idle sessions", logger.Int("count", n))
			}
		case <-m.ctx.Done():
			return
		}
	}
}

// EvictIdle drops sessions idle longer than the configured timeout. Stored
// preferences survive, so a returning browser gets its last search back.
func (m *Manager) EvictIdle() int {
	if m.lifetime.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.lifetime.IdleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}
