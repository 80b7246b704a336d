// Package session owns the cart of every active shopper session.
//
// Each session has exactly one cart.Store. All access to it goes through the
// Manager, which runs callers one at a time per session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/search"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// CleanupInterval is how often idle sessions are looked for.
	CleanupInterval = 30 * time.Second

	cacheReadTimeout  = time.Second
	cacheWriteTimeout = time.Second
)

// ErrUnavailable is returned when a session that is not in memory cannot be
// restored because the cache failed. The session is not created, so the
// cached snapshot is left untouched.
var ErrUnavailable = errors.New("session unavailable")

type session struct {
	mu       sync.Mutex
	cart     *cart.Store
	searches *search.Tracker
	lastSeen time.Time // guarded by Manager.mu
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	cache   cache.CartCache
	sfg     singleflight.Group // Prevents concurrent restores of one session
	idleTTL time.Duration
	now     func() time.Time
	log     *zap.Logger

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewManager starts a manager that forgets sessions idle for longer than idleTTL.
func NewManager(c cache.CartCache, idleTTL time.Duration, log *zap.Logger) *Manager {
	if c == nil {
		c = cache.NoopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		sessions:    make(map[string]*session),
		cache:       c,
		idleTTL:     idleTTL,
		now:         time.Now,
		log:         log,
		stopCleanup: make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

// View runs fn with read access to the session's cart.
func (m *Manager) View(ctx context.Context, sessionID string, fn func(*cart.Store)) error {
	s, err := m.get(ctx, sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.cart)
	return nil
}

// Mutate runs fn against the session's cart and then refreshes the cached
// snapshot. Cache failures are logged, the in-memory cart stays authoritative.
func (m *Manager) Mutate(ctx context.Context, sessionID string, fn func(*cart.Store)) error {
	s, err := m.get(ctx, sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.cart)

	snapshot := s.cart.Snapshot()
	cacheCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	defer cancel()
	if err := m.cache.Set(cacheCtx, sessionID, &snapshot); err != nil {
		m.log.Warn("cache set failed", zap.String("session_id", sessionID), zap.Error(err))
	}
	return nil
}

// Searches returns the search tracker of the session.
func (m *Manager) Searches(ctx context.Context, sessionID string) (*search.Tracker, error) {
	s, err := m.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.searches, nil
}

// End forgets the session and drops its cached snapshot.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if ok {
		s.searches.Stop()
	}
	return m.cache.Delete(ctx, sessionID)
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops the background cleanup and waits for it to finish.
func (m *Manager) Close() {
	close(m.stopCleanup)
	m.wg.Wait()
}

func (m *Manager) lookup(sessionID string) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if ok {
		s.lastSeen = m.now()
	}
	return s, ok
}

// get returns the in-memory session, restoring it from the cache when it is
// not loaded. Only a cache miss yields a new empty cart.
func (m *Manager) get(ctx context.Context, sessionID string) (*session, error) {
	if s, ok := m.lookup(sessionID); ok {
		return s, nil
	}

	// The restore is shared by every waiter, so it must not die with the
	// first caller's request.
	restoreCtx := context.WithoutCancel(ctx)

	v, err, _ := m.sfg.Do(sessionID, func() (interface{}, error) {
		if s, ok := m.lookup(sessionID); ok {
			return s, nil
		}

		getCtx, cancel := context.WithTimeout(restoreCtx, cacheReadTimeout)
		defer cancel()

		s := &session{cart: cart.NewStore(), searches: search.NewTracker()}
		state, err := m.cache.Get(getCtx, sessionID)
		switch {
		case err == nil:
			s.cart.Restore(*state)
		case errors.Is(err, cache.ErrCacheMiss):
		default:
			m.log.Warn("cache get failed", zap.String("session_id", sessionID), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		s.lastSeen = m.now()
		m.sessions[sessionID] = s
		return s, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*session), nil
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.expireIdle()
		case <-m.stopCleanup:
			return
		}
	}
}

// expireIdle drops sessions not used within idleTTL. Their cached snapshot
// is left to expire on its own TTL.
func (m *Manager) expireIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.idleTTL)
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			s.searches.Stop()
			delete(m.sessions, id)
			m.log.Debug("session expired", zap.String("session_id", id))
		}
	}
}
