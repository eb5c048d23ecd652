package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/playperu/memorama/internal/game"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrTooManySessions = errors.New("too many sessions")
	ErrClosed          = errors.New("registry closed")
)

type entry struct {
	session  *game.Session
	lastSeen atomic.Int64
}

// Registry owns the running game sessions. Each session publishes its
// events to the broker under its own ID.
type Registry struct {
	opts   game.Options
	broker *Broker
	logger *slog.Logger
	clock  clock.Clock
	max    int

	mu       sync.RWMutex
	sessions map[string]*entry
	closed   bool
}

// NewRegistry creates a registry that builds sessions from opts. opts.Rand,
// opts.Logger and opts.Notify are set per session; maxSessions <= 0 means no limit.
func NewRegistry(opts game.Options, broker *Broker, logger *slog.Logger, maxSessions int) *Registry {
	c := opts.Clock
	if c == nil {
		c = clock.New()
		opts.Clock = c
	}
	return &Registry{
		opts:     opts,
		broker:   broker,
		logger:   logger,
		clock:    c,
		max:      maxSessions,
		sessions: make(map[string]*entry),
	}
}

// Create builds and starts a new session.
func (r *Registry) Create() (string, *game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", nil, ErrClosed
	}
	if r.max > 0 && len(r.sessions) >= r.max {
		return "", nil, ErrTooManySessions
	}

	id := uuid.NewString()
	opts := r.opts
	opts.Rand = nil
	opts.Logger = r.logger.With("game_id", id)
	opts.Notify = func(e game.Event) { r.broker.Publish(id, e) }

	s, err := game.New(opts)
	if err != nil {
		return "", nil, fmt.Errorf("creating session: %w", err)
	}

	e := &entry{session: s}
	e.lastSeen.Store(r.clock.Now().UnixNano())
	r.sessions[id] = e
	s.Start()

	r.logger.Info("game created", "game_id", id, "sessions", len(r.sessions))
	return id, s, nil
}

// Get returns the session and marks it as recently used.
func (r *Registry) Get(id string) (*game.Session, error) {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	e.lastSeen.Store(r.clock.Now().UnixNano())
	return e.session, nil
}

// Touch marks the session as in use without returning it.
func (r *Registry) Touch(id string) {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		e.lastSeen.Store(r.clock.Now().UnixNano())
	}
}

// Remove stops the session and forgets it.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.session.Stop()
	r.logger.Info("game removed", "game_id", id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Check implements health.Checker.
func (r *Registry) Check(_ context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}
	return nil
}

// Reap stops sessions idle for longer than ttl, checking every interval,
// until ctx is done. A session with an open event stream is never idle.
func (r *Registry) Reap(ctx context.Context, ttl, interval time.Duration) error {
	ticker := r.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.reapIdle(ttl); n > 0 {
				r.logger.Info("reaped idle games", "count", n)
			}
		}
	}
}

func (r *Registry) reapIdle(ttl time.Duration) int {
	cutoff := r.clock.Now().Add(-ttl).UnixNano()

	r.mu.Lock()
	var idle []*game.Session
	for id, e := range r.sessions {
		if e.lastSeen.Load() < cutoff && r.broker.Subscribers(id) == 0 {
			idle = append(idle, e.session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Stop()
	}
	return len(idle)
}

// Close stops every session. Create fails afterwards.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for id, e := range r.sessions {
		e.session.Stop()
		delete(r.sessions, id)
	}
	return nil
}
