package kiosk

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

// Registry holds the sessions of every kiosk browser served by the process.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg       Config
	clock     clock.WithDelayedExecution
	submitter Submitter
	metrics   *Metrics
	logger    *slog.Logger
}

func NewRegistry(
	cfg Config,
	clk clock.WithDelayedExecution,
	submitter Submitter,
	metrics *Metrics,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		mu:        sync.Mutex{},
		sessions:  map[string]*Session{},
		cfg:       cfg,
		clock:     clk,
		submitter: submitter,
		metrics:   metrics,
		logger:    logger,
	}
}

// Get returns the session with id, opening a fresh one under a new id if id is unknown.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	id = uuid.NewString()
	s := NewSession(id, r.cfg, r.clock, r.submitter, r.metrics, r.logger)
	r.sessions[id] = s
	return s
}

// Lookup returns the session with id. Unlike Get it never opens a session.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EvictIdle closes sessions without input for longer than maxIdle, and pristine sessions without input for longer
// than pristineMaxIdle. It returns how many were closed.
func (r *Registry) EvictIdle(maxIdle, pristineMaxIdle time.Duration) int {
	now := r.clock.Now()
	var idle []*Session
	r.mu.Lock()
	for id, s := range r.sessions {
		idleFor := now.Sub(s.LastSeen())
		if idleFor > maxIdle || (s.Pristine() && idleFor > pristineMaxIdle) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

// StartJanitor runs EvictIdle every interval until ctx is cancelled. It blocks, so run it in a goroutine.
func (r *Registry) StartJanitor(ctx context.Context, interval, maxIdle, pristineMaxIdle time.Duration) {
	ticker := r.clock.NewTimer(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if n := r.EvictIdle(maxIdle, pristineMaxIdle); n > 0 {
				r.logger.LogAttrs(ctx, slog.LevelInfo, "evicted idle kiosk sessions", slog.Int("count", n))
			}
			ticker.Reset(interval)
		}
	}
}

// Close tears down every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[string]*Session{}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
