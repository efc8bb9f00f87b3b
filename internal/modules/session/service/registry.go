package service

import (
	"context"
	"log"
	"sync"
	"time"

	"anoa.com/feedsync/internal/auth"
	interaction "anoa.com/feedsync/internal/modules/interaction/service"
	trending "anoa.com/feedsync/internal/modules/trending/service"
	"github.com/google/uuid"
)

const DefaultIdleTimeout = 30 * time.Minute

// Registry keeps one session per signed-in viewer. Anonymous connections get
// a private session that ends with its last connection.
type Registry struct {
	deps        Deps
	idleTimeout time.Duration
	ctx         context.Context
	cancel      context.CancelFunc

	// anonymous serves REST reads for viewers without a session.
	anonymous *interaction.Controller

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	trending []trending.Tag
	closed   bool
}

func NewRegistry(deps Deps, idleTimeout time.Duration) *Registry {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		deps:        deps,
		idleTimeout: idleTimeout,
		ctx:         ctx,
		cancel:      cancel,
		anonymous:   deps.NewController(),
		sessions:    make(map[uuid.UUID]*Session),
	}
}

// Attach connects to the viewer's session, starting it when needed.
func (r *Registry) Attach(viewer auth.Viewer) (*Conn, error) {
	if !viewer.Authenticated() {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return nil, ErrSessionClosed
		}
		tags := r.trending
		r.mu.Unlock()

		s, err := newSession(viewer, r.deps, tags, true)
		if err != nil {
			return nil, err
		}
		conn := s.Connect()
		s.start(r.ctx)
		return conn, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.sessionLocked(viewer)
	if err != nil {
		return nil, err
	}
	return s.Connect(), nil
}

func (r *Registry) sessionLocked(viewer auth.Viewer) (*Session, error) {
	if r.closed {
		return nil, ErrSessionClosed
	}
	if s, ok := r.sessions[viewer.UserID]; ok {
		return s, nil
	}

	s, err := newSession(viewer, r.deps, r.trending, false)
	if err != nil {
		return nil, err
	}
	s.start(r.ctx)
	r.sessions[viewer.UserID] = s
	return s, nil
}

// Interactions returns the controller holding the viewer's optimistic state,
// so REST writes and socket intents share one cache.
func (r *Registry) Interactions(viewer auth.Viewer) (*interaction.Controller, error) {
	if !viewer.Authenticated() {
		return r.anonymous, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, err := r.sessionLocked(viewer)
	if err != nil {
		return nil, err
	}
	s.touch()
	return s.Controller(), nil
}

// End stops the viewer's session, if any.
func (r *Registry) End(viewer auth.Viewer) {
	r.mu.Lock()
	s, ok := r.sessions[viewer.UserID]
	delete(r.sessions, viewer.UserID)
	r.mu.Unlock()

	if ok {
		s.End()
	}
}

// Sweep ends sessions with no connection that were idle longer than the
// idle timeout, and returns how many it ended.
func (r *Registry) Sweep() int {
	cutoff := time.Now().Add(-r.idleTimeout)

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.idle(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.End()
	}
	return len(idle)
}

// RefreshTrending recomputes the trending tags once and hands them to every
// live session.
func (r *Registry) RefreshTrending(ctx context.Context) error {
	tags, err := r.deps.Trending.Top(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.trending = tags
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.SetTrending(tags)
	}
	return nil
}

// Len reports the number of signed-in sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close ends every session.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.End()
	}
	r.cancel()
	log.Printf("🛑 ended %d sessions", len(sessions))
}
