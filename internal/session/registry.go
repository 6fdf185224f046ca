package session

import (
	"context"
	"sync"
	"time"

	"github.com/tulisan/ocr-uploader/internal/logging"
	"github.com/tulisan/ocr-uploader/internal/uploader"
)

// Factory builds the Uploader for a new session
type Factory func(sessionID string) *uploader.Uploader

type entry struct {
	uploader *uploader.Uploader
	lastSeen time.Time
}

// Registry keeps one Uploader per browser session in memory. Idle sessions are
// evicted during lookups.
type Registry struct {
	factory     Factory
	idleTimeout time.Duration
	log         *logging.Logger
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates an empty registry
func NewRegistry(factory Factory, idleTimeout time.Duration, log *logging.Logger) *Registry {
	if log == nil {
		log = logging.Discard()
	}
	return &Registry{
		factory:     factory,
		idleTimeout: idleTimeout,
		log:         log,
		now:         time.Now,
		sessions:    make(map[string]*entry),
	}
}

// Get returns the Uploader for sessionID, creating it on first use
func (r *Registry) Get(ctx context.Context, sessionID string) *uploader.Uploader {
	now := r.now()

	r.mu.Lock()
	evicted := r.evictLocked(now, sessionID)
	e, ok := r.sessions[sessionID]
	if !ok {
		e = &entry{uploader: r.factory(sessionID)}
		r.sessions[sessionID] = e
		r.log.Debug("Session created", "session", sessionID)
	}
	e.lastSeen = now
	r.mu.Unlock()

	for _, u := range evicted {
		u.Close(ctx)
	}
	return e.uploader
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close releases every session
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	all := make([]*uploader.Uploader, 0, len(r.sessions))
	for id, e := range r.sessions {
		all = append(all, e.uploader)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, u := range all {
		u.Close(ctx)
	}
}

func (r *Registry) evictLocked(now time.Time, keep string) []*uploader.Uploader {
	var evicted []*uploader.Uploader
	for id, e := range r.sessions {
		if id == keep {
			continue
		}
		if now.Sub(e.lastSeen) > r.idleTimeout {
			evicted = append(evicted, e.uploader)
			delete(r.sessions, id)
			r.log.Info("Session evicted", "session", id, "idle", now.Sub(e.lastSeen).Round(time.Second))
		}
	}
	return evicted
}
