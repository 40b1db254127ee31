package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/codementor-ai/codementor/internal/event"
	"github.com/codementor-ai/codementor/internal/logging"
	"github.com/codementor-ai/codementor/pkg/types"
)

// JanitorInterval is how often the registry sweeps for idle sessions.
const JanitorInterval = time.Minute

// Registry holds all live sessions. Sessions exist only in memory; a
// restart starts from an empty registry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	idleTimeout time.Duration
	log         zerolog.Logger
}

// NewRegistry creates a session registry. Sessions idle for longer than
// idleTimeout are evicted by the janitor; a zero timeout disables eviction.
func NewRegistry(idleTimeout time.Duration) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
		log:         logging.Component("registry"),
	}
}

// Create registers a new session and returns it.
func (r *Registry) Create(problem, language, skillLevel, model string) *Session {
	sess := newSession(ulid.Make().String(), problem, language, skillLevel, model)

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	event.Publish(event.Event{
		Type: event.SessionCreated,
		Data: event.SessionCreatedData{Info: sess.Info()},
	})
	return sess
}

// Get returns the session for id, refreshing its activity timestamp.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.Touch()
	return sess, nil
}

// Delete removes a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	event.Publish(event.Event{
		Type: event.SessionDeleted,
		Data: event.SessionDeletedData{SessionID: id, Reason: "deleted"},
	})
	return nil
}

// List returns snapshots of all sessions, newest first.
func (r *Registry) List() []*types.SessionInfo {
	r.mu.RLock()
	infos := make([]*types.SessionInfo, 0, len(r.sessions))
	for _, sess := range r.sessions {
		infos = append(infos, sess.Info())
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Time.Created > infos[j].Time.Created
	})
	return infos
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StartJanitor runs the idle-eviction loop until ctx is cancelled.
func (r *Registry) StartJanitor(ctx context.Context) {
	if r.idleTimeout <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(JanitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.evictIdle()
			}
		}
	}()
}

// evictIdle removes sessions whose last activity is older than the idle
// timeout. Sessions with a streamed reply in flight are skipped.
func (r *Registry) evictIdle() {
	deadline := time.Now().Add(-r.idleTimeout).UnixMilli()

	r.mu.Lock()
	var evicted []string
	for id, sess := range r.sessions {
		if sess.Streaming() {
			continue
		}
		if sess.LastActive() < deadline {
			delete(r.sessions, id)
			evicted = append(evicted, id)
		}
	}
	r.mu.Unlock()

	for _, id := range evicted {
		r.log.Info().Str("sessionID", id).Msg("evicted idle session")
		event.Publish(event.Event{
			Type: event.SessionDeleted,
			Data: event.SessionDeletedData{SessionID: id, Reason: "idle"},
		})
	}
}
