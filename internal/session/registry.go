package session

import (
	"errors"
	"log"
	"sync"

	"foxgrep/internal/domain"
	"foxgrep/internal/eventbus"
	"foxgrep/internal/render"
)

// ErrNoSession is returned when a handle does not name a live session.
var ErrNoSession = errors.New("no such session")

// DoneFunc is invoked exactly once per session with its terminal status.
type DoneFunc func(status domain.SearchStatus, err error)

// Session holds the per-search state: the query that opened it, its
// renderer (display lines + navigation index) and terminal status.
type Session struct {
	ID       domain.SessionID
	Query    domain.Query
	Renderer *render.Renderer

	mu     sync.Mutex
	status domain.SearchStatus
	onDone DoneFunc
	done   bool
}

// Status returns the session's current status.
func (s *Session) Status() domain.SearchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// finish records the terminal status and fires the completion callback
// once. Later terminal events for the same session are ignored.
func (s *Session) finish(status domain.SearchStatus, err error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.status = status
	cb := s.onDone
	s.mu.Unlock()

	s.Renderer.Finish()
	if cb != nil {
		cb(status, err)
	}
}

// Registry is the process-wide session table: an explicit mapping from
// session handle to renderer state, with lifecycle tied to Open/Close.
// With the reuse policy enabled a single shared session slot is reset
// and handed out again instead of growing the table per search.
type Registry struct {
	mu          sync.Mutex
	bus         eventbus.EventBus
	sessions    map[domain.SessionID]*Session
	order       []domain.SessionID // open order, for CloseOthers and views
	nextID      domain.SessionID
	reuseBuffer bool
	shared      domain.SessionID // live shared slot when reuseBuffer is on, 0 if none
}

// NewRegistry creates a session registry. With reuseBuffer enabled,
// Open reuses one shared display slot; otherwise every search gets its
// own session.
func NewRegistry(bus eventbus.EventBus, reuseBuffer bool) *Registry {
	r := &Registry{
		bus:         bus,
		sessions:    make(map[domain.SessionID]*Session),
		nextID:      1,
		reuseBuffer: reuseBuffer,
	}

	// Terminal events settle the owning session's status.
	bus.Subscribe(eventbus.EventSearchCompleted, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.SearchCompletedEvent); ok {
			if s := r.Get(ev.Session); s != nil {
				s.finish(domain.SearchDone, nil)
			}
		}
	})
	bus.Subscribe(eventbus.EventSearchFailed, func(e eventbus.DomainEvent) {
		if ev, ok := e.(eventbus.SearchFailedEvent); ok {
			if s := r.Get(ev.Session); s != nil {
				s.finish(domain.SearchFailed, ev.Err)
			}
		}
	})

	return r
}

// Open starts a new search session for the query and requests the
// backend run. The returned handle stays valid until Close. onDone may
// be nil.
func (r *Registry) Open(q domain.Query, onDone DoneFunc) *Session {
	r.mu.Lock()

	var s *Session
	if r.reuseBuffer && r.shared != 0 {
		// Reuse the shared slot: same handle, prior index discarded.
		s = r.sessions[r.shared]
		s.Renderer.Reset()
		s.mu.Lock()
		s.Query = q
		s.status = domain.SearchRunning
		s.onDone = onDone
		s.done = false
		s.mu.Unlock()
	} else {
		s = &Session{
			ID:       r.nextID,
			Query:    q,
			Renderer: render.NewRenderer(),
			status:   domain.SearchRunning,
			onDone:   onDone,
		}
		r.nextID++
		r.sessions[s.ID] = s
		r.order = append(r.order, s.ID)
		if r.reuseBuffer {
			r.shared = s.ID
		}
	}
	r.mu.Unlock()

	log.Printf("Session %d: searching %q (regexp=%v path=%q)", s.ID, q.Text, q.IsRegex, q.PathGlob)
	r.bus.Publish(eventbus.SearchRequestedEvent{Session: s.ID, Query: q})
	return s
}

// Get returns the session for a handle, or nil.
func (r *Registry) Get(id domain.SessionID) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// Feed routes one raw stream chunk to the owning session's renderer.
// Returns ErrNoSession if the session was closed mid-stream.
func (r *Registry) Feed(id domain.SessionID, chunk []byte) error {
	s := r.Get(id)
	if s == nil {
		return ErrNoSession
	}
	s.Renderer.Feed(chunk)
	return nil
}

// Next steps the session's navigation cursor forward.
func (r *Registry) Next(id domain.SessionID) (domain.Location, error) {
	s := r.Get(id)
	if s == nil {
		return domain.Location{}, ErrNoSession
	}
	return s.Renderer.Next()
}

// Previous steps the session's navigation cursor backward.
func (r *Registry) Previous(id domain.SessionID) (domain.Location, error) {
	s := r.Get(id)
	if s == nil {
		return domain.Location{}, ErrNoSession
	}
	return s.Renderer.Previous()
}

// Close removes one session from the registry.
func (r *Registry) Close(id domain.SessionID) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return ErrNoSession
	}
	delete(r.sessions, id)
	r.removeFromOrder(id)
	if r.shared == id {
		r.shared = 0
	}
	r.mu.Unlock()

	s.finish(domain.SearchFailed, errors.New("session closed"))
	r.bus.Publish(eventbus.SessionClosedEvent{Session: id})
	return nil
}

// CloseAll removes every session.
func (r *Registry) CloseAll() {
	for _, id := range r.List() {
		_ = r.Close(id)
	}
}

// CloseOthers removes every session except the given one.
func (r *Registry) CloseOthers(keep domain.SessionID) {
	for _, id := range r.List() {
		if id != keep {
			_ = r.Close(id)
		}
	}
}

// List returns the open session handles in open order.
func (r *Registry) List() []domain.SessionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.SessionID, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) removeFromOrder(id domain.SessionID) {
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
