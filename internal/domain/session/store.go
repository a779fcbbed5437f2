package session

import (
	"context"
	"errors"
	"sync"

	"pawtastic/internal/platform/logger"
)

var ErrAlreadyAttached = errors.New("session: store already has a writer")

// Store guarda {session, loading} para todo el proceso. Tiene un solo
// escritor (Attach) y muchos lectores, que reciben copias.
type Store struct {
	log logger.Logger

	// pubMu serializa publicaciones y altas de suscriptores.
	pubMu sync.Mutex

	mu       sync.RWMutex
	state    State
	attached bool
	closed   bool
	unsub    func()

	subs  map[int]func(State)
	nextS int

	resolved     chan struct{}
	resolvedOnce sync.Once
}

func NewStore(log logger.Logger) *Store {
	return &Store{
		log:      logger.OrNop(log).With(map[string]any{"component": "session"}),
		state:    State{Session: Anonymous(), Loading: true},
		subs:     make(map[int]func(State)),
		resolved: make(chan struct{}),
	}
}

// Attach conecta al escritor. Un segundo Attach devuelve ErrAlreadyAttached.
func (s *Store) Attach(src Source) error {
	s.mu.Lock()
	if s.attached {
		s.mu.Unlock()
		return ErrAlreadyAttached
	}
	s.attached = true
	s.mu.Unlock()

	unsub := src.OnAuthStateChange(s.set)

	s.mu.Lock()
	s.unsub = unsub
	closed := s.closed
	s.mu.Unlock()

	if closed {
		unsub()
	}
	return nil
}

func (s *Store) set(sess Session) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	next := State{Session: sess, Loading: false}
	if next == s.state {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = next
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	s.resolvedOnce.Do(func() { close(s.resolved) })

	s.log.Debug("session changed", map[string]any{
		"from_user": prev.Session.UserID,
		"to_user":   next.Session.UserID,
		"loading":   prev.Loading,
	})

	for _, fn := range fns {
		fn(next)
	}
}

// Snapshot devuelve el estado actual (por valor).
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe invoca fn con el estado actual y luego en cada cambio.
// fn no debe bloquear.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	id := s.nextS
	s.nextS++
	s.subs[id] = fn
	cur := s.state
	s.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Wait bloquea hasta la primera resolución de auth (Loading=false).
func (s *Store) Wait(ctx context.Context) (State, error) {
	select {
	case <-s.resolved:
		return s.Snapshot(), nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

// Close suelta al escritor. Se usa solo al apagar el proceso.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsub := s.unsub
	s.subs = make(map[int]func(State))
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
