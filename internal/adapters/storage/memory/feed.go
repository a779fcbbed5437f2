package memory

import (
	"context"
	"sync"

	"pawtastic/internal/ports/backend"
)

// Subscribe registra un suscriptor para cambios de table que cumplan f.
// La suscripción vive hasta Close; ctx solo aplica al alta.
func (s *Store) Subscribe(ctx context.Context, table string, f backend.Filter) (backend.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sub := &subscription{
		store:  s,
		table:  table,
		filter: f,
		notify: make(chan struct{}, 1),
		out:    make(chan backend.ChangeEvent),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	go sub.run()
	return sub, nil
}

// Subscribers devuelve cuántas suscripciones siguen abiertas.
func (s *Store) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// publish asume s.mu tomado. Un update se entrega si la fila matchea antes
// o después del cambio, para que el suscriptor pueda sacarla de su lista.
func (s *Store) publish(table string, ev backend.ChangeEvent) {
	for sub := range s.subs {
		if sub.table != table {
			continue
		}
		if !ev.New.Matches(sub.filter) && !ev.Old.Matches(sub.filter) {
			continue
		}
		sub.push(ev)
	}
}

type subscription struct {
	store  *Store
	table  string
	filter backend.Filter

	mu     sync.Mutex
	queue  []backend.ChangeEvent
	closed bool

	notify chan struct{}
	out    chan backend.ChangeEvent
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Events() <-chan backend.ChangeEvent { return s.out }

func (s *subscription) Close() error {
	s.once.Do(func() {
		s.store.mu.Lock()
		delete(s.store.subs, s)
		s.store.mu.Unlock()

		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.mu.Unlock()

		close(s.done)
	})
	return nil
}

// push nunca bloquea al Store: encola y despierta al pump.
func (s *subscription) push(ev backend.ChangeEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscription) run() {
	defer close(s.out)

	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, ev := range batch {
			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}

		select {
		case <-s.notify:
		case <-s.done:
			return
		}
	}
}
