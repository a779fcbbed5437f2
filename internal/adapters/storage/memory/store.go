package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pawtastic/internal/ports/backend"

	"github.com/google/uuid"
)

var ErrDuplicateID = errors.New("duplicate id")

type entry struct {
	row backend.Row
	seq uint64
}

// Store es un backend de datos in-memory (DataAPI + ChangeFeed) para dev y tests.
// Los cambios se publican a los suscriptores en orden de commit.
type Store struct {
	mu     sync.RWMutex
	tables map[string]map[string]entry
	seq    uint64

	subs map[*subscription]struct{}

	now   func() time.Time
	newID func() string
}

func NewStore() *Store {
	return &Store{
		tables: make(map[string]map[string]entry),
		subs:   make(map[*subscription]struct{}),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *Store) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f := q.Filter()
	items := make([]entry, 0)
	for _, e := range s.tables[table] {
		if e.row.Matches(f) {
			items = append(items, e)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if q.OrderBy != "" {
			if c := compareValues(a.row[q.OrderBy], b.row[q.OrderBy]); c != 0 {
				if q.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		if q.Descending {
			return a.seq > b.seq
		}
		return a.seq < b.seq
	})

	out := make([]backend.Row, 0, len(items))
	for _, e := range items {
		out = append(out, e.row.Clone())
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, table string, row backend.Row) (backend.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := row.Clone()
	if r == nil {
		r = backend.Row{}
	}
	if strings.TrimSpace(r.ID()) == "" {
		r["id"] = s.newID()
	}
	if r.Field("created_at") == "" {
		r["created_at"] = s.now().UTC().Format(time.RFC3339Nano)
	}

	t := s.table(table)
	if _, exists := t[r.ID()]; exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateID, table, r.ID())
	}

	s.seq++
	t[r.ID()] = entry{row: r, seq: s.seq}

	s.publish(table, backend.ChangeEvent{Type: backend.EventInsert, New: r.Clone()})
	return r.Clone(), nil
}

func (s *Store) Update(ctx context.Context, table, id string, patch backend.Row) (backend.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(table)
	cur, ok := t[id]
	if !ok {
		return nil, backend.ErrNotFound
	}

	p := patch.Clone()
	delete(p, "id")
	next := cur.row.Merge(p)
	t[id] = entry{row: next, seq: cur.seq}

	s.publish(table, backend.ChangeEvent{Type: backend.EventUpdate, Old: cur.row.Clone(), New: next.Clone()})
	return next.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, table, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(table)
	cur, ok := t[id]
	if !ok {
		return backend.ErrNotFound
	}
	delete(t, id)

	s.publish(table, backend.ChangeEvent{Type: backend.EventDelete, Old: cur.row.Clone()})
	return nil
}

// table asume s.mu tomado en escritura.
func (s *Store) table(name string) map[string]entry {
	t, ok := s.tables[name]
	if !ok {
		t = make(map[string]entry)
		s.tables[name] = t
	}
	return t
}

// compareValues ordena strings RFC3339 como tiempos, números como números
// y el resto como texto. nil va primero.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		at, aerr := time.Parse(time.RFC3339Nano, as)
		bt, berr := time.Parse(time.RFC3339Nano, bs)
		if aerr == nil && berr == nil {
			return at.Compare(bt)
		}
		return strings.Compare(as, bs)
	}

	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
