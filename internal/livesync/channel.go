// Package livesync espeja en memoria una colección remota filtrada por
// dueño: carga un snapshot y luego aplica los cambios push del backend.
package livesync

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pawtastic/internal/platform/apperr"
	"pawtastic/internal/platform/logger"
	"pawtastic/internal/ports/backend"
)

var (
	ErrNotStarted = errors.New("livesync: channel not started")
	ErrFeedLost   = errors.New("livesync: change feed closed")
)

// Record es una fila con identidad estable asignada por el backend.
type Record interface {
	RecordID() string
}

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLive    Status = "live"
	StatusFailed  Status = "failed"
)

type Config[T Record] struct {
	Table       string
	OwnerColumn string
	OwnerID     string

	// OrderBy se lee siempre descendente. Default "created_at".
	OrderBy string

	// Decode convierte una fila en T. Default backend.Decode[T].
	Decode func(backend.Row) (T, error)
}

// Channel mantiene la lista ordenada (más nuevo primero) de una colección.
// Start y Stop van de a pares; los eventos se aplican en orden de llegada
// desde una única goroutine por suscripción.
type Channel[T Record] struct {
	data backend.DataAPI
	feed backend.ChangeFeed
	cfg  Config[T]
	log  logger.Logger

	// opMu serializa Start/Stop.
	opMu sync.Mutex

	mu      sync.RWMutex
	status  Status
	lastErr error
	order   []string
	byID    map[string]T
	pending []backend.ChangeEvent
	gen     uint64
	version uint64

	sub      backend.Subscription
	pumpDone chan struct{}

	watchMu  sync.Mutex
	watchers map[int]func([]T)
	nextW    int
	notified uint64
}

func New[T Record](data backend.DataAPI, feed backend.ChangeFeed, cfg Config[T], log logger.Logger) *Channel[T] {
	if strings.TrimSpace(cfg.OrderBy) == "" {
		cfg.OrderBy = "created_at"
	}
	if cfg.Decode == nil {
		cfg.Decode = backend.Decode[T]
	}
	return &Channel[T]{
		data:     data,
		feed:     feed,
		cfg:      cfg,
		log:      logger.OrNop(log).With(map[string]any{"component": "livesync", "table": cfg.Table, "owner": cfg.OwnerID}),
		status:   StatusIdle,
		byID:     make(map[string]T),
		watchers: make(map[int]func([]T)),
	}
}

func (c *Channel[T]) filter() backend.Filter {
	return backend.Filter{Column: c.cfg.OwnerColumn, Equals: c.cfg.OwnerID}
}

// Start se suscribe al feed, hace la lectura inicial y devuelve la lista.
// Los eventos que llegan mientras carga se aplican sobre el snapshot.
// Si la carga falla devuelve lista vacía y un error load_error; no reintenta.
func (c *Channel[T]) Start(ctx context.Context) ([]T, error) {
	const op = "livesync.start"

	c.opMu.Lock()
	defer c.opMu.Unlock()

	if strings.TrimSpace(c.cfg.Table) == "" {
		return []T{}, apperr.Missing(op, "table")
	}
	if strings.TrimSpace(c.cfg.OwnerColumn) == "" || strings.TrimSpace(c.cfg.OwnerID) == "" {
		return []T{}, apperr.Missing(op, "owner")
	}

	if c.sub != nil {
		c.log.Warn("start called while running, releasing previous subscription", nil)
		c.release()
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.status = StatusLoading
	c.lastErr = nil
	c.order = nil
	c.byID = make(map[string]T)
	c.pending = nil
	c.version++
	c.mu.Unlock()
	c.notify()

	sub, err := c.feed.Subscribe(ctx, c.cfg.Table, c.filter())
	if err != nil {
		c.log.Error("subscribe failed", map[string]any{"err": err})
		return []T{}, c.fail(gen, apperr.Wrap(apperr.KindLoadError, op, err))
	}

	done := make(chan struct{})
	c.sub = sub
	c.pumpDone = done
	go c.pump(gen, sub, done)

	rows, err := c.data.Select(ctx, c.cfg.Table, backend.Query{
		Column:     c.cfg.OwnerColumn,
		Equals:     c.cfg.OwnerID,
		OrderBy:    c.cfg.OrderBy,
		Descending: true,
	})
	if err != nil {
		c.log.Error("initial load failed", map[string]any{"err": err})
		c.release()
		return []T{}, c.fail(gen, apperr.Wrap(apperr.KindLoadError, op, err))
	}

	c.mu.Lock()
	for _, r := range rows {
		item, err := c.cfg.Decode(r)
		if err != nil {
			c.log.Warn("skipping undecodable row", map[string]any{"id": r.ID(), "err": err})
			continue
		}
		id := item.RecordID()
		if id == "" {
			continue
		}
		if _, dup := c.byID[id]; dup {
			continue
		}
		c.byID[id] = item
		c.order = append(c.order, id)
	}
	replay := c.pending
	c.pending = nil
	for _, ev := range replay {
		c.applyLocked(ev)
	}
	c.status = StatusLive
	c.version++
	out := c.listLocked()
	c.mu.Unlock()

	c.notify()
	c.log.Debug("channel live", map[string]any{"items": len(out), "replayed": len(replay)})
	return out, nil
}

// Stop libera la suscripción. Sin un Start previo devuelve ErrNotStarted.
func (c *Channel[T]) Stop() error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if c.sub == nil {
		c.mu.Lock()
		failed := c.status == StatusFailed
		if failed {
			c.status = StatusIdle
			c.lastErr = nil
			c.version++
		}
		c.mu.Unlock()
		if failed {
			c.notify()
			return nil
		}
		return ErrNotStarted
	}

	c.release()

	c.mu.Lock()
	c.status = StatusIdle
	c.lastErr = nil
	c.order = nil
	c.byID = make(map[string]T)
	c.pending = nil
	c.version++
	c.mu.Unlock()

	c.notify()
	return nil
}

// release cierra la suscripción vigente y espera al pump. Asume opMu tomado.
func (c *Channel[T]) release() {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()

	if c.sub != nil {
		if err := c.sub.Close(); err != nil {
			c.log.Warn("closing subscription failed", map[string]any{"err": err})
		}
		<-c.pumpDone
	}
	c.sub = nil
	c.pumpDone = nil
}

func (c *Channel[T]) fail(gen uint64, err error) error {
	c.mu.Lock()
	if c.gen == gen || c.status == StatusLoading {
		c.status = StatusFailed
		c.lastErr = err
		c.order = nil
		c.byID = make(map[string]T)
		c.pending = nil
		c.version++
	}
	c.mu.Unlock()
	c.notify()
	return err
}

func (c *Channel[T]) pump(gen uint64, sub backend.Subscription, done chan struct{}) {
	defer close(done)

	for ev := range sub.Events() {
		c.mu.Lock()
		if c.gen != gen {
			c.mu.Unlock()
			continue
		}
		if c.status == StatusLoading {
			c.pending = append(c.pending, ev)
			c.mu.Unlock()
			continue
		}
		changed := c.applyLocked(ev)
		if changed {
			c.version++
		}
		c.mu.Unlock()

		if changed {
			c.notify()
		}
	}

	// El feed se cortó sin Stop: la lista queda, pero ya no está viva.
	c.mu.Lock()
	lost := c.gen == gen
	if lost {
		c.status = StatusFailed
		c.lastErr = apperr.Wrap(apperr.KindLoadError, "livesync.feed", ErrFeedLost)
		c.version++
	}
	c.mu.Unlock()
	if lost {
		c.log.Warn("change feed closed unexpectedly", nil)
		c.notify()
	}
}

// applyLocked aplica un evento de forma idempotente por id. Asume c.mu tomado.
func (c *Channel[T]) applyLocked(ev backend.ChangeEvent) bool {
	f := c.filter()

	switch ev.Type {
	case backend.EventInsert, backend.EventUpdate:
		id := ev.New.ID()
		if id == "" {
			return false
		}
		if !ev.New.Matches(f) {
			// Un update que sale del filtro se trata como baja.
			if ev.Type == backend.EventUpdate {
				return c.removeLocked(id)
			}
			return false
		}
		item, err := c.cfg.Decode(ev.New)
		if err != nil {
			c.log.Warn("skipping undecodable event", map[string]any{"id": id, "type": string(ev.Type), "err": err})
			return false
		}
		if _, known := c.byID[id]; !known {
			c.order = append([]string{id}, c.order...)
		}
		c.byID[id] = item
		return true

	case backend.EventDelete:
		id := ev.Old.ID()
		if id == "" {
			return false
		}
		return c.removeLocked(id)
	}
	return false
}

func (c *Channel[T]) removeLocked(id string) bool {
	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *Channel[T]) listLocked() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// List devuelve una copia de la lista actual.
func (c *Channel[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listLocked()
}

func (c *Channel[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.byID[id]
	return v, ok
}

func (c *Channel[T]) Status() (Status, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status, c.lastErr
}

// Watch registra fn para cada cambio de la lista. Los watchers reciben
// estados en orden creciente; un estado intermedio puede saltearse.
func (c *Channel[T]) Watch(fn func([]T)) (cancel func()) {
	c.watchMu.Lock()
	id := c.nextW
	c.nextW++
	c.watchers[id] = fn
	c.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.watchMu.Lock()
			delete(c.watchers, id)
			c.watchMu.Unlock()
		})
	}
}

func (c *Channel[T]) notify() {
	c.mu.RLock()
	ver := c.version
	items := c.listLocked()
	c.mu.RUnlock()

	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	if ver <= c.notified {
		return
	}
	c.notified = ver
	for _, fn := range c.watchers {
		fn(items)
	}
}
