package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"

	"pawtastic/internal/platform/logger"
	"pawtastic/internal/ports/backend"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// NotifyChannel es el canal donde el trigger de schema.sql publica cambios.
const NotifyChannel = "pawtastic_changes"

// Feed implementa backend.ChangeFeed con LISTEN/NOTIFY. Cada suscripción
// toma una conexión dedicada del pool y la descarta al cerrar.
type Feed struct {
	db  *sql.DB
	log logger.Logger
}

func NewFeed(db *sql.DB, log logger.Logger) *Feed {
	return &Feed{
		db:  db,
		log: logger.OrNop(log).With(map[string]any{"component": "postgres.feed"}),
	}
}

// notification es el payload del trigger: solo la clave de la fila.
type notification struct {
	Table       string `json:"table"`
	Type        string `json:"type"`
	ID          string `json:"id"`
	OwnerColumn string `json:"owner_column"`
	Owner       string `json:"owner"`
}

func (n notification) key() backend.Row {
	r := backend.Row{"id": n.ID}
	if n.OwnerColumn != "" {
		r[n.OwnerColumn] = n.Owner
	}
	return r
}

// decodeNotification traduce el payload del trigger. ok=false si no aplica
// a table/f. Old trae la clave; en insert/update New lo completa fetchRow.
func decodeNotification(payload, table string, f backend.Filter) (backend.ChangeEvent, bool, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return backend.ChangeEvent{}, false, err
	}
	if n.Table != table {
		return backend.ChangeEvent{}, false, nil
	}
	if n.ID == "" {
		return backend.ChangeEvent{}, false, errors.New("notification without id")
	}

	key := n.key()
	// Un filtro sobre otra columna se evalúa recién con la fila completa.
	if _, carried := key[f.Column]; carried && !key.Matches(f) {
		return backend.ChangeEvent{}, false, nil
	}

	ev := backend.ChangeEvent{Type: backend.EventType(n.Type), Old: key}
	switch ev.Type {
	case backend.EventInsert, backend.EventUpdate, backend.EventDelete:
		return ev, true, nil
	default:
		return backend.ChangeEvent{}, false, fmt.Errorf("unknown change type %q", n.Type)
	}
}

// fetchRow lee la fila vigente por id en la conexión del listener.
// ok=false si ya no existe.
func fetchRow(ctx context.Context, pc *pgx.Conn, table, id string) (backend.Row, bool, error) {
	var raw []byte
	err := pc.QueryRow(ctx, fmt.Sprintf("SELECT row_to_json(t) FROM %s t WHERE t.id = $1", table), id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var r backend.Row
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, false, fmt.Errorf("decode %s row: %w", table, err)
	}
	return r, true, nil
}

func (f *Feed) Subscribe(ctx context.Context, table string, filter backend.Filter) (backend.Subscription, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	conn, err := f.db.Conn(ctx)
	if err != nil {
		return nil, err
	}

	err = conn.Raw(func(dc any) error {
		c, ok := dc.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver conn %T", dc)
		}
		_, err := c.Conn().Exec(ctx, "LISTEN "+NotifyChannel)
		return err
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("listen: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s := &listenSub{
		conn:   conn,
		table:  table,
		filter: filter,
		cancel: cancel,
		out:    make(chan backend.ChangeEvent),
		ended:  make(chan struct{}),
		log:    f.log.With(map[string]any{"table": table}),
	}
	go s.run(loopCtx)

	return s, nil
}

type listenSub struct {
	conn   *sql.Conn
	table  string
	filter backend.Filter
	log    logger.Logger

	cancel context.CancelFunc
	out    chan backend.ChangeEvent
	ended  chan struct{}
	once   sync.Once
}

func (s *listenSub) Events() <-chan backend.ChangeEvent { return s.out }

func (s *listenSub) Close() error {
	s.once.Do(s.cancel)
	<-s.ended
	return nil
}

func (s *listenSub) run(ctx context.Context) {
	defer close(s.ended)
	defer close(s.out)
	defer s.conn.Close()

	err := s.conn.Raw(func(dc any) error {
		pc := dc.(*stdlib.Conn).Conn()
		for {
			n, err := pc.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.log.Warn("wait for notification failed", map[string]any{"err": err})
				}
				// La conexión queda con LISTEN activo: no vuelve al pool.
				return driver.ErrBadConn
			}

			ev, ok, err := decodeNotification(n.Payload, s.table, s.filter)
			if err != nil {
				s.log.Debug("invalid notification", map[string]any{"err": err})
				continue
			}
			if !ok {
				continue
			}

			if ev.Type != backend.EventDelete {
				row, found, err := fetchRow(ctx, pc, s.table, ev.Old.ID())
				if err != nil {
					if ctx.Err() != nil {
						return driver.ErrBadConn
					}
					s.log.Warn("fetch changed row failed", map[string]any{"id": ev.Old.ID(), "err": err})
					continue
				}
				if !found {
					// Se borró antes de leerla; llega su propio delete.
					continue
				}
				ev.New = row
			}

			select {
			case s.out <- ev:
			case <-ctx.Done():
				return driver.ErrBadConn
			}
		}
	})
	if err != nil && !errors.Is(err, driver.ErrBadConn) {
		s.log.Error("listen loop ended", map[string]any{"err": err})
	}
}
