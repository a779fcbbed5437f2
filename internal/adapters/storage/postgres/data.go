package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"pawtastic/internal/ports/backend"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Tablas expuestas por el DataAPI. Los nombres van interpolados en SQL,
// así que solo se aceptan los de esta lista.
var tables = map[string]struct{}{
	"profiles":         {},
	"pets":             {},
	"service_bookings": {},
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Data implementa backend.DataAPI sobre *sql.DB: filas como JSON vía
// row_to_json / json_populate_record.
type Data struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func NewData(db *sql.DB) *Data {
	return &Data{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func checkTable(table string) error {
	if _, ok := tables[table]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return nil
}

func checkColumn(col string) error {
	if !identRe.MatchString(col) {
		return fmt.Errorf("%w: %q", ErrInvalidColumn, col)
	}
	return nil
}

func buildSelect(table string, q backend.Query) (string, []any, error) {
	if err := checkTable(table); err != nil {
		return "", nil, err
	}

	var (
		b    strings.Builder
		args []any
	)
	fmt.Fprintf(&b, "SELECT row_to_json(t) FROM %s t", table)

	if q.Column != "" {
		if err := checkColumn(q.Column); err != nil {
			return "", nil, err
		}
		fmt.Fprintf(&b, " WHERE t.%s = $1", q.Column)
		args = append(args, q.Equals)
	}

	if q.OrderBy != "" {
		if err := checkColumn(q.OrderBy); err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY t.%s %s, t.id %s", q.OrderBy, dir, dir)
	}

	return b.String(), args, nil
}

// sortedColumns valida y ordena las keys de row (excluye skip).
func sortedColumns(row backend.Row, skip string) ([]string, error) {
	cols := make([]string, 0, len(row))
	for k := range row {
		if k == skip {
			continue
		}
		if err := checkColumn(k); err != nil {
			return nil, err
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols, nil
}

// buildInsert inserta solo las columnas presentes para respetar los DEFAULT.
func buildInsert(table string, row backend.Row) (string, error) {
	if err := checkTable(table); err != nil {
		return "", err
	}
	cols, err := sortedColumns(row, "")
	if err != nil {
		return "", err
	}
	list := strings.Join(cols, ", ")
	return fmt.Sprintf(
		"INSERT INTO %s AS t (%s) SELECT %s FROM json_populate_record(NULL::%s, $1::json) RETURNING row_to_json(t)",
		table, list, list, table,
	), nil
}

func buildUpdate(table string, patch backend.Row) (string, error) {
	if err := checkTable(table); err != nil {
		return "", err
	}
	cols, err := sortedColumns(patch, "id")
	if err != nil {
		return "", err
	}
	if len(cols) == 0 {
		return fmt.Sprintf("SELECT row_to_json(t) FROM %s t WHERE t.id = $1", table), nil
	}

	list := strings.Join(cols, ", ")
	set := fmt.Sprintf("(%s) = (SELECT %s FROM json_populate_record(NULL::%s, $2::json))", list, list, table)
	if len(cols) == 1 {
		set = fmt.Sprintf("%s = (SELECT %s FROM json_populate_record(NULL::%s, $2::json))", cols[0], cols[0], table)
	}
	return fmt.Sprintf("UPDATE %s t SET %s WHERE t.id = $1 RETURNING row_to_json(t)", table, set), nil
}

func (d *Data) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	query, args, err := buildSelect(table, q)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]backend.Row, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var r backend.Row
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode %s row: %w", table, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *Data) Insert(ctx context.Context, table string, row backend.Row) (backend.Row, error) {
	r := row.Clone()
	if r == nil {
		r = backend.Row{}
	}
	if strings.TrimSpace(r.ID()) == "" {
		r["id"] = d.newID()
	}
	if r.Field("created_at") == "" {
		r["created_at"] = d.now().UTC().Format(time.RFC3339Nano)
	}

	query, err := buildInsert(table, r)
	if err != nil {
		return nil, err
	}
	return d.queryRow(ctx, table, query, r)
}

func (d *Data) Update(ctx context.Context, table, id string, patch backend.Row) (backend.Row, error) {
	query, err := buildUpdate(table, patch)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(query, "SELECT") {
		return d.queryRow(ctx, table, query, nil, id)
	}
	return d.queryRow(ctx, table, query, patch, id)
}

func (d *Data) Delete(ctx context.Context, table, id string) error {
	if err := checkTable(table); err != nil {
		return err
	}

	res, err := d.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return backend.ErrNotFound
	}
	return nil
}

// queryRow ejecuta query esperando una fila JSON. Si payload no es nil se
// pasa como JSON en el último placeholder ($1 en insert, $2 en update).
func (d *Data) queryRow(ctx context.Context, table, query string, payload backend.Row, leading ...any) (backend.Row, error) {
	args := append([]any{}, leading...)
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s row: %w", table, err)
		}
		args = append(args, string(b))
	}

	var raw []byte
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, backend.ErrNotFound
		}
		return nil, err
	}

	var out backend.Row
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s row: %w", table, err)
	}
	return out, nil
}
