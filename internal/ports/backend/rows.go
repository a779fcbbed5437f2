package backend

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// Row es una fila como objeto JSON (columna -> valor).
type Row map[string]any

// Field devuelve el valor de la columna como string ("" si falta o es null).
func (r Row) Field(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func (r Row) ID() string { return r.Field("id") }

// Matches reporta si la fila cumple el filtro. Un filtro vacío matchea todo.
func (r Row) Matches(f Filter) bool {
	if f.Column == "" {
		return true
	}
	if r == nil {
		return false
	}
	return r.Field(f.Column) == f.Equals
}

// Clone hace copia superficial.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge devuelve una copia de r con las columnas de patch aplicadas.
func (r Row) Merge(patch Row) Row {
	out := r.Clone()
	if out == nil {
		out = Row{}
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Encode convierte un struct con tags json en Row.
func Encode(v any) (Row, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var out Row
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	return out, nil
}

// Decode convierte una Row en T usando los tags json de T.
func Decode[T any](r Row) (T, error) {
	var out T
	b, err := json.Marshal(r)
	if err != nil {
		return out, fmt.Errorf("decode row: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode row: %w", err)
	}
	return out, nil
}
