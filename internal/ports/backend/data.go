package backend

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("row not found")

// Query es una lectura filtrada por igualdad y ordenada.
type Query struct {
	Column string
	Equals string

	OrderBy    string
	Descending bool
}

func (q Query) Filter() Filter {
	return Filter{Column: q.Column, Equals: q.Equals}
}

// DataAPI es el contrato de la base hospedada (tablas por nombre).
type DataAPI interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)

	// Insert devuelve la fila tal como quedó (id y created_at asignados por el backend).
	Insert(ctx context.Context, table string, row Row) (Row, error)

	// Update aplica un patch parcial; ErrNotFound si el id no existe.
	Update(ctx context.Context, table, id string, patch Row) (Row, error)

	// Delete es idempotente para ids inexistentes solo si el backend lo es;
	// los adapters devuelven ErrNotFound cuando pueden detectarlo.
	Delete(ctx context.Context, table, id string) error
}
