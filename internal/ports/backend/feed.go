package backend

import (
	"context"
	"errors"
)

var ErrSubscriptionClosed = errors.New("subscription closed")

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// ChangeEvent es un push de cambio por fila.
// En delete, New es nil y Old trae al menos el id.
type ChangeEvent struct {
	Type EventType
	Old  Row
	New  Row
}

// Filter restringe una suscripción a filas con Column == Equals.
type Filter struct {
	Column string
	Equals string
}

// Subscription es un stream cancelable. Events se cierra después de Close
// o cuando el transporte se corta.
type Subscription interface {
	Events() <-chan ChangeEvent
	Close() error
}

// ChangeFeed entrega cambios por tabla con semántica at-least-once por fila.
type ChangeFeed interface {
	Subscribe(ctx context.Context, table string, f Filter) (Subscription, error)
}

// Backend agrupa los puertos de datos de una misma familia de backend.
type Backend interface {
	DataAPI
	ChangeFeed
}
