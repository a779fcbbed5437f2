package backend

import (
	"context"
	"errors"
)

// Errores neutrales que los adapters de auth deben devolver (envueltos con %w)
// para que el core no dependa del backend concreto.
var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidLogin = errors.New("invalid login")
)

// User es el usuario autenticado según el backend.
type User struct {
	ID    string
	Email string
}

// AuthAPI es el contrato del servicio de auth hospedado.
type AuthAPI interface {
	SignUp(ctx context.Context, email, password string) (User, error)
	SignIn(ctx context.Context, email, password string) (User, error)
	SignOut(ctx context.Context) error

	// CurrentUser es una lectura sincrónica del último estado conocido.
	CurrentUser() *User

	// OnAuthStateChange notifica solo transiciones futuras (nil = sin sesión).
	// El handler no debe bloquear.
	OnAuthStateChange(fn func(*User)) (unsubscribe func())

	// DeleteUser borra el usuario del servicio de auth (flujo de baja).
	DeleteUser(ctx context.Context, userID string) error
}
