// Package apperr define la taxonomía de errores que el core expone a la
// capa de presentación: auth, data y validación. Los errores de backend se
// loguean en el punto de llamada y se envuelven acá sin exponer su texto.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

type Kind string

const (
	// auth
	KindInvalidEmail       Kind = "invalid_email"
	KindWeakPassword       Kind = "weak_password"
	KindEmailInUse         Kind = "email_in_use"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindNoSession          Kind = "no_session"

	// data
	KindLoadError  Kind = "load_error"
	KindWriteError Kind = "write_error"

	// validación
	KindMissingField Kind = "missing_field"
	KindInvalidDate  Kind = "invalid_date"
	KindInvalidField Kind = "invalid_field"
)

type Category string

const (
	CategoryAuth       Category = "auth"
	CategoryData       Category = "data"
	CategoryValidation Category = "validation"
)

func (k Kind) Category() Category {
	switch k {
	case KindInvalidEmail, KindWeakPassword, KindEmailInUse, KindInvalidCredentials, KindNoSession:
		return CategoryAuth
	case KindLoadError, KindWriteError:
		return CategoryData
	default:
		return CategoryValidation
	}
}

// Error es el error tipado del core.
// Op es la operación ("account.login", "livesync.start"), Field el campo
// inválido si aplica, Err la causa (puede ser nil).
type Error struct {
	Kind  Kind
	Op    string
	Field string
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Field != "" {
		b.WriteString(" (")
		b.WriteString(e.Field)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is hace que errors.Is(err, apperr.ErrX) compare por Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Field == "" && t.Err == nil
}

// Sentinels para errors.Is.
var (
	ErrInvalidEmail       = &Error{Kind: KindInvalidEmail}
	ErrWeakPassword       = &Error{Kind: KindWeakPassword}
	ErrEmailInUse         = &Error{Kind: KindEmailInUse}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrNoSession          = &Error{Kind: KindNoSession}
	ErrLoad               = &Error{Kind: KindLoadError}
	ErrWrite              = &Error{Kind: KindWriteError}
	ErrMissingField       = &Error{Kind: KindMissingField}
	ErrInvalidDate        = &Error{Kind: KindInvalidDate}
	ErrInvalidField       = &Error{Kind: KindInvalidField}
)

func New(kind Kind, op string) *Error {
	return &Error{Kind: kind, Op: op}
}

func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Missing(op, field string) *Error {
	return &Error{Kind: KindMissingField, Op: op, Field: field}
}

func Invalid(op, field string) *Error {
	return &Error{Kind: KindInvalidField, Op: op, Field: field}
}

// KindOf devuelve el Kind de err, o "" si no es un *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// FieldOf devuelve el campo asociado a err, si hay.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

var messages = map[Kind]string{
	KindInvalidEmail:       "Por favor ingresa un email válido",
	KindWeakPassword:       "La contraseña debe tener al menos 6 caracteres",
	KindEmailInUse:         "Este email ya está registrado",
	KindInvalidCredentials: "Email o contraseña incorrectos",
	KindNoSession:          "Debes iniciar sesión para continuar",
	KindLoadError:          "No se pudieron cargar los datos. Intenta nuevamente",
	KindWriteError:         "No se pudo guardar. Intenta nuevamente",
	KindMissingField:       "Por favor completa todos los campos obligatorios",
	KindInvalidDate:        "La fecha seleccionada no es válida",
	KindInvalidField:       "Uno de los campos no es válido",
}

// Message devuelve el texto para mostrar al usuario.
// Nunca incluye el texto del error de backend.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if m, ok := messages[KindOf(err)]; ok {
		return m
	}
	return "Ocurrió un error inesperado"
}

// HTTPStatus mapea el Kind a un status para el app shell.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidEmail, KindWeakPassword, KindMissingField, KindInvalidDate, KindInvalidField:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindNoSession:
		return http.StatusUnauthorized
	case KindEmailInUse:
		return http.StatusConflict
	case KindLoadError, KindWriteError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
