package session

import "pawtastic/internal/ports/backend"

// Session es el estado de auth visto por el core. Es un valor: se
// reemplaza entero en cada transición, nunca se muta.
type Session struct {
	UserID          string `json:"user_id,omitempty"`
	Email           string `json:"email,omitempty"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

func Anonymous() Session {
	return Session{}
}

// FromUser arma la sesión a partir del usuario del backend (nil = anónima).
func FromUser(u *backend.User) Session {
	if u == nil || u.ID == "" {
		return Anonymous()
	}
	return Session{UserID: u.ID, Email: u.Email, IsAuthenticated: true}
}

// State es lo que leen routing y la capa de presentación.
// Loading es true solo hasta la primera resolución de auth.
type State struct {
	Session Session `json:"session"`
	Loading bool    `json:"loading"`
}

// Source es el único escritor del Store: invoca fn de inmediato con el
// estado actual y luego en cada transición.
type Source interface {
	OnAuthStateChange(fn func(Session)) (unsubscribe func())
}
