package middleware

import (
	"context"
	"net/http"

	"pawtastic/internal/domain/session"
	"pawtastic/internal/platform/apperr"

	"github.com/goccy/go-json"
)

type ctxKey string

const sessionKey ctxKey = "session"

// SessionContext inyecta en el request el estado de sesión vigente.
// snapshot normalmente es (*session.Store).Snapshot.
func SessionContext(snapshot func() session.State) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if snapshot == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, snapshot())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetSession(ctx context.Context) (session.State, bool) {
	v := ctx.Value(sessionKey)
	if v == nil {
		return session.State{}, false
	}
	s, ok := v.(session.State)
	return s, ok
}

// UserID devuelve el usuario autenticado del request, o "" si no hay.
// Las rutas montadas detrás de RequireSession siempre lo tienen.
func UserID(ctx context.Context) string {
	st, ok := GetSession(ctx)
	if !ok || !st.Session.IsAuthenticated {
		return ""
	}
	return st.Session.UserID
}

// RequireSession corta con 401 si no hay usuario autenticado.
// Mientras auth no resolvió responde 503 para que el cliente reintente.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, ok := GetSession(r.Context())
		if ok && st.Loading {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusServiceUnavailable, "loading", "La sesión todavía se está cargando")
			return
		}
		if !ok || !st.Session.IsAuthenticated {
			err := apperr.ErrNoSession
			writeError(w, apperr.HTTPStatus(err), string(apperr.KindNoSession), apperr.Message(err))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": msg})
}
