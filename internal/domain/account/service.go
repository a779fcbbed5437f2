package account

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"pawtastic/internal/domain/session"
	"pawtastic/internal/platform/apperr"
	"pawtastic/internal/platform/logger"
	"pawtastic/internal/ports/backend"
)

const MinPasswordLen = 6

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Gateway envuelve el AuthAPI del backend. Es el único escritor de la
// sesión: republica las transiciones del backend a sus handlers.
type Gateway struct {
	auth backend.AuthAPI
	data backend.DataAPI
	log  logger.Logger
	now  func() time.Time

	// pubMu serializa publicaciones; stateMu protege current.
	pubMu    sync.Mutex
	stateMu  sync.RWMutex
	current  session.Session
	handlers map[int]func(session.Session)
	nextH    int

	unsub func()
}

func NewGateway(auth backend.AuthAPI, data backend.DataAPI, log logger.Logger) *Gateway {
	g := &Gateway{
		auth:     auth,
		data:     data,
		log:      logger.OrNop(log).With(map[string]any{"component": "account"}),
		now:      time.Now,
		current:  session.FromUser(auth.CurrentUser()),
		handlers: make(map[int]func(session.Session)),
	}
	g.unsub = auth.OnAuthStateChange(func(u *backend.User) {
		g.publish(session.FromUser(u))
	})
	return g
}

// Close deja de escuchar al backend.
func (g *Gateway) Close() {
	if g.unsub != nil {
		g.unsub()
	}
}

// ValidateCredentials hace los chequeos previos a cualquier llamada de red.
func ValidateCredentials(op, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.Missing(op, "email")
	}
	if password == "" {
		return apperr.Missing(op, "password")
	}
	if !emailRe.MatchString(email) {
		return apperr.New(apperr.KindInvalidEmail, op)
	}
	if len(password) < MinPasswordLen {
		return apperr.New(apperr.KindWeakPassword, op)
	}
	return nil
}

// Register crea el usuario y su perfil. Si el perfil no se puede crear se
// loguea y se crea después, en la primera escritura.
func (g *Gateway) Register(ctx context.Context, email, password string, seed ProfileSeed) (string, error) {
	const op = "account.register"

	if err := ValidateCredentials(op, email, password); err != nil {
		return "", err
	}
	email = strings.TrimSpace(email)

	u, err := g.auth.SignUp(ctx, email, password)
	if err != nil {
		if errors.Is(err, backend.ErrEmailTaken) {
			return "", apperr.Wrap(apperr.KindEmailInUse, op, err)
		}
		g.log.Error("sign up failed", map[string]any{"op": op, "err": err})
		return "", apperr.Wrap(apperr.KindWriteError, op, err)
	}

	now := g.now().UTC().Format(time.RFC3339Nano)
	_, err = g.data.Insert(ctx, ProfilesTable, backend.Row{
		"id":         u.ID,
		"email":      u.Email,
		"first_name": strings.TrimSpace(seed.FirstName),
		"last_name":  strings.TrimSpace(seed.LastName),
		"phone":      strings.TrimSpace(seed.Phone),
		"created_at": now,
		"updated_at": now,
	})
	if err != nil {
		g.log.Warn("profile insert failed, will be created lazily", map[string]any{"op": op, "user_id": u.ID, "err": err})
	}

	// Con confirmación de email pendiente el backend no abre sesión.
	if cu := g.auth.CurrentUser(); cu != nil && cu.ID == u.ID {
		g.publish(session.FromUser(&u))
	}

	g.log.Info("user registered", map[string]any{"user_id": u.ID})
	return u.ID, nil
}

// Login no distingue usuario inexistente de password incorrecta.
func (g *Gateway) Login(ctx context.Context, email, password string) (string, error) {
	const op = "account.login"

	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperr.Missing(op, "email")
	}
	if password == "" {
		return "", apperr.Missing(op, "password")
	}

	u, err := g.auth.SignIn(ctx, email, password)
	if err != nil {
		if errors.Is(err, backend.ErrInvalidLogin) {
			g.log.Info("login rejected", map[string]any{"op": op})
		} else {
			g.log.Error("sign in failed", map[string]any{"op": op, "err": err})
		}
		return "", apperr.Wrap(apperr.KindInvalidCredentials, op, err)
	}

	g.publish(session.FromUser(&u))
	return u.ID, nil
}

// Logout siempre deja la sesión local anónima; el error remoto solo se loguea.
func (g *Gateway) Logout(ctx context.Context) {
	if err := g.auth.SignOut(ctx); err != nil {
		g.log.Warn("remote sign out failed, clearing local session anyway", map[string]any{"err": err})
	}
	g.publish(session.Anonymous())
}

// CurrentUser es una lectura sincrónica del último estado conocido.
func (g *Gateway) CurrentUser() (session.Session, bool) {
	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	return g.current, g.current.IsAuthenticated
}

// OnAuthStateChange invoca fn de inmediato con el estado actual y luego en
// cada transición. fn no debe bloquear.
func (g *Gateway) OnAuthStateChange(fn func(session.Session)) (unsubscribe func()) {
	g.pubMu.Lock()
	defer g.pubMu.Unlock()

	g.stateMu.Lock()
	id := g.nextH
	g.nextH++
	g.handlers[id] = fn
	cur := g.current
	g.stateMu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.stateMu.Lock()
			delete(g.handlers, id)
			g.stateMu.Unlock()
		})
	}
}

// publish reemplaza la sesión y notifica; estados repetidos no se republican.
func (g *Gateway) publish(next session.Session) {
	g.pubMu.Lock()
	defer g.pubMu.Unlock()

	g.stateMu.Lock()
	if next == g.current {
		g.stateMu.Unlock()
		return
	}
	g.current = next
	fns := make([]func(session.Session), 0, len(g.handlers))
	for _, fn := range g.handlers {
		fns = append(fns, fn)
	}
	g.stateMu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

func (g *Gateway) requireUser(op string) (session.Session, error) {
	s, ok := g.CurrentUser()
	if !ok {
		return session.Session{}, apperr.New(apperr.KindNoSession, op)
	}
	return s, nil
}

// GetProfile devuelve el perfil del usuario actual. Si todavía no existe
// devuelve uno vacío con id y email.
func (g *Gateway) GetProfile(ctx context.Context) (Profile, error) {
	const op = "account.get_profile"

	s, err := g.requireUser(op)
	if err != nil {
		return Profile{}, err
	}

	rows, err := g.data.Select(ctx, ProfilesTable, backend.Query{Column: "id", Equals: s.UserID})
	if err != nil {
		g.log.Error("profile load failed", map[string]any{"op": op, "user_id": s.UserID, "err": err})
		return Profile{}, apperr.Wrap(apperr.KindLoadError, op, err)
	}
	if len(rows) == 0 {
		return Profile{ID: s.UserID, Email: s.Email}, nil
	}

	p, err := backend.Decode[Profile](rows[0])
	if err != nil {
		g.log.Error("profile decode failed", map[string]any{"op": op, "user_id": s.UserID, "err": err})
		return Profile{}, apperr.Wrap(apperr.KindLoadError, op, err)
	}
	return p, nil
}

// UpdateProfile reemplaza los campos editables y crea la fila si falta.
func (g *Gateway) UpdateProfile(ctx context.Context, in ProfileUpdate) (Profile, error) {
	const op = "account.update_profile"

	s, err := g.requireUser(op)
	if err != nil {
		return Profile{}, err
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return Profile{}, apperr.Missing(op, "first_name")
	}
	if strings.TrimSpace(in.LastName) == "" {
		return Profile{}, apperr.Missing(op, "last_name")
	}

	now := g.now().UTC().Format(time.RFC3339Nano)
	patch := backend.Row{
		"first_name":  strings.TrimSpace(in.FirstName),
		"last_name":   strings.TrimSpace(in.LastName),
		"phone":       strings.TrimSpace(in.Phone),
		"address":     strings.TrimSpace(in.Address),
		"city":        strings.TrimSpace(in.City),
		"postal_code": strings.TrimSpace(in.PostalCode),
		"bio":         strings.TrimSpace(in.Bio),
		"updated_at":  now,
	}
	if in.Extra != nil {
		patch["extra"] = in.Extra
	}

	row, err := g.data.Update(ctx, ProfilesTable, s.UserID, patch)
	if errors.Is(err, backend.ErrNotFound) {
		full := patch.Merge(backend.Row{"id": s.UserID, "email": s.Email, "created_at": now})
		row, err = g.data.Insert(ctx, ProfilesTable, full)
	}
	if err != nil {
		g.log.Error("profile write failed", map[string]any{"op": op, "user_id": s.UserID, "err": err})
		return Profile{}, apperr.Wrap(apperr.KindWriteError, op, err)
	}

	p, err := backend.Decode[Profile](row)
	if err != nil {
		return Profile{}, apperr.Wrap(apperr.KindWriteError, op, err)
	}
	return p, nil
}

// DeleteAccount borra el perfil y el usuario de auth, y cierra la sesión.
func (g *Gateway) DeleteAccount(ctx context.Context) error {
	const op = "account.delete"

	s, err := g.requireUser(op)
	if err != nil {
		return err
	}

	if err := g.data.Delete(ctx, ProfilesTable, s.UserID); err != nil && !errors.Is(err, backend.ErrNotFound) {
		g.log.Error("profile delete failed", map[string]any{"op": op, "user_id": s.UserID, "err": err})
		return apperr.Wrap(apperr.KindWriteError, op, err)
	}

	if err := g.auth.DeleteUser(ctx, s.UserID); err != nil && !errors.Is(err, backend.ErrNotFound) {
		g.log.Error("auth user delete failed", map[string]any{"op": op, "user_id": s.UserID, "err": err})
		return apperr.Wrap(apperr.KindWriteError, op, err)
	}

	g.log.Info("account deleted", map[string]any{"user_id": s.UserID})
	g.Logout(ctx)
	return nil
}
