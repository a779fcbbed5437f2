package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pawtastic/internal/ports/backend"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	user backend.User
	hash []byte
}

// Auth es un servicio de auth in-memory (modo dev/tests) con passwords bcrypt.
type Auth struct {
	mu      sync.RWMutex
	byEmail map[string]account
	byID    map[string]string // id -> email

	current *backend.User

	listeners map[int]func(*backend.User)
	nextL     int

	cost  int
	newID func() string
}

type Option func(*Auth)

// WithCost fija el costo bcrypt (los tests usan bcrypt.MinCost).
func WithCost(cost int) Option {
	return func(a *Auth) { a.cost = cost }
}

func New(opts ...Option) *Auth {
	a := &Auth{
		byEmail:   make(map[string]account),
		byID:      make(map[string]string),
		listeners: make(map[int]func(*backend.User)),
		cost:      bcrypt.DefaultCost,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func normEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Auth) SignUp(ctx context.Context, email, password string) (backend.User, error) {
	if err := ctx.Err(); err != nil {
		return backend.User{}, err
	}
	email = normEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return backend.User{}, fmt.Errorf("hash password: %w", err)
	}

	a.mu.Lock()
	if _, exists := a.byEmail[email]; exists {
		a.mu.Unlock()
		return backend.User{}, backend.ErrEmailTaken
	}
	u := backend.User{ID: a.newID(), Email: email}
	a.byEmail[email] = account{user: u, hash: hash}
	a.byID[u.ID] = email
	a.current = &u
	fns := a.snapshotListeners()
	a.mu.Unlock()

	notify(fns, &u)
	return u, nil
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (backend.User, error) {
	if err := ctx.Err(); err != nil {
		return backend.User{}, err
	}

	a.mu.RLock()
	acc, ok := a.byEmail[normEmail(email)]
	a.mu.RUnlock()

	// Mismo error para usuario inexistente y password incorrecta.
	if !ok {
		return backend.User{}, backend.ErrInvalidLogin
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return backend.User{}, backend.ErrInvalidLogin
	}

	a.mu.Lock()
	u := acc.user
	a.current = &u
	fns := a.snapshotListeners()
	a.mu.Unlock()

	notify(fns, &u)
	return u, nil
}

func (a *Auth) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	a.current = nil
	fns := a.snapshotListeners()
	a.mu.Unlock()

	notify(fns, nil)
	return nil
}

func (a *Auth) CurrentUser() *backend.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current == nil {
		return nil
	}
	u := *a.current
	return &u
}

func (a *Auth) OnAuthStateChange(fn func(*backend.User)) func() {
	a.mu.Lock()
	id := a.nextL
	a.nextL++
	a.listeners[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.listeners, id)
			a.mu.Unlock()
		})
	}
}

func (a *Auth) DeleteUser(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	email, ok := a.byID[userID]
	if !ok {
		a.mu.Unlock()
		return backend.ErrNotFound
	}
	delete(a.byID, userID)
	delete(a.byEmail, email)

	var fns []func(*backend.User)
	if a.current != nil && a.current.ID == userID {
		a.current = nil
		fns = a.snapshotListeners()
	}
	a.mu.Unlock()

	notify(fns, nil)
	return nil
}

// snapshotListeners asume a.mu tomado.
func (a *Auth) snapshotListeners() []func(*backend.User) {
	out := make([]func(*backend.User), 0, len(a.listeners))
	for _, fn := range a.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(fns []func(*backend.User), u *backend.User) {
	for _, fn := range fns {
		if u == nil {
			fn(nil)
			continue
		}
		cp := *u
		fn(&cp)
	}
}
