// Package app compone el core: backends, gateway de credenciales, store
// de sesión y el workspace de sincronización del usuario actual.
package app

import (
	"context"
	"errors"
	"sync"

	"pawtastic/internal/domain/account"
	"pawtastic/internal/domain/bookings"
	"pawtastic/internal/domain/pets"
	"pawtastic/internal/domain/session"
	"pawtastic/internal/livesync"
	"pawtastic/internal/platform/logger"
)

var ErrAlreadyRunning = errors.New("app: already running")

type App struct {
	Log      logger.Logger
	Backends *Backends

	Gateway  *account.Gateway
	Session  *session.Store
	Pets     *pets.Service
	Bookings *bookings.Service

	mu     sync.RWMutex
	ws     *Workspace
	cancel context.CancelFunc
	done   chan struct{}
}

// New conecta gateway → store de sesión sobre los backends dados.
func New(b *Backends, log logger.Logger) (*App, error) {
	log = logger.OrNop(log)

	gw := account.NewGateway(b.Auth, b.Data, log)
	store := session.NewStore(log)
	if err := store.Attach(gw); err != nil {
		gw.Close()
		return nil, err
	}

	return &App{
		Log:      log.With(map[string]any{"component": "app"}),
		Backends: b,
		Gateway:  gw,
		Session:  store,
		Pets:     pets.NewService(b.Data, log),
		Bookings: bookings.NewService(b.Data, log),
	}, nil
}

// Start lanza el loop que sigue a la sesión.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})
	go a.run(ctx, a.done)
	return nil
}

// run es el único goroutine que abre y cierra workspaces. Cada cambio de
// sesión deja una señal en wake; el loop siempre lee el último estado.
func (a *App) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	wake := make(chan struct{}, 1)
	cancel := a.Session.Subscribe(func(session.State) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			a.switchTo(ctx, "")
			return
		case <-wake:
			st := a.Session.Snapshot()
			if st.Loading {
				continue
			}
			uid := ""
			if st.Session.IsAuthenticated {
				uid = st.Session.UserID
			}
			a.switchTo(ctx, uid)
		}
	}
}

// switchTo deja abierto el workspace de uid ("" = ninguno).
func (a *App) switchTo(ctx context.Context, uid string) {
	a.mu.RLock()
	cur := a.ws
	a.mu.RUnlock()

	if cur != nil && cur.UserID == uid {
		return
	}

	if cur != nil {
		a.mu.Lock()
		a.ws = nil
		a.mu.Unlock()
		cur.stop(a.Log)
		a.Log.Info("workspace closed", map[string]any{"user_id": cur.UserID})
	}

	if uid == "" || ctx.Err() != nil {
		return
	}

	ws := newWorkspace(a.Backends.Data, a.Backends.Feed, uid, a.Log)
	// Se publica antes de cargar para que /pets muestre el estado loading.
	a.mu.Lock()
	a.ws = ws
	a.mu.Unlock()

	ws.start(ctx, a.Log)
	a.Log.Info("workspace opened", map[string]any{"user_id": uid})
}

// Workspace devuelve el workspace abierto, si hay.
func (a *App) Workspace() (*Workspace, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ws, a.ws != nil
}

func (a *App) PetsChannel() (*livesync.Channel[pets.Pet], bool) {
	ws, ok := a.Workspace()
	if !ok {
		return nil, false
	}
	return ws.Pets, true
}

func (a *App) BookingsChannel() (*livesync.Channel[bookings.Booking], bool) {
	ws, ok := a.Workspace()
	if !ok {
		return nil, false
	}
	return ws.Bookings, true
}

// Shutdown detiene el loop (cerrando el workspace), desengancha la sesión
// y cierra los backends.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	a.Session.Close()
	a.Gateway.Close()
	return a.Backends.Close()
}
