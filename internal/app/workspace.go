package app

import (
	"context"

	"pawtastic/internal/domain/bookings"
	"pawtastic/internal/domain/pets"
	"pawtastic/internal/livesync"
	"pawtastic/internal/platform/logger"
	"pawtastic/internal/ports/backend"
)

// Workspace son los canales de sincronización de un usuario. Vive desde
// el login hasta el logout (o el cambio de usuario).
type Workspace struct {
	UserID   string
	Pets     *livesync.Channel[pets.Pet]
	Bookings *livesync.Channel[bookings.Booking]
}

func newWorkspace(data backend.DataAPI, feed backend.ChangeFeed, userID string, log logger.Logger) *Workspace {
	return &Workspace{
		UserID:   userID,
		Pets:     pets.NewChannel(data, feed, userID, log),
		Bookings: bookings.NewChannel(data, feed, userID, log),
	}
}

// start carga ambos canales. Un canal que falla queda en estado failed
// con la lista vacía; el error se loguea y se expone vía Status.
func (w *Workspace) start(ctx context.Context, log logger.Logger) {
	if _, err := w.Pets.Start(ctx); err != nil {
		log.Warn("pets channel failed to start", map[string]any{"user_id": w.UserID, "err": err})
	}
	if _, err := w.Bookings.Start(ctx); err != nil {
		log.Warn("bookings channel failed to start", map[string]any{"user_id": w.UserID, "err": err})
	}
}

// stop libera las suscripciones. Cada Stop acompaña a su Start.
func (w *Workspace) stop(log logger.Logger) {
	if err := w.Pets.Stop(); err != nil {
		log.Warn("pets channel stop", map[string]any{"user_id": w.UserID, "err": err})
	}
	if err := w.Bookings.Stop(); err != nil {
		log.Warn("bookings channel stop", map[string]any{"user_id": w.UserID, "err": err})
	}
}
