package bookings

import (
	"pawtastic/internal/livesync"
	"pawtastic/internal/platform/logger"
	"pawtastic/internal/ports/backend"
)

// NewChannel arma el espejo del historial de reservas de userID.
func NewChannel(data backend.DataAPI, feed backend.ChangeFeed, userID string, log logger.Logger) *livesync.Channel[Booking] {
	return livesync.New[Booking](data, feed, livesync.Config[Booking]{
		Table:       BookingsTable,
		OwnerColumn: OwnerColumn,
		OwnerID:     userID,
		OrderBy:     "created_at",
	}, log)
}
