package pets

import (
	"pawtastic/internal/livesync"
	"pawtastic/internal/platform/logger"
	"pawtastic/internal/ports/backend"
)

// NewChannel arma el espejo de las mascotas de ownerID.
func NewChannel(data backend.DataAPI, feed backend.ChangeFeed, ownerID string, log logger.Logger) *livesync.Channel[Pet] {
	return livesync.New[Pet](data, feed, livesync.Config[Pet]{
		Table:       PetsTable,
		OwnerColumn: OwnerColumn,
		OwnerID:     ownerID,
		OrderBy:     "created_at",
	}, log)
}
