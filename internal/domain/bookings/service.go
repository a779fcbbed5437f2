package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pawtastic/internal/domain/pets"
	"pawtastic/internal/platform/apperr"
	"pawtastic/internal/platform/logger"
	"pawtastic/internal/ports/backend"
)

// ErrBookingFailed marca un rechazo del backend al escribir la reserva.
// Viaja envuelto en un apperr de kind write_error.
var ErrBookingFailed = errors.New("booking failed")

// PetSource son las mascotas que se ofrecen para reservar: las que ya cargó
// el canal de mascotas del usuario.
type PetSource interface {
	Get(id string) (pets.Pet, bool)
}

type Service struct {
	data backend.DataAPI
	log  logger.Logger
	now  func() time.Time
}

func NewService(data backend.DataAPI, log logger.Logger) *Service {
	return &Service{
		data: data,
		log:  logger.OrNop(log).With(map[string]any{"component": "bookings"}),
		now:  time.Now,
	}
}

type SubmitInput struct {
	PetID       string
	ServiceType string
	ScheduledAt time.Time
	Notes       string
}

// Submit valida y escribe la reserva con estado pending. No agrega nada a
// la lista local: el canal de reservas la recibe por el feed.
func (s *Service) Submit(ctx context.Context, userID string, offered PetSource, in SubmitInput) (Booking, error) {
	const op = "bookings.submit"

	if strings.TrimSpace(userID) == "" {
		return Booking{}, apperr.New(apperr.KindNoSession, op)
	}

	petID := strings.TrimSpace(in.PetID)
	if petID == "" {
		return Booking{}, apperr.Missing(op, "pet_id")
	}
	if offered == nil {
		return Booking{}, apperr.Invalid(op, "pet_id")
	}
	pet, ok := offered.Get(petID)
	if !ok || pet.OwnerID != userID {
		return Booking{}, apperr.Invalid(op, "pet_id")
	}

	if strings.TrimSpace(in.ServiceType) == "" {
		return Booking{}, apperr.Missing(op, "service_type")
	}
	st, ok := ParseServiceType(in.ServiceType)
	if !ok {
		return Booking{}, apperr.Invalid(op, "service_type")
	}

	if in.ScheduledAt.IsZero() {
		return Booking{}, apperr.Missing(op, "scheduled_at")
	}
	now := s.now()
	if in.ScheduledAt.Before(now) {
		return Booking{}, apperr.New(apperr.KindInvalidDate, op)
	}

	out, err := s.data.Insert(ctx, BookingsTable, backend.Row{
		"user_id":      userID,
		"pet_id":       pet.ID,
		"service_type": string(st),
		"scheduled_at": in.ScheduledAt.UTC().Format(time.RFC3339Nano),
		"notes":        strings.TrimSpace(in.Notes),
		"status":       string(StatusPending),
		"created_at":   now.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		s.log.Error("booking insert failed", map[string]any{"op": op, "user_id": userID, "pet_id": pet.ID, "err": err})
		return Booking{}, apperr.Wrap(apperr.KindWriteError, op, fmt.Errorf("%w: %w", ErrBookingFailed, err))
	}

	b, err := backend.Decode[Booking](out)
	if err != nil {
		return Booking{}, apperr.Wrap(apperr.KindWriteError, op, fmt.Errorf("%w: %w", ErrBookingFailed, err))
	}
	s.log.Info("booking submitted", map[string]any{"user_id": userID, "booking_id": b.ID, "service_type": string(st)})
	return b, nil
}
