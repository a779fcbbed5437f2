package bookings

import "time"

// BookingsTable es la tabla remota de reservas.
const BookingsTable = "service_bookings"

// OwnerColumn filtra las reservas del usuario actual.
const OwnerColumn = "user_id"

type Booking struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	PetID       string      `json:"pet_id"`
	ServiceType ServiceType `json:"service_type"`
	ScheduledAt time.Time   `json:"scheduled_at"`
	Notes       string      `json:"notes"`
	Status      Status      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (b Booking) RecordID() string { return b.ID }
