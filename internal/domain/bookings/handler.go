package bookings

import (
	"net/http"
	"strings"
	"time"

	"pawtastic/internal/domain/pets"
	"pawtastic/internal/livesync"
	"pawtastic/internal/middleware"
	"pawtastic/internal/platform/apperr"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// Mirror devuelve el canal de reservas del usuario actual, si hay uno.
type Mirror func() (*livesync.Channel[Booking], bool)

// Routes agrupa lo que necesitan los handlers de reservas.
type Routes struct {
	Service  *Service
	Bookings Mirror
	Pets     pets.Mirror

	// Location es la zona de los campos date/time del formulario. Default UTC.
	Location *time.Location
}

// RegisterCatalogRoutes monta el catálogo público de servicios.
func RegisterCatalogRoutes(r chi.Router) {
	r.Get("/services", listServicesHandler())
}

// RegisterRoutes monta /bookings. Va detrás de middleware.RequireSession.
func RegisterRoutes(r chi.Router, rt Routes) {
	r.Route("/bookings", func(br chi.Router) {
		br.Get("/", listBookingsHandler(rt))
		br.Post("/", submitBookingHandler(rt))
	})
}

type submitBookingRequest struct {
	PetID       string `json:"pet_id"`
	ServiceType string `json:"service_type"` // walk|grooming|veterinary|daycare|nutrition (o paseo|cuidado|salud|alimentacion)

	// Horario: scheduled_at (RFC3339) o date (DD/MM/YYYY) + time (HH:MM).
	ScheduledAt string `json:"scheduled_at"`
	Date        string `json:"date"`
	Time        string `json:"time"`

	Notes string `json:"notes"`
}

type bookingResponse struct {
	ID          string      `json:"id"`
	PetID       string      `json:"pet_id"`
	PetName     string      `json:"pet_name,omitempty"`
	ServiceType ServiceType `json:"service_type"`
	Title       string      `json:"title,omitempty"`
	Price       float64     `json:"price"`
	ScheduledAt time.Time   `json:"scheduled_at"`
	Notes       string      `json:"notes"`
	Status      Status      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}

type bookingListResponse struct {
	Status string            `json:"status"` // idle|loading|live|failed
	Error  string            `json:"error,omitempty"`
	Items  []bookingResponse `json:"items"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// listServicesHandler godoc
// @Summary Catálogo de servicios
// @Tags bookings
// @Produce json
// @Success 200 {array} Offering
// @Router /services [get]
func listServicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Catalog())
	}
}

// listBookingsHandler godoc
// @Summary Historial de servicios
// @Description Lista espejada de reservas (más nueva primero) con datos del catálogo y nombre de la mascota.
// @Tags bookings
// @Produce json
// @Success 200 {object} bookingListResponse
// @Failure 401 {object} errorResponse "no_session"
// @Router /bookings [get]
func listBookingsHandler(rt Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := bookingListResponse{Status: string(livesync.StatusIdle), Items: []bookingResponse{}}
		ch, ok := rt.Bookings()
		if !ok {
			writeJSON(w, http.StatusOK, resp)
			return
		}

		st, err := ch.Status()
		resp.Status = string(st)
		if err != nil {
			resp.Error = apperr.Message(err)
		}

		petsCh, hasPets := rt.Pets()
		for _, b := range ch.List() {
			item := toBookingResponse(b)
			if hasPets {
				if p, ok := petsCh.Get(b.PetID); ok {
					item.PetName = p.Name
				}
			}
			resp.Items = append(resp.Items, item)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// submitBookingHandler godoc
// @Summary Reservar servicio
// @Description Crea la reserva en estado pending. La mascota debe estar entre las cargadas del usuario y la fecha no puede ser pasada.
// @Tags bookings
// @Accept json
// @Produce json
// @Param payload body submitBookingRequest true "Datos de la reserva"
// @Success 201 {object} bookingResponse
// @Failure 400 {object} errorResponse "missing_field / invalid_field / invalid_date"
// @Failure 401 {object} errorResponse "no_session"
// @Failure 502 {object} errorResponse "write_error"
// @Router /bookings [post]
func submitBookingHandler(rt Routes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "bookings.submit"

		uid := middleware.UserID(r.Context())

		var req submitBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Invalid(op, "body"))
			return
		}

		var at time.Time
		switch {
		case strings.TrimSpace(req.ScheduledAt) != "":
			t, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledAt))
			if err != nil {
				writeError(w, apperr.Wrap(apperr.KindInvalidDate, op, err))
				return
			}
			at = t
		case strings.TrimSpace(req.Date) != "":
			t, err := ParseSchedule(req.Date, req.Time, rt.Location)
			if err != nil {
				writeError(w, err)
				return
			}
			at = t
		}

		// Solo se ofrecen las mascotas que ya cargó el canal del usuario.
		var offered PetSource
		if ch, ok := rt.Pets(); ok {
			offered = ch
		}

		b, err := rt.Service.Submit(r.Context(), uid, offered, SubmitInput{
			PetID:       req.PetID,
			ServiceType: req.ServiceType,
			ScheduledAt: at,
			Notes:       req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBookingResponse(b))
	}
}

func toBookingResponse(b Booking) bookingResponse {
	out := bookingResponse{
		ID:          b.ID,
		PetID:       b.PetID,
		ServiceType: b.ServiceType,
		ScheduledAt: b.ScheduledAt,
		Notes:       b.Notes,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
	}
	if o, ok := Lookup(b.ServiceType); ok {
		out.Title = o.Title
		out.Price = o.Price
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	kind := string(apperr.KindOf(err))
	if kind == "" {
		kind = "internal"
	}
	writeJSON(w, apperr.HTTPStatus(err), errorResponse{
		Error:   kind,
		Field:   apperr.FieldOf(err),
		Message: apperr.Message(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
