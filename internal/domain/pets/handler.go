package pets

import (
	"net/http"
	"strings"
	"time"

	"pawtastic/internal/livesync"
	"pawtastic/internal/middleware"
	"pawtastic/internal/platform/apperr"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

// Mirror devuelve el canal de mascotas del usuario actual, si hay uno
// corriendo.
type Mirror func() (*livesync.Channel[Pet], bool)

func RegisterRoutes(r chi.Router, svc *Service, mirror Mirror) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Get("/", listPetsHandler(mirror))
		pr.Post("/", createPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Delete("/{petID}", deletePetHandler(svc))
	})
}

type createPetRequest struct {
	Name     string   `json:"name"`
	Species  string   `json:"species"` // dog|cat|other (o perro|gato|otro)
	Breed    string   `json:"breed"`
	Age      *int     `json:"age"`
	WeightKg *float64 `json:"weight_kg"`
	Notes    string   `json:"notes"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name     *string  `json:"name"`
	Species  *string  `json:"species"`
	Breed    *string  `json:"breed"`
	Age      *int     `json:"age"`
	WeightKg *float64 `json:"weight_kg"`
	Notes    *string  `json:"notes"`
}

type petResponse struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	Name      string     `json:"name"`
	Species   Species    `json:"species"`
	Breed     string     `json:"breed"`
	Age       int        `json:"age"`
	WeightKg  *float64   `json:"weight_kg,omitempty"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type petListResponse struct {
	Status string        `json:"status"` // idle|loading|live|failed
	Error  string        `json:"error,omitempty"`
	Items  []petResponse `json:"items"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// listPetsHandler godoc
// @Summary Listar mis mascotas
// @Description Devuelve la lista espejada (más nueva primero) y el estado de sincronización.
// @Tags pets
// @Produce json
// @Success 200 {object} petListResponse
// @Failure 401 {object} errorResponse "no_session"
// @Router /pets [get]
func listPetsHandler(mirror Mirror) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := petListResponse{Status: string(livesync.StatusIdle), Items: []petResponse{}}
		if ch, ok := mirror(); ok {
			st, err := ch.Status()
			resp.Status = string(st)
			if err != nil {
				resp.Error = apperr.Message(err)
			}
			for _, p := range ch.List() {
				resp.Items = append(resp.Items, toPetResponse(p))
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Description name, species, breed y age son obligatorios; weight_kg opcional (>= 0).
// @Tags pets
// @Accept json
// @Produce json
// @Param payload body createPetRequest true "Datos de la mascota"
// @Success 201 {object} petResponse
// @Failure 400 {object} errorResponse "missing_field / invalid_field"
// @Failure 401 {object} errorResponse "no_session"
// @Failure 502 {object} errorResponse "write_error"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Invalid("pets.create", "body"))
			return
		}

		p, err := svc.Create(r.Context(), uid, CreateInput{
			Name:     req.Name,
			Species:  req.Species,
			Breed:    req.Breed,
			Age:      req.Age,
			WeightKg: req.WeightKg,
			Notes:    req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body updatePetRequest true "Campos a modificar"
// @Success 200 {object} petResponse
// @Failure 400 {object} errorResponse "missing_field / invalid_field"
// @Failure 401 {object} errorResponse "no_session"
// @Failure 404 {object} errorResponse "pet not found"
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())

		var req updatePetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Invalid("pets.update", "body"))
			return
		}

		p, err := svc.Update(r.Context(), uid, strings.TrimSpace(chi.URLParam(r, "petID")), UpdateInput{
			Name:     req.Name,
			Species:  req.Species,
			Breed:    req.Breed,
			Age:      req.Age,
			WeightKg: req.WeightKg,
			Notes:    req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// deletePetHandler godoc
// @Summary Eliminar mascota
// @Tags pets
// @Param petID path string true "ID de la mascota"
// @Success 204
// @Failure 401 {object} errorResponse "no_session"
// @Failure 404 {object} errorResponse "pet not found"
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := middleware.UserID(r.Context())

		if err := svc.Delete(r.Context(), uid, strings.TrimSpace(chi.URLParam(r, "petID"))); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Species:   p.Species,
		Breed:     p.Breed,
		Age:       p.Age,
		WeightKg:  p.WeightKg,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, err error) {
	if IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: "La mascota no existe"})
		return
	}
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
