package account

import (
	"net/http"
	"time"

	"pawtastic/internal/platform/apperr"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

func RegisterAuthRoutes(r chi.Router, g *Gateway) {
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", registerHandler(g))
		ar.Post("/login", loginHandler(g))
		ar.Post("/logout", logoutHandler(g))
	})
}

// RegisterProfileRoutes monta /me. Va detrás de middleware.RequireSession.
func RegisterProfileRoutes(r chi.Router, g *Gateway) {
	r.Get("/me/profile", getProfileHandler(g))
	r.Patch("/me/profile", updateProfileHandler(g))
	r.Delete("/me", deleteAccountHandler(g))
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	UserID string `json:"user_id"`
}

type updateProfileRequest struct {
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Phone      string         `json:"phone"`
	Address    string         `json:"address"`
	City       string         `json:"city"`
	PostalCode string         `json:"postal_code"`
	Bio        string         `json:"bio"`
	Extra      map[string]any `json:"extra"`
}

type profileResponse struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	FirstName  string         `json:"first_name"`
	LastName   string         `json:"last_name"`
	Phone      string         `json:"phone"`
	Address    string         `json:"address"`
	City       string         `json:"city"`
	PostalCode string         `json:"postal_code"`
	Bio        string         `json:"bio"`
	Extra      map[string]any `json:"extra,omitempty"`
	CreatedAt  *time.Time     `json:"created_at,omitempty"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// registerHandler godoc
// @Summary Registrar usuario
// @Description Crea la cuenta y abre sesión. Valida email y password antes de llamar al backend.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Credenciales y datos opcionales del perfil"
// @Success 201 {object} authResponse
// @Failure 400 {object} errorResponse "invalid_email / weak_password / missing_field"
// @Failure 409 {object} errorResponse "email_in_use"
// @Failure 502 {object} errorResponse "write_error"
// @Router /auth/register [post]
func registerHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Invalid("account.register", "body"))
			return
		}

		id, err := g.Register(r.Context(), req.Email, req.Password, ProfileSeed{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, authResponse{UserID: id})
	}
}

// loginHandler godoc
// @Summary Iniciar sesión
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Email y password"
// @Success 200 {object} authResponse
// @Failure 400 {object} errorResponse "missing_field"
// @Failure 401 {object} errorResponse "invalid_credentials"
// @Router /auth/login [post]
func loginHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Invalid("account.login", "body"))
			return
		}

		id, err := g.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, authResponse{UserID: id})
	}
}

// logoutHandler godoc
// @Summary Cerrar sesión
// @Description Siempre deja la sesión local anónima, aunque falle el backend.
// @Tags auth
// @Success 204
// @Router /auth/logout [post]
func logoutHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.Logout(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

// getProfileHandler godoc
// @Summary Perfil del usuario actual
// @Tags profile
// @Produce json
// @Success 200 {object} profileResponse
// @Failure 401 {object} errorResponse "no_session"
// @Failure 502 {object} errorResponse "load_error"
// @Router /me/profile [get]
func getProfileHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := g.GetProfile(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

// updateProfileHandler godoc
// @Summary Actualizar perfil
// @Description Reemplaza los campos editables. first_name y last_name son obligatorios.
// @Tags profile
// @Accept json
// @Produce json
// @Param payload body updateProfileRequest true "Campos del perfil"
// @Success 200 {object} profileResponse
// @Failure 400 {object} errorResponse "missing_field"
// @Failure 401 {object} errorResponse "no_session"
// @Failure 502 {object} errorResponse "write_error"
// @Router /me/profile [patch]
func updateProfileHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, apperr.Invalid("account.update_profile", "body"))
			return
		}

		p, err := g.UpdateProfile(r.Context(), ProfileUpdate{
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Phone:      req.Phone,
			Address:    req.Address,
			City:       req.City,
			PostalCode: req.PostalCode,
			Bio:        req.Bio,
			Extra:      req.Extra,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(p))
	}
}

// deleteAccountHandler godoc
// @Summary Eliminar cuenta
// @Description Borra el perfil y el usuario de auth y cierra la sesión.
// @Tags profile
// @Success 204
// @Failure 401 {object} errorResponse "no_session"
// @Failure 502 {object} errorResponse "write_error"
// @Router /me [delete]
func deleteAccountHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := g.DeleteAccount(r.Context()); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toProfileResponse(p Profile) profileResponse {
	return profileResponse{
		ID:         p.ID,
		Email:      p.Email,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Phone:      p.Phone,
		Address:    p.Address,
		City:       p.City,
		PostalCode: p.PostalCode,
		Bio:        p.Bio,
		Extra:      p.Extra,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
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
