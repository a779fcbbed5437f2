package router

import (
	"net/http"
	"time"

	_ "pawtastic/internal/docs"

	"pawtastic/internal/app"
	"pawtastic/internal/domain/account"
	"pawtastic/internal/domain/bookings"
	"pawtastic/internal/domain/pets"
	"pawtastic/internal/domain/session"
	"pawtastic/internal/middleware"
	"pawtastic/internal/navigation"
	"pawtastic/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	App *app.App
	Log logger.Logger

	// Location es la zona de los campos date/time de las reservas. Default UTC.
	Location *time.Location
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(opts.Log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.SessionContext(opts.App.Session.Snapshot))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Get("/session", sessionHandler)

	account.RegisterAuthRoutes(r, opts.App.Gateway)
	bookings.RegisterCatalogRoutes(r)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireSession)

		account.RegisterProfileRoutes(pr, opts.App.Gateway)
		pets.RegisterRoutes(pr, opts.App.Pets, opts.App.PetsChannel)
		bookings.RegisterRoutes(pr, bookings.Routes{
			Service:  opts.App.Bookings,
			Bookings: opts.App.BookingsChannel,
			Pets:     opts.App.PetsChannel,
			Location: opts.Location,
		})
	})

	return r
}

type sessionResponse struct {
	User    *session.Session     `json:"user"`
	Loading bool                 `json:"loading"`
	Route   navigation.Selection `json:"route"`
}

// sessionHandler godoc
// @Summary Estado de sesión
// @Description Usuario actual, loading y el árbol de rutas que corresponde mostrar.
// @Tags session
// @Produce json
// @Success 200 {object} sessionResponse
// @Router /session [get]
func sessionHandler(w http.ResponseWriter, r *http.Request) {
	st, _ := middleware.GetSession(r.Context())

	resp := sessionResponse{Loading: st.Loading, Route: navigation.Select(st)}
	if st.Session.IsAuthenticated {
		s := st.Session
		resp.User = &s
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
