package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"events-service/internal/domain"
	"events-service/internal/handler"
	"events-service/pkg/middleware"
)

type Options struct {
	CORSOrigins []string
	// RateLimit runs after authentication on every non-public route, so
	// callers are counted per user.
	RateLimit func(http.Handler) http.Handler
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
	Logger     *zap.Logger
}

func SetupRoutes(
	r chi.Router,
	h *handler.EventsHandler,
	auth *middleware.AuthMiddleware,
	opts Options,
) chi.Router {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// ---- Global Middleware ----
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	if opts.Logger != nil {
		r.Use(middleware.AccessLog(opts.Logger))
	}
	r.Use(handler.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	guard := func(g chi.Router, roles ...domain.Role) {
		g.Use(auth.Require(roles...))
		if opts.RateLimit != nil {
			g.Use(opts.RateLimit)
		}
	}

	// ---- Mount all routes under /events/svc ----
	r.Route("/events/svc", func(er chi.Router) {

		// ---- Public routes ----
		er.Group(func(pub chi.Router) {
			pub.Get("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			pub.Handle("/metrics", promhttp.Handler())
		})

		// ---- Any authenticated principal ----
		er.Group(func(priv chi.Router) {
			guard(priv)

			priv.Route("/catalog", func(c chi.Router) {
				c.Get("/events", h.ListEvents)
				c.Get("/events/{id}", h.GetEvent)
				c.Get("/event-types/{id}/results", h.ListEventResults)
				c.Get("/eligible", h.ListEligibleEvents)
			})

			priv.Post("/registrations/individual", h.RegisterIndividual)
			priv.Get("/registrations/individual/{id}", h.GetIndividualRegistration)
			priv.Delete("/registrations/individual/{id}", h.WithdrawIndividual)
			priv.Get("/registrations/mine", h.ListMyRegistrations)
			priv.Get("/registrations/team/{id}", h.GetTeamRegistration)
		})

		// ---- Team management ----
		er.Group(func(team chi.Router) {
			guard(team, domain.RoleTempleAdmin, domain.RoleSuperUser)

			team.Post("/registrations/team", h.RegisterTeam)
			team.Put("/registrations/team/{id}/members", h.UpdateTeamMembers)
		})

		// ---- Temple admin routes ----
		er.Group(func(ta chi.Router) {
			guard(ta, domain.RoleTempleAdmin, domain.RoleSuperUser)

			ta.Get("/temple/registrations", h.ListTempleRegistrations)
			ta.With(auth.Require(domain.RoleTempleAdmin)).
				Patch("/temple/registrations/{kind}/{id}/status", h.UpdateTempleStatus)
		})

		// ---- Super-user routes ----
		er.Group(func(su chi.Router) {
			guard(su, domain.RoleSuperUser)

			su.Patch("/admin/registrations/{kind}/{id}/status", h.UpdateAdminStatus)
			su.Get("/admin/audit", h.ListAuditLog)
		})

		// ---- Results ----
		er.Group(func(res chi.Router) {
			guard(res, domain.RoleStaff, domain.RoleSuperUser)

			res.Put("/results/{kind}/{id}", h.SetResult)
		})
	})

	return r
}
