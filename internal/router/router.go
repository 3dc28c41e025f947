package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"crowdpulse-api/internal/auth"
	"crowdpulse-api/internal/config"
	"crowdpulse-api/internal/handler"
	"crowdpulse-api/internal/middleware"
)

type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Topics      *handler.TopicHandler
	TopicResult *handler.TopicResultHandler
	Stats       *handler.StatsHandler
	Health      *handler.HealthHandler
	Audit       *handler.AuditHandler
	Docs        *handler.DocsHandler
}

func New(cfg *config.Config, verifier middleware.TokenVerifier, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	guard := middleware.NewAuthGuard(verifier)
	requireUser := guard.WithMinRole(auth.RoleUser).Handler
	requireManager := guard.WithMinRole(auth.RoleManager).Handler
	requireAdmin := guard.WithMinRole(auth.RoleAdministrator).Handler

	r.Use(middleware.Recovery)
	r.Use(middleware.TrustedRealIP(cfg.TrustedProxyCIDRs))
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Live)
	r.Get("/api/docs", h.Docs.SwaggerUI)
	r.Get("/api/docs/openapi.yaml", h.Docs.OpenAPI)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(a chi.Router) {
			a.Post("/signin", h.Auth.Signin)
			a.Post("/signup", h.Auth.Signup)
			a.Post("/refresh", h.Auth.Refresh)
			a.Post("/logout", h.Auth.Logout)
		})

		api.With(requireUser).Get("/health", h.Health.Health)

		api.Route("/users", func(u chi.Router) {
			u.With(requireUser).Get("/me", h.Users.Me)
			u.With(requireAdmin).Get("/", h.Users.List)
			u.With(requireUser).Patch("/{id}/password", h.Users.ChangePassword)
			u.With(requireAdmin).Patch("/{id}/role", h.Users.ChangeRole)
			u.With(requireAdmin).Delete("/{id}", h.Users.Delete)
		})

		api.Route("/topics", func(t chi.Router) {
			t.Get("/", h.Topics.List)
			t.Get("/{id}", h.Topics.Get)
			t.With(requireManager).Post("/", h.Topics.Create)
			t.With(requireUser).Post("/{id}/submissions", h.Topics.Submit)
			t.With(requireManager).Get("/{id}/submissions", h.Topics.Submissions)
		})

		api.With(requireUser).Post("/submissions/{id}/like", h.Topics.Like)

		api.Route("/stats", func(s chi.Router) {
			s.Use(requireManager)
			s.Get("/", h.Stats.Overview)
			s.Get("/topics", h.Stats.OpenTopics)
			s.Get("/users", h.Stats.Users)
			s.Get("/submissions", h.Stats.Submissions)
			s.Get("/ranking", h.Stats.Ranking)
		})

		api.Route("/topic-results", func(tr chi.Router) {
			tr.Use(requireManager)
			tr.Get("/", h.TopicResult.List)
			tr.Get("/{topicId}", h.TopicResult.Get)
			tr.With(middleware.PerIPLimit(cfg.AnalyzeRateLimitRPM)).Post("/analyze/{topicId}", h.TopicResult.Analyze)
		})

		api.With(requireAdmin).Get("/audit", h.Audit.List)
	})

	return r
}
