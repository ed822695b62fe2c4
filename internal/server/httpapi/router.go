package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/storegate/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the route set. Everything under /users passes through
// Authenticate, with PublicUserPaths exempt. Everything under /admin passes
// through RequireAdmin except /admin/login, which is registered on the root.
// Unknown routes and wrong methods answer with the JSON error envelope.
func NewRouter(h *Handler, tokens TokenVerifier, logger logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Other methods on /admin/login must not fall through to the gated mount.
	r.HandleFunc("/admin/login", h.MethodNotAllowed)
	r.Post("/admin/login", h.AdminLogin)

	r.Route("/users", func(r chi.Router) {
		r.Use(Authenticate(tokens, logger, PublicUserPaths...))

		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/verify-email", h.VerifyEmail)
		r.Post("/resend-verification", h.ResendVerification)

		r.Get("/me", h.Me)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireAdmin(tokens, logger))

		r.Post("/uploads", h.UploadImage)
	})

	return r
}
