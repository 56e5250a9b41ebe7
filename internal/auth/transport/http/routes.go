// internal/auth/transport/http/routes.go
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/common/middleware"
)

// Routes собирает маршруты auth-сервиса.
func Routes(h *Handler, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.RequestLogger(log))

	r.Get("/auth/login/callback", h.LoginCallback)
	r.Post("/auth/reissue", h.Reissue)
	r.Post("/auth/logout", h.Logout)

	return r
}
