// internal/meeting/transport/http/routes.go
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/common/middleware"
	"github.com/campushub/session-system/internal/meeting/authz"
)

// RoleHost — роль организатора встречи.
const RoleHost = "HOST"

// Routes собирает маршруты meeting-сервиса. Просмотр доступен любому
// участнику, закрытие — только организатору.
func Routes(h *Handler, az *authz.Interceptor, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.RequestLogger(log))

	r.Route("/meetings/{id}", func(r chi.Router) {
		r.With(az.Require()).Get("/", h.GetMeeting)
		r.With(az.Require(RoleHost)).Post("/close", h.CloseMeeting)
	})

	return r
}
