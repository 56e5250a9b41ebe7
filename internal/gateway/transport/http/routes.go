// internal/gateway/transport/http/routes.go
package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/common/middleware"
	"github.com/campushub/session-system/internal/gateway/authfilter"
	"github.com/campushub/session-system/internal/gateway/config"
)

// Routes собирает роутер шлюза: на каждый сконфигурированный префикс —
// reverse-proxy, защищённый фильтром, если маршрут не public.
func Routes(filter *authfilter.Filter, routes []config.Route, log *logger.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())
	r.Use(middleware.RequestLogger(log))

	for _, rt := range routes {
		proxy, err := newProxy(rt.Target, log)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", rt.Prefix, err)
		}

		handler := proxy
		if !rt.Public {
			handler = filter.Authenticate(filter.RequireAuthority(rt.Authority)(proxy))
		}

		r.Handle(rt.Prefix, handler)
		r.Handle(rt.Prefix+"/*", handler)
	}

	return r, nil
}
