// internal/gateway/authfilter/filter.go

// Package authfilter — пограничная проверка access-токенов. Всё, что
// прошло фильтр, внутренние сервисы считают аутентифицированным и
// подпись повторно не проверяют.
package authfilter

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/campushub/session-system/common/autherr"
	"github.com/campushub/session-system/common/ctxkeys"
	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/common/response"
	"github.com/campushub/session-system/internal/session"
	"github.com/campushub/session-system/internal/token"
)

var filterTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gateway", Subsystem: "authfilter", Name: "requests_total",
	Help: "Edge auth filter outcomes",
}, []string{"result"})

// Filter проверяет подпись, срок и отзыв access-токена на периметре.
type Filter struct {
	codec    *token.Codec
	sessions *session.Store
	log      *logger.Logger
}

// New создаёт Filter.
func New(codec *token.Codec, sessions *session.Store, log *logger.Logger) *Filter {
	return &Filter{codec: codec, sessions: sessions, log: log.Named("authfilter")}
}

// Authenticate отклоняет запросы без валидного токена и обогащает
// контекст subject'ом и authority.
func (f *Filter) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			filterTotal.WithLabelValues("no_header").Inc()
			response.Error(w, autherr.ErrNoAuthHeader)
			return
		}
		raw := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := f.codec.Verify(raw)
		if err != nil {
			filterTotal.WithLabelValues("invalid").Inc()
			response.Error(w, autherr.ErrInvalidAccessToken.WithCause(err))
			return
		}

		// Сбой хранилища — отказ, а не пропуск: потенциально отозванный
		// токен не должен проскочить из-за таймаута Redis'а.
		revoked, err := f.sessions.IsRevoked(r.Context(), raw)
		if err != nil {
			filterTotal.WithLabelValues("store_error").Inc()
			f.log.WithContext(r.Context()).Error("revocation check failed", zap.Error(err))
			response.Error(w, autherr.ErrServerError.WithCause(err))
			return
		}
		if revoked {
			filterTotal.WithLabelValues("revoked").Inc()
			response.Error(w, autherr.ErrTokenRevoked)
			return
		}

		filterTotal.WithLabelValues("ok").Inc()
		ctx := context.WithValue(r.Context(), ctxkeys.UserIDKey, claims.Subject())
		ctx = context.WithValue(ctx, ctxkeys.AuthorityKey, claims.Authority)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuthority пропускает только субъектов с точно совпадающей
// ролью. Пустая строка означает "любой аутентифицированный".
func (f *Filter) RequireAuthority(authority string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if authority == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ := r.Context().Value(ctxkeys.AuthorityKey).(string)
			if got != authority {
				filterTotal.WithLabelValues("forbidden").Inc()
				response.Error(w, autherr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
