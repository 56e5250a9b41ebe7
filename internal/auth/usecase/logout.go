// internal/auth/usecase/logout.go
package usecase

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/campushub/session-system/common/autherr"
	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/internal/auth/metrics"
	"github.com/campushub/session-system/internal/session"
	"github.com/campushub/session-system/internal/token"
)

var logoutTracer = otel.Tracer("auth/usecase/logout")

// minRevokeTTL страхует от нулевого TTL, когда токен истекает в момент
// logout'а: маркер всё равно пишется, но живёт символическую секунду.
const minRevokeTTL = time.Second

type logoutHandler struct {
	codec    *token.Codec
	sessions *session.Store
	log      *logger.Logger
}

// NewLogoutHandler создаёт RevocationService.
func NewLogoutHandler(codec *token.Codec, sessions *session.Store, log *logger.Logger) LogoutHandler {
	return &logoutHandler{codec: codec, sessions: sessions, log: log.Named("logout")}
}

// Handle отзывает ещё валидный access-токен и удаляет сессию его
// владельца. Оба действия завершаются до ответа клиенту: окна
// eventual consistency на logout нет.
func (h *logoutHandler) Handle(ctx context.Context, authorizationHeader string) error {
	ctx, span := logoutTracer.Start(ctx, "Logout")
	defer span.End()

	if !strings.HasPrefix(authorizationHeader, "Bearer ") {
		metrics.LogoutTotal.WithLabelValues("no_header").Inc()
		return autherr.ErrNoAuthHeader
	}
	accessToken := strings.TrimPrefix(authorizationHeader, "Bearer ")

	// Истёкший или поддельный токен "разлогинить" нельзя.
	claims, err := h.codec.Verify(accessToken)
	if err != nil {
		metrics.LogoutTotal.WithLabelValues("invalid").Inc()
		return autherr.ErrInvalidAccessToken.WithCause(err)
	}

	ttl := time.Until(claims.ExpiresAt())
	if ttl < minRevokeTTL {
		ttl = minRevokeTTL
	}
	if err := h.sessions.Revoke(ctx, accessToken, ttl); err != nil {
		metrics.LogoutTotal.WithLabelValues("store_error").Inc()
		h.log.WithContext(ctx).Error("revoke write failed", zap.Error(err))
		return autherr.ErrServerError.WithCause(err)
	}
	if err := h.sessions.DeleteRefresh(ctx, claims.Subject()); err != nil {
		metrics.LogoutTotal.WithLabelValues("store_error").Inc()
		h.log.WithContext(ctx).Error("session delete failed", zap.Error(err))
		return autherr.ErrServerError.WithCause(err)
	}

	metrics.LogoutTotal.WithLabelValues("ok").Inc()
	return nil
}
