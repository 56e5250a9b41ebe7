// internal/auth/usecase/login.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/campushub/session-system/common/autherr"
	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/internal/auth/metrics"
	"github.com/campushub/session-system/internal/session"
	"github.com/campushub/session-system/internal/token"
)

var loginTracer = otel.Tracer("auth/usecase/login")

type loginHandler struct {
	codec    *token.Codec
	sessions *session.Store
	log      *logger.Logger
}

// NewLoginHandler создаёт TokenIssuer: выпускает пару токенов и
// сохраняет refresh в SessionStore.
func NewLoginHandler(codec *token.Codec, sessions *session.Store, log *logger.Logger) LoginHandler {
	return &loginHandler{codec: codec, sessions: sessions, log: log.Named("login")}
}

func (h *loginHandler) Handle(ctx context.Context, userID, authority string) (*TokenPair, error) {
	ctx, span := loginTracer.Start(ctx, "Login")
	defer span.End()

	if userID == "" || authority == "" {
		metrics.LoginTotal.WithLabelValues("fail").Inc()
		return nil, autherr.ErrServerError.WithCause(fmt.Errorf("login: empty identity"))
	}

	access, err := h.codec.Issue(userID, authority, h.codec.AccessTTL())
	if err != nil {
		metrics.LoginTotal.WithLabelValues("fail").Inc()
		return nil, autherr.ErrServerError.WithCause(fmt.Errorf("issue access: %w", err))
	}
	refresh, err := h.codec.IssueAnonymous(h.codec.RefreshTTL())
	if err != nil {
		metrics.LoginTotal.WithLabelValues("fail").Inc()
		return nil, autherr.ErrServerError.WithCause(fmt.Errorf("issue refresh: %w", err))
	}

	// Перезапись прошлой сессии намеренная: вход на новом устройстве
	// инвалидирует старый refresh-токен на стороне сервера.
	if err := h.sessions.SaveRefresh(ctx, userID, refresh, h.codec.RefreshTTL()); err != nil {
		metrics.LoginTotal.WithLabelValues("fail").Inc()
		h.log.WithContext(ctx).Error("store refresh failed", zap.Error(err))
		return nil, autherr.ErrServerError.WithCause(err)
	}

	metrics.IssuedTokens.WithLabelValues("access").Inc()
	metrics.IssuedTokens.WithLabelValues("refresh").Inc()
	metrics.LoginTotal.WithLabelValues("ok").Inc()

	return &TokenPair{
		AccessToken:     access,
		AccessExpiresAt: time.Now().Add(h.codec.AccessTTL()),
		RefreshToken:    refresh,
		RefreshTTL:      h.codec.RefreshTTL(),
		Subject:         userID,
		Authority:       authority,
	}, nil
}
