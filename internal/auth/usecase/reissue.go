// internal/auth/usecase/reissue.go
package usecase

import (
	"context"
	"errors"
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

var reissueTracer = otel.Tracer("auth/usecase/reissue")

type reissueHandler struct {
	codec    *token.Codec
	sessions *session.Store
	// rotateBelow — порог ротации: если refresh-токену осталось жить
	// меньше этого, вместе с access выпускается новый refresh.
	rotateBelow time.Duration
	log         *logger.Logger
}

// NewReissueHandler создаёт координатор перевыпуска access-токенов.
func NewReissueHandler(codec *token.Codec, sessions *session.Store, rotateBelow time.Duration, log *logger.Logger) ReissueHandler {
	return &reissueHandler{
		codec:       codec,
		sessions:    sessions,
		rotateBelow: rotateBelow,
		log:         log.Named("reissue"),
	}
}

// Handle проводит запрос через конвейер проверок; любой отказ
// терминален, состояние не мутирует до шага ротации.
func (h *reissueHandler) Handle(ctx context.Context, req ReissueRequest) (*ReissueResult, error) {
	ctx, span := reissueTracer.Start(ctx, "Reissue")
	defer span.End()

	// 1. Access-токен из Authorization: Bearer.
	if !strings.HasPrefix(req.AuthorizationHeader, "Bearer ") {
		metrics.ReissueTotal.WithLabelValues("no_header").Inc()
		return nil, autherr.ErrNoAuthHeader
	}
	accessToken := strings.TrimPrefix(req.AuthorizationHeader, "Bearer ")

	// 2. Отозванный токен не годится даже для перевыпуска.
	revoked, err := h.sessions.IsRevoked(ctx, accessToken)
	if err != nil {
		metrics.ReissueTotal.WithLabelValues("store_error").Inc()
		h.log.WithContext(ctx).Error("revocation check failed", zap.Error(err))
		return nil, autherr.ErrServerError.WithCause(err)
	}
	if revoked {
		metrics.ReissueTotal.WithLabelValues("revoked").Inc()
		return nil, autherr.ErrTokenRevoked
	}

	// 3. Принимается только подлинно подписанный и уже истёкший access.
	// Claims берутся из этого же (единственного) верифицирующего
	// разбора — отдельного неподписанного decode здесь нет.
	claims, err := h.codec.VerifyExpired(accessToken)
	switch {
	case errors.Is(err, token.ErrNotExpired):
		metrics.ReissueTotal.WithLabelValues("not_expired").Inc()
		return nil, autherr.ErrAccessTokenNotExpired
	case err != nil:
		metrics.ReissueTotal.WithLabelValues("invalid_access").Inc()
		return nil, autherr.ErrInvalidAccessToken.WithCause(err)
	}
	subject := claims.Subject()
	if subject == "" {
		// Анонимный (refresh) токен в заголовке авторизации.
		metrics.ReissueTotal.WithLabelValues("invalid_access").Inc()
		return nil, autherr.ErrInvalidAccessToken
	}

	// 4. Refresh-токен из cookie.
	if req.RefreshToken == "" {
		metrics.ReissueTotal.WithLabelValues("no_refresh").Inc()
		return nil, autherr.ErrRefreshTokenNotExist
	}

	// 5. Сверка с серверным состоянием: структурно валидный, но уже
	// ротированный или никогда не выданный refresh отклоняется.
	stored, err := h.sessions.GetRefresh(ctx, subject)
	if errors.Is(err, session.ErrNoSession) {
		metrics.ReissueTotal.WithLabelValues("invalid_refresh").Inc()
		return nil, autherr.ErrInvalidRefreshToken
	}
	if err != nil {
		metrics.ReissueTotal.WithLabelValues("store_error").Inc()
		h.log.WithContext(ctx).Error("session lookup failed", zap.Error(err))
		return nil, autherr.ErrServerError.WithCause(err)
	}
	if stored != req.RefreshToken {
		metrics.ReissueTotal.WithLabelValues("invalid_refresh").Inc()
		return nil, autherr.ErrInvalidRefreshToken
	}

	// 6. Подпись и срок самого refresh-токена.
	refreshClaims, err := h.codec.Verify(req.RefreshToken)
	if err != nil {
		metrics.ReissueTotal.WithLabelValues("invalid_refresh").Inc()
		return nil, autherr.ErrInvalidRefreshToken.WithCause(err)
	}

	result := &ReissueResult{Subject: subject, Rotation: NotRotated}

	// 7. Условная ротация через compare-and-set: из двух конкурентных
	// reissue ровно один заменяет запись, второй получает отказ.
	if remaining := time.Until(refreshClaims.ExpiresAt()); remaining < h.rotateBelow {
		newRefresh, err := h.codec.IssueAnonymous(h.codec.RefreshTTL())
		if err != nil {
			metrics.ReissueTotal.WithLabelValues("fail").Inc()
			return nil, autherr.ErrServerError.WithCause(err)
		}
		swapped, err := h.sessions.SwapRefresh(ctx, subject, req.RefreshToken, newRefresh, h.codec.RefreshTTL())
		if err != nil {
			metrics.ReissueTotal.WithLabelValues("store_error").Inc()
			h.log.WithContext(ctx).Error("rotation swap failed", zap.Error(err))
			return nil, autherr.ErrServerError.WithCause(err)
		}
		if !swapped {
			metrics.RotationTotal.WithLabelValues("race_lost").Inc()
			metrics.ReissueTotal.WithLabelValues("invalid_refresh").Inc()
			h.log.WithContext(ctx).Warn("rotation race lost", zap.String("user_id", subject))
			return nil, autherr.ErrInvalidRefreshToken
		}
		metrics.RotationTotal.WithLabelValues("rotated").Inc()
		metrics.IssuedTokens.WithLabelValues("refresh").Inc()
		result.Rotation = Rotated
		result.RefreshToken = newRefresh
		result.RefreshTTL = h.codec.RefreshTTL()
	} else {
		metrics.RotationTotal.WithLabelValues("kept").Inc()
	}

	// 8. Новый access с тем же subject/authority, что и у истёкшего.
	access, err := h.codec.Issue(subject, claims.Authority, h.codec.AccessTTL())
	if err != nil {
		metrics.ReissueTotal.WithLabelValues("fail").Inc()
		return nil, autherr.ErrServerError.WithCause(err)
	}
	result.AccessToken = access
	result.AccessExpiresAt = time.Now().Add(h.codec.AccessTTL())

	metrics.IssuedTokens.WithLabelValues("access").Inc()
	metrics.ReissueTotal.WithLabelValues("ok").Inc()
	return result, nil
}
