// internal/auth/transport/http/handler.go
package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/campushub/session-system/common/autherr"
	"github.com/campushub/session-system/common/logger"
	"github.com/campushub/session-system/common/response"
	"github.com/campushub/session-system/internal/auth/identity"
	"github.com/campushub/session-system/internal/auth/usecase"
)

// Handler агрегирует зависимости HTTP-хендлеров auth-сервиса.
type Handler struct {
	uc       usecase.Handler
	provider identity.Provider
	cookie   CookieConfig
	log      *logger.Logger
}

// NewHandler создаёт Handler.
func NewHandler(uc usecase.Handler, provider identity.Provider, cookie CookieConfig, log *logger.Logger) *Handler {
	cookie.ApplyDefaults()
	return &Handler{uc: uc, provider: provider, cookie: cookie, log: log.Named("auth-http")}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"` // unix seconds
	Subject     string `json:"subject"`
}

// LoginCallback завершает OAuth2 authorization-code flow: code →
// личность → пара токенов. Access уходит в теле, refresh — в cookie.
func (h *Handler) LoginCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		response.BadRequest(w, "missing code")
		return
	}

	ident, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.log.WithContext(r.Context()).Warn("identity exchange failed", zap.Error(err))
		response.Error(w, autherr.ErrServerError.WithCause(err))
		return
	}

	pair, err := h.uc.Login.Handle(r.Context(), ident.ExternalID, ident.Authority)
	if err != nil {
		response.Error(w, err)
		return
	}

	h.cookie.setRefresh(w, pair.RefreshToken, pair.RefreshTTL)
	response.JSON(w, tokenResponse{
		AccessToken: pair.AccessToken,
		ExpiresAt:   pair.AccessExpiresAt.Unix(),
		Subject:     pair.Subject,
	})
}

// Reissue обменивает истёкший access + refresh из cookie на новый
// access; при ротации заодно заменяет cookie.
func (h *Handler) Reissue(w http.ResponseWriter, r *http.Request) {
	req := usecase.ReissueRequest{
		AuthorizationHeader: r.Header.Get("Authorization"),
	}
	if c, err := r.Cookie(h.cookie.Name); err == nil {
		req.RefreshToken = c.Value
	}

	res, err := h.uc.Reissue.Handle(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}

	if res.Rotation == usecase.Rotated {
		h.cookie.setRefresh(w, res.RefreshToken, res.RefreshTTL)
	}
	response.JSON(w, tokenResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.AccessExpiresAt.Unix(),
		Subject:     res.Subject,
	})
}

// Logout отзывает access-токен и удаляет cookie refresh-токена.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.uc.Logout.Handle(r.Context(), r.Header.Get("Authorization")); err != nil {
		response.Error(w, err)
		return
	}
	h.cookie.clearRefresh(w)
	response.JSON(w, map[string]bool{"logged_out": true})
}
