// internal/auth/usecase/interface.go
package usecase

import (
	"context"
	"time"
)

// TokenPair — результат логина: access-токен плюс refresh-токен,
// уже сохранённый в SessionStore.
type TokenPair struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
	RefreshTTL      time.Duration
	Subject         string
	Authority       string
}

// RotationState описывает исход шага ротации refresh-токена.
type RotationState int

const (
	NotRotated RotationState = iota
	Rotated
	// RaceLost наружу не возвращается: проигравший CAS получает
	// InvalidRefreshToken.
	RaceLost
)

// ReissueRequest — сырые учётные данные запроса реissue, как их видит
// транспорт. Пустые строки означают отсутствие.
type ReissueRequest struct {
	// AuthorizationHeader — значение заголовка Authorization целиком.
	AuthorizationHeader string
	// RefreshToken — значение cookie refresh-токена.
	RefreshToken string
}

// ReissueResult — новый access-токен и, при ротации, новый refresh.
type ReissueResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	Subject         string

	Rotation     RotationState
	RefreshToken string        // заполнен только при Rotation == Rotated
	RefreshTTL   time.Duration // TTL нового refresh-токена
}

type LoginHandler interface {
	Handle(ctx context.Context, userID, authority string) (*TokenPair, error)
}

type ReissueHandler interface {
	Handle(ctx context.Context, req ReissueRequest) (*ReissueResult, error)
}

type LogoutHandler interface {
	Handle(ctx context.Context, authorizationHeader string) error
}

// Handler агрегирует usecase'ы auth-сервиса.
type Handler struct {
	Login   LoginHandler
	Reissue ReissueHandler
	Logout  LogoutHandler
}

func NewHandler(login LoginHandler, reissue ReissueHandler, logout LogoutHandler) Handler {
	return Handler{Login: login, Reissue: reissue, Logout: logout}
}
