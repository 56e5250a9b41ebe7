// common/autherr/errors.go

// Package autherr задаёт таксономию ошибок жизненного цикла сессии.
// Каждая ошибка несёт стабильный машиночитаемый код и HTTP-статус, чтобы
// клиент мог отличить "войди заново" от "повтори reissue" и от "нет прав".
package autherr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code — машиночитаемый код ошибки, неизменный контракт API.
type Code string

const (
	CodeNoAuthHeader          Code = "NO_AUTH_HEADER"
	CodeInvalidAccessToken    Code = "INVALID_ACCESS_TOKEN"
	CodeTokenRevoked          Code = "TOKEN_REVOKED"
	CodeAccessTokenNotExpired Code = "ACCESS_TOKEN_NOT_EXPIRED"
	CodeRefreshTokenNotExist  Code = "REFRESH_TOKEN_NOT_EXIST"
	CodeInvalidRefreshToken   Code = "INVALID_REFRESH_TOKEN"
	CodeForbidden             Code = "FORBIDDEN"
	CodeNotFound              Code = "NOT_FOUND"
	CodeServerError           Code = "SERVER_ERROR"
)

// Error — типизированная ошибка жизненного цикла.
type Error struct {
	Code    Code
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is сравнивает ошибки по коду, чтобы errors.Is работал и для
// обёрнутых экземпляров.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithCause возвращает копию ошибки с причиной для логов; код и статус
// не меняются.
func (e *Error) WithCause(cause error) *Error {
	return &Error{Code: e.Code, Status: e.Status, Message: e.Message, cause: cause}
}

// Сентинели таксономии (§ контракт API). Возвращаются как есть либо
// через WithCause.
var (
	ErrNoAuthHeader          = &Error{Code: CodeNoAuthHeader, Status: http.StatusUnauthorized, Message: "missing or malformed authorization header"}
	ErrInvalidAccessToken    = &Error{Code: CodeInvalidAccessToken, Status: http.StatusUnauthorized, Message: "access token is invalid"}
	ErrTokenRevoked          = &Error{Code: CodeTokenRevoked, Status: http.StatusUnauthorized, Message: "access token has been revoked"}
	ErrAccessTokenNotExpired = &Error{Code: CodeAccessTokenNotExpired, Status: http.StatusUnauthorized, Message: "access token is not expired yet"}
	ErrRefreshTokenNotExist  = &Error{Code: CodeRefreshTokenNotExist, Status: http.StatusUnauthorized, Message: "refresh token cookie is missing"}
	ErrInvalidRefreshToken   = &Error{Code: CodeInvalidRefreshToken, Status: http.StatusUnauthorized, Message: "refresh token is invalid"}
	ErrForbidden             = &Error{Code: CodeForbidden, Status: http.StatusForbidden, Message: "insufficient permissions"}
	ErrNotFound              = &Error{Code: CodeNotFound, Status: http.StatusNotFound, Message: "resource not found"}
	ErrServerError           = &Error{Code: CodeServerError, Status: http.StatusInternalServerError, Message: "internal server error"}
)

// From приводит произвольную ошибку к *Error. Всё нераспознанное
// считается ServerError: периметр отвечает отказом, а не пропуском.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrServerError.WithCause(err)
}
