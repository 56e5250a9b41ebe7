// internal/auth/transport/http/cookie.go
package http

import (
	"fmt"
	"net/http"
	"time"
)

// CookieConfig описывает cookie refresh-токена.
type CookieConfig struct {
	Name   string `mapstructure:"name"`
	Domain string `mapstructure:"domain"`
	Secure bool   `mapstructure:"secure"`
}

// ApplyDefaults задаёт имя cookie по умолчанию.
func (c *CookieConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "refresh_token"
	}
}

// Validate проверяет имя.
func (c CookieConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("cookie: name is required")
	}
	return nil
}

// setRefresh выставляет HttpOnly cookie с refresh-токеном на весь сайт.
func (c CookieConfig) setRefresh(w http.ResponseWriter, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearRefresh удаляет cookie refresh-токена.
func (c CookieConfig) clearRefresh(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
