// internal/auth/identity/provider.go

// Package identity — граница с внешним OAuth2-провайдером. Обмен
// authorization code и запрос userinfo делегированы golang.org/x/oauth2;
// дальше жизненного цикла сессии существует только (id, authority).
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
)

// Identity — проверенная внешняя личность.
type Identity struct {
	ExternalID string
	Authority  string
}

// Provider обменивает authorization code на личность пользователя.
type Provider interface {
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// Config описывает OAuth2-клиента.
type Config struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	AuthURL      string `mapstructure:"auth_url"`
	TokenURL     string `mapstructure:"token_url"`
	RedirectURL  string `mapstructure:"redirect_url"`
	UserInfoURL  string `mapstructure:"userinfo_url"`

	// DefaultAuthority присваивается каждому вошедшему пользователю;
	// провайдер ролей не сообщает.
	DefaultAuthority string `mapstructure:"default_authority"`
}

// ApplyDefaults заполняет роль по умолчанию.
func (c *Config) ApplyDefaults() {
	if c.DefaultAuthority == "" {
		c.DefaultAuthority = "ROLE_USER"
	}
}

// Validate проверяет обязательные поля.
func (c Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("identity: client_id and client_secret are required")
	}
	if c.TokenURL == "" || c.UserInfoURL == "" {
		return fmt.Errorf("identity: token_url and userinfo_url are required")
	}
	return nil
}

type oauthProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	authority   string
}

// New создаёт Provider поверх стандартного authorization-code flow.
func New(cfg Config) (Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &oauthProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		authority:   cfg.DefaultAuthority,
	}, nil
}

type userInfo struct {
	ID json.Number `json:"id"`
}

func (p *oauthProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("identity: code exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("identity: userinfo request: %w", err)
	}
	resp, err := p.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: userinfo fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity: userinfo status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("identity: userinfo decode: %w", err)
	}
	id := info.ID.String()
	if id == "" {
		return nil, fmt.Errorf("identity: userinfo has no id")
	}
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, fmt.Errorf("identity: non-numeric user id %q", id)
	}

	return &Identity{ExternalID: id, Authority: p.authority}, nil
}
