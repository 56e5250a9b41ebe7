// internal/auth/config/config.go
package config

import (
	"fmt"
	"time"

	commoncfg "github.com/campushub/session-system/common/config"
	commonhttp "github.com/campushub/session-system/common/httpserver"
	commonlogger "github.com/campushub/session-system/common/logger"
	commonredis "github.com/campushub/session-system/common/redis"
	commontel "github.com/campushub/session-system/common/telemetry"
	"github.com/campushub/session-system/internal/auth/identity"
	transport "github.com/campushub/session-system/internal/auth/transport/http"
	"github.com/campushub/session-system/internal/token"
)

// Config описывает параметры запуска auth-сервиса.
type Config struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`

	Logging   commonlogger.Config `mapstructure:"logging"`
	Telemetry commontel.Config    `mapstructure:"telemetry"`
	HTTP      commonhttp.Config   `mapstructure:"http"`
	Redis     commonredis.Config  `mapstructure:"redis"`
	Token     token.Config        `mapstructure:"token"`
	OAuth     identity.Config     `mapstructure:"oauth"`

	Cookie transport.CookieConfig `mapstructure:"cookie"`

	// RotationThreshold — остаток жизни refresh-токена, ниже которого
	// reissue заодно ротирует refresh.
	RotationThreshold time.Duration `mapstructure:"rotation_threshold"`
}

// Load читает конфиг и валидирует все вложенные поля.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := commoncfg.Load(commoncfg.Options{
		Path:      path,
		EnvPrefix: "AUTH",
		Out:       &cfg,
		Defaults: map[string]interface{}{
			"service_name":    "auth",
			"service_version": "v1.0.0",

			// Logging
			"logging.level":    "info",
			"logging.dev_mode": false,
			"logging.format":   "json",

			// Telemetry
			"telemetry.endpoint":         "otel-collector:4317",
			"telemetry.insecure":         true,
			"telemetry.reconnect_period": "5s",
			"telemetry.timeout":          "5s",
			"telemetry.sampler_ratio":    1.0,

			// HTTP
			"http.port":             8081,
			"http.read_timeout":     "10s",
			"http.write_timeout":    "15s",
			"http.idle_timeout":     "60s",
			"http.shutdown_timeout": "5s",

			// Redis
			"redis.url":        "redis://redis:6379/0",
			"redis.op_timeout": "2s",

			// Token (секрет обязательно переопределять в ENV)
			"token.secret":      "changeme-super-secret-key",
			"token.issuer":      "campushub-auth",
			"token.access_ttl":  "15m",
			"token.refresh_ttl": "168h",

			"rotation_threshold": "24h",

			// Cookie
			"cookie.name":   "refresh_token",
			"cookie.secure": false,

			// OAuth
			"oauth.default_authority": "ROLE_USER",
		},
	}); err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	cfg.Logging.ApplyDefaults()
	cfg.Telemetry.ApplyDefaults()
	cfg.HTTP.ApplyDefaults()
	cfg.Redis.ApplyDefaults()
	cfg.Cookie.ApplyDefaults()
	cfg.OAuth.ApplyDefaults()

	if cfg.ServiceName == "" || cfg.ServiceVersion == "" {
		return nil, fmt.Errorf("service name/version required")
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if err := cfg.Telemetry.Validate(); err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	if err := cfg.HTTP.Validate(); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	if err := cfg.Redis.Validate(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	if err := cfg.Token.Validate(); err != nil {
		return nil, fmt.Errorf("token: %w", err)
	}
	if err := cfg.Cookie.Validate(); err != nil {
		return nil, fmt.Errorf("cookie: %w", err)
	}
	if err := cfg.OAuth.Validate(); err != nil {
		return nil, fmt.Errorf("oauth: %w", err)
	}
	if cfg.RotationThreshold <= 0 {
		return nil, fmt.Errorf("rotation_threshold must be positive")
	}
	if cfg.RotationThreshold >= cfg.Token.RefreshTTL {
		return nil, fmt.Errorf("rotation_threshold must be below refresh_ttl")
	}

	return &cfg, nil
}
