// internal/gateway/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"

	commoncfg "github.com/campushub/session-system/common/config"
	commonhttp "github.com/campushub/session-system/common/httpserver"
	commonlogger "github.com/campushub/session-system/common/logger"
	commonredis "github.com/campushub/session-system/common/redis"
	commontel "github.com/campushub/session-system/common/telemetry"
	"github.com/campushub/session-system/internal/token"
)

// Route описывает один проксируемый префикс. Public-маршруты идут к
// бэкенду без проверки токена (нужно auth-сервису: reissue приходит с
// уже истёкшим access-токеном). Authority сужает маршрут до одной
// роли; пустая строка — любой аутентифицированный.
type Route struct {
	Prefix    string `mapstructure:"prefix"`
	Target    string `mapstructure:"target"`
	Public    bool   `mapstructure:"public"`
	Authority string `mapstructure:"authority"`
}

// Config описывает параметры запуска api-gateway.
type Config struct {
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`

	Logging   commonlogger.Config `mapstructure:"logging"`
	Telemetry commontel.Config    `mapstructure:"telemetry"`
	HTTP      commonhttp.Config   `mapstructure:"http"`
	Redis     commonredis.Config  `mapstructure:"redis"`
	Token     token.Config        `mapstructure:"token"`

	Routes []Route `mapstructure:"routes"`
}

// Load читает конфиг и валидирует все вложенные поля.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := commoncfg.Load(commoncfg.Options{
		Path:      path,
		EnvPrefix: "APIGW",
		Out:       &cfg,
		Defaults: map[string]interface{}{
			"service_name":    "api-gateway",
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
			"http.port":             8080,
			"http.read_timeout":     "10s",
			"http.write_timeout":    "15s",
			"http.idle_timeout":     "60s",
			"http.shutdown_timeout": "5s",

			// Redis (общий с auth-сервисом: blacklist проверяется здесь)
			"redis.url":        "redis://redis:6379/0",
			"redis.op_timeout": "2s",

			// Token: шлюз только верифицирует, ключ тот же, что у auth.
			"token.secret":      "changeme-super-secret-key",
			"token.issuer":      "campushub-auth",
			"token.access_ttl":  "15m",
			"token.refresh_ttl": "168h",

			"routes": []map[string]interface{}{
				{"prefix": "/auth", "target": "http://auth:8081", "public": true},
				{"prefix": "/meetings", "target": "http://meeting:8082"},
			},
		},
	}); err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	cfg.Logging.ApplyDefaults()
	cfg.Telemetry.ApplyDefaults()
	cfg.HTTP.ApplyDefaults()
	cfg.Redis.ApplyDefaults()

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
	if len(cfg.Routes) == 0 {
		return nil, fmt.Errorf("routes: at least one route required")
	}
	for i, rt := range cfg.Routes {
		if !strings.HasPrefix(rt.Prefix, "/") || rt.Prefix == "/" {
			return nil, fmt.Errorf("routes[%d]: prefix must start with '/' and not be root", i)
		}
		u, err := url.Parse(rt.Target)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("routes[%d]: invalid target %q", i, rt.Target)
		}
	}

	return &cfg, nil
}
