// common/redis/config.go
package redis

import (
	"fmt"
	"time"

	"github.com/campushub/session-system/common/backoff"
)

// Config хранит параметры подключения к Redis.
type Config struct {
	URL       string         `mapstructure:"url"`        // e.g. "redis://host:6379/0"
	OpTimeout time.Duration  `mapstructure:"op_timeout"` // таймаут одной операции
	Backoff   backoff.Config `mapstructure:"backoff"`
}

// ApplyDefaults задаёт sane defaults.
func (c *Config) ApplyDefaults() {
	if c.OpTimeout <= 0 {
		c.OpTimeout = 2 * time.Second
	}
}

// Validate проверяет обязательные поля.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("redis: URL required")
	}
	return nil
}
