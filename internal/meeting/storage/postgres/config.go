// internal/meeting/storage/postgres/config.go
package postgres

import (
	"fmt"
	"time"
)

// Config хранит параметры подключения к Postgres.
type Config struct {
	DSN            string        `mapstructure:"dsn"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Migrate        bool          `mapstructure:"migrate"` // гонять goose-миграции при старте
}

// ApplyDefaults задаёт sane defaults.
func (c *Config) ApplyDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 5 * time.Second
	}
}

// Validate проверяет обязательные поля.
func (c Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("postgres: DSN required")
	}
	return nil
}
