// common/config/config.go

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Options описывает один вызов загрузки конфига.
type Options struct {
	// Path — путь до YAML-файла; пустая строка → только ENV + Defaults.
	Path string
	// EnvPrefix — префикс ENV-переменных, например "AUTH".
	EnvPrefix string
	// Defaults — значения по умолчанию в точечной нотации ("http.port").
	Defaults map[string]interface{}
	// Out — указатель на структуру назначения с mapstructure-тегами.
	Out interface{}
}

// Load загружает конфиг в opts.Out: defaults → YAML → ENV override.
func Load(opts Options) error {
	if opts.Out == nil {
		return fmt.Errorf("config: Out is required")
	}

	v := viper.New()

	for key, val := range opts.Defaults {
		v.SetDefault(key, val)
	}

	v.SetEnvPrefix(opts.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if opts.Path != "" {
		v.SetConfigFile(opts.Path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %q: %w", opts.Path, err)
		}
	}

	if err := decode(v.AllSettings(), opts.Out); err != nil {
		return fmt.Errorf("config: decode failed: %w", err)
	}

	if validatable, ok := opts.Out.(interface{ Validate() error }); ok {
		if err := validatable.Validate(); err != nil {
			return fmt.Errorf("config: validation failed: %w", err)
		}
	}

	return nil
}
