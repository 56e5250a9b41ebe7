// common/logger/zap_config.go

package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// buildZapConfig собирает zap.Config под выбранный формат: console —
// dev-пресет для локальной отладки, json — production-пресет с
// сэмплированием. Ключи полей выровнены между форматами, чтобы
// парсеры логов не зависели от окружения.
func buildZapConfig(console bool) zap.Config {
	var cfg zap.Config
	if console {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = &zap.SamplingConfig{Initial: 100, Thereafter: 100}
		cfg.EncoderConfig.StacktraceKey = "stacktrace"
	}

	ec := &cfg.EncoderConfig
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.CallerKey = "caller"
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

func setZapLevel(cfg *zap.Config, level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return nil
}
