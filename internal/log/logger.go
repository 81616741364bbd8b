// Package log настраивает общий zerolog-логгер сервиса.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config — параметры логгера
type Config struct {
	Level   string    // debug / info / warn / error; пусто — LOG_LEVEL или info
	Output  io.Writer // по умолчанию os.Stdout
	Service string    // имя сервиса в каждой записи
}

var (
	once sync.Once
	base zerolog.Logger
)

// New собирает логгер по конфигу, не трогая глобальный.
func New(cfg Config) zerolog.Logger {
	level := zerolog.InfoLevel
	lvl := cfg.Level
	if lvl == "" {
		lvl = os.Getenv("LOG_LEVEL")
	}
	if lvl != "" {
		if parsed, err := zerolog.ParseLevel(lvl); err == nil {
			level = parsed
		}
	}

	writer := cfg.Output
	if writer == nil {
		writer = os.Stdout
	}

	service := cfg.Service
	if service == "" {
		service = "ev-configurator"
	}

	return zerolog.New(writer).Level(level).With().
		Timestamp().
		Str("service", service).
		Logger()
}

// Configure инициализирует глобальный логгер один раз.
func Configure(cfg Config) {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339
		base = New(cfg)
	})
}

// Base — глобальный логгер
func Base() zerolog.Logger {
	Configure(Config{})
	return base
}

// WithComponent — дочерний логгер с полем component.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
