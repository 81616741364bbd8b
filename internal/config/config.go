// Package config загружает настройки сервиса из переменных окружения.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Бэкенды хранилища снимков конфигурации
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// StoreConfig — где хранить снимки и заявки.
type StoreConfig struct {
	Backend       string `env:"STORE_BACKEND" envDefault:"memory"`
	DatabaseURL   string `env:"DATABASE_URL"`
	SQLitePath    string `env:"SQLITE_PATH"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

// TelegramConfig — уведомления отдела продаж о новых заявках.
type TelegramConfig struct {
	BotToken string `env:"BOT_TOKEN"`
	ChatID   string `env:"CHAT_ID"`
	APIURL   string `env:"API_URL" envDefault:"https://api.telegram.org"`
}

// Enabled — заданы ли токен и чат
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Config — настройки сервиса конфигуратора
type Config struct {
	Addr string `env:"CONFIGURATOR_ADDR" envDefault:":3040"`
	Port string `env:"PORT"` // если задан, перекрывает порт в Addr

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	PriceTablePath string `env:"PRICE_TABLE_PATH"`

	SnapshotName string        `env:"SNAPSHOT_NAME" envDefault:"ascendanceConfig"`
	NoticeTTL    time.Duration `env:"NOTICE_TTL" envDefault:"3s"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"30m"`

	StaticDir     string `env:"STATIC_DIR"` // фронтенд; пусто — только API
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3040"`
	ContactPath   string `env:"CONTACT_PATH" envDefault:"contact.html"`

	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`
	AdminPasswordHash  string `env:"ADMIN_PASSWORD_HASH"`

	Store    StoreConfig
	Telegram TelegramConfig `envPrefix:"TELEGRAM_"`
}

// Load читает конфиг из окружения и проверяет его.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ListenAddr — адрес для http.Server
func (c Config) ListenAddr() string {
	if c.Port != "" {
		return ":" + c.Port
	}
	return c.Addr
}

// Validate проверяет согласованность настроек
func (c Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres store"))
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for sqlite store"))
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for redis store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q (supported: memory, postgres, sqlite, redis)", c.Store.Backend))
	}

	if c.SnapshotName == "" {
		errs = append(errs, errors.New("SNAPSHOT_NAME must not be empty"))
	}
	if c.NoticeTTL <= 0 {
		errs = append(errs, errors.New("NOTICE_TTL must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
