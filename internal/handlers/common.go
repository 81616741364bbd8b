// internal/handlers/common.go

package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ev-configurator-backend/internal/config"
	"ev-configurator-backend/internal/domain"
	"ev-configurator-backend/internal/preview"
	"ev-configurator-backend/internal/store"
)

// Env хранит зависимости для хендлеров.
type Env struct {
	Table    *domain.PriceTable
	Store    store.Store
	Hub      *preview.Hub // nil — превью отключено
	Sessions *Sessions
	Logger   zerolog.Logger

	SnapshotName string
	NoticeTTL    time.Duration

	// базовый URL для ссылок "поделиться" и страница контактов для заявок
	PublicBaseURL string
	ContactPath   string

	AdminPasswordHash string // bcrypt; пусто — админка выключена
	Telegram          config.TelegramConfig
	HTTPClient        *http.Client

	Now func() time.Time

	bg sync.WaitGroup // фоновые отправки в Telegram
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Wait дожидается фоновых отправок (для graceful shutdown).
func (e *Env) Wait() {
	e.bg.Wait()
}

// writeJSON — простой helper для JSON-ответов
func (e *Env) writeJSON(w http.ResponseWriter, v interface{}) {
	e.writeJSONStatus(w, http.StatusOK, v)
}

func (e *Env) writeJSONStatus(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		e.Logger.Error().Err(err).Msg("write json response")
	}
}

// WithCORS — простой CORS-мидлвар для фронтенда на другом origin.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
