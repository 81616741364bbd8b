package app

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ev-configurator-backend/internal/handlers"
	xlog "ev-configurator-backend/internal/log"
	"ev-configurator-backend/internal/metrics"
)

func (a *App) routes() *chi.Mux {
	env := a.Env
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(metrics.HTTPMiddleware())
	r.Use(xlog.Middleware(a.logger.With().Str("component", "http").Logger()))
	r.Use(handlers.WithCORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// 3D-превью: websocket на сессию
	r.Get("/ws/preview/{id}", env.HandlePreview)

	// --- API ---
	r.Route("/api", func(r chi.Router) {
		if a.cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(a.cfg.RateLimitPerMinute, time.Minute))
		}

		r.Get("/pricing", env.HandlePricing)

		r.Post("/sessions", env.HandleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", env.HandleSession)
			r.Delete("/", env.HandleSession)

			r.Put("/options/{category}", env.HandleSetOption)
			r.Put("/accessories/{accessoryId}", env.HandleAccessory)
			r.Delete("/accessories/{accessoryId}", env.HandleAccessory)
			r.Post("/query", env.HandleApplyQuery)
			r.Post("/reset", env.HandleReset)

			r.Get("/snapshot", env.HandleSnapshot)
			r.Post("/snapshot", env.HandleSnapshot)
			r.Delete("/snapshot", env.HandleSnapshot)
			r.Post("/snapshot/restore", env.HandleRestoreSnapshot)

			r.Delete("/notices/{noticeId}", env.HandleDismissNotice)

			r.Get("/share", env.HandleShare)
			r.Get("/print", env.HandlePrint)
			r.Post("/quote", env.HandleQuote)
		})

		// заявки для администратора
		r.Get("/admin/quotes", env.HandleAdminQuotes)
	})

	// --- Статика ---
	if dir := a.cfg.StaticDir; dir != "" {
		fileServer := http.FileServer(http.Dir(dir))
		r.Handle("/*", fileServer)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
		})
	}

	return r
}
