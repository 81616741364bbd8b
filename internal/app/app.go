package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"ev-configurator-backend/internal/config"
	"ev-configurator-backend/internal/domain"
	"ev-configurator-backend/internal/handlers"
	"ev-configurator-backend/internal/preview"
	"ev-configurator-backend/internal/store"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxSweepInterval  = time.Minute
)

type App struct {
	cfg    config.Config
	router http.Handler
	logger zerolog.Logger

	hub      *preview.Hub
	sessions *handlers.Sessions
	Env      *handlers.Env
}

// New собирает приложение: хендлеры, хаб превью и реестр сессий.
func New(cfg config.Config, table *domain.PriceTable, st store.Store, logger zerolog.Logger) *App {
	hub := preview.NewHub(logger.With().Str("component", "preview").Logger())
	sessions := handlers.NewSessions(cfg.SessionTTL)
	sessions.OnClose(hub.CloseSession)

	env := &handlers.Env{
		Table:    table,
		Store:    st,
		Hub:      hub,
		Sessions: sessions,
		Logger:   logger.With().Str("component", "handlers").Logger(),

		SnapshotName: cfg.SnapshotName,
		NoticeTTL:    cfg.NoticeTTL,

		PublicBaseURL: cfg.PublicBaseURL,
		ContactPath:   cfg.ContactPath,

		AdminPasswordHash: cfg.AdminPasswordHash,
		Telegram:          cfg.Telegram,
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		hub:      hub,
		sessions: sessions,
		Env:      env,
	}
	a.router = a.routes()
	return a
}

func (a *App) Router() http.Handler {
	return a.router
}

// Run слушает cfg.ListenAddr() до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.ListenAddr())
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve обслуживает HTTP на ln вместе с фоновыми циклами; после отмены ctx
// останавливает сервер, закрывает сессии и дожидается фоновых отправок.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		a.sessions.Run(gctx, sweepInterval(a.cfg.SessionTTL), a.logger)
		return nil
	})

	g.Go(func() error {
		a.logger.Info().Str("addr", ln.Addr().String()).Msg("server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	a.sessions.CloseAll()
	a.Env.Wait()
	a.logger.Info().Msg("server stopped")
	return err
}

func sweepInterval(ttl time.Duration) time.Duration {
	iv := ttl / 2
	if iv <= 0 || iv > maxSweepInterval {
		iv = maxSweepInterval
	}
	return iv
}
