package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ev-configurator-backend/internal/app"
	"ev-configurator-backend/internal/config"
	"ev-configurator-backend/internal/domain"
	"ev-configurator-backend/internal/handlers"
	xlog "ev-configurator-backend/internal/log"
	"ev-configurator-backend/internal/store"
)

func main() {
	hashPassword := flag.String("hash-password", "", "print bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := handlers.HashAdminPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	if err := run(); err != nil {
		logger := xlog.Base()
		logger.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run() error {
	// настройки из env
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	xlog.Configure(xlog.Config{Level: cfg.LogLevel})
	logger := xlog.Base()

	table, err := domain.LoadPriceTable(cfg.PriceTablePath)
	if err != nil {
		return err
	}
	logger.Info().
		Int("categories", len(table.Categories)).
		Int("accessories", len(table.Accessories)).
		Str("base_price", domain.FormatPrice(table.BasePrice)).
		Msg("price table loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.Store, xlog.WithComponent("store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("store close")
		}
	}()

	a := app.New(cfg, table, st, logger)
	return a.Run(ctx)
}
