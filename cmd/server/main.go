package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/diewo77/go-retail/internal/config"
	"github.com/diewo77/go-retail/internal/db"
	"github.com/diewo77/go-retail/internal/logging"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "retail",
		Usage:  "retail back-office API",
		Action: serve,
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP API (default)", Action: serve},
			{Name: "migrate", Usage: "run DB migrations and exit", Action: migrateOnly},
			{Name: "seed", Usage: "seed demo products and exit", Action: seedOnly},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and opens the database.
func bootstrap() (*config.Config, zerolog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	log := logging.New(cfg.Log)
	conn, err := db.Connect(cfg.Database, log)
	if err != nil {
		return nil, log, nil, err
	}
	return cfg, log, conn, nil
}

func migrateOnly(*cli.Context) error {
	cfg, log, conn, err := bootstrap()
	if err != nil {
		return err
	}
	if err := db.Migrate(conn, cfg.Database, true); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info().Msg("migrations completed successfully")
	return nil
}

func seedOnly(*cli.Context) error {
	_, log, conn, err := bootstrap()
	if err != nil {
		return err
	}
	if err := db.Seed(conn); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info().Msg("seeding completed successfully")
	return nil
}

func serve(c *cli.Context) error {
	cfg, log, conn, err := bootstrap()
	if err != nil {
		return err
	}
	if err := db.Migrate(conn, cfg.Database, cfg.App.Migrations); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if cfg.App.Seed {
		if err := db.Seed(conn); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg, conn, log)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app.Handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		_ = app.Relay.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Bool("dev", cfg.App.Dev).
			Str("stock_policy", cfg.App.StockPolicy).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		stop()
		<-relayDone
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	<-relayDone
	log.Info().Msg("server stopped gracefully")
	return nil
}
