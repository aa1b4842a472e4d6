package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/safar/go-storefront/internal/api"
	"github.com/safar/go-storefront/internal/auth"
	"github.com/safar/go-storefront/internal/cache"
	"github.com/safar/go-storefront/internal/config"
	"github.com/safar/go-storefront/internal/database"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/payment"
	"github.com/safar/go-storefront/internal/seed"
	"github.com/safar/go-storefront/internal/store"
	"github.com/safar/go-storefront/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()

	logg, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Build logger: %v", err)
	}
	defer logg.Sync()

	if err := run(cfg, logg); err != nil {
		logg.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(cfg.Tracing, os.Stdout)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logg.Info("Connected to database")

	if err := database.Migrate(db, cfg.Migrations.Path, database.Up); err != nil {
		return err
	}
	logg.Info("Migrations applied", zap.String("path", cfg.Migrations.Path))

	var storeOpts []store.Option
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedis(ctx, cache.Options{
			RedisURL:  cfg.Redis.URL,
			Namespace: "storefront:catalog",
			TTL:       cfg.Redis.CacheTTL,
			Logger:    logg,
		})
		if err != nil {
			return err
		}
		defer redisCache.Close()
		storeOpts = append(storeOpts, store.WithCache(redisCache))
	}
	st := store.New(db, storeOpts...)

	if cfg.Migrations.SeedOnStart {
		catalog, err := seed.Default()
		if err != nil {
			return err
		}
		if _, err := seed.Run(ctx, st, catalog, cfg.Auth.BcryptCost, logg); err != nil {
			return err
		}
	}

	tokens, err := auth.NewTokens(cfg.Auth)
	if err != nil {
		return err
	}

	var payments payment.Provider
	if cfg.Stripe.SecretKey != "" {
		payments = payment.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.Currency)
		logg.Info("Stripe payments enabled", zap.String("currency", cfg.Stripe.Currency))
	}

	srv := api.NewServer(api.Options{
		Store:          st,
		Tokens:         tokens,
		Log:            logg,
		BcryptCost:     cfg.Auth.BcryptCost,
		Payments:       payments,
		CORSOrigin:     cfg.CORS.Origin,
		ClientDistPath: cfg.Client.DistPath,
		Middleware:     []func(http.Handler) http.Handler{telemetry.Middleware(cfg.Tracing.ServiceName)},
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("Server starting",
			zap.String("addr", server.Addr),
			zap.String("token_mode", cfg.Auth.TokenMode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logg.Info("Server stopped")
	return nil
}
