package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/homebake/api/internal/auth"
	"github.com/homebake/api/internal/catalog"
	"github.com/homebake/api/internal/config"
	"github.com/homebake/api/internal/intake"
	"github.com/homebake/api/internal/logging"
	"github.com/homebake/api/internal/middleware"
	"github.com/homebake/api/internal/router"
	"github.com/homebake/api/internal/sink"
	"github.com/homebake/api/internal/storage"
	"github.com/homebake/api/internal/ws"
)

const (
	sweepInterval   = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catalog persistence
	kv, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.StoreDriver,
		DatabaseURL: cfg.DatabaseURL,
		Path:        cfg.StorePath,
	})
	if err != nil {
		log.WithError(err).Fatal("open catalog store")
	}
	defer kv.Close()
	log.WithField("driver", cfg.StoreDriver).Info("catalog store opened")

	storeOpts := []catalog.Option{catalog.WithLogger(log)}
	if cfg.CatalogSeedFile != "" {
		seed, err := catalog.LoadSeedFile(cfg.CatalogSeedFile, time.Now())
		if err != nil {
			log.WithError(err).Fatal("load catalog seed file")
		}
		storeOpts = append(storeOpts, catalog.WithSeed(seed))
	}
	store := catalog.NewStore(kv, storeOpts...)
	if _, err := store.Load(ctx); err != nil {
		log.WithError(err).Fatal("load catalog")
	}

	// Catalog change push
	hub := ws.NewHub(log)
	go hub.Run(ctx)
	unsubscribe := store.Subscribe(ws.CatalogNotifier(hub))
	defer unsubscribe()

	// Order intake
	orderSink, err := sink.New(sink.Options{
		Kind:       cfg.OrderSink,
		WebhookURL: cfg.OrderSinkURL,
		Client:     &http.Client{Timeout: cfg.OrderSinkTimeout},
		Logger:     log,
	})
	if err != nil {
		log.WithError(err).Fatal("configure order sink")
	}
	desk := intake.NewDesk(func() *intake.Form {
		return intake.NewForm(orderSink, intake.Options{
			Destination: cfg.OrderDestination,
			Timeout:     cfg.OrderSinkTimeout,
			Logger:      log,
		})
	}, intake.DefaultIdleTimeout)
	go desk.Run(ctx, sweepInterval)

	// Owner login
	gate := auth.NewGate(auth.Owner{
		Email:        cfg.OwnerEmail,
		PasswordHash: cfg.OwnerPasswordHash,
		AccessCode:   cfg.OwnerAccessCode,
	})
	if cfg.OwnerPasswordHash == "" {
		log.Warn("OWNER_PASSWORD_HASH is not set, owner login is disabled")
	}

	orderLimiter := middleware.NewRateLimiter(cfg.OrderRatePerMinute)
	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute)
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				orderLimiter.Cleanup(sweepInterval)
				loginLimiter.Cleanup(sweepInterval)
			}
		}
	}()

	r := router.New(cfg, router.Deps{
		Store:        store,
		Desk:         desk,
		Gate:         gate,
		Hub:          hub,
		Links:        sink.NewWhatsApp(""),
		OrderLimiter: orderLimiter,
		LoginLimiter: loginLimiter,
		Log:          log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	log.Info("server stopped")
}
