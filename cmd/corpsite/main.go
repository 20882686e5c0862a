// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the corporate site server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"corpsite/internal/authz"
	"corpsite/internal/autosave"
	"corpsite/internal/cache"
	"corpsite/internal/config"
	"corpsite/internal/database"
	"corpsite/internal/email"
	"corpsite/internal/handlers"
	"corpsite/internal/maintenance"
	"corpsite/internal/metrics"
	"corpsite/internal/middleware"
	"corpsite/internal/preview"
	"corpsite/internal/router"
	"corpsite/internal/session"
	"corpsite/internal/storage"
	"corpsite/internal/store"
	"corpsite/internal/sweeper"
)

const (
	loginRateLimit  = 10
	loginRateWindow = 15 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Text logs in development, JSON everywhere else.
	var logHandler slog.Handler
	if cfg.IsDev() {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(logHandler))

	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Seed(ctx, db, database.SeedAdmin{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	storageClient, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, uploads and downloads disabled")
	}

	notifier := email.NewNotifier(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		NotifyTo: cfg.ContactNotifyTo,
	})
	if !notifier.Enabled() {
		slog.Warn("smtp not configured, contact notifications disabled")
	}

	posts := store.NewPostStore(db)
	maintenanceStore := store.NewMaintenanceStore(db)
	contentCache := cache.NewContentCache(valkeyClient, cache.DefaultContentTTL)
	// Listings cached by a previous release may have a different shape.
	contentCache.InvalidateAll(ctx)

	sweep := sweeper.New(posts, cfg.SweepInterval)

	sessionStore := session.NewStore(valkeyClient, cfg.SessionSecure)
	roles := authz.DefaultRoles()

	deps := handlers.Deps{
		Posts:       posts,
		Versions:    store.NewVersionStore(db),
		Categories:  store.NewCategoryStore(db),
		Tags:        store.NewTagStore(db),
		FAQs:        store.NewFAQStore(db),
		References:  store.NewReferenceStore(db),
		Downloads:   store.NewDownloadStore(db),
		Media:       store.NewMediaStore(db),
		Messages:    store.NewMessageStore(db),
		Users:       store.NewUserStore(db),
		Maintenance: maintenanceStore,
		Vitals:      store.NewWebVitalStore(db),

		Sessions: sessionStore,
		Autosave: autosave.NewStore(valkeyClient, cfg.AutosaveTTL),
		Preview:  preview.NewIssuer(posts, cfg.PreviewTTL),
		Sweeper:  sweep,
		Storage:  storageClient,
		Cache:    contentCache,
		Notifier: notifier,
		Authz:    roles,
	}

	contactLimiter := middleware.NewRateLimiter(cfg.ContactRateLimit, cfg.ContactRateWindow)
	defer contactLimiter.Stop()
	loginLimiter := middleware.NewRateLimiter(loginRateLimit, loginRateWindow)
	defer loginLimiter.Stop()

	r := router.New(router.Config{
		Sessions:       sessionStore,
		Authz:          roles,
		Gate:           maintenance.NewGate(maintenanceStore),
		TrustedProxies: cfg.TrustedProxies,
		ContactLimiter: contactLimiter,
		LoginLimiter:   loginLimiter,
		SecureCookies:  cfg.SessionSecure,
		Ping:           db.PingContext,
	}, handlers.NewAdmin(deps), handlers.NewAuth(deps), handlers.NewPublic(deps))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		// Uploads of up to 50 MB need more than a few seconds.
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Metrics stay off the public listener.
	metricsSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sweep.Run(ctx)
	}()

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			stop()
		}
	}()

	go func() {
		slog.Info("metrics listener starting", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics listener failed", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("metrics listener forced to shutdown", "error", err)
	}
	<-sweeperDone

	slog.Info("server stopped gracefully")
}
