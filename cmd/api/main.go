package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/floraweave/floraweave-backend/api/routes"
	"github.com/floraweave/floraweave-backend/internal/audit"
	authsvc "github.com/floraweave/floraweave-backend/internal/auth"
	"github.com/floraweave/floraweave-backend/internal/cart"
	"github.com/floraweave/floraweave-backend/internal/categories"
	"github.com/floraweave/floraweave-backend/internal/designs"
	"github.com/floraweave/floraweave-backend/internal/media"
	"github.com/floraweave/floraweave-backend/internal/notify"
	"github.com/floraweave/floraweave-backend/internal/orders"
	products "github.com/floraweave/floraweave-backend/internal/products"
	"github.com/floraweave/floraweave-backend/internal/users"
	"github.com/floraweave/floraweave-backend/pkg/auth/session"
	"github.com/floraweave/floraweave-backend/pkg/config"
	"github.com/floraweave/floraweave-backend/pkg/db"
	"github.com/floraweave/floraweave-backend/pkg/logger"
	"github.com/floraweave/floraweave-backend/pkg/metrics"
	"github.com/floraweave/floraweave-backend/pkg/migrate"
	"github.com/floraweave/floraweave-backend/pkg/outbox"
	"github.com/floraweave/floraweave-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	deps, err := buildServices(cfg, dbClient, sessionManager, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()

	deps.Config = cfg
	deps.Logger = logg
	deps.DB = dbClient
	deps.Redis = redisClient
	deps.Sessions = sessionManager
	deps.HTTPMetrics = metrics.NewHTTPMetrics(registry)
	deps.Registry = registry

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func buildServices(cfg *config.Config, dbClient *db.Client, sessions *session.Manager, logg *logger.Logger) (routes.Deps, error) {
	gdb := dbClient.DB()

	auditRecorder := audit.NewRecorder(gdb)
	outboxRepo := outbox.NewRepository(gdb)

	productRepo := products.NewRepository(gdb)
	categoryRepo := categories.NewRepository(gdb)
	cartRepo := cart.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	designRepo := designs.NewRepository(gdb)
	mediaRepo := media.NewRepository(gdb)
	userRepo := users.NewRepository(gdb)
	notifyRepo := notify.NewRepository(gdb)

	categoryService, err := categories.NewService(categoryRepo, dbClient, productRepo, auditRecorder, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	productService, err := products.NewService(productRepo, dbClient, categoryService, auditRecorder, outboxRepo, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	cartService, err := cart.NewService(cartRepo, productRepo, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	orderService, err := orders.NewService(orderRepo, dbClient, cartRepo, productRepo, auditRecorder, outboxRepo, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	diskStore, err := media.NewDiskStore(cfg.Media.StorageRoot)
	if err != nil {
		return routes.Deps{}, err
	}
	mediaService, err := media.NewService(mediaRepo, diskStore, cfg.Media, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	designService, err := designs.NewService(designRepo, dbClient, mediaRepo, productRepo, auditRecorder, outboxRepo, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	userService, err := users.NewService(userRepo, dbClient, auditRecorder, cfg.Password, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	authService, err := authsvc.NewService(userService, sessions, cfg.JWT, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	notifyService, err := notify.NewService(notifyRepo, dbClient, auditRecorder, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Auth:       authService,
		Users:      userService,
		Products:   productService,
		Categories: categoryService,
		Cart:       cartService,
		Orders:     orderService,
		Designs:    designService,
		Media:      mediaService,
		Notify:     notifyService,
		Audit:      auditRecorder,
	}, nil
}
