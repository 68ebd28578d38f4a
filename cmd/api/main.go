package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/ratings"
	"github.com/angelmondragon/storefront-backend/internal/searchlogs"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(context.Background(), logg, "failed to load config", err)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fatal(ctx, logg, "failed to bootstrap database", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		fatal(ctx, logg, "failed to run dev migrations", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		fatal(ctx, logg, "failed to bootstrap redis", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	readiness := map[string]controllers.Pinger{
		"db":    dbClient,
		"redis": redisClient,
	}

	// objectStore stays a nil interface when no bucket is configured.
	var objectStore media.ObjectStore
	if cfg.GCS.Enabled() {
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			fatal(ctx, logg, "failed to bootstrap gcs", err)
		}
		defer func() {
			if err := gcsClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing gcs", err)
			}
		}()
		objectStore = gcsClient
		readiness["gcs"] = gcsClient
	} else {
		logg.Warn(ctx, "gcs bucket not configured; product image uploads are disabled")
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		fatal(ctx, logg, "failed to create session manager", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:           usersRepo,
		SessionManager:     sessionManager,
		JWTConfig:          cfg.JWT,
		PasswordConfig:     cfg.Password,
		AllowAdminRegister: !cfg.App.IsProd() && cfg.FeatureFlags.AdminRegistration,
	})
	if err != nil {
		fatal(ctx, logg, "failed to create auth service", err)
	}

	usersService, err := users.NewService(usersRepo, sessionManager, logg)
	if err != nil {
		fatal(ctx, logg, "failed to create users service", err)
	}

	notificationsService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		fatal(ctx, logg, "failed to create notifications service", err)
	}

	searchLogsService, err := searchlogs.NewService(searchlogs.NewRepository(gormDB))
	if err != nil {
		fatal(ctx, logg, "failed to create search logs service", err)
	}

	categoriesService, err := categories.NewService(categories.NewRepository(gormDB))
	if err != nil {
		fatal(ctx, logg, "failed to create categories service", err)
	}

	mediaService, err := media.NewService(objectStore, cfg.Media, cfg.GCS.ObjectPrefix, logg)
	if err != nil {
		fatal(ctx, logg, "failed to create media service", err)
	}

	productService, err := product.NewService(product.NewRepository(gormDB), mediaService, searchLogsService, logg)
	if err != nil {
		fatal(ctx, logg, "failed to create product service", err)
	}

	cartService, err := cart.NewService(cart.NewRepository(gormDB), logg)
	if err != nil {
		fatal(ctx, logg, "failed to create cart service", err)
	}

	addressService, err := address.NewService(address.NewRepository(gormDB), dbClient)
	if err != nil {
		fatal(ctx, logg, "failed to create address service", err)
	}

	ratingsService, err := ratings.NewService(ratings.NewRepository(gormDB), dbClient)
	if err != nil {
		fatal(ctx, logg, "failed to create ratings service", err)
	}

	ordersService, err := orders.NewService(orders.Deps{
		Repo:      orders.NewRepository(gormDB),
		Tx:        dbClient,
		Carts:     cartService,
		Addresses: addressService,
		Notifier:  notificationsService,
		Events:    outbox.NewService(outbox.NewRepository(gormDB), logg),
		Metrics:   metrics.NewOrderMetrics(registry),
		Logger:    logg,
	})
	if err != nil {
		fatal(ctx, logg, "failed to create orders service", err)
	}

	handler := routes.NewRouter(routes.Dependencies{
		Config:        cfg,
		Logger:        logg,
		Sessions:      sessionManager,
		Store:         redisClient,
		Readiness:     readiness,
		Gatherer:      registry,
		HTTP:          metrics.NewHTTPMetrics(registry),
		Auth:          authService,
		Users:         usersService,
		Products:      productService,
		Categories:    categoriesService,
		Cart:          cartService,
		Orders:        ordersService,
		Ratings:       ratingsService,
		Addresses:     addressService,
		Notifications: notificationsService,
		SearchLogs:    searchLogsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(ctx, logg, "api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}

	logg.Info(context.Background(), "api server stopped")
}

func fatal(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
