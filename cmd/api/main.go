package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dayscape/dayscape-backend/internal/adapters/httpapi"
	memprefrepo "github.com/dayscape/dayscape-backend/internal/adapters/memory/prefrepo"
	memtriprepo "github.com/dayscape/dayscape-backend/internal/adapters/memory/triprepo"
	memuserinfocache "github.com/dayscape/dayscape-backend/internal/adapters/memory/userinfocache"
	"github.com/dayscape/dayscape-backend/internal/adapters/postgres"
	pgprefrepo "github.com/dayscape/dayscape-backend/internal/adapters/postgres/prefrepo"
	pgtriprepo "github.com/dayscape/dayscape-backend/internal/adapters/postgres/triprepo"
	pguserinfocache "github.com/dayscape/dayscape-backend/internal/adapters/postgres/userinfocache"
	"github.com/dayscape/dayscape-backend/internal/app/identity"
	"github.com/dayscape/dayscape-backend/internal/app/preferences"
	"github.com/dayscape/dayscape-backend/internal/app/trips"
	"github.com/dayscape/dayscape-backend/internal/platform/auth0"
	platformclock "github.com/dayscape/dayscape-backend/internal/platform/clock"
	"github.com/dayscape/dayscape-backend/internal/platform/config"
	"github.com/dayscape/dayscape-backend/internal/platform/metrics"
	"github.com/dayscape/dayscape-backend/internal/platform/places"
	"github.com/dayscape/dayscape-backend/internal/platform/secrets"
	prefrepoport "github.com/dayscape/dayscape-backend/internal/ports/out/prefrepo"
	triprepoport "github.com/dayscape/dayscape-backend/internal/ports/out/triprepo"
	userinfocacheport "github.com/dayscape/dayscape-backend/internal/ports/out/userinfocache"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		tripRepo triprepoport.Repository
		prefRepo prefrepoport.Repository
		cache    userinfocacheport.Store
		cleanup  func()
	)

	switch cfg.StorageBackend {
	case "postgres":
		dsn, err := resolveDSN(ctx, cfg)
		if err != nil {
			logger.Error("database configuration", "err", err)
			os.Exit(1)
		}
		if cfg.MigrateOnStart {
			if err := postgres.RunMigrations(postgres.NormalizeMigrateURL(dsn)); err != nil {
				logger.Error("run migrations", "err", err)
				os.Exit(1)
			}
		}
		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{})
		if err != nil {
			logger.Error("connect postgres", "err", err)
			os.Exit(1)
		}
		cleanup = pool.Close

		tripRepo = pgtriprepo.NewRepo(pool)
		prefRepo = pgprefrepo.NewRepo(pool)
		cache = pguserinfocache.NewStore(pool)
	default:
		tripRepo = memtriprepo.NewRepo()
		prefRepo = memprefrepo.NewRepo()
		cache = memuserinfocache.NewStore()
	}
	if cleanup != nil {
		defer cleanup()
	}

	tripSvc := trips.NewService(tripRepo)
	prefSvc := preferences.NewService(prefRepo)

	var authMW func(http.Handler) http.Handler
	switch cfg.AuthMode {
	case "dev":
		authMW = httpapi.NewDevAuthMiddleware(cfg.DevSubject)
	default:
		provider := auth0.NewClient(cfg.Auth0UserInfoURL, cfg.UpstreamTimeout)
		resolver := identity.NewResolver(cache, provider, platformclock.NewSystemClock())
		resolver.SetTTL(cfg.UserInfoTTL)
		resolver.SetMetrics(collector)
		authMW = httpapi.NewAuthMiddleware(resolver)
	}

	var matcher httpapi.TypeMatcher
	if cfg.OpenAIAPIKey != "" {
		matcher = places.NewMatcher(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}

	api := httpapi.NewServer(tripSvc, prefSvc, matcher)
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		Auth:           authMW,
		Logging:        httpapi.NewLoggingMiddleware(logger),
		Metrics:        httpapi.NewMetricsMiddleware(collector),
		RateLimit:      httpapi.NewRateLimitMiddleware(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
		MetricsHandler: metrics.Handler(registry),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.Port, "storage", cfg.StorageBackend, "auth", cfg.AuthMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// resolveDSN prefers an explicit DATABASE_URL and otherwise assembles one
// from Secret Manager, the way deployed environments provide credentials.
func resolveDSN(ctx context.Context, cfg config.Config) (string, error) {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL, nil
	}
	if cfg.GCPProjectID == "" {
		return "", fmt.Errorf("set DATABASE_URL or PROJECT_ID")
	}

	sm, err := secrets.NewClient(ctx, cfg.GCPProjectID, cfg.Environment)
	if err != nil {
		return "", fmt.Errorf("open secret manager: %w", err)
	}
	defer sm.Close()

	host, err := sm.Get(ctx, "db_ip")
	if err != nil {
		return "", fmt.Errorf("read db host secret: %w", err)
	}
	password, err := sm.Get(ctx, "db_password")
	if err != nil {
		return "", fmt.Errorf("read db password secret: %w", err)
	}

	return fmt.Sprintf("postgres://dayscape:%s@%s:5432/%s",
		url.QueryEscape(password), host, cfg.DatabaseName), nil
}
