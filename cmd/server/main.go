package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/barberbook/backend/core"
	"github.com/barberbook/backend/modules/auth"
	"github.com/barberbook/backend/modules/booking"
	"github.com/barberbook/backend/modules/shop"
	"github.com/barberbook/backend/pkg/config"
	"github.com/barberbook/backend/pkg/email"
	"github.com/barberbook/backend/pkg/httpserver"
	"github.com/barberbook/backend/pkg/jwt"
	"github.com/barberbook/backend/pkg/logger"
	"github.com/barberbook/backend/pkg/pg"
	"github.com/barberbook/backend/pkg/redis"
	"github.com/barberbook/backend/pkg/tenant"
)

type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	JWTSecret   string `env:"JWT_SECRET,required"`
	JWTIssuer   string `env:"JWT_ISSUER" envDefault:"barberbook"`
	JWTAudience string `env:"JWT_AUDIENCE" envDefault:"barberbook-admin"`

	// AllowShopQueryOverride enables the ?shop= diagnostic override.
	// Meant for development and staging only.
	AllowShopQueryOverride bool `env:"ALLOW_SHOP_QUERY_OVERRIDE" envDefault:"false"`

	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`

	ResetURLTemplate string `env:"RESET_URL_TEMPLATE"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithEnvironment(cfg.Environment, "barberbook-api"),
		logger.WithContextExtractors(tenant.LoggerExtractor()),
	)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg appConfig, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pgCfg pg.Config
	config.MustLoad(&pgCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	jwtService, err := jwt.New([]byte(cfg.JWTSecret),
		jwt.WithIssuer(cfg.JWTIssuer),
		jwt.WithAudience(cfg.JWTAudience),
	)
	if err != nil {
		return err
	}

	sender, err := buildSender(log)
	if err != nil {
		return err
	}

	authOpts := []auth.ServiceOption{}
	if cfg.ResetURLTemplate != "" {
		authOpts = append(authOpts, auth.WithResetURLTemplate(cfg.ResetURLTemplate))
	}
	authService := auth.NewService(
		auth.NewPgStorage(pool),
		jwtService,
		auth.NewMailer(sender),
		log,
		authOpts...,
	)
	authHandler := auth.NewHandler(authService, log)
	adminGuard := auth.RequireAdmin(authService)

	shopHandler := shop.NewHandler(shop.NewPgStorage(pool), log)
	bookingHandler := booking.NewHandler(booking.NewManager(pool, log), log)

	provider := tenant.NewPgProvider(pool)

	tenantCache, err := buildTenantCache(ctx, log)
	if err != nil {
		return err
	}
	defer tenantCache.Close()

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	health := healthHandler(pg.Healthcheck(pool))
	r.Get("/health", health)
	r.Get("/api/health", health)
	r.Get("/api/tenants", tenantsHandler(provider, log))

	r.Group(func(tenanted chi.Router) {
		tenanted.Use(tenant.Middleware(provider,
			tenant.WithCache(tenantCache),
			tenant.WithCacheTTL(cfg.TenantCacheTTL),
			tenant.WithQueryOverride(cfg.AllowShopQueryOverride),
			tenant.WithLogger(log),
		))

		tenanted.Mount("/api/auth", auth.Router(authService, authHandler))
		tenanted.Mount("/api/shop", shop.Router(shopHandler, adminGuard))
		tenanted.Mount("/api", booking.PublicRouter(bookingHandler))
		tenanted.Mount("/api/admin", booking.AdminRouter(bookingHandler, adminGuard))
	})

	var httpCfg httpserver.Config
	config.MustLoad(&httpCfg)

	return httpserver.Run(ctx, httpCfg, r, log)
}

// buildSender prefers Postmark when a server token is configured and falls
// back to the log-only sender for local development.
func buildSender(log *slog.Logger) (email.Sender, error) {
	var emailCfg email.Config
	config.MustLoad(&emailCfg)

	if emailCfg.PostmarkServerToken == "" {
		log.Info("no postmark token configured, using log sender")
		return email.NewLogSender(log), nil
	}
	return email.NewPostmarkClient(emailCfg)
}

// buildTenantCache uses Redis when configured so all instances share one
// tenant cache, otherwise a per-process in-memory cache.
func buildTenantCache(ctx context.Context, log *slog.Logger) (tenant.Cache, error) {
	var redisCfg redis.Config
	config.MustLoad(&redisCfg)

	if redisCfg.ConnectionURL == "" {
		return tenant.NewInMemoryCache(), nil
	}

	client, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return nil, err
	}
	log.Info("using redis tenant cache")
	return tenant.NewRedisCache(client), nil
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := check(r.Context()); err != nil {
			core.Error(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		core.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type tenantLister interface {
	ListActive(ctx context.Context) ([]tenant.Tenant, error)
}

// tenantsHandler serves the public shop directory used by the landing page
// shop picker. It sits on the resolution bypass list.
func tenantsHandler(lister tenantLister, log *slog.Logger) http.HandlerFunc {
	type shopEntry struct {
		Subdomain string `json:"subdomain"`
		Name      string `json:"name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tenants, err := lister.ListActive(r.Context())
		if err != nil {
			log.ErrorContext(r.Context(), "list tenants failed", logger.Error(err))
			core.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		out := make([]shopEntry, 0, len(tenants))
		for _, t := range tenants {
			out = append(out, shopEntry{Subdomain: t.Subdomain, Name: t.Name})
		}
		core.JSON(w, http.StatusOK, out)
	}
}
