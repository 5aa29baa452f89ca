// Package app arma y corre el portal: resuelve dependencias desde la
// configuración y maneja el ciclo de vida del proceso.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuslibre/portal/internal/cache"
	"github.com/campuslibre/portal/internal/config"
	adminctl "github.com/campuslibre/portal/internal/http/controllers/admin"
	authctl "github.com/campuslibre/portal/internal/http/controllers/auth"
	portalctl "github.com/campuslibre/portal/internal/http/controllers/portal"
	securityctl "github.com/campuslibre/portal/internal/http/controllers/security"
	"github.com/campuslibre/portal/internal/http/middlewares"
	"github.com/campuslibre/portal/internal/http/router"
	adminsvc "github.com/campuslibre/portal/internal/http/services/admin"
	authsvc "github.com/campuslibre/portal/internal/http/services/auth"
	secsvc "github.com/campuslibre/portal/internal/http/services/security"
	jwtx "github.com/campuslibre/portal/internal/jwt"
	"github.com/campuslibre/portal/internal/observability/logger"
	"github.com/campuslibre/portal/internal/rate"
	"github.com/campuslibre/portal/internal/security/csrf"
	"github.com/campuslibre/portal/internal/store/core"
	"github.com/campuslibre/portal/internal/store/memory"
	"github.com/campuslibre/portal/internal/store/pg"
	"github.com/campuslibre/portal/migrations"
	rdb "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// App es el portal armado y listo para correr.
type App struct {
	cfg     *config.Config
	handler http.Handler

	repo  core.Repository
	cache cache.Client
}

// New resuelve todas las dependencias. Falla rápido: cualquier backend
// inalcanzable corta el arranque.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	repo, err := buildRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cacheClient, err := cache.New(cache.Config{
		Kind:     cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("app: cache: %w", err)
	}

	codec := jwtx.New(jwtx.Config{
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		AccessSecret:  []byte(cfg.JWT.AccessSecret),
		RefreshSecret: []byte(cfg.JWT.RefreshSecret),
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
	})

	// CSRF: en memoria para una sola instancia; compartido vía cache
	// cuando hay redis (varias instancias detrás del balanceador).
	var csrfStore csrf.Store
	if cfg.Cache.Kind == "redis" {
		csrfStore = csrf.NewCacheStore(cacheClient, cfg.CSRFTTL())
	} else {
		csrfStore = csrf.NewMemoryStore(csrf.WithTTL(cfg.CSRFTTL()))
	}

	var loginLimiter rate.Limiter
	if cfg.Rate.Enabled && cfg.Cache.Kind == "redis" {
		client := rdb.NewClient(&rdb.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		loginLimiter = rate.NewRedisLimiter(client, "rl:login:", cfg.Rate.Login.Limit, cfg.LoginRateWindow())
	}

	gate := authsvc.NewGate()
	resolver := authsvc.NewSessionResolver(authsvc.ResolverDeps{Codec: codec, Repo: repo})
	login := authsvc.NewLoginService(authsvc.LoginDeps{Codec: codec, Repo: repo})
	register := authsvc.NewRegisterService(authsvc.RegisterDeps{Codec: codec, Repo: repo})

	handler := router.New(router.Deps{
		Auth: authctl.New(authctl.Deps{
			Login:        login,
			Register:     register,
			Resolver:     resolver,
			Gate:         gate,
			CookieDomain: cfg.Auth.Cookie.Domain,
			CookieSecure: cfg.Auth.Cookie.Secure,
			LoginLimiter: loginLimiter,
		}),
		Security: securityctl.New(securityctl.Deps{
			CSRF:     secsvc.NewCSRFService(csrfStore),
			Resolver: resolver,
			Gate:     gate,
		}),
		Admin: adminctl.New(adminctl.Deps{
			Users:        adminsvc.NewUsersService(adminsvc.UsersDeps{Repo: repo}),
			Resolver:     resolver,
			Gate:         gate,
			DetailErrors: !cfg.IsProd(),
		}),
		Portal: portalctl.New(portalctl.Deps{
			Resolver: resolver,
			Gate:     gate,
		}),
		Codec:     codec,
		CSRFStore: csrfStore,
		Repo:      repo,
		Edge: middlewares.EdgeConfig{
			ProtectedPrefixes: cfg.Edge.ProtectedPrefixes,
			AdminPrefix:       cfg.Edge.AdminPrefix,
			LoginPath:         cfg.Edge.LoginPath,
			AdminLoginPath:    cfg.Edge.AdminLoginPath,
			EntryPaths:        cfg.Edge.EntryPaths,
			LandingPath:       cfg.Edge.LandingPath,
		},
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
	})

	return &App{cfg: cfg, handler: handler, repo: repo, cache: cacheClient}, nil
}

func buildRepository(ctx context.Context, cfg *config.Config) (core.Repository, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		store, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MinIdleConns:    cfg.Storage.Postgres.MinIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("app: postgres: %w", err)
		}
		if err := migrations.Apply(ctx, store.Pool()); err != nil {
			store.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
		return store, nil
	case "memory", "":
		return memory.New(), nil
	}
	return nil, fmt.Errorf("app: unknown storage driver %q", cfg.Storage.Driver)
}

// Handler expone el handler raíz (tests de integración).
func (a *App) Handler() http.Handler { return a.handler }

// Run sirve HTTP hasta recibir SIGINT/SIGTERM y apaga con gracia.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.L().Info("portal listening",
			logger.String("addr", a.cfg.Server.Addr),
			logger.String("env", a.cfg.App.Env),
			logger.String("storage", a.cfg.Storage.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	a.repo.Close()
	if cerr := a.cache.Close(); cerr != nil {
		logger.L().Warn("closing cache", logger.Err(cerr))
	}
	return err
}
