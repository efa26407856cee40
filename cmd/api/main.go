package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"polykitchen/internal/backend"
	"polykitchen/internal/catalog"
	"polykitchen/internal/config"
	"polykitchen/internal/db"
	"polykitchen/internal/endpoint"
	"polykitchen/internal/httpserver"
	"polykitchen/internal/logger"
	"polykitchen/internal/migrate"
	sessionrepo "polykitchen/internal/repository/session"
	adminsvc "polykitchen/internal/service/admin"
	chatsvc "polykitchen/internal/service/chat"
	menusvc "polykitchen/internal/service/menu"
	reviewsvc "polykitchen/internal/service/review"
	"polykitchen/internal/session"
)

const sessionSweepInterval = 10 * time.Minute

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logger.New("api", logOptions(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout()}

	resolver := endpoint.New(endpoint.Options{
		ConfiguredURL: cfg.APIURL,
		Port:          cfg.APIPort,
		DiscoveryURL:  cfg.IPEchoURL,
		HTTPClient:    httpClient,
		Logger:        log,
	})
	baseURL := resolver.Resolve(ctx, endpoint.PageContext{
		Protocol: cfg.PublicProtocol,
		Hostname: cfg.PublicHostname,
	})
	log.WithField("base_url", baseURL).Info("backend endpoint resolved")

	client := backend.New(baseURL, httpClient, log)

	mock, err := catalog.NewMock()
	if err != nil {
		log.Fatalf("load mock catalog: %v", err)
	}
	var source, fallback catalog.Source = mock, nil
	if cfg.UseAPI {
		source, fallback = client, mock
	}

	repo, pool, err := sessionStore(ctx, cfg, log)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	if pool != nil {
		defer pool.Close()
	}

	sessions := session.NewManager(client, repo, cfg.SessionTTL(), log)
	go sessions.Janitor(ctx, sessionSweepInterval)

	deps := httpserver.Deps{
		BaseURL:        baseURL,
		Menu:           menusvc.New(source, fallback, client, baseURL, log),
		Reviews:        reviewsvc.New(client),
		Chat:           chatsvc.New(client, cfg.ChatUserID, log),
		Resolver:       resolver,
		Sessions:       sessions,
		Signer:         session.NewSigner(cfg.SessionSecret),
		Admin:          adminsvc.New(client, baseURL, log),
		AllowedOrigins: cfg.AllowedOrigins(),
		SecureCookies:  cfg.SecureCookies,
	}
	if pool != nil {
		deps.SessionStore = repo
	}

	srv, err := httpserver.New(cfg.HTTPAddr, log, deps)
	if err != nil {
		log.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		log.WithError(err).Error("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	} else {
		log.Info("server stopped")
	}
}

// sessionStore uses Postgres when DB_DSN is set and memory otherwise.
func sessionStore(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (sessionrepo.Repository, *pgxpool.Pool, error) {
	if cfg.DBConnString == "" {
		log.Warn("DB_DSN not set, admin sessions are kept in memory")
		return sessionrepo.NewMemory(), nil, nil
	}
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return nil, nil, err
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return sessionrepo.NewPostgres(pool), pool, nil
}

func logOptions(cfg config.Config) logger.Options {
	return logger.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	}
}
