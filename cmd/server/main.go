package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	httpadapter "siteaudit/internal/adapters/http"
	"siteaudit/internal/adapters/llm"
	"siteaudit/internal/adapters/memory"
	"siteaudit/internal/adapters/pagespeed"
	pg "siteaudit/internal/adapters/postgres"
	"siteaudit/internal/adapters/scrape"
	"siteaudit/internal/config"
	"siteaudit/internal/logging"
	"siteaudit/internal/ports"
	"siteaudit/internal/services/audit"
	"siteaudit/internal/services/reports"
	"siteaudit/internal/workers/auditrunner"
)

// store is satisfied by both the Postgres and the in-memory adapters.
type store interface {
	ports.ReportRepository
	ports.JobRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db store
	if cfg.DatabaseURL != "" {
		pool, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return errors.Wrap(err, "connect postgres")
		}
		defer pool.Close()
		if err := pool.Migrate(ctx); err != nil {
			return errors.Wrap(err, "migrate")
		}
		db = pool
	} else {
		log.Warn("DATABASE_URL not set, reports are kept in memory")
		db = memory.New()
	}

	auditor := audit.New(
		pagespeed.New(pagespeed.Options{
			Endpoint: cfg.PageSpeed.Endpoint,
			APIKey:   cfg.PageSpeed.APIKey,
			Timeout:  cfg.PageSpeed.Timeout,
		}),
		scrape.New(scrape.Options{
			UserAgent:    cfg.Scrape.UserAgent,
			Timeout:      cfg.Scrape.Timeout,
			MaxBodyBytes: cfg.Scrape.MaxBodyBytes,
		}),
		llm.New(llm.Options{
			APIKey:    cfg.LLM.APIKey,
			BaseURL:   cfg.LLM.Endpoint,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
		}),
		db,
		audit.WithLogger(log),
		audit.WithSuggestionTimeout(cfg.LLM.SuggestionTimeout),
	)
	if cfg.LLM.APIKey == "" {
		log.Info("LLM_API_KEY not set, suggestions disabled")
	}

	opts := httpadapter.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		MetricsPath:    cfg.MetricsPath,
	}
	if cfg.RateLimit.Enabled {
		limiter, closeStore, err := rateLimiter(cfg.RateLimit)
		if err != nil {
			return err
		}
		defer closeStore()
		opts.AuditLimiter = limiter
	}
	// Without workers nothing would ever claim a queued job.
	var jobs ports.JobRepository
	if cfg.AuditWorkers > 0 {
		jobs = db
	} else {
		log.Warn("AUDIT_WORKERS is 0, audit jobs disabled")
	}
	srv := httpadapter.New(auditor, reports.New(db), jobs, log, opts)

	workersDone := make(chan struct{})
	go func() {
		defer close(workersDone)
		auditrunner.Run(ctx, db, auditor, cfg.AuditWorkers, auditrunner.DefaultPollInterval, log)
	}()
	if cfg.AuditWorkers > 0 {
		log.WithField("workers", cfg.AuditWorkers).Info("audit workers started")
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	log.WithField("addr", cfg.ListenAddr).Info("listening")

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	stop()
	<-workersDone
	return nil
}

func rateLimiter(cfg config.RateLimitOptions) (func(http.Handler) http.Handler, func(), error) {
	closeStore := func() {}
	limiterStore := httpadapter.NewMemoryStore()
	if cfg.Storage == "redis" {
		s, client, err := httpadapter.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		limiterStore = s
		closeStore = func() { _ = client.Close() }
	}
	mw, err := httpadapter.RateLimit(cfg.Rate, limiterStore)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return mw, closeStore, nil
}
