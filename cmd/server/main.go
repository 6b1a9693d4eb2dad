package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/edkuperman/pipelinedag/internal/api"
	"github.com/edkuperman/pipelinedag/internal/config"
	"github.com/edkuperman/pipelinedag/internal/db"
	"github.com/edkuperman/pipelinedag/internal/logging"
	"github.com/edkuperman/pipelinedag/internal/metrics"
	"github.com/edkuperman/pipelinedag/internal/scheduler"
)

var Version = "dev"

func main() {
	configPath := flag.String("config", "pipelinedag.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stderr, cfg.Log)
	slog.SetDefault(logger)

	// Cancel on Ctrl+C or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := api.Deps{
		Metrics: m,
		Limits:  cfg.Limits,
		Logger:  logger,
	}

	var sched *scheduler.Scheduler
	if cfg.Database.URL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.NewPool(connectCtx, cfg.Database.URL, cfg.Database.MaxConns)
		cancel()
		if err != nil {
			return err
		}
		defer pool.Close()

		repo := db.NewPipelineRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		sched = scheduler.New(repo,
			scheduler.WithConcurrency(cfg.Audit.Concurrency),
			scheduler.WithMetrics(m),
			scheduler.WithLogger(logger),
		)
		deps.Source = repo
		deps.Auditor = sched
	}

	router := api.NewRouter(api.NewHandlers(deps), api.RouterOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	auditing := sched != nil && cfg.Audit.Cron != ""
	if auditing {
		if err := sched.Register(ctx, cfg.Audit.Cron); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("pipelinedag API listening", "addr", srv.Addr, "version", Version, "database", cfg.Database.URL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if auditing {
		sched.Start()
		g.Go(func() error {
			<-gctx.Done()
			sched.Stop()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
