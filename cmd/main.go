package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/bankroll/internal/adapters/feedsource"
	"github.com/okian/bankroll/internal/adapters/http/api"
	"github.com/okian/bankroll/internal/adapters/http/swagger"
	"github.com/okian/bankroll/internal/adapters/repository"
	service "github.com/okian/bankroll/internal/app"
	"github.com/okian/bankroll/internal/config"
	"github.com/okian/bankroll/pkg/logger"
	"github.com/okian/bankroll/pkg/metrics"
	"github.com/shopspring/decimal"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := newStore(ctx, cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open ledger store", logger.String("store", cfg.Store), logger.Error(err))
		return
	}

	svc := service.New(
		service.WithLogger(loggerInstance.Named("service")),
		service.WithStore(store),
		service.WithFeeds(
			feedsource.New(cfg.ResultsFeed, cfg.FeedTimeout()),
			feedsource.New(cfg.SignalsFeed, cfg.FeedTimeout()),
		),
		service.WithStakingConfig(cfg.Staking()),
		service.WithInitialBankroll(cfg.Bankroll()),
		service.WithAverageOdd(cfg.AverageOdd),
		service.WithFlatStake(decimal.NewFromFloat(cfg.FlatStake)),
		service.WithFreeSignals(cfg.FreeSignals),
		service.WithSessionIdleTTL(cfg.SessionIdleTTL()),
	)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	if refresh := cfg.FeedRefresh(); refresh > 0 {
		go startFeedRefresher(ctx, svc, refresh)
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newStore opens the configured ledger store.
func newStore(ctx context.Context, cfg *config.Config) (repository.LedgerStore, error) {
	if cfg.Store != config.StoreRedis {
		return repository.NewMemoryStore(), nil
	}
	return repository.NewRedisStore(ctx,
		repository.WithAddr(cfg.RedisAddr),
		repository.WithPassword(cfg.RedisPassword),
		repository.WithDB(cfg.RedisDB),
		repository.WithPrefix(cfg.RedisPrefix),
	)
}

// startFeedRefresher reloads both feeds every interval until ctx is done.
func startFeedRefresher(ctx context.Context, svc *service.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// failures are logged and counted by the service
			_ = svc.ReloadFeeds(ctx)
		}
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
