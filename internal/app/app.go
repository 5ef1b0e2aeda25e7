package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/loanwatch/loanwatch/external/fotmob"
	"github.com/loanwatch/loanwatch/external/twitter"
	"github.com/loanwatch/loanwatch/internal/config"
	"github.com/loanwatch/loanwatch/internal/infrastructure/registry"
	"github.com/loanwatch/loanwatch/internal/infrastructure/repository/memory"
	"github.com/loanwatch/loanwatch/internal/interfaces/httpapi"
	"github.com/loanwatch/loanwatch/internal/platform/logging"
	"github.com/loanwatch/loanwatch/internal/platform/resilience"
	"github.com/loanwatch/loanwatch/internal/usecase"
)

// App owns the two polling loops and the ops HTTP server.
type App struct {
	cfg        config.Config
	logger     *logging.Logger
	scheduler  *usecase.Scheduler
	httpServer *http.Server
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	reg, err := registry.LoadFile(cfg.PlayerFile)
	if err != nil {
		return nil, fmt.Errorf("load player registry: %w", err)
	}

	queue := memory.NewWatchQueue()

	source := fotmob.NewClient(fotmob.ClientConfig{
		BaseURL:    cfg.FotMobBaseURL,
		Timeout:    cfg.FotMobTimeout,
		MaxRetries: cfg.FotMobMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FotMobCircuitEnabled,
			FailureThreshold: cfg.FotMobCircuitFailureCount,
			OpenTimeout:      cfg.FotMobCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FotMobCircuitHalfOpenMaxReq,
		},
	})

	var publisher usecase.Publisher
	if cfg.TwitterEnabled {
		publisher = twitter.NewClient(twitter.ClientConfig{
			BaseURL:        cfg.TwitterBaseURL,
			Timeout:        cfg.TwitterTimeout,
			ConsumerKey:    cfg.TwitterConsumerKey,
			ConsumerSecret: cfg.TwitterConsumerSecret,
			AccessToken:    cfg.TwitterAccessToken,
			AccessSecret:   cfg.TwitterAccessSecret,
			Logger:         logger,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.TwitterCircuitEnabled,
				FailureThreshold: cfg.TwitterCircuitFailureCount,
				OpenTimeout:      cfg.TwitterCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.TwitterCircuitHalfOpenMaxReq,
			},
		})
	} else {
		logger.Info("twitter disabled, running in dry-run mode")
		publisher = usecase.NewNoopPublisher(logger)
	}

	notifier := usecase.NewNotifierService(publisher, logger)
	scanner := usecase.NewScannerService(reg, queue, source, usecase.ScannerConfig{
		KickoffLead: cfg.KickoffLead,
		MaxWorkers:  cfg.ScanMaxWorkers,
	}, logger)
	watcher := usecase.NewWatcherService(queue, source, notifier, usecase.WatcherConfig{
		MaxWorkers:            cfg.WatchMaxWorkers,
		NotFoundEvictionAfter: cfg.NotFoundEvictionAfter,
	}, logger)

	scheduler := usecase.NewScheduler(scanner, watcher, usecase.SchedulerConfig{
		ScanInterval:  cfg.ScanInterval,
		WatchInterval: cfg.WatchInterval,
		TickTimeout:   cfg.TickTimeout,
	}, logger)

	handler := httpapi.NewHandler(queue, scanner, watcher, logger)
	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, logger, cfg.InternalJobToken),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		scheduler:  scheduler,
		httpServer: server,
	}, nil
}

// Run blocks until ctx is cancelled, then shuts the HTTP server down
// gracefully. The scheduler stops with the context.
func (a *App) Run(ctx context.Context) error {
	httpErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		a.scheduler.Run(ctx)
	}()

	select {
	case err := <-httpErr:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	<-schedulerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.logger.Info("http server stopped")
	return nil
}
