package usecase

import (
	"context"
	"time"

	"github.com/loanwatch/loanwatch/internal/platform/logging"
)

type SchedulerConfig struct {
	ScanInterval  time.Duration
	WatchInterval time.Duration
	// TickTimeout bounds one scan or watch pass so a stuck upstream call
	// cannot delay the following tick indefinitely.
	TickTimeout time.Duration
}

// Scheduler drives the two periodic loops. Each tick runs to completion
// under its own deadline; overlap between the loops is safe because the
// queue serializes its own mutations.
type Scheduler struct {
	scanner *ScannerService
	watcher *WatcherService
	cfg     SchedulerConfig
	logger  *logging.Logger
}

func NewScheduler(scanner *ScannerService, watcher *WatcherService, cfg SchedulerConfig, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = time.Hour
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = time.Minute
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = 30 * time.Second
	}

	return &Scheduler{
		scanner: scanner,
		watcher: watcher,
		cfg:     cfg,
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled. An initial scan fires immediately so
// a restart re-discovers in-flight fixtures within one watch interval
// rather than waiting out the scan interval.
func (s *Scheduler) Run(ctx context.Context) {
	s.runScan(ctx)

	scanTicker := time.NewTicker(s.cfg.ScanInterval)
	defer scanTicker.Stop()
	watchTicker := time.NewTicker(s.cfg.WatchInterval)
	defer watchTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			return
		case <-scanTicker.C:
			s.runScan(ctx)
		case <-watchTicker.C:
			s.runTick(ctx)
		}
	}
}

func (s *Scheduler) runScan(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()

	if _, err := s.scanner.Scan(tickCtx); err != nil {
		s.logger.WarnContext(tickCtx, "fixture scan failed, retrying next interval", "error", err)
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()

	if _, err := s.watcher.Tick(tickCtx); err != nil {
		s.logger.WarnContext(tickCtx, "watch tick failed, retrying next interval", "error", err)
	}
}
