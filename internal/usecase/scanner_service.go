package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/loanwatch/loanwatch/internal/domain/player"
	"github.com/loanwatch/loanwatch/internal/domain/watch"
	"github.com/loanwatch/loanwatch/internal/platform/logging"
)

const defaultScanWorkers = 4

type ScannerConfig struct {
	// KickoffLead is how close a fixture's kickoff must be before the
	// player is enqueued for watching.
	KickoffLead time.Duration
	MaxWorkers  int
}

type ScanResult struct {
	PlayerCount   int `json:"player_count"`
	EnqueuedCount int `json:"enqueued_count"`
	SkippedCount  int `json:"skipped_count"`
	FailedCount   int `json:"failed_count"`
}

// ScannerService finds imminent fixtures for tracked players and feeds the
// watch queue. It only ever inserts; eviction belongs to the watcher.
type ScannerService struct {
	registry player.Registry
	queue    watch.Queue
	source   DataSource
	cfg      ScannerConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewScannerService(
	registry player.Registry,
	queue watch.Queue,
	source DataSource,
	cfg ScannerConfig,
	logger *logging.Logger,
) *ScannerService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.KickoffLead <= 0 {
		cfg.KickoffLead = time.Hour
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultScanWorkers
	}

	return &ScannerService{
		registry: registry,
		queue:    queue,
		source:   source,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Scan runs one pass over every tracked player. Per-player failures are
// logged and isolated; a bad fetch never aborts the rest of the scan.
func (s *ScannerService) Scan(ctx context.Context) (ScanResult, error) {
	ctx, span := startSpan(ctx, "usecase.ScannerService.Scan")
	defer span.End()

	players, err := s.registry.List(ctx)
	if err != nil {
		return ScanResult{}, err
	}

	var enqueued, skipped, failed atomic.Int32

	workers := pool.New().WithMaxGoroutines(s.cfg.MaxWorkers)
	for _, item := range players {
		p := item
		workers.Go(func() {
			switch s.scanPlayer(ctx, p) {
			case scanOutcomeEnqueued:
				enqueued.Add(1)
			case scanOutcomeSkipped:
				skipped.Add(1)
			default:
				failed.Add(1)
			}
		})
	}
	workers.Wait()

	result := ScanResult{
		PlayerCount:   len(players),
		EnqueuedCount: int(enqueued.Load()),
		SkippedCount:  int(skipped.Load()),
		FailedCount:   int(failed.Load()),
	}
	s.logger.InfoContext(ctx, "fixture scan finished",
		"players", result.PlayerCount,
		"enqueued", result.EnqueuedCount,
		"skipped", result.SkippedCount,
		"failed", result.FailedCount,
	)
	return result, nil
}

type scanOutcome int

const (
	scanOutcomeEnqueued scanOutcome = iota
	scanOutcomeSkipped
	scanOutcomeFailed
)

func (s *ScannerService) scanPlayer(ctx context.Context, p player.TrackedPlayer) scanOutcome {
	fixture, found, err := s.source.NextFixture(ctx, p.TeamID)
	if err != nil {
		s.logger.WarnContext(ctx, "next fixture lookup failed, skipping player until next scan",
			"player", p.Name,
			"team_id", p.TeamID,
			"error", err,
		)
		return scanOutcomeFailed
	}
	if !found {
		s.logger.DebugContext(ctx, "no upcoming fixture", "player", p.Name)
		return scanOutcomeSkipped
	}

	if fixture.KickoffAt.Sub(s.now()) > s.cfg.KickoffLead {
		return scanOutcomeSkipped
	}

	key := watch.Key{PlayerID: p.ID, FixtureID: fixture.ID}
	exists, err := s.queue.Contains(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "queue lookup failed", "key", key.String(), "error", err)
		return scanOutcomeFailed
	}
	if exists {
		return scanOutcomeSkipped
	}

	inserted, err := s.queue.Put(ctx, watch.Item{
		Player:     p,
		FixtureID:  fixture.ID,
		EnqueuedAt: s.now(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "enqueue failed", "key", key.String(), "error", err)
		return scanOutcomeFailed
	}
	if !inserted {
		// Lost the race against a concurrent scan; the set absorbed it.
		return scanOutcomeSkipped
	}

	s.logger.InfoContext(ctx, "watching player for imminent fixture",
		"player", p.Name,
		"fixture_id", fixture.ID,
		"kickoff_at", fixture.KickoffAt,
	)
	return scanOutcomeEnqueued
}
