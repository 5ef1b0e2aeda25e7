package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/loanwatch/loanwatch/internal/domain/match"
	"github.com/loanwatch/loanwatch/internal/domain/watch"
	"github.com/loanwatch/loanwatch/internal/platform/logging"
)

const (
	defaultWatchWorkers          = 8
	defaultNotFoundEvictionAfter = 3
)

type WatcherConfig struct {
	MaxWorkers int
	// NotFoundEvictionAfter is how many consecutive not-found polls a
	// fixture survives before the item is treated as permanently gone.
	NotFoundEvictionAfter int
}

type TickResult struct {
	ItemCount    int `json:"item_count"`
	EventCount   int `json:"event_count"`
	RemovedCount int `json:"removed_count"`
	FailedCount  int `json:"failed_count"`
}

// WatcherService polls every queued item, diffs against last-observed
// state, and hands detected events to the notifier.
type WatcherService struct {
	queue    watch.Queue
	source   DataSource
	notifier *NotifierService
	cfg      WatcherConfig
	logger   *logging.Logger
}

func NewWatcherService(
	queue watch.Queue,
	source DataSource,
	notifier *NotifierService,
	cfg WatcherConfig,
	logger *logging.Logger,
) *WatcherService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = defaultWatchWorkers
	}
	if cfg.NotFoundEvictionAfter <= 0 {
		cfg.NotFoundEvictionAfter = defaultNotFoundEvictionAfter
	}

	return &WatcherService{
		queue:    queue,
		source:   source,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Tick processes every item currently in the queue once. Item failures are
// isolated: one broken fixture never stops the rest of the tick.
func (s *WatcherService) Tick(ctx context.Context) (TickResult, error) {
	ctx, span := startSpan(ctx, "usecase.WatcherService.Tick")
	defer span.End()

	items, err := s.queue.List(ctx)
	if err != nil {
		return TickResult{}, err
	}
	if len(items) == 0 {
		return TickResult{}, nil
	}

	var eventCount, removedCount, failedCount atomic.Int32

	poolSize := s.cfg.MaxWorkers
	if poolSize > len(items) {
		poolSize = len(items)
	}
	workers, err := ants.NewPool(poolSize)
	if err != nil {
		return TickResult{}, fmt.Errorf("create watcher pool: %w", err)
	}
	defer workers.Release()

	var wg sync.WaitGroup
	for _, item := range items {
		item := item
		wg.Add(1)
		if err := workers.Submit(func() {
			defer wg.Done()
			events, removed, err := s.pollItem(ctx, item)
			eventCount.Add(int32(events))
			if removed {
				removedCount.Add(1)
			}
			if err != nil {
				failedCount.Add(1)
			}
		}); err != nil {
			wg.Done()
			failedCount.Add(1)
			s.logger.WarnContext(ctx, "submit watch poll failed", "key", item.Key().String(), "error", err)
		}
	}
	wg.Wait()

	result := TickResult{
		ItemCount:    len(items),
		EventCount:   int(eventCount.Load()),
		RemovedCount: int(removedCount.Load()),
		FailedCount:  int(failedCount.Load()),
	}
	s.logger.InfoContext(ctx, "watch tick finished",
		"items", result.ItemCount,
		"events", result.EventCount,
		"removed", result.RemovedCount,
		"failed", result.FailedCount,
	)
	return result, nil
}

func (s *WatcherService) pollItem(ctx context.Context, item watch.Item) (int, bool, error) {
	snap, err := s.source.MatchState(ctx, item.FixtureID, item.Player.ID, item.Player.TeamID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, s.handleNotFound(ctx, item), nil
		}
		s.logger.WarnContext(ctx, "match state fetch failed, retrying next tick",
			"player", item.Player.Name,
			"fixture_id", item.FixtureID,
			"error", err,
		)
		return 0, false, err
	}

	events, anomalies := Diff(item, snap)
	for _, anomaly := range anomalies {
		s.logger.WarnContext(ctx, "counter anomaly, upstream correction ignored",
			"player", item.Player.Name,
			"fixture_id", item.FixtureID,
			"anomaly", anomaly.String(),
		)
	}

	for _, event := range events {
		s.notifier.Notify(ctx, item.Player, event)
	}

	item.Seen = true
	item.LastStatus = match.NormalizeStatus(snap.Status)
	item.LastState = snap.Player
	item.NotFoundStreak = 0

	if match.IsTerminalStatus(snap.Status) {
		if err := s.queue.Remove(ctx, item.Key()); err != nil {
			return len(events), false, err
		}
		s.logger.InfoContext(ctx, "match over, stopped watching",
			"player", item.Player.Name,
			"fixture_id", item.FixtureID,
			"status", match.NormalizeStatus(snap.Status),
		)
		return len(events), true, nil
	}

	if err := s.queue.Update(ctx, item); err != nil {
		return len(events), false, err
	}
	return len(events), false, nil
}

// handleNotFound bumps the item's not-found streak and evicts it once the
// fixture has been gone long enough to call it deleted upstream.
func (s *WatcherService) handleNotFound(ctx context.Context, item watch.Item) bool {
	item.NotFoundStreak++
	if item.NotFoundStreak >= s.cfg.NotFoundEvictionAfter {
		if err := s.queue.Remove(ctx, item.Key()); err != nil {
			s.logger.WarnContext(ctx, "evict failed", "key", item.Key().String(), "error", err)
			return false
		}
		s.logger.WarnContext(ctx, "fixture gone upstream, evicted",
			"player", item.Player.Name,
			"fixture_id", item.FixtureID,
			"not_found_polls", item.NotFoundStreak,
		)
		return true
	}

	if err := s.queue.Update(ctx, item); err != nil {
		s.logger.WarnContext(ctx, "record not-found streak failed", "key", item.Key().String(), "error", err)
	}
	return false
}
