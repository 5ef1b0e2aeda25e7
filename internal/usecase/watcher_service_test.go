package usecase

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/loanwatch/loanwatch/internal/domain/match"
	"github.com/loanwatch/loanwatch/internal/domain/player"
	"github.com/loanwatch/loanwatch/internal/domain/watch"
	"github.com/loanwatch/loanwatch/internal/infrastructure/repository/memory"
)

func watchedItem(playerID, teamID, fixtureID int64, name string) watch.Item {
	return watch.Item{
		Player:     player.TrackedPlayer{ID: playerID, Name: name, TeamID: teamID, TeamName: "Team", Hashtags: []string{"CFC"}},
		FixtureID:  fixtureID,
		EnqueuedAt: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
}

func newWatcher(queue watch.Queue, source DataSource, publisher Publisher) *WatcherService {
	notifier := NewNotifierService(publisher, nil)
	return NewWatcherService(queue, source, notifier, WatcherConfig{NotFoundEvictionAfter: 3}, nil)
}

func TestWatcher_FullMatchFlow(t *testing.T) {
	source := newFakeDataSource()
	publisher := &recordingPublisher{}
	queue := memory.NewWatchQueue()
	svc := newWatcher(queue, source, publisher)

	item := watchedItem(1, 100, 500, "Player A")
	if _, err := queue.Put(t.Context(), item); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Poll 1: lineup out, match started, player starting.
	source.stateByFixture[500] = match.Snapshot{
		FixtureID: 500, Status: match.StatusInProgress,
		HomeTeam: "Home", AwayTeam: "Away",
		Player: match.PlayerState{InLineup: true, Starting: true, OnPitch: true},
	}
	result, err := svc.Tick(t.Context())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if result.EventCount != 2 {
		t.Fatalf("expected lineup+kickoff, got %+v", result)
	}

	// Poll 2: goal.
	source.stateByFixture[500] = match.Snapshot{
		FixtureID: 500, Status: match.StatusInProgress,
		HomeTeam: "Home", AwayTeam: "Away", HomeScore: 1,
		Player: match.PlayerState{InLineup: true, Starting: true, OnPitch: true, Goals: 1},
	}
	result, err = svc.Tick(t.Context())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if result.EventCount != 1 {
		t.Fatalf("expected one goal event, got %+v", result)
	}

	// Poll 3: full-time; item leaves the queue.
	source.stateByFixture[500] = match.Snapshot{
		FixtureID: 500, Status: match.StatusFinished,
		HomeTeam: "Home", AwayTeam: "Away", HomeScore: 1,
		Player: match.PlayerState{InLineup: true, Starting: true, Goals: 1, MinutesPlayed: 90},
	}
	result, err = svc.Tick(t.Context())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if result.RemovedCount != 1 {
		t.Fatalf("expected removal at full-time, got %+v", result)
	}

	size, err := queue.Len(t.Context())
	if err != nil || size != 0 {
		t.Fatalf("expected empty queue, got %d (%v)", size, err)
	}

	messages := publisher.published()
	if len(messages) != 5 {
		t.Fatalf("expected five posts, got %d: %v", len(messages), messages)
	}
	if !strings.Contains(messages[2], "scored a goal") {
		t.Fatalf("unexpected goal message: %q", messages[2])
	}
	if !strings.Contains(messages[4], "has finished") {
		t.Fatalf("unexpected full-time message: %q", messages[4])
	}
}

func TestWatcher_ItemSurvivesTransientFetchFailure(t *testing.T) {
	source := newFakeDataSource()
	publisher := &recordingPublisher{}
	queue := memory.NewWatchQueue()
	svc := newWatcher(queue, source, publisher)

	item := watchedItem(1, 100, 500, "Player A")
	if _, err := queue.Put(t.Context(), item); err != nil {
		t.Fatalf("put: %v", err)
	}
	source.stateErrByFix[500] = errors.New("timeout")

	result, err := svc.Tick(t.Context())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if result.FailedCount != 1 || result.RemovedCount != 0 {
		t.Fatalf("expected failure without removal, got %+v", result)
	}

	size, _ := queue.Len(t.Context())
	if size != 1 {
		t.Fatalf("item should remain queued, got %d", size)
	}
}

func TestWatcher_OneFailingItemDoesNotBlockOthers(t *testing.T) {
	source := newFakeDataSource()
	publisher := &recordingPublisher{}
	queue := memory.NewWatchQueue()
	svc := newWatcher(queue, source, publisher)

	for i, fixtureID := range []int64{500, 501, 502} {
		if _, err := queue.Put(t.Context(), watchedItem(int64(i+1), 100, fixtureID, "P")); err != nil {
			t.Fatalf("put: %v", err)
		}
	}

	source.stateErrByFix[500] = errors.New("timeout")
	for _, fixtureID := range []int64{501, 502} {
		source.stateByFixture[fixtureID] = match.Snapshot{
			FixtureID: fixtureID, Status: match.StatusInProgress,
			HomeTeam: "Home", AwayTeam: "Away",
			Player: match.PlayerState{InLineup: true, Starting: true, OnPitch: true},
		}
	}

	result, err := svc.Tick(t.Context())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if result.FailedCount != 1 {
		t.Fatalf("expected one failed item, got %+v", result)
	}
	if result.EventCount != 4 {
		t.Fatalf("expected the two healthy items to emit lineup+kickoff each, got %+v", result)
	}
}

func TestWatcher_RepeatedNotFoundEvicts(t *testing.T) {
	source := newFakeDataSource()
	publisher := &recordingPublisher{}
	queue := memory.NewWatchQueue()
	svc := newWatcher(queue, source, publisher)

	if _, err := queue.Put(t.Context(), watchedItem(1, 100, 999, "P")); err != nil {
		t.Fatalf("put: %v", err)
	}

	for i := 0; i < 2; i++ {
		result, err := svc.Tick(t.Context())
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if result.RemovedCount != 0 {
			t.Fatalf("evicted too early on tick %d", i)
		}
	}

	result, err := svc.Tick(t.Context())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if result.RemovedCount != 1 {
		t.Fatalf("expected eviction on third not-found, got %+v", result)
	}

	size, _ := queue.Len(t.Context())
	if size != 0 {
		t.Fatalf("expected empty queue, got %d", size)
	}
	if len(publisher.published()) != 0 {
		t.Fatalf("not-found eviction must not publish, got %v", publisher.published())
	}
}

func TestWatcher_PublishFailureDoesNotStopTick(t *testing.T) {
	source := newFakeDataSource()
	publisher := &recordingPublisher{err: errors.New("rate limited")}
	queue := memory.NewWatchQueue()
	svc := newWatcher(queue, source, publisher)

	if _, err := queue.Put(t.Context(), watchedItem(1, 100, 500, "P")); err != nil {
		t.Fatalf("put: %v", err)
	}
	source.stateByFixture[500] = match.Snapshot{
		FixtureID: 500, Status: match.StatusInProgress,
		HomeTeam: "Home", AwayTeam: "Away",
		Player: match.PlayerState{InLineup: true, Starting: true, OnPitch: true},
	}

	result, err := svc.Tick(t.Context())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if result.FailedCount != 0 {
		t.Fatalf("publish failure must not mark the item failed, got %+v", result)
	}

	// State still advances: the same events are not re-published next tick.
	result, err = svc.Tick(t.Context())
	if err != nil {
		t.Fatalf("second tick: %v", err)
	}
	if result.EventCount != 0 {
		t.Fatalf("expected no repeat events, got %+v", result)
	}
}

func TestWatcher_AbandonedFixtureRemovedSilently(t *testing.T) {
	source := newFakeDataSource()
	publisher := &recordingPublisher{}
	queue := memory.NewWatchQueue()
	svc := newWatcher(queue, source, publisher)

	item := watchedItem(1, 100, 500, "P")
	item.Seen = true
	item.LastStatus = match.StatusNotStarted
	if _, err := queue.Put(t.Context(), item); err != nil {
		t.Fatalf("put: %v", err)
	}

	source.stateByFixture[500] = match.Snapshot{
		FixtureID: 500, Status: "POSTPONED",
		Player: match.PlayerState{},
	}

	result, err := svc.Tick(t.Context())
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if result.RemovedCount != 1 || result.EventCount != 0 {
		t.Fatalf("expected silent removal, got %+v", result)
	}
}
