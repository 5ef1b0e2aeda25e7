package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/loanwatch/loanwatch/internal/domain/player"
	"github.com/loanwatch/loanwatch/internal/domain/watch"
	"github.com/loanwatch/loanwatch/internal/infrastructure/registry"
	"github.com/loanwatch/loanwatch/internal/infrastructure/repository/memory"
)

var scanBase = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func trackedPlayer(id, teamID int64, name string) player.TrackedPlayer {
	return player.TrackedPlayer{ID: id, Name: name, TeamID: teamID, TeamName: "Team"}
}

func newScanner(t *testing.T, players []player.TrackedPlayer, source DataSource, queue watch.Queue) *ScannerService {
	t.Helper()
	svc := NewScannerService(registry.NewFromPlayers(players), queue, source, ScannerConfig{KickoffLead: time.Hour}, nil)
	svc.now = func() time.Time { return scanBase }
	return svc
}

func TestScanner_EnqueuesImminentFixture(t *testing.T) {
	source := newFakeDataSource()
	source.nextByTeam[100] = FixtureInfo{ID: 500, KickoffAt: scanBase.Add(30 * time.Minute)}

	queue := memory.NewWatchQueue()
	svc := newScanner(t, []player.TrackedPlayer{trackedPlayer(1, 100, "A")}, source, queue)

	result, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.EnqueuedCount != 1 {
		t.Fatalf("expected one enqueued, got %+v", result)
	}

	exists, err := queue.Contains(t.Context(), watch.Key{PlayerID: 1, FixtureID: 500})
	if err != nil || !exists {
		t.Fatalf("expected item in queue: %v %v", exists, err)
	}
}

func TestScanner_SkipsDistantKickoff(t *testing.T) {
	source := newFakeDataSource()
	source.nextByTeam[100] = FixtureInfo{ID: 500, KickoffAt: scanBase.Add(3 * time.Hour)}

	queue := memory.NewWatchQueue()
	svc := newScanner(t, []player.TrackedPlayer{trackedPlayer(1, 100, "A")}, source, queue)

	result, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.SkippedCount != 1 || result.EnqueuedCount != 0 {
		t.Fatalf("expected skip, got %+v", result)
	}
}

func TestScanner_SkipsPlayerWithoutFixture(t *testing.T) {
	source := newFakeDataSource()
	queue := memory.NewWatchQueue()
	svc := newScanner(t, []player.TrackedPlayer{trackedPlayer(1, 100, "A")}, source, queue)

	result, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.SkippedCount != 1 {
		t.Fatalf("expected skip, got %+v", result)
	}
}

func TestScanner_NeverDuplicatesWatchItems(t *testing.T) {
	source := newFakeDataSource()
	source.nextByTeam[100] = FixtureInfo{ID: 500, KickoffAt: scanBase.Add(10 * time.Minute)}

	queue := memory.NewWatchQueue()
	svc := newScanner(t, []player.TrackedPlayer{trackedPlayer(1, 100, "A")}, source, queue)

	for i := 0; i < 3; i++ {
		if _, err := svc.Scan(t.Context()); err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
	}

	size, err := queue.Len(t.Context())
	if err != nil || size != 1 {
		t.Fatalf("expected one item after repeated scans, got %d (%v)", size, err)
	}
}

func TestScanner_FetchFailureDoesNotAbortScan(t *testing.T) {
	source := newFakeDataSource()
	source.nextErrByTeam[100] = errors.New("upstream 500")
	source.nextByTeam[200] = FixtureInfo{ID: 600, KickoffAt: scanBase.Add(20 * time.Minute)}

	queue := memory.NewWatchQueue()
	svc := newScanner(t, []player.TrackedPlayer{
		trackedPlayer(1, 100, "A"),
		trackedPlayer(2, 200, "B"),
	}, source, queue)

	result, err := svc.Scan(t.Context())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if result.FailedCount != 1 || result.EnqueuedCount != 1 {
		t.Fatalf("expected one failure and one enqueue, got %+v", result)
	}
}
