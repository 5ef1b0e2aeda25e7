package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/loanwatch/loanwatch/internal/domain/match"
	"github.com/loanwatch/loanwatch/internal/domain/player"
	"github.com/loanwatch/loanwatch/internal/domain/watch"
	"github.com/loanwatch/loanwatch/internal/infrastructure/registry"
	"github.com/loanwatch/loanwatch/internal/infrastructure/repository/memory"
	"github.com/loanwatch/loanwatch/internal/platform/logging"
	"github.com/loanwatch/loanwatch/internal/usecase"
)

type stubDataSource struct {
	next usecase.FixtureInfo
	ok   bool
}

func (s *stubDataSource) NextFixture(context.Context, int64) (usecase.FixtureInfo, bool, error) {
	return s.next, s.ok, nil
}

func (s *stubDataSource) MatchState(context.Context, int64, int64, int64) (match.Snapshot, error) {
	return match.Snapshot{}, usecase.ErrNotFound
}

func newTestRouter(t *testing.T, queue watch.Queue, token string) http.Handler {
	t.Helper()

	source := &stubDataSource{}
	reg := registry.NewFromPlayers([]player.TrackedPlayer{
		{ID: 1, Name: "A", TeamID: 100, TeamName: "Team"},
	})
	notifier := usecase.NewNotifierService(usecase.NewNoopPublisher(nil), nil)
	scanner := usecase.NewScannerService(reg, queue, source, usecase.ScannerConfig{}, nil)
	watcher := usecase.NewWatcherService(queue, source, notifier, usecase.WatcherConfig{}, nil)

	handler := NewHandler(queue, scanner, watcher, logging.NewNop())
	return NewRouter(handler, logging.NewNop(), token)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, memory.NewWatchQueue(), "secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestListWatchItems(t *testing.T) {
	queue := memory.NewWatchQueue()
	item := watch.Item{
		Player:     player.TrackedPlayer{ID: 7, Name: "P", TeamID: 100, TeamName: "Team"},
		FixtureID:  500,
		EnqueuedAt: time.Now().UTC(),
	}
	if _, err := queue.Put(t.Context(), item); err != nil {
		t.Fatalf("put: %v", err)
	}
	router := newTestRouter(t, queue, "secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/watch", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var envelope struct {
		Data struct {
			Count int            `json:"count"`
			Items []watchItemDTO `json:"items"`
		} `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Count != 1 || envelope.Data.Items[0].PlayerID != 7 {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestInternalScan_RequiresToken(t *testing.T) {
	router := newTestRouter(t, memory.NewWatchQueue(), "secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/internal/scan", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/scan", nil)
	req.Header.Set("X-Internal-Job-Token", "wrong")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/internal/scan", nil)
	req.Header.Set("X-Internal-Job-Token", "secret")
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
}

func TestInternalRoutes_DisabledWithoutConfiguredToken(t *testing.T) {
	router := newTestRouter(t, memory.NewWatchQueue(), "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/tick", nil)
	req.Header.Set("X-Internal-Job-Token", "anything")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestInternalTick_RunsWatcher(t *testing.T) {
	queue := memory.NewWatchQueue()
	router := newTestRouter(t, queue, "secret")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/tick", nil)
	req.Header.Set("X-Internal-Job-Token", "secret")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
}
