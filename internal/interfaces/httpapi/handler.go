package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/loanwatch/loanwatch/internal/domain/watch"
	"github.com/loanwatch/loanwatch/internal/platform/logging"
	"github.com/loanwatch/loanwatch/internal/usecase"
)

// Handler serves the small ops surface: health, queue introspection and
// the internal job triggers.
type Handler struct {
	queue   watch.Queue
	scanner *usecase.ScannerService
	watcher *usecase.WatcherService
	logger  *logging.Logger
}

func NewHandler(
	queue watch.Queue,
	scanner *usecase.ScannerService,
	watcher *usecase.WatcherService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		queue:   queue,
		scanner: scanner,
		watcher: watcher,
		logger:  logger,
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type watchItemDTO struct {
	PlayerID       int64     `json:"playerId"`
	PlayerName     string    `json:"playerName"`
	TeamName       string    `json:"teamName"`
	FixtureID      int64     `json:"fixtureId"`
	LastStatus     string    `json:"lastStatus,omitempty"`
	Seen           bool      `json:"seen"`
	NotFoundStreak int       `json:"notFoundStreak,omitempty"`
	EnqueuedAt     time.Time `json:"enqueuedAt"`
}

func (h *Handler) ListWatchItems(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListWatchItems")
	defer span.End()

	items, err := h.queue.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list watch items failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]watchItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, watchItemDTO{
			PlayerID:       item.Player.ID,
			PlayerName:     item.Player.Name,
			TeamName:       item.Player.TeamName,
			FixtureID:      item.FixtureID,
			LastStatus:     item.LastStatus,
			Seen:           item.Seen,
			NotFoundStreak: item.NotFoundStreak,
			EnqueuedAt:     item.EnqueuedAt,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"items": out, "count": len(out)})
}

func (h *Handler) RunScanJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunScanJob")
	defer span.End()

	if h.scanner == nil {
		writeError(ctx, w, fmt.Errorf("%w: scanner is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.scanner.Scan(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "manual scan failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RunTickJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunTickJob")
	defer span.End()

	if h.watcher == nil {
		writeError(ctx, w, fmt.Errorf("%w: watcher is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	result, err := h.watcher.Tick(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "manual tick failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}
