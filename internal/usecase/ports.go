package usecase

import (
	"context"
	"time"

	"github.com/loanwatch/loanwatch/internal/domain/match"
	"github.com/loanwatch/loanwatch/internal/platform/logging"
)

// FixtureInfo is the minimal next-fixture answer the scanner needs.
type FixtureInfo struct {
	ID        int64
	KickoffAt time.Time
}

// DataSource is the match-data capability. Both calls are fallible,
// possibly slow, rate-limited remote operations; callers bound them with a
// context deadline.
type DataSource interface {
	// NextFixture returns the next scheduled fixture for a team, or false
	// when none is scheduled.
	NextFixture(ctx context.Context, teamID int64) (FixtureInfo, bool, error)
	// MatchState returns the current snapshot of a fixture for one player.
	// Returns an error wrapping ErrNotFound when the fixture no longer
	// exists upstream.
	MatchState(ctx context.Context, fixtureID, playerID, teamID int64) (match.Snapshot, error)
}

// Publisher is the outbound message capability. Failures are logged and
// dropped by callers; a message is never re-sent.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

type noopPublisher struct {
	logger *logging.Logger
}

// NewNoopPublisher logs would-be posts instead of sending them. Used when
// the publish dependency is disabled (dry-run mode).
func NewNoopPublisher(logger *logging.Logger) Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	return noopPublisher{logger: logger}
}

func (p noopPublisher) Publish(ctx context.Context, text string) error {
	p.logger.InfoContext(ctx, "dry-run publish", "text", text)
	return nil
}
