package watch

import (
	"fmt"
	"time"

	"github.com/loanwatch/loanwatch/internal/domain/match"
	"github.com/loanwatch/loanwatch/internal/domain/player"
)

// Key identifies one watched (player, fixture) pair. The queue is a set
// over this key, never a multiset.
type Key struct {
	PlayerID  int64
	FixtureID int64
}

func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.PlayerID, k.FixtureID)
}

// Item is one player being actively polled for a live or imminent fixture.
type Item struct {
	Player    player.TrackedPlayer
	FixtureID int64

	// Seen is false until the first successful poll; the first diff runs
	// against the zero state.
	Seen       bool
	LastStatus string
	LastState  match.PlayerState

	EnqueuedAt time.Time

	// NotFoundStreak counts consecutive not-found polls; the watcher evicts
	// the item once the streak reaches its threshold.
	NotFoundStreak int
}

func (i Item) Key() Key {
	return Key{PlayerID: i.Player.ID, FixtureID: i.FixtureID}
}
