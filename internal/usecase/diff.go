package usecase

import (
	"fmt"

	"github.com/loanwatch/loanwatch/internal/domain/match"
	"github.com/loanwatch/loanwatch/internal/domain/watch"
)

// CounterAnomaly records a cumulative counter that went backwards between
// polls. The delta is clamped to zero; no event is emitted for it.
type CounterAnomaly struct {
	Counter  string
	Previous int
	Current  int
}

func (a CounterAnomaly) String() string {
	return fmt.Sprintf("%s decreased %d -> %d", a.Counter, a.Previous, a.Current)
}

// Diff compares an item's last-observed state against a fresh snapshot and
// returns the newly occurred events in fixed rule order. It is pure: no
// clock, no I/O, no mutation of its inputs.
//
// An unseen item (first poll) diffs against the zero state, so a player
// already mid-match produces lineup, kickoff and accrued counter events in
// one pass.
func Diff(item watch.Item, snap match.Snapshot) ([]match.Event, []CounterAnomaly) {
	prev := item.LastState
	prevStatus := item.LastStatus
	if !item.Seen {
		prev = match.PlayerState{}
		prevStatus = match.StatusNotStarted
	}

	events := make([]match.Event, 0, 4)
	var anomalies []CounterAnomaly

	emit := func(t match.EventType, times int) {
		for i := 0; i < times; i++ {
			events = append(events, match.Event{Type: t, Snapshot: snap})
		}
	}
	counterDelta := func(name string, previous, current int) int {
		if current < previous {
			anomalies = append(anomalies, CounterAnomaly{Counter: name, Previous: previous, Current: current})
			return 0
		}
		return current - previous
	}

	if !prev.InLineup && snap.Player.InLineup {
		emit(match.EventLineupConfirmed, 1)
	}

	if !match.IsInProgressStatus(prevStatus) && match.IsInProgressStatus(snap.Status) {
		emit(match.EventKickOff, 1)
	}

	emit(match.EventGoal, counterDelta("goals", prev.Goals, snap.Player.Goals))
	emit(match.EventAssist, counterDelta("assists", prev.Assists, snap.Player.Assists))
	emit(match.EventYellowCard, counterDelta("yellow_cards", prev.YellowCards, snap.Player.YellowCards))
	emit(match.EventRedCard, counterDelta("red_cards", prev.RedCards, snap.Player.RedCards))

	// Leaving the pitch at full-time still counts as coming off, so the
	// guard is on the previously observed status, not the new one.
	if prev.OnPitch && !snap.Player.OnPitch && !match.IsFinishedStatus(prevStatus) {
		emit(match.EventSubstitutionOff, 1)
	}
	// Appearing on the pitch only counts as a substitution when the match
	// was already under way at the previous poll; starters appearing at
	// kickoff are covered by KickOff.
	if !prev.OnPitch && snap.Player.OnPitch && item.Seen && match.IsInProgressStatus(prevStatus) {
		emit(match.EventSubstitutionOn, 1)
	}

	if match.IsFinishedStatus(snap.Status) && !match.IsFinishedStatus(prevStatus) {
		emit(match.EventFullTime, 1)
	}

	return events, anomalies
}
