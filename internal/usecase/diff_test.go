package usecase

import (
	"testing"

	"github.com/loanwatch/loanwatch/internal/domain/match"
	"github.com/loanwatch/loanwatch/internal/domain/player"
	"github.com/loanwatch/loanwatch/internal/domain/watch"
)

func diffItem() watch.Item {
	return watch.Item{
		Player:    player.TrackedPlayer{ID: 7, Name: "Player", TeamID: 1, TeamName: "Team"},
		FixtureID: 500,
	}
}

func snapshotWith(status string, state match.PlayerState) match.Snapshot {
	return match.Snapshot{
		FixtureID: 500,
		Status:    status,
		HomeTeam:  "Home",
		AwayTeam:  "Away",
		Player:    state,
	}
}

func eventTypes(events []match.Event) []match.EventType {
	out := make([]match.EventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}
	return out
}

func assertEvents(t *testing.T, got []match.Event, want ...match.EventType) {
	t.Helper()
	types := eventTypes(got)
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, types)
		}
	}
}

func TestDiff_MatchLifecycle(t *testing.T) {
	item := diffItem()

	// Poll 1: not started, not in lineup yet. Nothing happens.
	snap := snapshotWith(match.StatusNotStarted, match.PlayerState{})
	events, anomalies := Diff(item, snap)
	assertEvents(t, events)
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %v", anomalies)
	}
	item.Seen = true
	item.LastStatus = snap.Status
	item.LastState = snap.Player

	// Poll 2: player in lineup, match under way.
	snap = snapshotWith(match.StatusInProgress, match.PlayerState{InLineup: true, Starting: true, OnPitch: true})
	events, _ = Diff(item, snap)
	assertEvents(t, events, match.EventLineupConfirmed, match.EventKickOff)
	item.LastStatus = snap.Status
	item.LastState = snap.Player

	// Poll 3: a goal.
	snap = snapshotWith(match.StatusInProgress, match.PlayerState{InLineup: true, Starting: true, OnPitch: true, Goals: 1})
	events, _ = Diff(item, snap)
	assertEvents(t, events, match.EventGoal)
	item.LastStatus = snap.Status
	item.LastState = snap.Player

	// Poll 4: full-time, player off the pitch.
	snap = snapshotWith(match.StatusFinished, match.PlayerState{InLineup: true, Starting: true, Goals: 1, MinutesPlayed: 90})
	events, _ = Diff(item, snap)
	assertEvents(t, events, match.EventSubstitutionOff, match.EventFullTime)
}

func TestDiff_LineupAndKickoffArriveTogether(t *testing.T) {
	item := diffItem()

	// First observation: goals 0, off pitch, not started.
	snap := snapshotWith(match.StatusNotStarted, match.PlayerState{})
	events, _ := Diff(item, snap)
	assertEvents(t, events)
	item.Seen = true
	item.LastStatus = snap.Status
	item.LastState = snap.Player

	// Lineup appears together with kickoff; fixed rule order applies.
	snap = snapshotWith(match.StatusInProgress, match.PlayerState{InLineup: true, OnPitch: false})
	events, _ = Diff(item, snap)
	assertEvents(t, events, match.EventLineupConfirmed, match.EventKickOff)
}

func TestDiff_UnseenItemMidMatchCatchesUp(t *testing.T) {
	item := diffItem() // Seen is false: first successful poll

	snap := snapshotWith(match.StatusInProgress, match.PlayerState{InLineup: true, OnPitch: true, Goals: 1})
	events, _ := Diff(item, snap)

	// No SubstitutionOn on first sight; lineup + kickoff cover it.
	assertEvents(t, events, match.EventLineupConfirmed, match.EventKickOff, match.EventGoal)
}

func TestDiff_MultiGoalGapEmitsOnePerUnit(t *testing.T) {
	item := diffItem()
	item.Seen = true
	item.LastStatus = match.StatusInProgress
	item.LastState = match.PlayerState{InLineup: true, OnPitch: true}

	snap := snapshotWith(match.StatusInProgress, match.PlayerState{InLineup: true, OnPitch: true, Goals: 2})
	events, _ := Diff(item, snap)
	assertEvents(t, events, match.EventGoal, match.EventGoal)
}

func TestDiff_TotalGoalsEqualsFinalMinusFirst(t *testing.T) {
	item := diffItem()
	goalCounts := []int{0, 0, 1, 1, 3, 4}

	total := 0
	for _, goals := range goalCounts {
		snap := snapshotWith(match.StatusInProgress, match.PlayerState{InLineup: true, OnPitch: true, Goals: goals})
		events, _ := Diff(item, snap)
		for _, e := range events {
			if e.Type == match.EventGoal {
				total++
			}
		}
		item.Seen = true
		item.LastStatus = snap.Status
		item.LastState = snap.Player
	}

	if total != goalCounts[len(goalCounts)-1] {
		t.Fatalf("expected %d goal events across polls, got %d", goalCounts[len(goalCounts)-1], total)
	}
}

func TestDiff_CounterDecreaseClampedAndReported(t *testing.T) {
	item := diffItem()
	item.Seen = true
	item.LastStatus = match.StatusInProgress
	item.LastState = match.PlayerState{InLineup: true, OnPitch: true, Goals: 2}

	snap := snapshotWith(match.StatusInProgress, match.PlayerState{InLineup: true, OnPitch: true, Goals: 1})
	events, anomalies := Diff(item, snap)

	assertEvents(t, events)
	if len(anomalies) != 1 {
		t.Fatalf("expected one anomaly, got %v", anomalies)
	}
	if anomalies[0].Counter != "goals" || anomalies[0].Previous != 2 || anomalies[0].Current != 1 {
		t.Fatalf("unexpected anomaly: %+v", anomalies[0])
	}
}

func TestDiff_CardEventsTyped(t *testing.T) {
	item := diffItem()
	item.Seen = true
	item.LastStatus = match.StatusInProgress
	item.LastState = match.PlayerState{InLineup: true, OnPitch: true}

	snap := snapshotWith(match.StatusInProgress, match.PlayerState{InLineup: true, OnPitch: true, YellowCards: 1, RedCards: 1})
	events, _ := Diff(item, snap)
	assertEvents(t, events, match.EventYellowCard, match.EventRedCard)
}

func TestDiff_SubstitutionRoundTrip(t *testing.T) {
	item := diffItem()
	item.Seen = true
	item.LastStatus = match.StatusInProgress
	item.LastState = match.PlayerState{InLineup: true, OnPitch: false}

	// Bench player comes on.
	snap := snapshotWith(match.StatusInProgress, match.PlayerState{InLineup: true, OnPitch: true})
	events, _ := Diff(item, snap)
	assertEvents(t, events, match.EventSubstitutionOn)
	item.LastStatus = snap.Status
	item.LastState = snap.Player

	// And off again before full-time.
	snap = snapshotWith(match.StatusInProgress, match.PlayerState{InLineup: true, OnPitch: false})
	events, _ = Diff(item, snap)
	assertEvents(t, events, match.EventSubstitutionOff)
}

func TestDiff_NoFullTimeTwice(t *testing.T) {
	item := diffItem()
	item.Seen = true
	item.LastStatus = match.StatusFinished
	item.LastState = match.PlayerState{InLineup: true}

	snap := snapshotWith(match.StatusFinished, match.PlayerState{InLineup: true})
	events, _ := Diff(item, snap)
	assertEvents(t, events)
}

func TestDiff_AbandonedMatchEmitsNothingTerminal(t *testing.T) {
	item := diffItem()
	item.Seen = true
	item.LastStatus = match.StatusInProgress
	item.LastState = match.PlayerState{InLineup: true, OnPitch: true}

	snap := snapshotWith(match.StatusAbandoned, match.PlayerState{InLineup: true, OnPitch: false})
	events, _ := Diff(item, snap)

	// Abandonment is terminal for the queue but not a full-time event.
	assertEvents(t, events, match.EventSubstitutionOff)
}
