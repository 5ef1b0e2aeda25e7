package match

import (
	"fmt"
	"strings"
)

const (
	StatusNotStarted = "NOT_STARTED"
	StatusInProgress = "IN_PROGRESS"
	StatusFinished   = "FINISHED"
	StatusAbandoned  = "ABANDONED"
)

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusNotStarted
	}
	return status
}

func IsInProgressStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusInProgress, "LIVE", "IN_PLAY", "HT", "1H", "2H", "ET", "PEN_LIVE":
		return true
	default:
		return false
	}
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, "FT", "AET", "PEN":
		return true
	default:
		return false
	}
}

func IsAbandonedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusAbandoned, "CANCELLED", "POSTPONED", "SUSPENDED":
		return true
	default:
		return false
	}
}

// IsTerminalStatus reports whether a fixture in this status will never be
// polled again.
func IsTerminalStatus(status string) bool {
	return IsFinishedStatus(status) || IsAbandonedStatus(status)
}

// PlayerState is the per-player slice of a snapshot. All counters are
// cumulative for the fixture and never negative.
type PlayerState struct {
	InLineup      bool
	Starting      bool
	OnPitch       bool
	Goals         int
	Assists       int
	YellowCards   int
	RedCards      int
	MinutesPlayed int
	Rating        float64
}

// Snapshot is one point-in-time read of a fixture for a tracked player.
// It lives only long enough to be diffed against the previous state.
type Snapshot struct {
	FixtureID  int64
	Status     string
	Minute     int
	LeagueName string
	HomeTeam   string
	AwayTeam   string
	HomeScore  int
	AwayScore  int
	Player     PlayerState
}

func (s Snapshot) ScoreLine() string {
	if s.HomeTeam == "" || s.AwayTeam == "" {
		return ""
	}
	return fmt.Sprintf("%s %d - %d %s", s.HomeTeam, s.HomeScore, s.AwayScore, s.AwayTeam)
}
