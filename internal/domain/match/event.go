package match

// EventType enumerates the discrete transitions the watcher can detect
// between two successive snapshots.
type EventType string

const (
	EventLineupConfirmed EventType = "LINEUP_CONFIRMED"
	EventKickOff         EventType = "KICK_OFF"
	EventGoal            EventType = "GOAL"
	EventAssist          EventType = "ASSIST"
	EventYellowCard      EventType = "YELLOW_CARD"
	EventRedCard         EventType = "RED_CARD"
	EventSubstitutionOn  EventType = "SUBSTITUTION_ON"
	EventSubstitutionOff EventType = "SUBSTITUTION_OFF"
	EventFullTime        EventType = "FULL_TIME"
)

// Event is a detected transition. It exists only to drive one publish call
// and is never stored.
type Event struct {
	Type     EventType
	Snapshot Snapshot
}
