package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/loanwatch/loanwatch/internal/domain/match"
	"github.com/loanwatch/loanwatch/internal/domain/player"
	"github.com/loanwatch/loanwatch/internal/platform/logging"
)

// NotifierService turns detected events into published messages. Publish
// failures are logged with the dropped text and swallowed: a notification
// is sent at most once, never retried.
type NotifierService struct {
	publisher Publisher
	logger    *logging.Logger
}

func NewNotifierService(publisher Publisher, logger *logging.Logger) *NotifierService {
	if publisher == nil {
		publisher = NewNoopPublisher(logger)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &NotifierService{publisher: publisher, logger: logger}
}

func (s *NotifierService) Notify(ctx context.Context, p player.TrackedPlayer, event match.Event) {
	ctx, span := startSpan(ctx, "usecase.NotifierService.Notify")
	defer span.End()

	text := RenderMessage(p, event)
	if text == "" {
		return
	}

	if err := s.publisher.Publish(ctx, text); err != nil {
		s.logger.WarnContext(ctx, "publish failed, dropping notification",
			"player", p.Name,
			"fixture_id", event.Snapshot.FixtureID,
			"event", string(event.Type),
			"text", text,
			"error", err,
		)
		return
	}

	s.logger.InfoContext(ctx, "notification published",
		"player", p.Name,
		"fixture_id", event.Snapshot.FixtureID,
		"event", string(event.Type),
	)
}

// RenderMessage builds the human-readable post for one event.
func RenderMessage(p player.TrackedPlayer, event match.Event) string {
	snap := event.Snapshot
	var body string
	withScore := true

	switch event.Type {
	case match.EventLineupConfirmed:
		withScore = false
		where := "on the bench"
		if snap.Player.Starting {
			where = "in the starting lineup"
		}
		if snap.LeagueName != "" {
			body = fmt.Sprintf("%s is %s for %s in the %s!", p.Name, where, p.TeamName, snap.LeagueName)
		} else {
			body = fmt.Sprintf("%s is %s for %s!", p.Name, where, p.TeamName)
		}
	case match.EventKickOff:
		body = fmt.Sprintf("The %s match with %s has started!", p.TeamName, p.Name)
		if snap.Player.InLineup && !snap.Player.Starting {
			body += " They're currently on the bench."
		}
	case match.EventGoal:
		body = fmt.Sprintf("%s has scored a goal!", p.Name)
	case match.EventAssist:
		body = fmt.Sprintf("%s has assisted!", p.Name)
	case match.EventYellowCard:
		body = fmt.Sprintf("%s has received a yellow card!", p.Name)
	case match.EventRedCard:
		body = fmt.Sprintf("%s has received a red card!", p.Name)
	case match.EventSubstitutionOn:
		if snap.Minute > 0 {
			body = fmt.Sprintf("%s has been subbed on at the %d minute!", p.Name, snap.Minute)
		} else {
			body = fmt.Sprintf("%s has been subbed on!", p.Name)
		}
	case match.EventSubstitutionOff:
		if snap.Minute > 0 {
			body = fmt.Sprintf("%s has been subbed off at the %d minute!", p.Name, snap.Minute)
		} else {
			body = fmt.Sprintf("%s has been subbed off!", p.Name)
		}
	case match.EventFullTime:
		body = fullTimeSummary(p, snap)
	default:
		return ""
	}

	var b strings.Builder
	b.WriteString(body)
	if withScore {
		if score := snap.ScoreLine(); score != "" {
			b.WriteString("\n\n")
			b.WriteString(score)
		}
	}
	if tags := p.HashtagSuffix(); tags != "" {
		b.WriteString("\n")
		b.WriteString(tags)
	}
	return b.String()
}

func fullTimeSummary(p player.TrackedPlayer, snap match.Snapshot) string {
	state := snap.Player
	if !state.InLineup || (state.MinutesPlayed == 0 && !state.OnPitch) {
		return fmt.Sprintf("The %s match with %s has finished. They didn't come off the bench.", p.TeamName, p.Name)
	}

	base := fmt.Sprintf("The %s match with %s has finished, they played %d minutes", p.TeamName, p.Name, state.MinutesPlayed)
	switch {
	case state.Goals > 0 && state.Assists > 0:
		base += fmt.Sprintf(", scoring %d goal(s) and assisting %d time(s)", state.Goals, state.Assists)
	case state.Goals > 0:
		base += fmt.Sprintf(", scoring %d goal(s)", state.Goals)
	case state.Assists > 0:
		base += fmt.Sprintf(", assisting %d time(s)", state.Assists)
	}
	if state.Rating > 0 {
		base += fmt.Sprintf("! Rated %.1f", state.Rating)
	}
	return base + "."
}
