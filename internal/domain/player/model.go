package player

import (
	"fmt"
	"strings"
)

// TrackedPlayer is one athlete the bot follows across fixtures. The set is
// loaded once at startup and immutable for the process lifetime.
type TrackedPlayer struct {
	ID       int64
	Name     string
	TeamID   int64
	TeamName string
	Hashtags []string
}

func (p TrackedPlayer) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id must be greater than zero")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("player name is required")
	}
	if p.TeamID <= 0 {
		return fmt.Errorf("player team id must be greater than zero")
	}
	if strings.TrimSpace(p.TeamName) == "" {
		return fmt.Errorf("player team name is required")
	}
	return nil
}

// HashtagSuffix renders the trailing hashtag line for published messages,
// e.g. "#CFC #Chelsea". Empty when the player has no configured tags.
func (p TrackedPlayer) HashtagSuffix() string {
	tags := make([]string, 0, len(p.Hashtags))
	for _, tag := range p.Hashtags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if !strings.HasPrefix(tag, "#") {
			tag = "#" + tag
		}
		tags = append(tags, tag)
	}
	return strings.Join(tags, " ")
}
