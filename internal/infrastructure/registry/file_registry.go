package registry

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/loanwatch/loanwatch/internal/domain/player"
)

// playerEntry is the on-disk shape: a map from display name to ids, e.g.
//
//	{"Lesley Ugochukwu": {"id": 1186679, "team_id": 9847, "team_name": "Southampton"}}
type playerEntry struct {
	ID       int64    `json:"id" validate:"required,gt=0"`
	TeamID   int64    `json:"team_id" validate:"required,gt=0"`
	TeamName string   `json:"team_name" validate:"required"`
	Hashtags []string `json:"hashtags" validate:"omitempty,dive,required"`
}

// FileRegistry loads the tracked-player set from a JSON file once and
// serves it immutably afterwards.
type FileRegistry struct {
	players []player.TrackedPlayer
}

// LoadFile parses and validates the player file. Any malformed entry fails
// the whole load; callers treat that as fatal at startup.
func LoadFile(path string) (*FileRegistry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read player file: %w", err)
	}

	var entries map[string]playerEntry
	if err := sonic.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode player file %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("player file %s contains no players", path)
	}

	validate := validator.New()
	players := make([]player.TrackedPlayer, 0, len(entries))
	for name, entry := range entries {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("player file %s: empty player name", path)
		}
		if err := validate.Struct(entry); err != nil {
			return nil, fmt.Errorf("player file %s: invalid entry for %q: %w", path, name, err)
		}

		item := player.TrackedPlayer{
			ID:       entry.ID,
			Name:     name,
			TeamID:   entry.TeamID,
			TeamName: strings.TrimSpace(entry.TeamName),
			Hashtags: entry.Hashtags,
		}
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("player file %s: entry for %q: %w", path, name, err)
		}
		players = append(players, item)
	}

	sort.Slice(players, func(i, j int) bool { return players[i].Name < players[j].Name })

	return &FileRegistry{players: players}, nil
}

func NewFromPlayers(players []player.TrackedPlayer) *FileRegistry {
	out := make([]player.TrackedPlayer, len(players))
	copy(out, players)
	return &FileRegistry{players: out}
}

func (r *FileRegistry) List(_ context.Context) ([]player.TrackedPlayer, error) {
	out := make([]player.TrackedPlayer, len(r.players))
	copy(out, r.players)
	return out, nil
}
