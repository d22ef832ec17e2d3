package motd

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

const GameModeUnknown = "Unknown"

//go:embed gamemodes.yml
var gameModesYAML []byte

type gameModeTable struct {
	Aliases   map[string]string `yaml:"aliases"`
	TeamSizes map[string]int    `yaml:"team_sizes"`
}

var gameModes = mustLoadGameModes(gameModesYAML)

func mustLoadGameModes(data []byte) gameModeTable {
	var table gameModeTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		panic(fmt.Sprintf("motd: invalid game mode table: %v", err))
	}
	return table
}

// UnknownGameModeError is returned when a game mode has no default team size.
type UnknownGameModeError struct {
	GameMode string
}

func (e *UnknownGameModeError) Error() string {
	return fmt.Sprintf("no default team size for game mode %q", e.GameMode)
}

// NormalizeGameMode maps upstream variants to their published name. Unknown
// labels pass through unchanged.
func NormalizeGameMode(mode string) string {
	if alias, ok := gameModes.Aliases[mode]; ok {
		return alias
	}
	return mode
}

// DefaultTeamSize returns the team size implied by a normalized game mode.
func DefaultTeamSize(mode string) (int, error) {
	size, ok := gameModes.TeamSizes[mode]
	if !ok {
		return 0, &UnknownGameModeError{GameMode: mode}
	}
	return size, nil
}
