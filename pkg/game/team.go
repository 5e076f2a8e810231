package game

import (
	"strings"
)

type Team int

const (
	Neutral Team = iota
	Purple
	White
)

// Teams lists the teams a player can represent.
var Teams = []Team{Purple, White}

// String returns the canonical lowercase name used on the wire.
func (t Team) String() string {
	switch t {
	case Purple:
		return "purple"
	case White:
		return "white"
	default:
		return "neutral"
	}
}

func (t Team) DisplayName() string {
	switch t {
	case Purple:
		return "Purple"
	case White:
		return "White"
	default:
		return "Neutral"
	}
}

// Opposite returns the other faction. Neutral has no opposite and asking
// for one is a programming error.
func (t Team) Opposite() Team {
	switch t {
	case Purple:
		return White
	case White:
		return Purple
	default:
		panic("cannot invert neutral team")
	}
}

// ParseTeam matches a player team name case-insensitively. Neutral is not a
// team a player can claim and is rejected.
func ParseTeam(s string) (Team, bool) {
	for _, t := range Teams {
		if strings.EqualFold(s, t.String()) {
			return t, true
		}
	}
	return Neutral, false
}
