package protocol

import (
	"strings"

	"github.com/qnkhuat/guards/pkg/game"
)

// DefaultPort is the well-known relay port.
const DefaultPort = 34865

type MessageType int

const (
	TypeMessageError MessageType = iota
	TypeMessageJoin
	TypeMessageMove
)

// String returns the command word that starts the wire line.
func (m MessageType) String() string {
	switch m {
	case TypeMessageError:
		return "error"
	case TypeMessageJoin:
		return "join"
	case TypeMessageMove:
		return "move"
	default:
		return "unknown"
	}
}

type MessageInterface interface {
	Type() MessageType
	// Encode returns the wire line without its terminating line feed.
	Encode() string
}

type ErrorCode int

const (
	ErrUnknown ErrorCode = iota
	ErrMissingArg
	ErrInvalidTeam
	ErrInvalidMove
)

var errorCodes = []string{"UNKNOWN", "MISSINGARG", "INVALIDTEAM", "INVALIDMOVE"}

func (c ErrorCode) String() string {
	if c < 0 || int(c) >= len(errorCodes) {
		return errorCodes[ErrUnknown]
	}
	return errorCodes[c]
}

func parseErrorCode(s string) (ErrorCode, bool) {
	for i, code := range errorCodes {
		if strings.EqualFold(s, code) {
			return ErrorCode(i), true
		}
	}
	return ErrUnknown, false
}

// MessageError tells a single client why its command was rejected.
type MessageError struct {
	Code ErrorCode
	Text string
}

func (m MessageError) Type() MessageType {
	return TypeMessageError
}

func (m MessageError) Encode() string {
	line := m.Type().String() + " " + m.Code.String()
	if text := sanitize(m.Text); text != "" {
		line += " " + text
	}
	return line
}

// MessageJoin is a request to play a team, and the broadcast confirming it.
type MessageJoin struct {
	Team game.Team
}

func (m MessageJoin) Type() MessageType {
	return TypeMessageJoin
}

func (m MessageJoin) Encode() string {
	return m.Type().String() + " " + m.Team.String()
}

// MessageMove is a proposed move, and its relay to every client.
type MessageMove struct {
	Team     game.Team
	From, To game.Coord
}

func (m MessageMove) Type() MessageType {
	return TypeMessageMove
}

func (m MessageMove) Encode() string {
	return m.Type().String() + " " + m.Team.String() + " " + m.From.String() + " " + m.To.String()
}

// sanitize keeps free text on a single line.
func sanitize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
