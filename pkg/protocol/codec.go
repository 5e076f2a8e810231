package protocol

import (
	"fmt"
	"strings"

	"github.com/qnkhuat/guards/pkg/game"
)

// DecodeError is a structured protocol failure. It maps directly onto an
// error message sent back to the offending client.
type DecodeError struct {
	Code ErrorCode
	Text string
}

func (e *DecodeError) Error() string {
	return e.Code.String() + ": " + e.Text
}

// Is matches any *DecodeError with the same code.
func (e *DecodeError) Is(target error) bool {
	if t, ok := target.(*DecodeError); ok {
		return e.Code == t.Code
	}
	return false
}

// Message converts the failure into the wire reply.
func (e *DecodeError) Message() MessageError {
	return MessageError{Code: e.Code, Text: e.Text}
}

func decodeErrorf(code ErrorCode, format string, a ...interface{}) *DecodeError {
	return &DecodeError{Code: code, Text: fmt.Sprintf(format, a...)}
}

// Encode returns the full wire form of a message, line feed included.
func Encode(m MessageInterface) []byte {
	return append([]byte(m.Encode()), '\n')
}

// Decode parses one line. The terminating line feed is optional. Failures
// are always *DecodeError.
func Decode(line string) (MessageInterface, error) {
	line = strings.TrimRight(line, "\r\n")
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil, decodeErrorf(ErrUnknown, "empty command")
	}

	switch strings.ToLower(args[0]) {
	case TypeMessageJoin.String():
		if len(args) != 2 {
			return nil, decodeErrorf(ErrMissingArg, "usage: join <team>")
		}
		team, err := decodeTeam(args[1])
		if err != nil {
			return nil, err
		}
		return MessageJoin{Team: team}, nil

	case TypeMessageMove.String():
		if len(args) != 4 {
			return nil, decodeErrorf(ErrMissingArg, "usage: move <team> (x,y) (x,y)")
		}
		team, err := decodeTeam(args[1])
		if err != nil {
			return nil, err
		}
		from, err := game.ParseCoord(args[2])
		if err != nil {
			return nil, decodeErrorf(ErrInvalidMove, "%s", err)
		}
		to, err := game.ParseCoord(args[3])
		if err != nil {
			return nil, decodeErrorf(ErrInvalidMove, "%s", err)
		}
		return MessageMove{Team: team, From: from, To: to}, nil

	case TypeMessageError.String():
		if len(args) < 2 {
			return nil, decodeErrorf(ErrMissingArg, "usage: error <code> <message>")
		}
		code, ok := parseErrorCode(args[1])
		if !ok {
			return nil, decodeErrorf(ErrUnknown, "unknown error code %q", args[1])
		}
		return MessageError{Code: code, Text: strings.Join(args[2:], " ")}, nil
	}

	return nil, decodeErrorf(ErrUnknown, "unknown command %q", args[0])
}

func decodeTeam(s string) (game.Team, error) {
	team, ok := game.ParseTeam(s)
	if !ok {
		return game.Neutral, decodeErrorf(ErrInvalidTeam, "unknown team %q", s)
	}
	return team, nil
}
