package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T, turn Team, lines []string, layout ...Placement) *Game {
	t.Helper()

	b, err := NewBoard(lines)
	require.NoError(t, err)
	require.NoError(t, b.Place(layout))

	g := NewGame(b)
	g.turn = turn
	return g
}

func at(x, y int, piece Piece, team Team) Placement {
	return Placement{At: Coord{x, y}, Occupant: Occupant{piece, team}}
}

func occupant(g *Game, x, y int) Occupant {
	return g.Board().Cell(Coord{x, y}).Occupant
}

func TestNewGame(t *testing.T) {
	b, err := DefaultBoard()
	require.NoError(t, err)

	g := NewGame(b)
	require.Equal(t, White, g.Turn())
	require.Equal(t, InProgress, g.Outcome())
	require.False(t, g.LastMoveCaptured())

	purple, white := g.Citizens()
	require.Equal(t, 7, purple)
	require.Equal(t, 7, white)

	// Mutating the source board does not leak into the game.
	b.Cell(Coord{0, 0}).Occupant = Occupant{Citizen, White}
	require.True(t, occupant(g, 0, 0).IsEmpty())
}

func TestIsLegal(t *testing.T) {
	lines := []string{
		"00000",
		"00000",
		"00100",
		"00000",
	}
	g := newTestGame(t, White, lines,
		at(0, 0, Citizen, White),
		at(4, 0, Citizen, Purple),
		at(1, 3, Guard, Neutral),
		at(3, 3, Magistrate, White),
		at(0, 2, Citizen, White),
	)

	tests := []struct {
		name     string
		from, to Coord
		legal    bool
	}{
		{"east along row", Coord{0, 0}, Coord{3, 0}, true},
		{"south along column", Coord{0, 0}, Coord{0, 1}, true},
		{"magistrate owned by mover", Coord{3, 3}, Coord{3, 1}, true},
		{"diagonal", Coord{0, 0}, Coord{1, 1}, false},
		{"onto occupied", Coord{0, 0}, Coord{4, 0}, false},
		{"through occupied", Coord{0, 0}, Coord{0, 3}, false},
		{"opponent piece", Coord{4, 0}, Coord{4, 1}, false},
		{"neutral piece", Coord{1, 3}, Coord{2, 3}, false},
		{"empty source", Coord{1, 1}, Coord{2, 1}, false},
		{"same cell", Coord{0, 0}, Coord{0, 0}, false},
		{"off board", Coord{0, 0}, Coord{5, 0}, false},
		{"from off board", Coord{-1, 0}, Coord{1, 0}, false},
		{"wall on entered cell", Coord{0, 2}, Coord{3, 2}, false},
		{"wall next to destination only", Coord{0, 2}, Coord{1, 2}, true},
	}

	for _, tt := range tests {
		require.Equalf(t, tt.legal, g.IsLegal(tt.from, tt.to), "%s: %s -> %s", tt.name, tt.from, tt.to)
	}
}

func TestIsLegalWallDirection(t *testing.T) {
	// The middle cell has only an East wall: it blocks entering from the
	// east but not leaving eastwards.
	g := newTestGame(t, White, []string{"040"},
		at(0, 0, Citizen, White),
		at(2, 0, Citizen, Purple),
	)
	require.True(t, g.IsLegal(Coord{0, 0}, Coord{1, 0}))

	g.turn = Purple
	require.False(t, g.IsLegal(Coord{2, 0}, Coord{1, 0}))
}

func TestApplyMoveRejected(t *testing.T) {
	b, err := DefaultBoard()
	require.NoError(t, err)
	g := NewGame(b)

	before := g.Board().Clone()

	require.False(t, g.ApplyMove(Purple, Coord{2, 3}, Coord{1, 3}), "not purple's turn")
	require.False(t, g.ApplyMove(White, Coord{2, 4}, Coord{2, 3}), "destination occupied")
	require.False(t, g.ApplyMove(Neutral, Coord{6, 0}, Coord{5, 0}), "neutral never moves")
	require.False(t, g.ApplyMove(White, Coord{2, 4}, Coord{1, 5}), "diagonal")

	require.Equal(t, before.cells, g.Board().cells)
	require.Equal(t, White, g.Turn())
}

func TestApplyMoveAdvancesTurn(t *testing.T) {
	b, err := DefaultBoard()
	require.NoError(t, err)
	g := NewGame(b)

	require.True(t, g.ApplyMove(White, Coord{2, 6}, Coord{1, 6}))
	require.True(t, occupant(g, 2, 6).IsEmpty())
	require.Equal(t, Occupant{Citizen, White}, occupant(g, 1, 6))
	require.Equal(t, Purple, g.Turn())
	require.False(t, g.LastMoveCaptured())

	require.True(t, g.ApplyMove(Purple, Coord{2, 2}, Coord{1, 2}))
	require.Equal(t, White, g.Turn())
}

// captureBoard holds a purple citizen at (1,1) walled to the north, west and
// south. Walls are encoded on both sides.
var captureBoard = []string{
	"08000",
	"4B000",
	"02000",
}

func TestCaptureFlipsOwnership(t *testing.T) {
	g := newTestGame(t, White, captureBoard,
		at(1, 1, Citizen, Purple),
		at(2, 1, Guard, White),
		at(3, 0, Citizen, White),
		at(4, 2, Guard, Neutral),
		at(4, 1, Magistrate, Neutral),
		at(0, 2, Citizen, Purple),
	)

	require.True(t, g.ApplyMove(White, Coord{3, 0}, Coord{1, 0}))

	require.True(t, g.LastMoveCaptured())
	require.True(t, occupant(g, 1, 1).IsEmpty())
	require.Equal(t, Occupant{Guard, Purple}, occupant(g, 2, 1))
	require.Equal(t, Occupant{Guard, Purple}, occupant(g, 4, 2))
	require.Equal(t, Occupant{Magistrate, White}, occupant(g, 4, 1))
	require.Equal(t, Occupant{Citizen, Purple}, occupant(g, 0, 2))
	require.Equal(t, Purple, g.Turn())
	require.Equal(t, InProgress, g.Outcome())

	// The next move without a capture clears the flag.
	require.True(t, g.ApplyMove(Purple, Coord{2, 1}, Coord{2, 2}))
	require.False(t, g.LastMoveCaptured())
}

func TestCaptureEscapes(t *testing.T) {
	tests := []struct {
		name     string
		east     Placement
		captured bool
	}{
		{"empty side", at(2, 1, Empty, Neutral), false},
		{"neutral guard", at(2, 1, Guard, Neutral), false},
		{"opponent guard", at(2, 1, Guard, Purple), false},
		{"own team citizen", at(2, 1, Citizen, Purple), false},
		{"mover citizen", at(2, 1, Citizen, White), true},
		{"mover magistrate", at(2, 1, Magistrate, White), true},
		{"victim magistrate", at(2, 1, Magistrate, Purple), true},
		{"neutral magistrate", at(2, 1, Magistrate, Neutral), true},
	}

	for _, tt := range tests {
		g := newTestGame(t, White, captureBoard,
			at(1, 1, Citizen, Purple),
			at(3, 0, Citizen, White),
			at(0, 2, Citizen, Purple),
			tt.east,
		)
		require.True(t, g.ApplyMove(White, Coord{3, 0}, Coord{1, 0}), tt.name)
		require.Equalf(t, tt.captured, g.LastMoveCaptured(), "%s", tt.name)
		require.Equalf(t, tt.captured, occupant(g, 1, 1).IsEmpty(), "%s", tt.name)
	}
}

func TestCaptureWallMustFaceVictim(t *testing.T) {
	// Same shape, but the southern wall only exists on the victim's own
	// cell. The neighbor below has no wall facing back, so it is an escape.
	lines := []string{
		"08000",
		"4B000",
		"00000",
	}
	g := newTestGame(t, White, lines,
		at(1, 1, Citizen, Purple),
		at(2, 1, Guard, White),
		at(3, 0, Citizen, White),
		at(0, 2, Citizen, Purple),
	)

	require.True(t, g.ApplyMove(White, Coord{3, 0}, Coord{1, 0}))
	require.False(t, g.LastMoveCaptured())
	require.Equal(t, Occupant{Citizen, Purple}, occupant(g, 1, 1))
}

func TestCaptureAllSurrounded(t *testing.T) {
	g := newTestGame(t, White, []string{"0000", "0000"},
		at(0, 0, Citizen, Purple),
		at(2, 0, Citizen, Purple),
		at(3, 1, Citizen, Purple),
		at(0, 1, Citizen, White),
		at(1, 1, Citizen, White),
		at(2, 1, Citizen, White),
		at(3, 0, Guard, White),
	)

	require.True(t, g.ApplyMove(White, Coord{1, 1}, Coord{1, 0}))

	require.True(t, g.LastMoveCaptured())
	require.True(t, occupant(g, 0, 0).IsEmpty())
	require.True(t, occupant(g, 2, 0).IsEmpty())
	// One flip per move, however many citizens fell.
	require.Equal(t, Occupant{Guard, Purple}, occupant(g, 3, 0))
	require.Equal(t, Purple, g.Turn())
}

func TestWinAndReset(t *testing.T) {
	g := newTestGame(t, White, captureBoard,
		at(1, 1, Citizen, Purple),
		at(2, 1, Guard, White),
		at(3, 0, Citizen, White),
	)

	require.True(t, g.ApplyMove(White, Coord{3, 0}, Coord{1, 0}))
	require.Equal(t, WhiteWin, g.Outcome())
	require.True(t, g.Over())
	require.Equal(t, White, g.Turn())

	require.False(t, g.IsLegal(Coord{1, 0}, Coord{2, 0}))
	require.False(t, g.ApplyMove(White, Coord{1, 0}, Coord{2, 0}))
	require.False(t, g.ApplyMove(Purple, Coord{2, 1}, Coord{2, 2}))

	g.Reset()
	require.Equal(t, InProgress, g.Outcome())
	require.Equal(t, White, g.Turn())
	require.False(t, g.LastMoveCaptured())
	require.Equal(t, Occupant{Citizen, Purple}, occupant(g, 1, 1))
	require.Equal(t, Occupant{Citizen, White}, occupant(g, 3, 0))
	require.True(t, occupant(g, 1, 0).IsEmpty())
}

func TestDraw(t *testing.T) {
	g := newTestGame(t, White, captureBoard,
		at(1, 1, Citizen, Purple),
		at(2, 1, Guard, White),
		at(3, 0, Guard, White),
	)

	require.True(t, g.ApplyMove(White, Coord{3, 0}, Coord{1, 0}))
	require.Equal(t, Draw, g.Outcome())
}

func TestPurpleWin(t *testing.T) {
	// A purple citizen blocks the east and a purple guard closes the north.
	g := newTestGame(t, Purple, captureBoard,
		at(1, 1, Citizen, White),
		at(2, 1, Citizen, Purple),
		at(3, 0, Guard, Purple),
		at(4, 2, Citizen, Purple),
	)

	require.True(t, g.ApplyMove(Purple, Coord{3, 0}, Coord{1, 0}))
	require.Equal(t, PurpleWin, g.Outcome())
}

func TestFlip(t *testing.T) {
	g := newTestGame(t, White, []string{"000000"},
		at(0, 0, Guard, Purple),
		at(1, 0, Guard, White),
		at(2, 0, Guard, Neutral),
		at(3, 0, Magistrate, Purple),
		at(4, 0, Magistrate, White),
		at(5, 0, Magistrate, Neutral),
	)

	g.flip(Purple)

	require.Equal(t, Occupant{Guard, White}, occupant(g, 0, 0))
	require.Equal(t, Occupant{Guard, Purple}, occupant(g, 1, 0))
	require.Equal(t, Occupant{Guard, Purple}, occupant(g, 2, 0))
	require.Equal(t, Occupant{Magistrate, White}, occupant(g, 3, 0))
	require.Equal(t, Occupant{Magistrate, Purple}, occupant(g, 4, 0))
	require.Equal(t, Occupant{Magistrate, White}, occupant(g, 5, 0))
}

func TestNeutralTurnPanics(t *testing.T) {
	g := newTestGame(t, Neutral, []string{"00"},
		at(0, 0, Citizen, Purple),
		at(1, 0, Citizen, White),
	)

	require.Panics(t, func() { g.endTurn() })
}
