package game

type Outcome int

const (
	InProgress Outcome = iota
	PurpleWin
	WhiteWin
	Draw
)

func (o Outcome) String() string {
	switch o {
	case PurpleWin:
		return "Purple wins"
	case WhiteWin:
		return "White wins"
	case Draw:
		return "Draw"
	default:
		return "In progress"
	}
}

// FirstTurn is the team that opens every game.
const FirstTurn = White

// Game is the authoritative state of one match. It has a single owner and
// is not safe for concurrent use.
type Game struct {
	turn     Team
	outcome  Outcome
	captured bool

	board   *Board
	initial *Board
}

// NewGame starts a game on a copy of b. Reset returns to that position.
func NewGame(b *Board) *Game {
	g := &Game{initial: b.Clone()}
	g.Reset()
	return g
}

func (g *Game) Reset() {
	g.turn = FirstTurn
	g.outcome = InProgress
	g.captured = false
	g.board = g.initial.Clone()
}

func (g *Game) Turn() Team {
	return g.turn
}

func (g *Game) Outcome() Outcome {
	return g.outcome
}

func (g *Game) Over() bool {
	return g.outcome != InProgress
}

// LastMoveCaptured reports whether the most recent move removed a citizen.
func (g *Game) LastMoveCaptured() bool {
	return g.captured
}

// Board exposes the current position for drawing. Callers must not mutate
// it.
func (g *Game) Board() *Board {
	return g.board
}

// IsLegal reports whether the team on turn may move the piece on from to to.
func (g *Game) IsLegal(from, to Coord) bool {
	if g.Over() {
		return false
	}

	src, dst := g.board.Cell(from), g.board.Cell(to)
	if src == nil || dst == nil {
		return false
	}
	if !dst.Occupant.IsEmpty() {
		return false
	}
	if src.Occupant.IsEmpty() || src.Occupant.Team != g.turn {
		return false
	}
	if from.X != to.X && from.Y != to.Y {
		return false
	}

	return g.pathClear(from, to)
}

// pathClear walks from the cell after from up to and including to. Every
// stepped-into cell must be empty and have no wall on the edge it is
// entered through.
func (g *Game) pathClear(from, to Coord) bool {
	var entering Edge
	dx, dy := 0, 0
	switch {
	case to.X > from.X:
		dx, entering = 1, West
	case to.X < from.X:
		dx, entering = -1, East
	case to.Y > from.Y:
		dy, entering = 1, North
	case to.Y < from.Y:
		dy, entering = -1, South
	}

	for c := from; c != to; {
		c = Coord{c.X + dx, c.Y + dy}
		cell := g.board.Cell(c)
		if cell == nil {
			return false
		}
		if cell.Walls.Has(entering) || !cell.Occupant.IsEmpty() {
			return false
		}
	}
	return true
}

// ApplyMove moves a piece for team, resolves captures and passes the turn.
// It returns false and leaves the game untouched when team is not on turn
// or the move is illegal.
func (g *Game) ApplyMove(team Team, from, to Coord) bool {
	if team != g.turn || !g.IsLegal(from, to) {
		return false
	}

	src, dst := g.board.Cell(from), g.board.Cell(to)
	dst.Occupant, src.Occupant = src.Occupant, Occupant{}

	g.captured = false
	victims := g.surrounded(to)
	for _, v := range victims {
		g.board.Cell(v.At).Occupant = Occupant{}
	}
	if len(victims) > 0 {
		g.captured = true
		g.flip(victims[0].Occupant.Team)
	}

	g.endTurn()
	return true
}

// surrounded returns the enemy citizens next to c that have no escape. All
// of them are evaluated against the same position before any is removed.
func (g *Game) surrounded(c Coord) []Placement {
	var victims []Placement
	for _, n := range g.board.Neighbors(c) {
		o := n.Cell.Occupant
		if o.Piece != Citizen || o.Team == g.turn {
			continue
		}
		if !g.hasEscape(n.Coord) {
			victims = append(victims, Placement{At: n.Coord, Occupant: o})
		}
	}
	return victims
}

func (g *Game) hasEscape(c Coord) bool {
	for _, n := range g.board.Neighbors(c) {
		if n.Cell.Walls.Has(n.Edge.Opposite()) {
			continue
		}
		switch o := n.Cell.Occupant; o.Piece {
		case Empty:
			return true
		case Guard, Citizen:
			if o.Team != g.turn {
				return true
			}
		}
	}
	return false
}

// flip swaps the owner of every Guard and Magistrate. Neutral Guards go to
// the victim's team, a Neutral Magistrate to the captor's.
func (g *Game) flip(victim Team) {
	for i := range g.board.cells {
		o := &g.board.cells[i].Occupant
		switch o.Piece {
		case Guard:
			if o.Team == Neutral {
				o.Team = victim
			} else {
				o.Team = o.Team.Opposite()
			}
		case Magistrate:
			if o.Team == Neutral {
				o.Team = victim.Opposite()
			} else {
				o.Team = o.Team.Opposite()
			}
		}
	}
}

// Citizens counts the remaining citizens of each faction.
func (g *Game) Citizens() (purple, white int) {
	for _, cell := range g.board.cells {
		if cell.Occupant.Piece != Citizen {
			continue
		}
		switch cell.Occupant.Team {
		case Purple:
			purple++
		case White:
			white++
		}
	}
	return purple, white
}

func (g *Game) endTurn() {
	if g.turn == Neutral {
		panic("neutral team should never get a turn")
	}

	purple, white := g.Citizens()
	switch {
	case purple == 0 && white == 0:
		g.outcome = Draw
	case purple == 0:
		g.outcome = WhiteWin
	case white == 0:
		g.outcome = PurpleWin
	default:
		g.turn = g.turn.Opposite()
	}
}
