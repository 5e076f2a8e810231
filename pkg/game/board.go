package game

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrEmptyMap             = errors.New("map has no rows")
	ErrRaggedMap            = errors.New("map row shorter than widest row")
	ErrInvalidWall          = errors.New("invalid wall digit")
	ErrPlacementOutOfBounds = errors.New("placement outside of board")
)

// Edge is one side of a cell. The values double as the wall bits of the map
// format.
type Edge uint8

const (
	West Edge = 1 << iota
	North
	East
	South
)

// Edges is the neighbor scan order.
var Edges = [4]Edge{North, East, South, West}

func (e Edge) Opposite() Edge {
	switch e {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	case West:
		return East
	default:
		panic(fmt.Sprintf("unknown edge %d", e))
	}
}

func (e Edge) String() string {
	switch e {
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	case West:
		return "West"
	default:
		return "Unknown"
	}
}

func (e Edge) offset() (int, int) {
	switch e {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	default:
		return -1, 0
	}
}

// Walls is the set of walled edges of a cell.
type Walls uint8

func (w Walls) Has(e Edge) bool {
	return w&Walls(e) != 0
}

type Piece int

const (
	Empty Piece = iota
	Guard
	Citizen
	Magistrate
)

func (p Piece) String() string {
	switch p {
	case Guard:
		return "Guard"
	case Citizen:
		return "Citizen"
	case Magistrate:
		return "Magistrate"
	default:
		return "Empty"
	}
}

// Occupant is the content of a cell. The zero value is an empty cell.
type Occupant struct {
	Piece Piece
	Team  Team
}

func (o Occupant) IsEmpty() bool {
	return o.Piece == Empty
}

func (o Occupant) String() string {
	if o.Piece == Empty {
		return "Empty"
	}
	return o.Piece.String() + "(" + o.Team.DisplayName() + ")"
}

type Cell struct {
	Occupant Occupant
	Walls    Walls
}

type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	var b strings.Builder
	b.WriteRune('(')
	b.WriteString(strconv.Itoa(c.X))
	b.WriteRune(',')
	b.WriteString(strconv.Itoa(c.Y))
	b.WriteRune(')')

	return b.String()
}

// ParseCoord parses the exact form "(x,y)" with unsigned integers.
func ParseCoord(s string) (Coord, error) {
	if len(s) < 5 || s[0] != '(' || s[len(s)-1] != ')' {
		return Coord{}, fmt.Errorf("malformed coordinate %q", s)
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 2 {
		return Coord{}, fmt.Errorf("malformed coordinate %q", s)
	}
	var c Coord
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 31)
		if err != nil {
			return Coord{}, fmt.Errorf("malformed coordinate %q: %w", s, err)
		}
		if i == 0 {
			c.X = int(n)
		} else {
			c.Y = int(n)
		}
	}
	return c, nil
}

// Placement puts an occupant on a coordinate when a board is built.
type Placement struct {
	At       Coord
	Occupant Occupant
}

// StartingLayout is the opening position. Occupants never come from the map.
var StartingLayout = []Placement{
	{Coord{6, 0}, Occupant{Guard, Neutral}},
	{Coord{0, 8}, Occupant{Guard, Neutral}},

	{Coord{2, 2}, Occupant{Citizen, Purple}},
	{Coord{3, 2}, Occupant{Citizen, Purple}},
	{Coord{4, 2}, Occupant{Citizen, Purple}},
	{Coord{2, 3}, Occupant{Citizen, Purple}},
	{Coord{3, 3}, Occupant{Citizen, Purple}},
	{Coord{4, 3}, Occupant{Citizen, Purple}},
	{Coord{4, 4}, Occupant{Citizen, Purple}},

	{Coord{2, 4}, Occupant{Citizen, White}},
	{Coord{2, 5}, Occupant{Citizen, White}},
	{Coord{3, 5}, Occupant{Citizen, White}},
	{Coord{4, 5}, Occupant{Citizen, White}},
	{Coord{2, 6}, Occupant{Citizen, White}},
	{Coord{3, 6}, Occupant{Citizen, White}},
	{Coord{4, 6}, Occupant{Citizen, White}},

	{Coord{3, 4}, Occupant{Magistrate, Neutral}},
}

// Board is a fixed grid of cells, origin top-left.
type Board struct {
	Width, Height int

	cells []Cell
}

// Neighbor is an in-bounds cell adjacent to another one across Edge.
type Neighbor struct {
	Edge  Edge
	Coord Coord
	Cell  *Cell
}

// ParseMap reads a wall map: one row per line, one hex digit per cell.
func ParseMap(r io.Reader) (*Board, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}

	return NewBoard(lines)
}

// NewBoard builds an empty board from map lines. Trailing blank lines are
// ignored.
func NewBoard(lines []string) (*Board, error) {
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return nil, ErrEmptyMap
	}

	b := &Board{Height: len(lines)}
	for _, line := range lines {
		if len(line) > b.Width {
			b.Width = len(line)
		}
	}
	b.cells = make([]Cell, b.Width*b.Height)

	for y, line := range lines {
		for x := 0; x < b.Width; x++ {
			if x >= len(line) {
				return nil, fmt.Errorf("%w: no wall digit at %s", ErrRaggedMap, Coord{x, y})
			}
			v, err := strconv.ParseUint(line[x:x+1], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("%w %q at %s", ErrInvalidWall, line[x], Coord{x, y})
			}
			b.cells[y*b.Width+x].Walls = Walls(v)
		}
	}

	return b, nil
}

// Place puts occupants on the board. The board is left untouched when any
// placement is out of bounds.
func (b *Board) Place(layout []Placement) error {
	for _, p := range layout {
		if !b.InBounds(p.At) {
			return fmt.Errorf("%w: %s", ErrPlacementOutOfBounds, p.At)
		}
	}
	for _, p := range layout {
		b.cells[p.At.Y*b.Width+p.At.X].Occupant = p.Occupant
	}
	return nil
}

func (b *Board) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < b.Width && c.Y >= 0 && c.Y < b.Height
}

// Cell returns the cell at c, or nil when c is off the board.
func (b *Board) Cell(c Coord) *Cell {
	if !b.InBounds(c) {
		return nil
	}
	return &b.cells[c.Y*b.Width+c.X]
}

// Neighbors returns the in-bounds cells adjacent to c in North, East, South,
// West order.
func (b *Board) Neighbors(c Coord) []Neighbor {
	neighbors := make([]Neighbor, 0, len(Edges))
	for _, e := range Edges {
		dx, dy := e.offset()
		n := Coord{c.X + dx, c.Y + dy}
		if cell := b.Cell(n); cell != nil {
			neighbors = append(neighbors, Neighbor{Edge: e, Coord: n, Cell: cell})
		}
	}
	return neighbors
}

// Coords returns every coordinate in row-major order.
func (b *Board) Coords() []Coord {
	coords := make([]Coord, 0, len(b.cells))
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			coords = append(coords, Coord{x, y})
		}
	}
	return coords
}

func (b *Board) Clone() *Board {
	c := &Board{Width: b.Width, Height: b.Height, cells: make([]Cell, len(b.cells))}
	copy(c.cells, b.cells)
	return c
}
