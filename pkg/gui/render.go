package gui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/qnkhuat/guards/pkg/game"
)

// Every cell is cellWidth columns by cellHeight rows, including the grid line
// on its north and west side.
const (
	cellWidth  = 4
	cellHeight = 2
)

// drawRune puts a single rune on the screen
func drawRune(s tcell.Screen, x, y int, style tcell.Style, r rune) {
	s.SetContent(x, y, r, nil, style)
}

func pieceRune(p game.Piece) rune {
	switch p {
	case game.Guard:
		return 'G'
	case game.Citizen:
		return '●'
	case game.Magistrate:
		return 'M'
	default:
		return ' '
	}
}

// stylePiece colors an occupant by the team that owns it
func stylePiece(o game.Occupant, bg tcell.Color, t Theme) tcell.Style {
	style := tcell.StyleDefault.Background(bg).Foreground(t.TeamColor(o.Team))
	if o.Piece == game.Magistrate || o.Piece == game.Guard {
		style = style.Bold(true)
	}
	return style
}

// boardSize is the number of screen columns and rows a board takes up
func boardSize(b *game.Board) (int, int) {
	return b.Width*cellWidth + 1, b.Height*cellHeight + 1
}

// screenCell is the top left corner of c's grid square
func screenCell(ox, oy int, c game.Coord) (int, int) {
	return ox + c.X*cellWidth, oy + c.Y*cellHeight
}

// coordAt maps a screen position back to the cell drawn there. Grid lines
// belong to no cell.
func coordAt(ox, oy, x, y int) (game.Coord, bool) {
	dx, dy := x-ox, y-oy
	if dx < 0 || dy < 0 || dx%cellWidth == 0 || dy%cellHeight == 0 {
		return game.Coord{}, false
	}
	return game.Coord{X: dx / cellWidth, Y: dy / cellHeight}, true
}

// drawGrid draws the dotted corners every cell shares
func drawGrid(s tcell.Screen, ox, oy int, b *game.Board, t Theme) {
	style := tcell.StyleDefault.Foreground(t.Grid)
	for y := 0; y <= b.Height; y++ {
		for x := 0; x <= b.Width; x++ {
			drawRune(s, ox+x*cellWidth, oy+y*cellHeight, style, '·')
		}
	}
}

// drawSquare fills the inside of a cell and draws its occupant in the middle
func drawSquare(s tcell.Screen, ox, oy int, c game.Coord, o game.Occupant, bg tcell.Color, t Theme) {
	x, y := screenCell(ox, oy, c)
	floor := tcell.StyleDefault.Background(bg)
	for i := 1; i < cellWidth; i++ {
		drawRune(s, x+i, y+1, floor, ' ')
	}
	if !o.IsEmpty() {
		drawRune(s, x+cellWidth/2, y+1, stylePiece(o, bg, t), pieceRune(o.Piece))
	}
}

// drawWalls draws the walls a cell declares. Walls are not required to be
// symmetric, so each cell draws its own.
func drawWalls(s tcell.Screen, ox, oy int, c game.Coord, w game.Walls, t Theme) {
	x, y := screenCell(ox, oy, c)
	style := tcell.StyleDefault.Foreground(t.Wall)

	if w.Has(game.North) {
		for i := 1; i < cellWidth; i++ {
			drawRune(s, x+i, y, style, '━')
		}
	}
	if w.Has(game.South) {
		for i := 1; i < cellWidth; i++ {
			drawRune(s, x+i, y+cellHeight, style, '━')
		}
	}
	if w.Has(game.West) {
		drawRune(s, x, y+1, style, '┃')
	}
	if w.Has(game.East) {
		drawRune(s, x+cellWidth, y+1, style, '┃')
	}
}
