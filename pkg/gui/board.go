package gui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/qnkhuat/guards/pkg/game"
)

// BoardView draws a game and turns key presses and clicks into moves.
type BoardView struct {
	*tview.Box

	theme Theme
	game  *game.Game
	// controls is the team this view may move. Neutral lets it move for
	// whichever team is on turn.
	controls game.Team

	cursor   game.Coord
	selected bool
	from     game.Coord

	moved func(from, to game.Coord)
}

func NewBoardView(g *game.Game, theme Theme) *BoardView {
	return &BoardView{
		Box:   tview.NewBox(),
		theme: theme,
		game:  g,
	}
}

func (v *BoardView) SetControls(team game.Team) *BoardView {
	v.controls = team
	v.Deselect()
	return v
}

// SetMovedFunc sets the function called when a piece is dropped on another
// cell. The move has not been checked.
func (v *BoardView) SetMovedFunc(f func(from, to game.Coord)) *BoardView {
	v.moved = f
	return v
}

func (v *BoardView) Cursor() game.Coord {
	return v.cursor
}

func (v *BoardView) Selection() (game.Coord, bool) {
	return v.from, v.selected
}

func (v *BoardView) Deselect() {
	v.selected = false
}

func (v *BoardView) canSelect(c game.Coord) bool {
	if v.game.Over() {
		return false
	}

	cell := v.game.Board().Cell(c)
	if cell == nil || cell.Occupant.IsEmpty() {
		return false
	}

	turn := v.game.Turn()
	if v.controls != game.Neutral && v.controls != turn {
		return false
	}
	return cell.Occupant.Team == turn
}

// Activate acts on c as if it was clicked: the first activation picks a
// piece up, the second puts it down.
func (v *BoardView) Activate(c game.Coord) {
	if !v.game.Board().InBounds(c) {
		return
	}
	v.cursor = c

	switch {
	case v.selected && v.from == c:
		v.selected = false
	case v.canSelect(c):
		v.selected, v.from = true, c
	case v.selected:
		v.selected = false
		if v.moved != nil {
			v.moved(v.from, c)
		}
	}
}

func (v *BoardView) moveCursor(dx, dy int) {
	c := game.Coord{X: v.cursor.X + dx, Y: v.cursor.Y + dy}
	if v.game.Board().InBounds(c) {
		v.cursor = c
	}
}

// origin is the screen position of the board's top left corner
func (v *BoardView) origin() (int, int) {
	x, y, width, height := v.GetInnerRect()
	w, h := boardSize(v.game.Board())

	if width > w {
		x += (width - w) / 2
	}
	if height > h {
		y += (height - h) / 2
	}
	return x, y
}

func (v *BoardView) background(c game.Coord) tcell.Color {
	switch {
	case v.selected && c == v.from:
		return v.theme.Selected
	case c == v.cursor && v.HasFocus():
		return v.theme.Cursor
	case v.selected && v.game.IsLegal(v.from, c):
		return v.theme.Target
	default:
		return v.theme.Floor
	}
}

func (v *BoardView) Draw(screen tcell.Screen) {
	v.Box.DrawForSubclass(screen, v)

	ox, oy := v.origin()
	b := v.game.Board()

	drawGrid(screen, ox, oy, b, v.theme)
	for _, c := range b.Coords() {
		drawSquare(screen, ox, oy, c, b.Cell(c).Occupant, v.background(c), v.theme)
	}
	for _, c := range b.Coords() {
		drawWalls(screen, ox, oy, c, b.Cell(c).Walls, v.theme)
	}
}

func (v *BoardView) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return v.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		switch event.Key() {
		case tcell.KeyUp:
			v.moveCursor(0, -1)
		case tcell.KeyDown:
			v.moveCursor(0, 1)
		case tcell.KeyLeft:
			v.moveCursor(-1, 0)
		case tcell.KeyRight:
			v.moveCursor(1, 0)
		case tcell.KeyEnter:
			v.Activate(v.cursor)
		case tcell.KeyEscape:
			v.Deselect()
		case tcell.KeyRune:
			switch event.Rune() {
			case 'k':
				v.moveCursor(0, -1)
			case 'j':
				v.moveCursor(0, 1)
			case 'h':
				v.moveCursor(-1, 0)
			case 'l':
				v.moveCursor(1, 0)
			case ' ':
				v.Activate(v.cursor)
			}
		}
	})
}

func (v *BoardView) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
	return v.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
		x, y := event.Position()
		if !v.InRect(x, y) {
			return false, nil
		}

		switch action {
		case tview.MouseLeftClick:
			setFocus(v)
			ox, oy := v.origin()
			if c, ok := coordAt(ox, oy, x, y); ok {
				v.Activate(c)
			}
			consumed = true
		case tview.MouseRightClick:
			v.Deselect()
			consumed = true
		}
		return
	})
}
