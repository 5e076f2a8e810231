package gui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/qnkhuat/guards/pkg/game"
)

// Terminal safe color palette is available here
// https://upload.wikimedia.org/wikipedia/commons/1/15/Xterm_256color_chart.svg

// Theme is used for coloring the board and status bar
type Theme struct {
	Name     string
	Floor    tcell.Color
	Grid     tcell.Color
	Wall     tcell.Color
	Cursor   tcell.Color
	Selected tcell.Color
	Target   tcell.Color
	Purple   tcell.Color
	White    tcell.Color
	Neutral  tcell.Color
	Status   tcell.Color
	Notice   tcell.Color
}

// TeamColor returns the color pieces owned by t are drawn in
func (t Theme) TeamColor(team game.Team) tcell.Color {
	switch team {
	case game.Purple:
		return t.Purple
	case game.White:
		return t.White
	default:
		return t.Neutral
	}
}

// ThemeBasic is the default theme
var ThemeBasic = Theme{
	"basic",            // Name
	tcell.ColorDefault, // Floor
	tcell.Color240,     // Grid
	tcell.Color252,     // Wall
	tcell.Color238,     // Cursor
	tcell.Color94,      // Selected
	tcell.Color28,      // Target
	tcell.Color135,     // Purple
	tcell.Color231,     // White
	tcell.Color247,     // Neutral
	tcell.Color247,     // Status
	tcell.Color160,     // Notice
}
