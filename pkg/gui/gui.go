package gui

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/qnkhuat/guards/pkg/client"
	"github.com/qnkhuat/guards/pkg/game"
	"github.com/qnkhuat/guards/pkg/protocol"
)

const (
	pageMenu    = "menu"
	pageAddress = "address"
	pageTeam    = "team"
	pageGame    = "game"
)

const captureNotice = "There's been a capture!"

// Conn is the part of a relay connection the app drives.
type Conn interface {
	Join(team game.Team) bool
	Move(team game.Team, from, to game.Coord) bool
	Close() error
}

type Options struct {
	// ServerBinary is the relay started by "Host game".
	ServerBinary string
	// HostAddress is where a hosted relay listens.
	HostAddress string
}

// App is the terminal client: a menu, a team picker and the board.
type App struct {
	*tview.Application

	ctx     context.Context
	options Options
	theme   Theme
	game    *game.Game

	pages      *tview.Pages
	menuStatus *tview.TextView
	address    *tview.InputField
	board      *BoardView
	status     *tview.TextView

	// conn is nil in a local game.
	conn    Conn
	playing game.Team
	notice  string
}

func NewApp(ctx context.Context, g *game.Game, o Options) *App {
	if o.ServerBinary == "" {
		o.ServerBinary = client.ServerBinary()
	}
	if o.HostAddress == "" {
		o.HostAddress = fmt.Sprintf(":%d", protocol.DefaultPort)
	}

	a := &App{
		Application: tview.NewApplication(),
		ctx:         ctx,
		options:     o,
		theme:       ThemeBasic,
		game:        g,
		pages:       tview.NewPages(),
	}

	a.pages.AddPage(pageMenu, a.initMenu(), true, true)
	a.pages.AddPage(pageAddress, a.initAddress(), true, false)
	a.pages.AddPage(pageTeam, a.initTeamPicker(), true, false)
	a.pages.AddPage(pageGame, a.initGame(), true, false)

	a.SetRoot(a.pages, true).EnableMouse(true)
	return a
}

// center places p in the middle of the screen
func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

func (a *App) initMenu() tview.Primitive {
	menu := tview.NewList().
		AddItem("Local game", "both teams on this terminal", 'l', a.startLocal).
		AddItem("Host game", "start a server and play on it", 'h', func() {
			go a.host()
		}).
		AddItem("Join game", "play on someone else's server", 'j', func() {
			a.pages.SwitchToPage(pageAddress)
			a.SetFocus(a.address)
		}).
		AddItem("Quit", "", 'q', a.Stop)
	menu.SetBorder(true).SetTitle(" Guards! ")

	a.menuStatus = tview.NewTextView().SetTextColor(a.theme.Notice)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(menu, 0, 1, true).
		AddItem(a.menuStatus, 2, 0, false)
	return center(layout, 46, 14)
}

func (a *App) initAddress() tview.Primitive {
	a.address = tview.NewInputField().
		SetLabel("Server: ").
		SetPlaceholder(fmt.Sprintf("host[:%d]", protocol.DefaultPort)).
		SetFieldWidth(32)
	a.address.SetDoneFunc(func(key tcell.Key) {
		address := strings.TrimSpace(a.address.GetText())
		if key != tcell.KeyEnter || address == "" {
			a.showMenu("")
			return
		}
		a.JoinServer(address, game.Neutral)
	})
	a.address.SetBorder(true).SetTitle(" Join game ")

	return center(a.address, 46, 3)
}

func (a *App) initTeamPicker() tview.Primitive {
	teams := tview.NewList().ShowSecondaryText(false)
	for _, t := range game.Teams {
		teams.AddItem(t.DisplayName(), "", 0, nil)
	}
	teams.SetSelectedFunc(func(i int, _, _ string, _ rune) {
		a.chooseTeam(game.Teams[i])
	})
	teams.SetDoneFunc(func() {
		a.QuitToMenu()
	})
	teams.SetBorder(true).SetTitle(" Pick a team ")

	return center(teams, 30, len(game.Teams)+2)
}

func (a *App) initGame() tview.Primitive {
	a.board = NewBoardView(a.game, a.theme).SetMovedFunc(a.move)
	a.status = tview.NewTextView().SetDynamicColors(true)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.board, 0, 1, true).
		AddItem(a.status, 4, 0, false)

	layout.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() != tcell.KeyRune {
			return event
		}

		switch event.Rune() {
		case 'q':
			a.QuitToMenu()
			return nil
		case 'r':
			if a.conn == nil && a.game.Over() {
				a.restart()
				return nil
			}
		}
		return event
	})
	return layout
}

func (a *App) showMenu(message string) {
	a.menuStatus.SetText(message)
	a.pages.SwitchToPage(pageMenu)
}

func (a *App) showGame() {
	a.updateStatus()
	a.pages.SwitchToPage(pageGame)
	a.SetFocus(a.board)
}

func (a *App) startLocal() {
	a.conn = nil
	a.playing = game.Neutral
	a.board.SetControls(game.Neutral)
	a.restart()
	a.showGame()
}

func (a *App) restart() {
	a.game.Reset()
	a.board.Deselect()
	a.notice = ""
	a.updateStatus()
}

// QuitToMenu leaves the current game, dropping the server connection.
func (a *App) QuitToMenu() {
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.playing = game.Neutral
	a.board.SetControls(game.Neutral)
	a.restart()
	a.showMenu("")
}

func (a *App) host() {
	a.QueueUpdateDraw(func() {
		a.menuStatus.SetText(fmt.Sprintf("Starting server on %s...", a.options.HostAddress))
	})

	h, err := client.Host(a.ctx, a.options.ServerBinary, a.options.HostAddress)
	if err != nil {
		log.Printf("host: %s", err)
		a.QueueUpdateDraw(func() {
			a.showMenu(fmt.Sprintf("Could not host: %s", err))
		})
		return
	}

	a.QueueUpdateDraw(func() {
		a.connected(h, h.In, game.Neutral)
	})
}

// JoinServer connects to a relay in the background, joining team once
// connected. A Neutral team shows the team picker instead.
func (a *App) JoinServer(address string, team game.Team) {
	a.showMenu(fmt.Sprintf("Connecting to %s...", address))

	go func() {
		c, err := client.Connect(a.ctx, address)
		if err != nil {
			log.Printf("join: %s", err)
			a.QueueUpdateDraw(func() {
				a.showMenu(fmt.Sprintf("Could not connect: %s", err))
			})
			return
		}

		a.QueueUpdateDraw(func() {
			a.connected(c, c.In, team)
		})
	}()
}

func (a *App) connected(conn Conn, in <-chan protocol.MessageInterface, team game.Team) {
	if a.conn != nil {
		a.conn.Close()
	}
	a.conn = conn
	a.restart()

	go a.listen(conn, in)

	if team != game.Neutral {
		a.chooseTeam(team)
		return
	}
	a.pages.SwitchToPage(pageTeam)
}

func (a *App) listen(conn Conn, in <-chan protocol.MessageInterface) {
	for m := range in {
		m := m
		a.QueueUpdateDraw(func() {
			if a.conn == conn {
				a.handleMessage(m)
			}
		})
	}

	a.QueueUpdateDraw(func() {
		if a.conn == conn {
			a.QuitToMenu()
			a.menuStatus.SetText("Disconnected from server")
		}
	})
}

func (a *App) chooseTeam(team game.Team) {
	if a.conn == nil {
		panic("team picked without a server connection")
	}

	a.playing = team
	a.board.SetControls(team)
	a.conn.Join(team)
	a.showGame()
}

// handleMessage applies a line relayed by the server to the local game.
func (a *App) handleMessage(m protocol.MessageInterface) {
	switch m := m.(type) {
	case protocol.MessageJoin:
		if m.Team == a.playing {
			a.notice = fmt.Sprintf("Joined as %s", m.Team.DisplayName())
		} else {
			a.notice = fmt.Sprintf("%s player joined", m.Team.DisplayName())
		}
	default:
		if err := client.Apply(a.game, m); err != nil {
			log.Printf("%s", err)
			a.notice = err.Error()
			break
		}
		a.moved()
	}
	a.updateStatus()
}

// move is called by the board once a piece is dropped.
func (a *App) move(from, to game.Coord) {
	turn := a.game.Turn()
	if !a.game.IsLegal(from, to) {
		a.notice = fmt.Sprintf("Can't move %s to %s", from, to)
		a.updateStatus()
		return
	}

	if a.conn != nil {
		// Applied when the server relays it back.
		a.conn.Move(turn, from, to)
		a.notice = ""
	} else {
		a.game.ApplyMove(turn, from, to)
		a.moved()
	}
	a.updateStatus()
}

func (a *App) moved() {
	a.board.Deselect()
	a.notice = ""
	if a.game.LastMoveCaptured() {
		a.notice = captureNotice
	}
}

func (a *App) teamTag(t game.Team) string {
	return fmt.Sprintf("[#%06x]%s[-]", a.theme.TeamColor(t).Hex(), t.DisplayName())
}

func (a *App) statusText() string {
	var b strings.Builder

	purple, white := a.game.Citizens()
	if a.game.Over() {
		fmt.Fprintf(&b, "%s!", a.game.Outcome())
	} else {
		fmt.Fprintf(&b, "%s to move", a.teamTag(a.game.Turn()))
	}
	if a.playing != game.Neutral {
		fmt.Fprintf(&b, "  Playing as %s", a.teamTag(a.playing))
	}
	fmt.Fprintf(&b, "\nCitizens: %s %d  %s %d\n", a.teamTag(game.Purple), purple, a.teamTag(game.White), white)

	if a.notice != "" {
		b.WriteString(tview.Escape(a.notice))
	}
	b.WriteString("\n")

	if a.conn == nil && a.game.Over() {
		b.WriteString("r: play again  ")
	}
	b.WriteString("q: quit to menu")
	return b.String()
}

func (a *App) updateStatus() {
	a.status.SetText(a.statusText())
}
