// Package ui specifies custom controls for tview to play router-territory
// games in the terminal.
package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"netsuji/config"
	"netsuji/engine"
	"netsuji/render"
	"netsuji/session"
	"netsuji/types"
)

// Left margin taken by the row labels.
const labelWidth = 4

type GoBoardUI struct {
	Box       *tview.Box
	Plan      render.Plan
	hint      *tview.TextView
	cfg       *config.Config
	selRow    int
	selCol    int
	app       *tview.Application
	client    *session.Client
	ctx       context.Context
	cancel    context.CancelFunc
	status    string // last transport error, cleared on success
	aiOwed    bool
	styles    []tcell.Color
	infoPanel *GameInfoPanel
	focusMode bool
}

// ToggleFocusMode toggles focus mode and returns the new state.
func (g *GoBoardUI) ToggleFocusMode() bool {
	g.focusMode = !g.focusMode
	g.refreshHint()
	return g.focusMode
}

// SetFocusMode sets focus mode to the given state.
func (g *GoBoardUI) SetFocusMode(enabled bool) {
	g.focusMode = enabled
	g.refreshHint()
}

// IsFocusMode returns true if focus mode is enabled.
func (g *GoBoardUI) IsFocusMode() bool {
	return g.focusMode
}

func (g *GoBoardUI) SelectedTile() *types.Coord {
	if g.selRow == -1 && g.selCol == -1 {
		return nil
	}
	return &types.Coord{Row: g.selRow, Col: g.selCol}
}

// MoveSelection moves the cursor by dRow rows and dCol columns. The first
// call places it at the board center.
func (g *GoBoardUI) MoveSelection(dRow, dCol int) {
	if g.Plan.Over || g.Plan.Width == 0 {
		g.ResetSelection()
		return
	}
	if g.SelectedTile() == nil {
		g.selRow = g.Plan.Height / 2
		g.selCol = g.Plan.Width / 2
		return
	}
	next := types.Coord{Row: g.selRow + dRow, Col: g.selCol + dCol}
	if !next.In(g.Plan.Height, g.Plan.Width) {
		return
	}
	g.selRow, g.selCol = next.Row, next.Col
}

func (g *GoBoardUI) ResetSelection() {
	g.selRow = -1
	g.selCol = -1
}

func NewGoBoard(app *tview.Application, c *config.Config, hint *tview.TextView) *GoBoardUI {
	goBoard := &GoBoardUI{
		Box:    tview.NewBox(),
		Plan:   render.Board(nil, false),
		hint:   hint,
		app:    app,
		selRow: -1,
		selCol: -1,
	}
	goBoard.SetConfig(c)
	goBoard.Box.SetDrawFunc(func(screen tcell.Screen, x int, y int, width int, height int) (int, int, int, int) {
		plan := goBoard.Plan
		if plan.Width == 0 {
			return x, y, 1, 1
		}
		theme := goBoard.cfg.Theme
		// 2 characters per cell for square appearance
		boardW, boardH := plan.Width*2, plan.Height

		for _, cell := range plan.Cells {
			row, col := cell.Coord.Row, cell.Coord.Col
			bg := goBoard.styles[0]
			if (row%2 + col%2) == 1 {
				bg = goBoard.styles[3]
			}
			fg := goBoard.styles[8]

			var drawRune rune
			switch {
			case cell.Stone != types.NoColor:
				drawRune = theme.Symbols.Stone
				fg = goBoard.stoneColor(cell.Stone)
				if cell.Router != types.NoColor {
					drawRune = theme.Symbols.RoutedStone
					if theme.DrawStoneBackground {
						bg = goBoard.routerColor(cell.Router)
					}
				}
			case cell.Router != types.NoColor:
				drawRune = theme.Symbols.Router
				fg = goBoard.routerColor(cell.Router)
			case theme.UseGridLines:
				drawRune = getGridRune(col, row, plan.Width, plan.Height)
			default:
				drawRune = theme.Symbols.BoardSquare
			}

			if row == goBoard.selRow && col == goBoard.selCol {
				if theme.DrawCursorBackground {
					bg = goBoard.styles[7]
				} else if !theme.UseGridLines {
					drawRune = theme.Symbols.Cursor
					fg = goBoard.styles[6]
				}
			}

			style := tcell.StyleDefault.Background(bg).Foreground(fg)
			empty := cell.Stone == types.NoColor && cell.Router == types.NoColor
			if theme.UseGridLines && empty {
				occupiedRight := false
				if col < plan.Width-1 {
					right := plan.At(types.Coord{Row: row, Col: col + 1})
					occupiedRight = right.Stone != types.NoColor || right.Router != types.NoColor
				}
				drawGridCell(screen, style.Foreground(goBoard.styles[8]), drawRune, col, row, x+labelWidth, y, plan.Width, occupiedRight)
			} else {
				drawStoneCell(screen, style, drawRune, col, row, x+labelWidth, y)
			}
		}
		drawCoordinates(screen, x, y, goBoard)
		// Add offset for coordinate display
		return x, y, boardW + labelWidth, boardH + 2
	})
	return goBoard
}

func (g *GoBoardUI) stoneColor(c types.Color) tcell.Color {
	if c == types.White {
		return g.styles[2]
	}
	return g.styles[1]
}

func (g *GoBoardUI) routerColor(c types.Color) tcell.Color {
	if c == types.White {
		return g.styles[5]
	}
	return g.styles[4]
}

// ConnectSession opens the session with the given id on svc and starts it
// in the background. Snapshots from earlier sessions are ignored.
func (g *GoBoardUI) ConnectSession(svc engine.GameService, id string, opts session.Options) *session.Client {
	g.Close()

	// Updates arrive from chains running off the event loop. Each queued
	// draw applies the client's latest snapshot, so draws that run late
	// cannot show an older gate state.
	var c *session.Client
	opts.OnUpdate = func(session.Snapshot) {
		g.app.QueueUpdateDraw(func() {
			if g.client == c {
				g.apply(c.Snapshot())
			}
		})
	}
	c = session.NewClient(svc, id, opts)

	g.client = c
	g.ctx, g.cancel = context.WithCancel(context.Background())
	g.status = ""
	g.aiOwed = false
	g.Plan = render.Board(nil, false)
	g.ResetSelection()
	if g.infoPanel != nil {
		g.infoPanel.SetSession(nil)
	}
	g.refreshHint()

	ctx := g.ctx
	go func() {
		_ = c.Start(ctx)
	}()
	return c
}

func (g *GoBoardUI) apply(snap session.Snapshot) {
	g.Plan = render.Board(snap.Game, snap.Unlocked)
	g.status = ""
	if snap.Err != nil {
		g.status = snap.Err.Error()
	}
	g.aiOwed = snap.AIOwed
	if g.Plan.Over {
		g.ResetSelection()
	}
	if g.infoPanel != nil {
		g.infoPanel.SetSession(snap.Game)
	}
	g.refreshHint()
}

// PlayMove submits a move at the cursor. The session gate drops it while a
// previous move is in flight.
func (g *GoBoardUI) PlayMove() {
	sel := g.SelectedTile()
	if sel == nil {
		return
	}
	move := types.Place(*sel)
	g.dispatch(func(ctx context.Context, c *session.Client) {
		c.TryMove(ctx, move)
	})
}

// Pass passes the current turn.
func (g *GoBoardUI) Pass() {
	if !g.Plan.PassEnabled {
		return
	}
	g.dispatch(func(ctx context.Context, c *session.Client) {
		c.TryMove(ctx, types.PassMove)
	})
}

// RequestAI asks the service to play the AI seat, used after a failed AI turn.
func (g *GoBoardUI) RequestAI() {
	g.dispatch(func(ctx context.Context, c *session.Client) {
		c.TryAIMove(ctx)
	})
}

// Refresh reloads the session, or starts it if the first load failed.
func (g *GoBoardUI) Refresh() {
	g.dispatch(func(ctx context.Context, c *session.Client) {
		if c.Session() == nil {
			_ = c.Start(ctx)
			return
		}
		_, _ = c.Refresh(ctx)
	})
}

// dispatch runs fn off the event loop against the current session.
func (g *GoBoardUI) dispatch(fn func(ctx context.Context, c *session.Client)) {
	if g.client == nil {
		return
	}
	ctx, c := g.ctx, g.client
	go fn(ctx, c)
}

// Close abandons the current session. Requests in flight are cancelled.
func (g *GoBoardUI) Close() {
	if g.cancel != nil {
		g.cancel()
	}
	g.client = nil
}

func (g *GoBoardUI) SetConfig(c *config.Config) {
	g.styles = []tcell.Color{
		tcell.PaletteColor(c.Theme.Colors.BoardColor),    // 0
		tcell.PaletteColor(c.Theme.Colors.BlackColor),    // 1
		tcell.PaletteColor(c.Theme.Colors.WhiteColor),    // 2
		tcell.PaletteColor(c.Theme.Colors.BoardColorAlt), // 3
		tcell.PaletteColor(c.Theme.Colors.RouterBlack),   // 4
		tcell.PaletteColor(c.Theme.Colors.RouterWhite),   // 5
		tcell.PaletteColor(c.Theme.Colors.CursorColorFG), // 6
		tcell.PaletteColor(c.Theme.Colors.CursorColorBG), // 7
		tcell.PaletteColor(c.Theme.Colors.LineColor),     // 8
	}
	g.cfg = c
}

func (g *GoBoardUI) refreshHint() {
	// Focus mode shows minimal hint
	if g.focusMode {
		g.hint.SetText("  f to toggle")
		return
	}

	statusLine := fmt.Sprintf("  %s   %s\n", g.Plan.Title, g.Plan.Scores)
	var turnLine, controlsLine string
	switch {
	case g.status != "" && g.aiOwed:
		turnLine = fmt.Sprintf("  ! %s (a ask the AI to move)\n", g.status)
	case g.status != "":
		turnLine = fmt.Sprintf("  ! %s (r refresh)\n", g.status)
	case g.aiOwed && g.Plan.InputOpen:
		turnLine = "  ◌ AI has not moved, press a\n"
	case g.Plan.Over:
		turnLine = "  Game complete\n"
	case g.Plan.InputOpen:
		turnLine = "  ● Your move\n"
	default:
		turnLine = "  ◌ Waiting...\n"
	}

	if g.Plan.Over {
		controlsLine = "  q/⏎ · return to menu"
	} else {
		controlsLine = "  hjkl/↑↓←→ move   ⏎ play   p pass   a ask AI   r refresh   f focus   q quit"
	}

	g.hint.SetText(statusLine + turnLine + controlsLine)
}

// IsFinished returns true if the game is over.
func (g *GoBoardUI) IsFinished() bool {
	return g.Plan.Over
}

// drawStoneCell draws a stone cell (2 characters wide)
func drawStoneCell(s tcell.Screen, c tcell.Style, r rune, x, y, l, t int) {
	s.SetContent(l+x*2, t+y, r, nil, c)
	s.SetContent(l+x*2+1, t+y, ' ', nil, c)
}

// drawGridCell draws a cell using box-drawing characters for grid lines
func drawGridCell(s tcell.Screen, c tcell.Style, r rune, x, y, l, t, boardWidth int, occupiedRight bool) {
	// 2-char cell: [intersection][right-line]
	s.SetContent(l+x*2, t+y, r, nil, c)

	rightConn := '─'
	if x == boardWidth-1 || occupiedRight {
		rightConn = ' '
	}
	s.SetContent(l+x*2+1, t+y, rightConn, nil, c)
}

// getGridRune returns the appropriate box-drawing character for a grid position
func getGridRune(x, y, width, height int) rune {
	isTop := y == 0
	isBottom := y == height-1
	isLeft := x == 0
	isRight := x == width-1

	switch {
	case isTop && isLeft:
		return '┌'
	case isTop && isRight:
		return '┐'
	case isBottom && isLeft:
		return '└'
	case isBottom && isRight:
		return '┘'
	case isTop:
		return '┬'
	case isBottom:
		return '┴'
	case isLeft:
		return '├'
	case isRight:
		return '┤'
	default:
		return '┼'
	}
}

// drawCoordinates labels rows and columns with the indices used in node ids,
// so the node under the cursor is "row.col".
func drawCoordinates(s tcell.Screen, x, y int, ui *GoBoardUI) {
	w, h := ui.Plan.Width, ui.Plan.Height

	style := tcell.StyleDefault
	highlight := tcell.StyleDefault.Background(ui.styles[7])

	for ix := 0; ix < w; ix++ {
		_style := style
		if ix == ui.selCol {
			_style = highlight
		}
		s.SetContent(x+labelWidth+(ix*2), y+h+1, rune('0'+ix%10), nil, _style)
		s.SetContent(x+labelWidth+(ix*2)+1, y+h+1, ' ', nil, _style)
	}

	for iy := 0; iy < h; iy++ {
		_style := style
		if iy == ui.selRow {
			_style = highlight
		}
		tensRune := ' '
		if iy >= 10 {
			tensRune = rune('0' + iy/10)
		}
		s.SetContent(x+1, y+iy, tensRune, nil, _style)
		s.SetContent(x+2, y+iy, rune('0'+iy%10), nil, _style)
	}
}
