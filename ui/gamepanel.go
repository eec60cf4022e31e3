package ui

import (
	"fmt"

	"github.com/rivo/tview"

	"netsuji/types"
)

// GameInfoPanel displays session information alongside the board.
type GameInfoPanel struct {
	box  *tview.TextView
	game *types.GameSession
}

// NewGameInfoPanel creates a new game info panel.
func NewGameInfoPanel() *GameInfoPanel {
	panel := &GameInfoPanel{
		box: tview.NewTextView(),
	}

	panel.box.SetDynamicColors(true)
	panel.box.SetBorder(false)
	panel.box.SetTextAlign(tview.AlignLeft)

	return panel
}

// Box returns the underlying tview component.
func (p *GameInfoPanel) Box() *tview.TextView {
	return p.box
}

// SetSession updates the panel. nil clears it.
func (p *GameInfoPanel) SetSession(game *types.GameSession) {
	p.game = game
	p.box.SetText(infoText(game))
}

func infoText(game *types.GameSession) string {
	if game == nil {
		return ""
	}

	var text string

	text += "[white::b]Game Info[-:-:-]\n"
	text += "[dimgray]──────────────────────[-:-:-]\n"
	text += fmt.Sprintf("[white]Id:[-:-:-] %s\n", game.ID)
	text += fmt.Sprintf("[white]Size:[-:-:-] %dx%d\n", game.Height, game.Width)
	if game.VersusAI() {
		text += fmt.Sprintf("[white]AI:[-:-:-] %s\n", game.Difficulty.Label())
	} else {
		text += "[white]AI:[-:-:-] none\n"
	}
	text += fmt.Sprintf("[white]Komi:[-:-:-] %g\n", game.Komi)
	if game.TurnsKnown {
		text += fmt.Sprintf("[white]Turn:[-:-:-] %d\n", game.Turns+1)
	}
	text += fmt.Sprintf("[white]Passes:[-:-:-] %d\n", game.Passes)
	if toMove, ok := game.ToMove(); ok && !game.Over {
		text += fmt.Sprintf("[white]To move:[-:-:-] %s\n", toMove)
	}

	routers := map[types.Color]int{}
	stones := map[types.Color]int{}
	for _, node := range game.Graph {
		routers[node.RouterOwner]++
		stones[node.Controller]++
	}

	text += "\n[white::b]Seats[-:-:-]\n"
	text += "[dimgray]──────────────────────[-:-:-]\n"
	for _, seat := range game.Seats {
		who := ""
		if seat.AI {
			who = " (AI)"
		}
		text += fmt.Sprintf("[white]%s%s:[-:-:-] %g\n", seat.Color, who, seat.Score)
		text += fmt.Sprintf("[dimgray]  routers %d  stones %d[-]\n", routers[seat.Color], stones[seat.Color])
	}
	if game.Over {
		text += "\n[yellow::b]Game over[-:-:-]\n"
	}
	return text
}

// CreateGameLayout creates the main game layout with board and side panel.
func CreateGameLayout(board *GoBoardUI, hint *tview.TextView) *tview.Flex {
	gameFrame := tview.NewFlex()
	RebuildNormalLayout(gameFrame, board, hint)
	return gameFrame
}

// CreateCenteredForm creates a centered form container for the setup screen.
func CreateCenteredForm(form tview.Primitive, maxWidth int) *tview.Flex {
	centered := tview.NewFlex().SetDirection(tview.FlexColumn)
	centered.AddItem(nil, 0, 1, false)        // Left spacer
	centered.AddItem(form, maxWidth, 0, true) // Form with max width
	centered.AddItem(nil, 0, 1, false)        // Right spacer

	return centered
}

// RebuildNormalLayout restores the normal game layout with board, info panel, and hint.
func RebuildNormalLayout(gameFrame *tview.Flex, board *GoBoardUI, hint *tview.TextView) {
	gameFrame.Clear()

	infoPanel := NewGameInfoPanel()
	board.infoPanel = infoPanel
	if board.client != nil {
		infoPanel.SetSession(board.client.Session())
	}

	boardRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	boardRow.AddItem(board.Box, 0, 1, true)
	boardRow.AddItem(infoPanel.Box(), 26, 0, false)

	gameFrame.SetDirection(tview.FlexRow)
	gameFrame.AddItem(boardRow, 0, 1, true)
	gameFrame.AddItem(hint, 5, 0, false)
}

// BuildFocusLayout builds the focus mode layout with just the centered board.
func BuildFocusLayout(gameFrame *tview.Flex, board *GoBoardUI) {
	gameFrame.Clear()

	boardWidth := 10*2 + labelWidth
	boardHeight := 10 + 2
	if board.Plan.Width > 0 {
		boardWidth = board.Plan.Width*2 + labelWidth
		boardHeight = board.Plan.Height + 2
	}

	gameFrame.SetDirection(tview.FlexRow)
	gameFrame.AddItem(nil, 0, 1, false)

	centerRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	centerRow.AddItem(nil, 0, 1, false)
	centerRow.AddItem(board.Box, boardWidth, 0, true)
	centerRow.AddItem(nil, 0, 1, false)

	gameFrame.AddItem(centerRow, boardHeight, 0, true)
	gameFrame.AddItem(nil, 0, 1, false)
}
