package ui

import (
	"errors"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsuji/config"
	"netsuji/engine"
	"netsuji/session"
	"netsuji/types"
)

func testGame(height, width int) *types.GameSession {
	g := &types.GameSession{
		ID:         "g-7",
		Height:     height,
		Width:      width,
		Graph:      map[types.Coord]types.NodeState{},
		Seats:      [2]types.Seat{{Color: types.Black, Score: 2}, {Color: types.White, AI: true, Score: 1.5}},
		Difficulty: types.DifficultyMedium,
		TurnsKnown: true,
		Turns:      4,
		Komi:       0.5,
	}
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			g.Graph[types.Coord{Row: r, Col: c}] = types.NodeState{}
		}
	}
	g.Graph[types.Coord{Row: 0, Col: 0}] = types.NodeState{RouterOwner: types.Black, Controller: types.Black}
	return g
}

func newTestBoard() *GoBoardUI {
	cfg := config.DefaultConfig
	return NewGoBoard(tview.NewApplication(), &cfg, tview.NewTextView())
}

func TestGameSetupKeepsInitialConfig(t *testing.T) {
	initial := engine.GameConfig{
		Height:     5,
		Width:      9,
		Full:       false,
		Opponent:   engine.OpponentComputer,
		Difficulty: types.DifficultyInsane,
	}
	setup := NewGameSetup(initial, func(engine.GameConfig) {}, func(string) {}, nil, func() {})
	assert.Equal(t, initial, setup.Config())
}

func TestEscLeavesSetup(t *testing.T) {
	cancelled := 0
	setup := NewGameSetup(engine.DefaultConfig(), func(engine.GameConfig) {}, func(string) {}, nil, func() { cancelled++ })
	capture := setup.form.GetInputCapture()
	require.NotNil(t, capture)

	assert.Nil(t, capture(tcell.NewEventKey(tcell.KeyEsc, 0, tcell.ModNone)))
	assert.Equal(t, 1, cancelled)

	tab := tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone)
	assert.Same(t, tab, capture(tab))
	assert.Equal(t, 1, cancelled)
}

func TestFocusModeAndFinished(t *testing.T) {
	board := newTestBoard()
	assert.False(t, board.IsFocusMode())
	assert.True(t, board.ToggleFocusMode())
	assert.True(t, board.IsFocusMode())
	board.SetFocusMode(false)
	assert.False(t, board.IsFocusMode())

	board.apply(session.Snapshot{Game: testGame(3, 3), Unlocked: true})
	assert.False(t, board.IsFinished())
	over := testGame(3, 3)
	over.Over = true
	board.apply(session.Snapshot{Game: over})
	assert.True(t, board.IsFinished())
	assert.Contains(t, board.hint.GetText(false), "q/⏎ · return to menu")
}

func TestParseSide(t *testing.T) {
	assert.Equal(t, 12, parseSide(" 12 "))
	assert.Equal(t, 0, parseSide(""))
	assert.Equal(t, 0, parseSide("x"))
}

func TestInfoText(t *testing.T) {
	assert.Empty(t, infoText(nil))

	text := infoText(testGame(3, 3))
	assert.Contains(t, text, "g-7")
	assert.Contains(t, text, "3x3")
	assert.Contains(t, text, "Medium")
	assert.Contains(t, text, "To move:[-:-:-] Black")
	assert.Contains(t, text, "routers 1  stones 1")
	assert.NotContains(t, text, "Game over")
}

func TestApplySnapshot(t *testing.T) {
	board := newTestBoard()

	board.apply(session.Snapshot{Game: testGame(3, 4), Unlocked: true})
	require.Len(t, board.Plan.Cells, 12)
	assert.True(t, board.Plan.InputOpen)
	assert.Empty(t, board.status)

	board.apply(session.Snapshot{Game: testGame(3, 4), Err: errors.New("refresh: timeout")})
	assert.False(t, board.Plan.InputOpen)
	assert.Equal(t, "refresh: timeout", board.status)
}

func TestHintPointsToAIWhenItsTurnIsOwed(t *testing.T) {
	hint := tview.NewTextView()
	cfg := config.DefaultConfig
	board := NewGoBoard(tview.NewApplication(), &cfg, hint)

	board.apply(session.Snapshot{Game: testGame(3, 3), Unlocked: true, Err: errors.New("refresh: timeout"), AIOwed: true})
	text := hint.GetText(false)
	assert.Contains(t, text, "refresh: timeout")
	assert.Contains(t, text, "a ask the AI to move")

	board.apply(session.Snapshot{Game: testGame(3, 3), Unlocked: true, AIOwed: true})
	assert.Contains(t, hint.GetText(false), "AI has not moved, press a")

	board.apply(session.Snapshot{Game: testGame(3, 3), Err: errors.New("submit move: refused")})
	text = hint.GetText(false)
	assert.Contains(t, text, "(r refresh)")
	assert.NotContains(t, text, "ask the AI")

	board.apply(session.Snapshot{Game: testGame(3, 3), Unlocked: true})
	assert.Contains(t, hint.GetText(false), "Your move")
}

func TestMoveSelection(t *testing.T) {
	board := newTestBoard()
	board.MoveSelection(1, 0)
	assert.Nil(t, board.SelectedTile(), "no board yet")

	board.apply(session.Snapshot{Game: testGame(3, 5), Unlocked: true})
	board.MoveSelection(1, 0)
	assert.Equal(t, &types.Coord{Row: 1, Col: 2}, board.SelectedTile())

	board.MoveSelection(0, 2)
	board.MoveSelection(0, 1)
	assert.Equal(t, &types.Coord{Row: 1, Col: 4}, board.SelectedTile())

	board.MoveSelection(1, 0)
	board.MoveSelection(1, 0)
	assert.Equal(t, &types.Coord{Row: 2, Col: 4}, board.SelectedTile())

	over := testGame(3, 5)
	over.Over = true
	board.apply(session.Snapshot{Game: over})
	assert.Nil(t, board.SelectedTile())
}

func TestGridRunes(t *testing.T) {
	assert.Equal(t, '┌', getGridRune(0, 0, 3, 3))
	assert.Equal(t, '┼', getGridRune(1, 1, 3, 3))
	assert.Equal(t, '┘', getGridRune(2, 2, 3, 3))
	assert.Equal(t, '┤', getGridRune(2, 1, 3, 3))
}
