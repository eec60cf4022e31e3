package ui

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"netsuji/engine"
	"netsuji/types"
)

var opponents = []engine.Opponent{engine.OpponentComputer, engine.OpponentLocal}

// GameSetupUI provides a form for creating a new session or joining one.
type GameSetupUI struct {
	form *tview.Form
	flex *tview.Flex

	cfg    engine.GameConfig
	gameID string
}

// NewGameSetup creates the setup form pre-filled with initial. onStart
// receives the form values unvalidated; onJoin receives a session id.
func NewGameSetup(initial engine.GameConfig, onStart func(engine.GameConfig), onJoin func(string), onAccount func(), onCancel func()) *GameSetupUI {
	setup := &GameSetupUI{cfg: initial}

	form := tview.NewForm()

	form.AddInputField("Height", strconv.Itoa(initial.Height), 4, tview.InputFieldInteger, func(text string) {
		setup.cfg.Height = parseSide(text)
	})
	form.AddInputField("Width", strconv.Itoa(initial.Width), 4, tview.InputFieldInteger, func(text string) {
		setup.cfg.Width = parseSide(text)
	})
	form.AddCheckbox("Fully connected", initial.Full, func(checked bool) {
		setup.cfg.Full = checked
	})

	opponentLabels := []string{"Computer", "Local (human vs human)"}
	form.AddDropDown("Opponent", opponentLabels, indexOf(opponents, initial.Opponent), func(option string, index int) {
		if index >= 0 {
			setup.cfg.Opponent = opponents[index]
		}
	})

	difficultyLabels := []string{"(none)"}
	for _, d := range types.Difficulties {
		difficultyLabels = append(difficultyLabels, d.Label())
	}
	form.AddDropDown("Difficulty", difficultyLabels, indexOf(types.Difficulties, initial.Difficulty)+1, func(option string, index int) {
		if index <= 0 {
			setup.cfg.Difficulty = types.DifficultyUnset
			return
		}
		setup.cfg.Difficulty = types.Difficulties[index-1]
	})

	form.AddInputField("Join game id", "", 24, nil, func(text string) {
		setup.gameID = strings.TrimSpace(text)
	})

	form.AddButton("Create Game", func() {
		onStart(setup.Config())
	})

	form.AddButton("Join", func() {
		if setup.gameID != "" {
			onJoin(setup.gameID)
		}
	})

	form.AddButton("Account", func() {
		if onAccount != nil {
			onAccount()
		}
	})

	form.AddButton("Quit", func() {
		onCancel()
	})

	styleForm(form, " New Game ")
	form.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() != tcell.KeyEsc || dropDownFocused(form) {
			return event
		}
		onCancel()
		return nil
	})

	helpText := tview.NewTextView().
		SetText("Tab/Shift+Tab: navigate fields  |  Arrow keys: change dropdown  |  Enter: confirm  |  Esc: quit").
		SetTextAlign(tview.AlignCenter)
	helpText.SetTextColor(MenuColors.Hint)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(helpText, 1, 0, false)

	setup.form = form
	setup.flex = flex
	return setup
}

// Config returns the configuration currently entered in the form.
func (s *GameSetupUI) Config() engine.GameConfig {
	return s.cfg
}

// Form returns the flex container with form and help text.
func (s *GameSetupUI) Form() *tview.Flex {
	return s.flex
}

// dropDownFocused reports whether a drop-down, open or closed, holds the
// focus. Esc closes an open drop-down instead of leaving the form.
func dropDownFocused(form *tview.Form) bool {
	for i := 0; i < form.GetFormItemCount(); i++ {
		if d, ok := form.GetFormItem(i).(*tview.DropDown); ok && d.HasFocus() {
			return true
		}
	}
	return false
}

// parseSide returns 0 for anything that is not a number, which fails
// validation later.
func parseSide(text string) int {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return n
}

func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
