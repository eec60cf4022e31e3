package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"

	"netsuji/engine"
	"netsuji/types"
)

// AccountUI is the login/register page.
type AccountUI struct {
	form    *tview.Form
	flex    *tview.Flex
	status  *tview.TextView
	stats   *tview.TextView
	app     *tview.Application
	account engine.Account
	timeout time.Duration

	email    string
	password string
}

// NewAccountUI builds the page. onBack returns to the previous page.
func NewAccountUI(app *tview.Application, account engine.Account, timeout time.Duration, onBack func()) *AccountUI {
	a := &AccountUI{
		app:     app,
		account: account,
		timeout: timeout,
		status:  tview.NewTextView().SetTextAlign(tview.AlignCenter),
		stats:   tview.NewTextView(),
	}

	form := tview.NewForm()
	form.AddInputField("Email", "", 32, nil, func(text string) {
		a.email = text
	})
	form.AddPasswordField("Password", "", 32, '*', func(text string) {
		a.password = text
	})
	form.AddButton("Login", a.login)
	form.AddButton("Register", a.register)
	form.AddButton("Logout", func() {
		if err := a.account.Logout(); err != nil {
			a.setStatus(err.Error())
			return
		}
		a.setStatus("Logged out")
		a.stats.SetText("")
	})
	form.AddButton("Back", onBack)

	styleForm(form, " Account ")
	form.SetCancelFunc(onBack)

	a.status.SetTextColor(MenuColors.Accent)
	a.stats.SetTextColor(MenuColors.Label)
	a.stats.SetBorder(true).
		SetBorderColor(MenuColors.Border).
		SetTitle(" Record vs AI ").
		SetTitleColor(MenuColors.Title)
	a.flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(a.status, 1, 0, false).
		AddItem(a.stats, len(types.Difficulties)+4, 0, false)
	a.form = form
	return a
}

// Flex returns the page.
func (a *AccountUI) Flex() *tview.Flex {
	return a.flex
}

// CheckLogin shows who is logged in and their record. Safe to call from
// any goroutine.
func (a *AccountUI) CheckLogin() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		name, err := a.account.Me(ctx)
		var stats []engine.AIStats
		var statsErr error
		if err == nil {
			stats, statsErr = a.account.Stats(ctx)
		}
		a.app.QueueUpdateDraw(func() {
			a.setStatus(loginStatus(name, err))
			switch {
			case err != nil:
				a.stats.SetText("")
			case statsErr != nil:
				a.stats.SetText(" " + statsErr.Error())
			default:
				a.stats.SetText(statsText(stats))
			}
		})
	}()
}

func loginStatus(name string, err error) string {
	switch {
	case errors.Is(err, engine.ErrNotLoggedIn):
		return "Not logged in"
	case err != nil:
		return err.Error()
	}
	return fmt.Sprintf("Logged in as %s", name)
}

func (a *AccountUI) login() {
	email, password := a.email, a.password
	a.run("Logging in...", func(ctx context.Context) error {
		return a.account.Login(ctx, email, password)
	})
}

func (a *AccountUI) register() {
	email, password := a.email, a.password
	if err := engine.ValidateCredentials(email, password); err != nil {
		a.setStatus(err.Error())
		return
	}
	a.run("Registering...", func(ctx context.Context) error {
		if err := a.account.Register(ctx, email, password); err != nil {
			return err
		}
		return a.account.Login(ctx, email, password)
	})
}

// run executes op off the event loop and reports the login state afterwards.
// op must not read fields written by the form.
func (a *AccountUI) run(pending string, op func(ctx context.Context) error) {
	a.setStatus(pending)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()
		if err := op(ctx); err != nil {
			a.app.QueueUpdateDraw(func() {
				a.setStatus(err.Error())
			})
			return
		}
		a.CheckLogin()
	}()
}

// statsText lays out one line per difficulty and a total.
func statsText(stats []engine.AIStats) string {
	if len(stats) == 0 {
		return " No games against the AI yet"
	}
	var b strings.Builder
	fmt.Fprintf(&b, " %-10s %4s %4s %6s %6s\n", "Level", "W", "L", "Games", "Won")
	line := func(label string, s engine.AIStats) {
		fmt.Fprintf(&b, " %-10s %4d %4d %6d %5.0f%%\n", label, s.Wins, s.Losses, s.Games(), s.Ratio()*100)
	}
	for _, s := range stats {
		line(s.Difficulty.Label(), s)
	}
	line("Total", engine.TotalStats(stats))
	return strings.TrimSuffix(b.String(), "\n")
}

func (a *AccountUI) setStatus(text string) {
	a.status.SetText(text)
}
