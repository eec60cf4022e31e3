// netsuji is a terminal client for a remote router-territory game service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"netsuji/config"
	"netsuji/engine"
	"netsuji/engine/httpapi"
	"netsuji/logging"
	"netsuji/session"
	"netsuji/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

// Command-line flags
var (
	flagServer     = flag.String("server", "", "Game service URL (overrides config)")
	flagGame       = flag.String("game", "", "Join an existing game by id")
	flagQuickStart = flag.Bool("play", false, "Create a game immediately with the last used settings")
	flagFocus      = flag.Bool("focus", false, "Start in focus mode (fullscreen board)")
	flagVersion    = flag.Bool("version", false, "Print version and exit")
)

const transitionDelay = 150 * time.Millisecond

var app *tview.Application
var rootPage *tview.Pages
var nav *ui.Navigator
var gameBoard *ui.GoBoardUI
var gameFrame *tview.Flex
var gameHint *tview.TextView
var cfg *config.Config
var api *httpapi.Client
var log *zap.Logger

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Printf("netsuji %s\n", Version)
		return
	}

	var err error
	cfg, err = config.InitConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *flagServer != "" {
		cfg.Server.URL = *flagServer
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	log, err = logging.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %s\n", err)
		log = zap.NewNop()
	}
	defer func() { _ = log.Sync() }()

	tokens, err := config.DefaultTokenFile()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	api, err = httpapi.New(cfg.Server.URL, log, tokens)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log.Info("starting", zap.String("version", Version), zap.String("server", cfg.Server.URL))

	quickStart := *flagQuickStart || *flagGame != ""

	app = tview.NewApplication()
	rootPage = tview.NewPages()
	rootPage.SetBorder(true).SetTitle(" ◆ netsuji ")
	nav = ui.NewNavigator(app, rootPage, transitionDelay)

	// Game view setup
	gameHint = tview.NewTextView()
	gameHint.SetBorder(true)
	gameHint.SetBorderPadding(0, 0, 1, 1)
	gameHint.SetTitle(" Status ")
	gameHint.SetTitleAlign(tview.AlignLeft)
	gameBoard = ui.NewGoBoard(app, cfg, gameHint)

	gameFrame = ui.CreateGameLayout(gameBoard, gameHint)

	// Game board input handling
	gameBoard.Box.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyRune && event.Rune() == 'q' {
			if gameBoard.SelectedTile() != nil {
				gameBoard.ResetSelection()
			} else {
				gameBoard.Close()
				nav.Go("setup")
			}
			return nil
		}
		switch event.Key() {
		case tcell.KeyUp:
			gameBoard.MoveSelection(-1, 0)
		case tcell.KeyDown:
			gameBoard.MoveSelection(1, 0)
		case tcell.KeyLeft:
			gameBoard.MoveSelection(0, -1)
		case tcell.KeyRight:
			gameBoard.MoveSelection(0, 1)
		case tcell.KeyEnter:
			if gameBoard.IsFinished() {
				gameBoard.Close()
				nav.Go("setup")
				return nil
			}
			gameBoard.PlayMove()
		case tcell.KeyRune:
			switch event.Rune() {
			case 'h':
				gameBoard.MoveSelection(0, -1)
			case 'j':
				gameBoard.MoveSelection(1, 0)
			case 'k':
				gameBoard.MoveSelection(-1, 0)
			case 'l':
				gameBoard.MoveSelection(0, 1)
			case 'p':
				gameBoard.Pass()
			case 'a':
				gameBoard.RequestAI()
			case 'r':
				gameBoard.Refresh()
			case 'f':
				gameBoard.ToggleFocusMode()
				applyLayout()
			}
		}
		return event
	})

	setupUI := ui.NewGameSetup(
		config.LoadLastGame(),
		startGame,
		joinGame,
		func() {
			nav.Go("account")
		},
		func() {
			app.Stop()
		},
	)

	accountUI := ui.NewAccountUI(app, api, cfg.Server.Timeout, func() {
		nav.Go("setup")
	})

	rootPage.AddPage("setup", ui.CreateCenteredForm(setupUI.Form(), 60), true, !quickStart)
	rootPage.AddPage("gameview", gameFrame, true, quickStart)
	rootPage.AddPage("account", ui.CreateCenteredForm(accountUI.Flex(), 60), true, false)
	accountUI.CheckLogin()

	switch {
	case *flagGame != "":
		joinGame(*flagGame)
	case *flagQuickStart:
		startGame(config.LoadLastGame())
	}
	if quickStart && *flagFocus {
		gameBoard.SetFocusMode(true)
		applyLayout()
	}

	if err := app.SetRoot(rootPage, true).Run(); err != nil {
		panic(err)
	}
}

// startGame validates the setup, creates a session and joins it. Invalid
// input is reported before any request is made.
func startGame(gameCfg engine.GameConfig) {
	if err := gameCfg.Validate(); err != nil {
		showError(err.Error())
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
		defer cancel()
		id, err := api.CreateGame(ctx, gameCfg)
		if err != nil {
			log.Warn("create game failed", zap.Error(err))
			app.QueueUpdateDraw(func() {
				showError(fmt.Sprintf("Failed to create game:\n%s", err))
			})
			return
		}
		if err := config.SaveLastGame(gameCfg); err != nil {
			log.Warn("saving settings failed", zap.Error(err))
		}
		app.QueueUpdateDraw(func() {
			joinGame(id)
		})
	}()
}

// joinGame shows the game view for an existing session.
func joinGame(id string) {
	log.Info("joining game", zap.String("session_id", id))
	gameBoard.ConnectSession(api, id, session.Options{
		Timeout: cfg.Server.Timeout,
		Logger:  log,
	})
	nav.Go("gameview")
}

// applyLayout arranges the game view for the board's focus mode.
func applyLayout() {
	if gameBoard.IsFocusMode() {
		ui.BuildFocusLayout(gameFrame, gameBoard)
		return
	}
	ui.RebuildNormalLayout(gameFrame, gameBoard, gameHint)
}

func showError(text string) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			rootPage.RemovePage("error")
		})
	rootPage.AddPage("error", modal, true, true)
}
