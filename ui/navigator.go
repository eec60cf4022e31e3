package ui

import (
	"time"

	"github.com/rivo/tview"
)

// Navigator switches pages after a short transition during which a dimmed
// blank page is shown.
type Navigator struct {
	app   *tview.Application
	pages *tview.Pages
	delay time.Duration
	fade  *tview.Box
}

const fadePage = "transition"

// NewNavigator wraps pages. A zero delay switches immediately.
func NewNavigator(app *tview.Application, pages *tview.Pages, delay time.Duration) *Navigator {
	fade := tview.NewBox().SetBackgroundColor(MenuColors.Panel)
	pages.AddPage(fadePage, fade, true, false)
	return &Navigator{app: app, pages: pages, delay: delay, fade: fade}
}

// Go switches to the named page. It must be called from the event loop.
func (n *Navigator) Go(name string) {
	if n.delay <= 0 {
		n.pages.SwitchToPage(name)
		return
	}
	n.pages.SwitchToPage(fadePage)
	time.AfterFunc(n.delay, func() {
		n.app.QueueUpdateDraw(func() {
			n.pages.SwitchToPage(name)
		})
	})
}
