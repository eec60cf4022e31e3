package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

type menuPalette struct {
	Border     tcell.Color
	Title      tcell.Color
	Label      tcell.Color
	Hint       tcell.Color
	Accent     tcell.Color // status and statistics lines
	Panel      tcell.Color // input fields and the page transition
	ButtonBG   tcell.Color
	ButtonText tcell.Color
}

// MenuColors is the palette of the setup and account pages.
var MenuColors = menuPalette{
	Border:     tcell.PaletteColor(60),
	Title:      tcell.PaletteColor(255),
	Label:      tcell.PaletteColor(250),
	Hint:       tcell.PaletteColor(245),
	Accent:     tcell.PaletteColor(109),
	Panel:      tcell.PaletteColor(236),
	ButtonBG:   tcell.PaletteColor(60),
	ButtonText: tcell.PaletteColor(255),
}

// styleForm gives a menu form its border, title and palette.
func styleForm(form *tview.Form, title string) {
	form.SetBorder(true)
	form.SetBorderColor(MenuColors.Border)
	form.SetTitle(title)
	form.SetTitleColor(MenuColors.Title)
	form.SetTitleAlign(tview.AlignCenter)
	form.SetButtonBackgroundColor(MenuColors.ButtonBG)
	form.SetButtonTextColor(MenuColors.ButtonText)
	form.SetFieldBackgroundColor(MenuColors.Panel)
	form.SetLabelColor(MenuColors.Label)
}
