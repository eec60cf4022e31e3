package config

import "time"

var DefaultConfig Config
var DefaultTheme Theme

func init() {
	DefaultTheme = Theme{
		DrawStoneBackground:  false,
		DrawCursorBackground: true,
		UseGridLines:         true,
		Colors: ConfigColors{
			BoardColor:    180,
			BoardColorAlt: 180,
			BlackColor:    232,
			WhiteColor:    255,
			LineColor:     94,
			RouterBlack:   88,
			RouterWhite:   27,
			CursorColorFG: 2,
			CursorColorBG: 4,
		},
		Symbols: ConfigSymbols{
			Stone:       '●',
			Router:      '◆',
			RoutedStone: '◉',
			BoardSquare: '┼',
			Cursor:      '┼',
		},
	}

	DefaultConfig = Config{
		Server: ServerConfig{
			URL:     "http://localhost:8000",
			Timeout: 10 * time.Second,
		},
		Theme: DefaultTheme,
		Log: LogConfig{
			Level: "info",
		},
	}
}
