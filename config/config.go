package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile = "netsuji/config.json"
)

// EnvPrefix prefixes environment overrides, e.g. NETSUJI_SERVER_URL.
const EnvPrefix = "NETSUJI"

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

type ConfigColors struct {
	BoardColor    int `json:"board" mapstructure:"board"`
	BoardColorAlt int `json:"board_alt" mapstructure:"board_alt"`
	BlackColor    int `json:"black" mapstructure:"black"`
	WhiteColor    int `json:"white" mapstructure:"white"`
	LineColor     int `json:"line" mapstructure:"line"`
	RouterBlack   int `json:"router_black" mapstructure:"router_black"`
	RouterWhite   int `json:"router_white" mapstructure:"router_white"`
	CursorColorFG int `json:"cursor_fg" mapstructure:"cursor_fg"`
	CursorColorBG int `json:"cursor_bg" mapstructure:"cursor_bg"`
}

type ConfigSymbols struct {
	Stone       rune `json:"stone" mapstructure:"stone"`
	Router      rune `json:"router" mapstructure:"router"`
	RoutedStone rune `json:"routed_stone" mapstructure:"routed_stone"` // stone on a router node
	BoardSquare rune `json:"board" mapstructure:"board"`
	Cursor      rune `json:"cursor" mapstructure:"cursor"`
}

type Theme struct {
	DrawStoneBackground  bool          `json:"draw_stone_bg" mapstructure:"draw_stone_bg"`
	DrawCursorBackground bool          `json:"draw_cursor_bg" mapstructure:"draw_cursor_bg"`
	UseGridLines         bool          `json:"use_grid_lines" mapstructure:"use_grid_lines"`
	Colors               ConfigColors  `json:"colors" mapstructure:"colors"`
	Symbols              ConfigSymbols `json:"symbols" mapstructure:"symbols"`
}

// ServerConfig locates the game service.
type ServerConfig struct {
	URL     string        `json:"url" mapstructure:"url"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"` // per request
}

type LogConfig struct {
	Level string `json:"level" mapstructure:"level"`
}

type Config struct {
	Server ServerConfig `json:"server" mapstructure:"server"`
	Theme  Theme        `json:"theme" mapstructure:"theme"`
	Log    LogConfig    `json:"log" mapstructure:"log"`
}

// InitConfig loads the config file from the xdg config dirs, if one exists,
// and applies environment overrides on top of DefaultConfig.
func InitConfig() (*Config, error) {
	absPath, err := xdg.SearchConfigFile(cfgFile)
	if err != nil {
		absPath = ""
	}
	return loadConfig(absPath)
}

func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{"server.url", "server.timeout", "log.level"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &InvalidConfig{fmt.Sprintf("reading %s: %v", path, err)}
		}
	}

	config := DefaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, &InvalidConfig{err.Error()}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	s := c.Theme.Symbols
	for _, r := range []rune{s.Stone, s.Router, s.RoutedStone, s.BoardSquare, s.Cursor} {
		if r < 32 || (r >= 127 && r <= 159) {
			return &InvalidConfig{"Unicode characters 1-31 and 127-159 are not allowed"}
		}
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &InvalidConfig{fmt.Sprintf("server url %q must be an absolute http(s) URL", c.Server.URL)}
	}
	if c.Server.Timeout <= 0 {
		return &InvalidConfig{"server timeout must be positive"}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return &InvalidConfig{err.Error()}
	}
	return nil
}

func saveCfgFile(filePath string, a interface{}, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, perm)
}

// readCfgFile decodes filePath into a. A missing file is not an error.
func readCfgFile(filePath string, a interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, a)
}
