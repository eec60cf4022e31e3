package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"netsuji/engine"
)

var (
	settingsFile = "netsuji/last-game.json"
	tokenFile    = "netsuji/token"
)

// LoadLastGame returns the board configuration saved by the last successful
// session creation, or engine.DefaultConfig when nothing valid is stored.
func LoadLastGame() engine.GameConfig {
	absPath, err := xdg.SearchDataFile(settingsFile)
	if err != nil {
		return engine.DefaultConfig()
	}
	return readLastGame(absPath)
}

func readLastGame(path string) engine.GameConfig {
	cfg := engine.DefaultConfig()
	if err := readCfgFile(path, &cfg); err != nil || cfg.Validate() != nil {
		return engine.DefaultConfig()
	}
	return cfg
}

// SaveLastGame stores cfg in the single settings slot.
func SaveLastGame(cfg engine.GameConfig) error {
	absPath, err := xdg.DataFile(settingsFile)
	if err != nil {
		return err
	}
	return saveCfgFile(absPath, cfg, 0664)
}

// TokenFile keeps the bearer token in a file readable only by the user.
type TokenFile struct {
	path string
}

// NewTokenFile returns a store backed by path.
func NewTokenFile(path string) *TokenFile {
	return &TokenFile{path: path}
}

// DefaultTokenFile returns the store in the xdg state dir.
func DefaultTokenFile() (*TokenFile, error) {
	absPath, err := xdg.StateFile(tokenFile)
	if err != nil {
		return nil, err
	}
	return NewTokenFile(absPath), nil
}

// Token returns the stored token, or "" when there is none.
func (t *TokenFile) Token() (string, error) {
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (t *TokenFile) SetToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(t.path, []byte(token), 0600)
}

func (t *TokenFile) ClearToken() error {
	err := os.Remove(t.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
