package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"netsuji/engine"
	"netsuji/types"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

type registerResponse struct {
	ID any `json:"id"`
}

type authMeResponse struct {
	Login bool `json:"login"`
}

type playerInfoResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// aiStats is one entry of get-player-stats. The service sends an object
// keyed by difficulty; a plain list is accepted too.
type aiStats struct {
	Difficulty string `json:"difficulty"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
	MinTurns   int    `json:"min_turns"`
	MaxTurns   int    `json:"max_turns"`
}

// Me returns the display name of the logged in user.
func (c *Client) Me(ctx context.Context) (string, error) {
	if !c.hasToken() {
		return "", engine.ErrNotLoggedIn
	}
	var me authMeResponse
	if err := c.do(ctx, http.MethodGet, "auth-me", nil, &me); err != nil {
		return "", err
	}
	if !me.Login {
		return "", engine.ErrNotLoggedIn
	}
	var info playerInfoResponse
	if err := c.do(ctx, http.MethodGet, "get-player-info", nil, &info); err != nil {
		return "", err
	}
	if info.Username != "" {
		return info.Username, nil
	}
	name, _, _ := strings.Cut(info.Email, "@")
	return name, nil
}

// Login exchanges credentials for a token and stores it.
func (c *Client) Login(ctx context.Context, email, password string) error {
	if c.tokens == nil {
		return fmt.Errorf("login: no token store configured")
	}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "login-user", credentials{email, password}, &resp); err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return engine.ErrAuthFailed
	}
	if err := c.tokens.SetToken(resp.AccessToken); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, email, password string) error {
	if err := engine.ValidateCredentials(email, password); err != nil {
		return err
	}
	var resp registerResponse
	if err := c.do(ctx, http.MethodPost, "register-user", credentials{email, password}, &resp); err != nil {
		return err
	}
	if resp.ID == nil || resp.ID == "" {
		return engine.ErrAccountExists
	}
	return nil
}

// Logout forgets the stored token.
func (c *Client) Logout() error {
	if c.tokens == nil {
		return nil
	}
	return c.tokens.ClearToken()
}

// Stats returns the user's record per AI difficulty, easiest first. Levels
// never played are omitted.
func (c *Client) Stats(ctx context.Context) ([]engine.AIStats, error) {
	if !c.hasToken() {
		return nil, engine.ErrNotLoggedIn
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "get-player-stats", nil, &raw); err != nil {
		return nil, err
	}
	entries, err := decodeStats(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: get-player-stats: %v", engine.ErrMalformedPayload, err)
	}

	stats := make([]engine.AIStats, 0, len(entries))
	for key, e := range entries {
		name := e.Difficulty
		if name == "" {
			name = key
		}
		d, err := types.ParseDifficulty(name)
		if err != nil {
			return nil, fmt.Errorf("%w: get-player-stats: %v", engine.ErrMalformedPayload, err)
		}
		if d == types.DifficultyUnset {
			continue
		}
		stats = append(stats, engine.AIStats{
			Difficulty: d,
			Wins:       e.Wins,
			Losses:     e.Losses,
			MinTurns:   e.MinTurns,
			MaxTurns:   e.MaxTurns,
		})
	}
	slices.SortFunc(stats, func(a, b engine.AIStats) int {
		return slices.Index(types.Difficulties, a.Difficulty) - slices.Index(types.Difficulties, b.Difficulty)
	})
	return stats, nil
}

func decodeStats(raw json.RawMessage) (map[string]aiStats, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []aiStats
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		byName := make(map[string]aiStats, len(list))
		for i, e := range list {
			byName[fmt.Sprintf("#%d", i)] = e
		}
		return byName, nil
	}
	var byName map[string]aiStats
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, err
	}
	return byName, nil
}

func (c *Client) hasToken() bool {
	if c.tokens == nil {
		return false
	}
	token, err := c.tokens.Token()
	return err == nil && token != ""
}
