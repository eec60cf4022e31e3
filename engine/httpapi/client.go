// Package httpapi implements the game service contract over the service's
// JSON HTTP API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"netsuji/engine"
	"netsuji/types"
)

// TokenStore keeps the bearer token between runs.
type TokenStore interface {
	Token() (string, error)
	SetToken(token string) error
	ClearToken() error
}

// Client talks to the game service. It implements engine.GameService and
// engine.Account.
type Client struct {
	base   *url.URL
	http   *http.Client
	log    *zap.Logger
	tokens TokenStore
}

var (
	_ engine.GameService = (*Client)(nil)
	_ engine.Account     = (*Client)(nil)
)

// New creates a client for the service at baseURL. tokens may be nil, in
// which case requests are sent unauthenticated and account calls fail.
func New(baseURL string, log *zap.Logger, tokens TokenStore) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		base:   base,
		http:   &http.Client{},
		log:    log.Named("httpapi"),
		tokens: tokens,
	}, nil
}

// FetchGame returns the current state of a session.
func (c *Client) FetchGame(ctx context.Context, id string) (*types.GameSession, error) {
	var resp fetchResponse
	if err := c.do(ctx, http.MethodGet, url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Game == nil {
		return nil, fmt.Errorf("%w: response has no game", engine.ErrMalformedPayload)
	}
	game, err := resp.Game.session(id, resp.GameOver)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrMalformedPayload, err)
	}
	return game, nil
}

// SubmitMove plays a node or a pass for the local seat.
func (c *Client) SubmitMove(ctx context.Context, id string, move types.Move) (bool, error) {
	var resp moveResponse
	req := moveRequest{Move: move.String()}
	if err := c.do(ctx, http.MethodPut, url.PathEscape(id)+"/move", req, &resp); err != nil {
		return false, err
	}
	return resp.ValidMove, nil
}

// RequestAIMove asks the service to play the AI seat's turn.
func (c *Client) RequestAIMove(ctx context.Context, id string) (bool, error) {
	var resp moveResponse
	if err := c.do(ctx, http.MethodPut, url.PathEscape(id)+"/ai", nil, &resp); err != nil {
		return false, err
	}
	return resp.ValidMove, nil
}

// CreateGame starts a new session and returns its id.
func (c *Client) CreateGame(ctx context.Context, cfg engine.GameConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	req := createRequest{
		Height:     cfg.Height,
		Width:      cfg.Width,
		Full:       cfg.Full,
		Difficulty: cfg.WireDifficulty(),
	}
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "create-game", req, &resp); err != nil {
		return "", err
	}
	if resp.GameID == "" {
		return "", fmt.Errorf("%w: response has no game id", engine.ErrMalformedPayload)
	}
	return string(resp.GameID), nil
}

// do sends a JSON request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	target := c.base.JoinPath(path)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token, err := c.tokens.Token(); err == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	log := c.log.With(
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", target.Path),
	)
	start := time.Now()
	log.Debug("sending request")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, target.Path, err)
	}
	defer resp.Body.Close()

	log.Debug("received response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		log.Warn("unexpected status", zap.Int("status", resp.StatusCode), zap.ByteString("body", snippet))
		return fmt.Errorf("%w: %s %s: %d %s", engine.ErrUnexpectedStatus, method, target.Path,
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Warn("invalid response body", zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", engine.ErrMalformedPayload, method, target.Path, err)
	}
	return nil
}
