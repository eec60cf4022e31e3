// Package session keeps a local view of a remote game session and sequences
// the moves made against it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"netsuji/engine"
	"netsuji/types"
)

// ErrSessionChanged is returned when a refresh reports a board of a
// different size than the cached one.
var ErrSessionChanged = errors.New("session changed dimensions")

// Snapshot is passed to the update callback after every state replacement
// and every gate transition made by the client.
type Snapshot struct {
	Game     *types.GameSession // nil until the first successful refresh
	Unlocked bool
	Err      error // last failed call, cleared by the next successful refresh
	// AIOwed is set when the AI seat has a turn the client has not yet
	// seen played, e.g. the AI request or the refresh before it failed.
	AIOwed bool
}

// Options configures a Client.
type Options struct {
	Timeout  time.Duration // per request; zero means no limit
	Logger   *zap.Logger
	OnUpdate func(Snapshot)
}

// Client owns the cached session and the input gate. At most one chain of
// remote calls that mutates the session runs at a time: every chain starts
// by acquiring the gate.
type Client struct {
	svc     engine.GameService
	id      string
	gate    *Gate
	log     *zap.Logger
	timeout time.Duration

	startMu sync.Mutex

	mu       sync.RWMutex
	game     *types.GameSession
	lastErr  error
	aiOwed   bool
	onUpdate func(Snapshot)
}

// NewClient creates a client for the session with the given id. The gate
// stays Locked until Start succeeds.
func NewClient(svc engine.GameService, id string, opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		svc:      svc,
		id:       id,
		log:      log.Named("session").With(zap.String("session_id", id)),
		timeout:  opts.Timeout,
		onUpdate: opts.OnUpdate,
	}
	c.gate = newGate(c)
	return c
}

// ID returns the session id.
func (c *Client) ID() string {
	return c.id
}

// Gate returns the input gate.
func (c *Client) Gate() *Gate {
	return c.gate
}

// Session returns the cached session, or nil before the first refresh.
// The returned value must not be modified.
func (c *Client) Session() *types.GameSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.game
}

// Snapshot returns the cached session together with the gate state.
func (c *Client) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Game:     c.game,
		Unlocked: c.gate.State() == Unlocked,
		Err:      c.lastErr,
		AIOwed:   c.aiOwed && c.game != nil && !c.game.Over,
	}
}

// Start performs the first refresh and decides who acts first. If the AI
// seat is known to be on move its turn is requested before the gate opens.
// Start does nothing once a session has been loaded; after a failure it may
// be called again.
func (c *Client) Start(ctx context.Context) error {
	if !c.startMu.TryLock() {
		return nil
	}
	defer c.startMu.Unlock()
	if c.Session() != nil {
		return nil
	}

	game, err := c.Refresh(ctx)
	if err != nil {
		return err
	}
	if game.Over {
		return nil
	}
	if game.AIToMove() {
		c.log.Debug("ai seat opens the game")
		c.setAIOwed(true)
		return c.RequestAIMove(ctx)
	}
	c.reopen()
	return nil
}

// Refresh fetches the session, replaces the cache and notifies the update
// callback. It is safe to call at any time.
func (c *Client) Refresh(ctx context.Context) (*types.GameSession, error) {
	rctx, cancel := c.withTimeout(ctx)
	next, err := c.svc.FetchGame(rctx, c.id)
	cancel()
	if err != nil {
		err = fmt.Errorf("refresh: %w", err)
		c.setErr(err)
		c.notify()
		return nil, err
	}

	c.mu.Lock()
	next, err = reconcile(c.game, next, c.log)
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		c.log.Warn("refresh rejected", zap.Error(err))
		c.notify()
		return nil, err
	}
	c.game = next
	c.lastErr = nil
	c.mu.Unlock()

	if next.Over {
		c.gate.seal()
	}
	c.notify()
	return next, nil
}

// SubmitMove sends a move for the local seat. The caller must hold the gate;
// use TryMove from input handlers. A rejected move leaves the session
// untouched and reopens the gate. An accepted move is followed by a refresh
// and, in a human-vs-AI session that is not over, exactly one AI move.
func (c *Client) SubmitMove(ctx context.Context, move types.Move) error {
	log := c.log.With(zap.Stringer("move", move))

	rctx, cancel := c.withTimeout(ctx)
	accepted, err := c.svc.SubmitMove(rctx, c.id, move)
	cancel()
	if err != nil {
		return c.failOpen("submit move", err)
	}
	if !accepted {
		log.Info("move rejected")
		c.reopen()
		return nil
	}
	log.Debug("move accepted")
	if prev := c.Session(); prev != nil && prev.VersusAI() {
		c.setAIOwed(true)
	}

	game, err := c.Refresh(ctx)
	if err != nil {
		c.reopen()
		return err
	}
	if game.Over {
		log.Info("game over")
		return nil
	}
	if game.VersusAI() {
		return c.RequestAIMove(ctx)
	}
	c.reopen()
	return nil
}

// RequestAIMove asks the service to play the AI seat. The gate is reopened
// whether or not the service accepts, so the board never stays stuck.
func (c *Client) RequestAIMove(ctx context.Context) error {
	rctx, cancel := c.withTimeout(ctx)
	accepted, err := c.svc.RequestAIMove(rctx, c.id)
	cancel()
	if err != nil {
		return c.failOpen("ai move", err)
	}
	if !accepted {
		c.log.Info("ai move rejected")
		c.reopen()
		return nil
	}
	c.setAIOwed(false)
	if _, err := c.Refresh(ctx); err != nil {
		c.reopen()
		return err
	}
	c.reopen()
	return nil
}

// TryMove is the entry point for node clicks and the pass action.
// See Gate.TryMove.
func (c *Client) TryMove(ctx context.Context, move types.Move) bool {
	return c.gate.TryMove(ctx, move)
}

// TryAIMove requests an AI move on behalf of the local seat, e.g. after an
// earlier AI request failed. Like TryMove it is a no-op while Locked.
func (c *Client) TryAIMove(ctx context.Context) bool {
	game := c.Session()
	if game == nil || game.Over || !game.VersusAI() {
		return false
	}
	if !c.gate.acquire() {
		return false
	}
	_ = c.RequestAIMove(ctx)
	return true
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// failOpen handles a transport failure: the error is recorded for display and
// the gate reopens so the user can try again.
func (c *Client) failOpen(op string, err error) error {
	err = fmt.Errorf("%s: %w", op, err)
	c.log.Warn("request failed", zap.Error(err))
	c.setErr(err)
	c.reopen()
	return err
}

func (c *Client) reopen() {
	c.gate.open()
	c.notify()
}

func (c *Client) setAIOwed(owed bool) {
	c.mu.Lock()
	c.aiOwed = owed
	c.mu.Unlock()
}

func (c *Client) setErr(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Client) notify() {
	if c.onUpdate == nil {
		return
	}
	c.onUpdate(c.Snapshot())
}

// reconcile checks next against the cached session. next has not been
// published yet and is adjusted in place.
func reconcile(prev, next *types.GameSession, log *zap.Logger) (*types.GameSession, error) {
	if !next.Complete() {
		return nil, fmt.Errorf("%w: graph does not cover the %dx%d board",
			engine.ErrMalformedPayload, next.Height, next.Width)
	}
	if prev == nil {
		return next, nil
	}
	if prev.Height != next.Height || prev.Width != next.Width {
		return nil, fmt.Errorf("%w: %dx%d became %dx%d", ErrSessionChanged,
			prev.Height, prev.Width, next.Height, next.Width)
	}
	if prev.Over && !next.Over {
		log.Warn("service reported a finished game as running")
		next.Over = true
	}
	for coord, old := range prev.Graph {
		if old.RouterOwner == types.NoColor {
			continue
		}
		node := next.Graph[coord]
		if node.RouterOwner != old.RouterOwner {
			log.Warn("router owner changed, keeping the first owner",
				zap.Stringer("node", coord),
				zap.String("owner", string(old.RouterOwner)),
				zap.String("reported", string(node.RouterOwner)),
			)
			node.RouterOwner = old.RouterOwner
			next.Graph[coord] = node
		}
	}
	return next, nil
}
