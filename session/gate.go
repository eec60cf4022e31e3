package session

import (
	"context"
	"sync"

	"netsuji/types"
)

// GateState is the state of the input gate.
type GateState int

const (
	Locked GateState = iota
	Unlocked
)

func (s GateState) String() string {
	if s == Unlocked {
		return "unlocked"
	}
	return "locked"
}

// submitter runs a move submission while the gate is held.
type submitter interface {
	SubmitMove(ctx context.Context, move types.Move) error
}

// Gate decides when a node click or a pass may become a move submission.
// It starts Locked. TryMove moves it Unlocked -> Locked atomically before
// dispatching; only the session client reopens it. A sealed gate (game over)
// stays Locked forever.
type Gate struct {
	mu     sync.Mutex
	state  GateState
	sealed bool
	sub    submitter
}

func newGate(sub submitter) *Gate {
	return &Gate{state: Locked, sub: sub}
}

// State returns the current state.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Sealed reports whether the gate has been closed for good.
func (g *Gate) Sealed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sealed
}

// TryMove submits move if the gate is Unlocked and returns true. While the
// gate is Locked it does nothing and returns false; the action is dropped,
// not queued. TryMove blocks until the submission chain completes.
func (g *Gate) TryMove(ctx context.Context, move types.Move) bool {
	if !g.acquire() {
		return false
	}
	_ = g.sub.SubmitMove(ctx, move)
	return true
}

// acquire performs the Unlocked -> Locked transition.
func (g *Gate) acquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != Unlocked {
		return false
	}
	g.state = Locked
	return true
}

// open performs the Locked -> Unlocked transition unless sealed.
func (g *Gate) open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sealed {
		return false
	}
	g.state = Unlocked
	return true
}

// seal locks the gate permanently.
func (g *Gate) seal() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sealed = true
	g.state = Locked
}
