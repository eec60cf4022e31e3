package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"netsuji/engine"
	"netsuji/types"
)

var errNetwork = errors.New("connection refused")

// fakeService is an in-memory game service. Every call is appended to calls
// so tests can assert on the exact sequence.
type fakeService struct {
	mu    sync.Mutex
	state *types.GameSession
	calls []string

	rejectMove bool
	rejectAI   bool
	fetchErr   error
	moveErr    error
	aiErr      error

	// afterMove and afterAI mutate the authoritative state when a move is
	// accepted.
	afterMove func(g *types.GameSession, m types.Move)
	afterAI   func(g *types.GameSession)
	// onMove runs inside SubmitMove before it returns.
	onMove func()
	// blockFetch makes FetchGame wait for its context.
	blockFetch bool
}

func (f *fakeService) FetchGame(ctx context.Context, id string) (*types.GameSession, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "fetch")
	block, err := f.blockFetch, f.fetchErr
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneSession(f.state), nil
}

func (f *fakeService) SubmitMove(ctx context.Context, id string, m types.Move) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "move:"+m.String())
	hook := f.onMove
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.moveErr != nil {
		return false, f.moveErr
	}
	if f.rejectMove {
		return false, nil
	}
	if f.afterMove != nil {
		f.afterMove(f.state, m)
	}
	f.state.Turns++
	return true, nil
}

func (f *fakeService) RequestAIMove(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "ai")
	if f.aiErr != nil {
		return false, f.aiErr
	}
	if f.rejectAI {
		return false, nil
	}
	if f.afterAI != nil {
		f.afterAI(f.state)
	}
	f.state.Turns++
	return true, nil
}

func (f *fakeService) CreateGame(ctx context.Context, cfg engine.GameConfig) (string, error) {
	return "new", nil
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeService) set(fn func(f *fakeService)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func cloneSession(g *types.GameSession) *types.GameSession {
	c := *g
	c.Graph = make(map[types.Coord]types.NodeState, len(g.Graph))
	for k, v := range g.Graph {
		c.Graph[k] = v
	}
	return &c
}

// newBoard returns an empty session: Black human, White AI on easy.
func newBoard(height, width int) *types.GameSession {
	g := &types.GameSession{
		ID:         "g-1",
		Height:     height,
		Width:      width,
		Graph:      map[types.Coord]types.NodeState{},
		Seats:      [2]types.Seat{{Color: types.Black}, {Color: types.White, AI: true}},
		Difficulty: types.DifficultyEasy,
		TurnsKnown: true,
	}
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			g.Graph[types.Coord{Row: r, Col: c}] = types.NodeState{}
		}
	}
	return g
}

func humanVsHuman(g *types.GameSession) *types.GameSession {
	g.Seats[1].AI = false
	g.Difficulty = types.DifficultyUnset
	return g
}

func newTestClient(t *testing.T, svc *fakeService) (*Client, *[]Snapshot) {
	t.Helper()
	var mu sync.Mutex
	var snaps []Snapshot
	c := NewClient(svc, "g-1", Options{
		Timeout: time.Second,
		Logger:  zaptest.NewLogger(t),
		OnUpdate: func(s Snapshot) {
			mu.Lock()
			snaps = append(snaps, s)
			mu.Unlock()
		},
	})
	return c, &snaps
}

func started(t *testing.T, svc *fakeService) *Client {
	t.Helper()
	c, _ := newTestClient(t, svc)
	require.NoError(t, c.Start(context.Background()))
	require.Equal(t, Unlocked, c.Gate().State())
	svc.resetCalls()
	return c
}

func coord(r, c int) types.Coord {
	return types.Coord{Row: r, Col: c}
}

func placeFor(color types.Color) func(g *types.GameSession, m types.Move) {
	return func(g *types.GameSession, m types.Move) {
		if m.Pass {
			g.Passes++
			return
		}
		n := g.Graph[m.Coord]
		n.Controller = color
		g.Graph[m.Coord] = n
	}
}

func TestStartUnlocksForHuman(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3)}
	c, snaps := newTestClient(t, svc)

	require.Equal(t, Locked, c.Gate().State())
	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, []string{"fetch"}, svc.Calls())
	assert.Equal(t, Unlocked, c.Gate().State())
	require.NotNil(t, c.Session())
	assert.Len(t, c.Session().Graph, 9)
	require.NotEmpty(t, *snaps)
	last := (*snaps)[len(*snaps)-1]
	assert.True(t, last.Unlocked)
	assert.NoError(t, last.Err)

	// A second Start is a no-op.
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, []string{"fetch"}, svc.Calls())
}

func TestStartRequestsOpeningAIMove(t *testing.T) {
	board := newBoard(3, 3)
	board.Seats = [2]types.Seat{{Color: types.Black, AI: true}, {Color: types.White}}
	svc := &fakeService{state: board, afterAI: func(g *types.GameSession) {
		g.Graph[coord(0, 0)] = types.NodeState{Controller: types.Black}
	}}
	c, _ := newTestClient(t, svc)

	require.NoError(t, c.Start(context.Background()))

	assert.Equal(t, []string{"fetch", "ai", "fetch"}, svc.Calls())
	assert.Equal(t, Unlocked, c.Gate().State())
	assert.Equal(t, types.Black, c.Session().Node(coord(0, 0)).Controller)
}

func TestStartFailureKeepsGateLocked(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3), fetchErr: errNetwork}
	c, snaps := newTestClient(t, svc)

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errNetwork))
	assert.Equal(t, Locked, c.Gate().State())
	assert.Nil(t, c.Session())
	require.NotEmpty(t, *snaps)
	assert.Error(t, (*snaps)[len(*snaps)-1].Err)

	svc.set(func(f *fakeService) { f.fetchErr = nil })
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, Unlocked, c.Gate().State())
	assert.NoError(t, c.Snapshot().Err)
}

func TestStartTimesOut(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3), blockFetch: true}
	c := NewClient(svc, "g-1", Options{Timeout: 20 * time.Millisecond})

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, Locked, c.Gate().State())
}

func TestAcceptedMoveTriggersOneAIMove(t *testing.T) {
	svc := &fakeService{
		state:     newBoard(3, 3),
		afterMove: placeFor(types.Black),
		afterAI: func(g *types.GameSession) {
			g.Graph[coord(0, 0)] = types.NodeState{Controller: types.White}
		},
	}
	c := started(t, svc)

	var during []GateState
	svc.set(func(f *fakeService) {
		f.onMove = func() { during = append(during, c.Gate().State()) }
	})

	require.True(t, c.TryMove(context.Background(), types.Place(coord(1, 1))))

	assert.Equal(t, []string{"move:1.1", "fetch", "ai", "fetch"}, svc.Calls())
	assert.Equal(t, []GateState{Locked}, during)
	assert.Equal(t, Unlocked, c.Gate().State())

	game := c.Session()
	assert.Equal(t, types.Black, game.Node(coord(1, 1)).Controller)
	assert.Equal(t, types.White, game.Node(coord(0, 0)).Controller)
	assert.Len(t, game.Graph, 9)
}

func TestRejectedMoveLeavesSessionUnchanged(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3), rejectMove: true}
	c := started(t, svc)
	before := c.Session()

	require.True(t, c.TryMove(context.Background(), types.Place(coord(2, 2))))

	assert.Equal(t, []string{"move:2.2"}, svc.Calls())
	assert.Same(t, before, c.Session())
	assert.Equal(t, Unlocked, c.Gate().State())
}

func TestTryMoveWhileLockedMakesNoCall(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3)}
	c, _ := newTestClient(t, svc)

	assert.False(t, c.TryMove(context.Background(), types.PassMove))
	assert.Empty(t, svc.Calls())
}

func TestConcurrentClicksSubmitOnce(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3), afterMove: placeFor(types.Black)}
	c := started(t, svc)

	entered := make(chan struct{})
	release := make(chan struct{})
	svc.set(func(f *fakeService) {
		f.onMove = func() {
			close(entered)
			<-release
		}
	})

	done := make(chan bool)
	go func() { done <- c.TryMove(context.Background(), types.Place(coord(0, 1))) }()
	<-entered

	// The first submission is in flight; further input is dropped.
	assert.False(t, c.TryMove(context.Background(), types.Place(coord(0, 2))))
	assert.False(t, c.TryMove(context.Background(), types.PassMove))
	assert.False(t, c.TryAIMove(context.Background()))

	close(release)
	assert.True(t, <-done)
	assert.Equal(t, []string{"move:0.1", "fetch", "ai", "fetch"}, svc.Calls())
}

func TestPassEndingGameSealsGate(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3)}
	svc.afterMove = func(g *types.GameSession, m types.Move) {
		g.Over = true
		g.Seats[0].Score = 5
		g.Seats[1].Score = 3
	}
	c := started(t, svc)

	require.True(t, c.TryMove(context.Background(), types.PassMove))

	assert.Equal(t, []string{"move:pass", "fetch"}, svc.Calls())
	assert.True(t, c.Session().Over)
	assert.Equal(t, Locked, c.Gate().State())
	assert.True(t, c.Gate().Sealed())

	// A later refresh claiming the game is running does not reopen input.
	svc.set(func(f *fakeService) { f.state.Over = false })
	game, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, game.Over)
	assert.Equal(t, Locked, c.Gate().State())
	assert.False(t, c.TryMove(context.Background(), types.PassMove))
	assert.False(t, c.TryAIMove(context.Background()))
}

func TestHumanVsHumanNeverCallsAI(t *testing.T) {
	svc := &fakeService{state: humanVsHuman(newBoard(4, 4)), afterMove: placeFor(types.Black)}
	c := started(t, svc)

	require.True(t, c.TryMove(context.Background(), types.Place(coord(3, 3))))

	assert.Equal(t, []string{"move:3.3", "fetch"}, svc.Calls())
	assert.Equal(t, Unlocked, c.Gate().State())
	assert.False(t, c.TryAIMove(context.Background()))
}

func TestRejectedAIMoveReopensWithoutRefresh(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3), rejectAI: true}
	c := started(t, svc)

	require.True(t, c.TryMove(context.Background(), types.Place(coord(1, 0))))

	assert.Equal(t, []string{"move:1.0", "fetch", "ai"}, svc.Calls())
	assert.Equal(t, Unlocked, c.Gate().State())
}

func TestTransportFailureReopensGate(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3), moveErr: errNetwork}
	c := started(t, svc)
	before := c.Session()

	require.True(t, c.TryMove(context.Background(), types.Place(coord(1, 1))))

	assert.Equal(t, Unlocked, c.Gate().State())
	assert.Same(t, before, c.Session())
	snap := c.Snapshot()
	require.Error(t, snap.Err)
	assert.True(t, errors.Is(snap.Err, errNetwork))

	// The next successful refresh clears the error.
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)
	assert.NoError(t, c.Snapshot().Err)
}

func TestAIFailureCanBeRetried(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3), aiErr: errNetwork}
	c := started(t, svc)

	require.True(t, c.TryMove(context.Background(), types.Place(coord(1, 1))))
	assert.Equal(t, Unlocked, c.Gate().State())
	assert.Error(t, c.Snapshot().Err)

	svc.set(func(f *fakeService) { f.aiErr = nil })
	svc.resetCalls()
	require.True(t, c.TryAIMove(context.Background()))
	assert.Equal(t, []string{"ai", "fetch"}, svc.Calls())
	assert.Equal(t, Unlocked, c.Gate().State())
}

func TestFailedRefreshAfterMoveLeavesAITurnOwed(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3)}
	svc.onMove = func() {
		svc.set(func(f *fakeService) { f.fetchErr = errNetwork })
	}
	c := started(t, svc)
	assert.False(t, c.Snapshot().AIOwed)

	require.True(t, c.TryMove(context.Background(), types.Place(coord(1, 1))))
	assert.Equal(t, []string{"move:1.1", "fetch"}, svc.Calls())
	snap := c.Snapshot()
	assert.True(t, snap.Unlocked)
	assert.Error(t, snap.Err)
	assert.True(t, snap.AIOwed)

	svc.set(func(f *fakeService) {
		f.fetchErr = nil
		f.onMove = nil
	})
	svc.resetCalls()
	require.True(t, c.TryAIMove(context.Background()))
	assert.Equal(t, []string{"ai", "fetch"}, svc.Calls())
	snap = c.Snapshot()
	assert.NoError(t, snap.Err)
	assert.False(t, snap.AIOwed)
}

func TestRejectedAIMoveStaysOwed(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3), rejectAI: true}
	c := started(t, svc)

	require.True(t, c.TryMove(context.Background(), types.Place(coord(0, 0))))
	assert.True(t, c.Snapshot().AIOwed)

	svc.set(func(f *fakeService) { f.rejectAI = false })
	require.True(t, c.TryAIMove(context.Background()))
	assert.False(t, c.Snapshot().AIOwed)
}

func TestHumanVsHumanNeverOwesAI(t *testing.T) {
	svc := &fakeService{state: humanVsHuman(newBoard(3, 3))}
	c := started(t, svc)
	require.True(t, c.TryMove(context.Background(), types.Place(coord(0, 1))))
	assert.False(t, c.Snapshot().AIOwed)
}

func TestRefreshKeepsRouterOwners(t *testing.T) {
	board := newBoard(3, 3)
	board.Graph[coord(1, 1)] = types.NodeState{RouterOwner: types.White, Controller: types.White}
	svc := &fakeService{state: board}
	c := started(t, svc)

	svc.set(func(f *fakeService) {
		f.state.Graph[coord(1, 1)] = types.NodeState{Controller: types.Black}
		f.state.Graph[coord(0, 0)] = types.NodeState{RouterOwner: types.Black}
	})
	game, err := c.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.NodeState{RouterOwner: types.White, Controller: types.Black}, game.Node(coord(1, 1)))
	assert.Equal(t, types.Black, game.Node(coord(0, 0)).RouterOwner)
}

func TestRefreshRejectsChangedDimensions(t *testing.T) {
	svc := &fakeService{state: newBoard(3, 3)}
	c := started(t, svc)
	before := c.Session()

	svc.set(func(f *fakeService) { f.state = newBoard(4, 4) })
	_, err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionChanged))
	assert.Same(t, before, c.Session())
}

func TestRefreshRejectsIncompleteGraph(t *testing.T) {
	board := newBoard(3, 3)
	delete(board.Graph, coord(2, 2))
	svc := &fakeService{state: board}
	c, _ := newTestClient(t, svc)

	err := c.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrMalformedPayload))
	assert.Nil(t, c.Session())
	assert.Equal(t, Locked, c.Gate().State())
}

func TestGraphCompleteAfterEveryRefresh(t *testing.T) {
	svc := &fakeService{state: newBoard(5, 4), afterMove: placeFor(types.Black)}
	c := started(t, svc)
	for i := 0; i < 5; i++ {
		require.True(t, c.TryMove(context.Background(), types.Place(coord(i, i%4))), fmt.Sprintf("move %d", i))
		assert.Len(t, c.Session().Graph, 20)
	}
}
