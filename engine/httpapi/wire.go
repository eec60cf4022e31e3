package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"netsuji/types"
)

// Wire format of the game service. Node ids are "row.col"; colors are
// "Black"/"White" or null.

type wireNode struct {
	RouterOwner *string `json:"router_owner"`
	Controlled  *string `json:"controlled"`
}

type wirePlayer struct {
	Color string  `json:"color"`
	Score float64 `json:"score"`
}

type wireGame struct {
	Height     int                   `json:"height"`
	Width      int                   `json:"width"`
	Graph      map[string]wireNode   `json:"graph"`
	Players    map[string]wirePlayer `json:"players"`
	AIPlayers  []string              `json:"ai_players"`
	Difficulty *string               `json:"difficulty"`
	Turns      map[string]int        `json:"turns"`
	Passes     int                   `json:"passes"`
	Komi       *float64              `json:"komi"`
}

type fetchResponse struct {
	Game     *wireGame `json:"game"`
	GameOver bool      `json:"game_over"`
}

type moveRequest struct {
	Move string `json:"move"`
}

type moveResponse struct {
	ValidMove bool `json:"valid_move"`
}

type createRequest struct {
	Height     int    `json:"height"`
	Width      int    `json:"width"`
	Full       bool   `json:"full"`
	Difficulty string `json:"difficulty"`
}

type createResponse struct {
	GameID gameID `json:"game_id"`
}

// gameID accepts both string and numeric ids.
type gameID string

// UnmarshalJSON allows gameID to be unmarshaled from a JSON string or number.
func (g *gameID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*g = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*g = gameID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("game_id: %w", err)
	}
	*g = gameID(n.String())
	return nil
}

func wireColor(s *string) (types.Color, error) {
	if s == nil {
		return types.NoColor, nil
	}
	return types.ParseColor(*s)
}

// session validates the payload and converts it into a GameSession.
func (w *wireGame) session(id string, over bool) (*types.GameSession, error) {
	if w.Height <= 0 || w.Width <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", w.Height, w.Width)
	}
	if len(w.Graph) != w.Height*w.Width {
		return nil, fmt.Errorf("graph has %d nodes, want %d", len(w.Graph), w.Height*w.Width)
	}

	game := &types.GameSession{
		ID:     id,
		Height: w.Height,
		Width:  w.Width,
		Graph:  make(map[types.Coord]types.NodeState, len(w.Graph)),
		Over:   over,
		Passes: w.Passes,
	}

	for key, node := range w.Graph {
		coord, err := types.ParseCoord(key)
		if err != nil {
			return nil, err
		}
		if !coord.In(w.Height, w.Width) {
			return nil, fmt.Errorf("node %s outside %dx%d board", key, w.Height, w.Width)
		}
		if _, dup := game.Graph[coord]; dup {
			return nil, fmt.Errorf("node %s listed twice", key)
		}
		router, err := wireColor(node.RouterOwner)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", key, err)
		}
		controller, err := wireColor(node.Controlled)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", key, err)
		}
		game.Graph[coord] = types.NodeState{RouterOwner: router, Controller: controller}
	}

	seats, err := w.seats()
	if err != nil {
		return nil, err
	}
	game.Seats = seats

	var difficulty string
	if w.Difficulty != nil {
		difficulty = *w.Difficulty
	}
	if game.Difficulty, err = types.ParseDifficulty(difficulty); err != nil {
		return nil, err
	}

	if total, ok := w.Turns["Total"]; ok {
		if total < 0 {
			return nil, fmt.Errorf("negative turn count %d", total)
		}
		game.Turns = total
		game.TurnsKnown = true
	}
	if w.Komi != nil {
		game.Komi = *w.Komi
	}
	return game, nil
}

// seats orders the two players Black, White and marks the AI seat.
func (w *wireGame) seats() ([2]types.Seat, error) {
	var seats [2]types.Seat
	if len(w.Players) != 2 {
		return seats, fmt.Errorf("expected 2 players, got %d", len(w.Players))
	}
	seen := map[types.Color]bool{}
	for id, p := range w.Players {
		color, err := types.ParseColor(p.Color)
		if err != nil || !color.Valid() {
			return seats, fmt.Errorf("player %s: invalid color %q", id, p.Color)
		}
		if seen[color] {
			return seats, fmt.Errorf("duplicate seat color %s", color)
		}
		seen[color] = true
		idx := 0
		if color == types.White {
			idx = 1
		}
		seats[idx] = types.Seat{Color: color, Score: p.Score}
	}
	for _, raw := range w.AIPlayers {
		color, err := types.ParseColor(raw)
		if err != nil || !color.Valid() {
			return seats, fmt.Errorf("invalid ai player %q", raw)
		}
		for i := range seats {
			if seats[i].Color == color {
				seats[i].AI = true
			}
		}
	}
	if seats[0].AI && seats[1].AI {
		return seats, errors.New("both seats are AI-controlled")
	}
	return seats, nil
}
