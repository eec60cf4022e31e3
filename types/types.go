// Package types contains shared data structures for netsuji.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Color identifies a seat. The zero value means no seat.
type Color string

const (
	NoColor Color = ""
	Black   Color = "Black"
	White   Color = "White"
)

// Valid reports whether c is one of the two seat colors.
func (c Color) Valid() bool {
	return c == Black || c == White
}

// Opponent returns the other seat color.
func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	return NoColor
}

// ParseColor converts a wire color. Empty means no color.
func ParseColor(s string) (Color, error) {
	switch Color(s) {
	case NoColor, Black, White:
		return Color(s), nil
	}
	return NoColor, fmt.Errorf("unknown color %q", s)
}

// Coord is a node position. Its wire form is "row.col".
type Coord struct {
	Row int
	Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("%d.%d", c.Row, c.Col)
}

// In reports whether c lies on a board of the given size.
func (c Coord) In(height, width int) bool {
	return c.Row >= 0 && c.Row < height && c.Col >= 0 && c.Col < width
}

// ParseCoord parses a "row.col" node id.
func ParseCoord(s string) (Coord, error) {
	row, col, ok := strings.Cut(s, ".")
	if !ok {
		return Coord{}, fmt.Errorf("invalid coordinate %q", s)
	}
	r, err := parseIndex(row)
	if err != nil {
		return Coord{}, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	c, err := parseIndex(col)
	if err != nil {
		return Coord{}, fmt.Errorf("invalid coordinate %q: %w", s, err)
	}
	return Coord{Row: r, Col: c}, nil
}

func parseIndex(s string) (int, error) {
	// Atoi accepts signs, node ids never carry one.
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, fmt.Errorf("bad index %q", s)
	}
	return strconv.Atoi(s)
}

// Move is either a node placement or a pass.
type Move struct {
	Coord Coord
	Pass  bool
}

// PassMove is the pass action.
var PassMove = Move{Pass: true}

// Place returns a move at the given node.
func Place(c Coord) Move {
	return Move{Coord: c}
}

// String returns the wire form: "row.col" or "pass".
func (m Move) String() string {
	if m.Pass {
		return "pass"
	}
	return m.Coord.String()
}

// NodeState holds the two independent layers of a node.
// RouterOwner is set at most once; Controller may change any number of times.
type NodeState struct {
	RouterOwner Color
	Controller  Color
}

// Seat is one of the two competing parties.
type Seat struct {
	Color Color
	AI    bool
	Score float64
}

// Difficulty is the AI strength of a session. Unset means human vs human.
type Difficulty string

const (
	DifficultyUnset    Difficulty = ""
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very_hard"
	DifficultyInsane   Difficulty = "insane"
)

// Difficulties lists the AI levels in increasing strength.
var Difficulties = []Difficulty{
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyVeryHard,
	DifficultyInsane,
}

// ParseDifficulty converts a wire difficulty. The service reports "self"
// for sessions without an AI seat.
func ParseDifficulty(s string) (Difficulty, error) {
	if s == "" || s == "self" {
		return DifficultyUnset, nil
	}
	for _, d := range Difficulties {
		if string(d) == s {
			return d, nil
		}
	}
	return DifficultyUnset, fmt.Errorf("unknown difficulty %q", s)
}

// Label returns a display name, e.g. "Very Hard".
func (d Difficulty) Label() string {
	words := strings.Split(string(d), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// GameSession is the authoritative state of one session as last fetched.
// A GameSession is never mutated after it has been published by the
// session client; refreshes replace it.
type GameSession struct {
	ID         string
	Height     int
	Width      int
	Graph      map[Coord]NodeState
	Seats      [2]Seat // Black, White
	Difficulty Difficulty
	Over       bool

	Turns      int
	TurnsKnown bool
	Passes     int
	Komi       float64
}

// Node returns the state at c.
func (g *GameSession) Node(c Coord) NodeState {
	return g.Graph[c]
}

// Seat returns the seat with the given color.
func (g *GameSession) Seat(c Color) (Seat, bool) {
	for _, s := range g.Seats {
		if s.Color == c {
			return s, true
		}
	}
	return Seat{}, false
}

// VersusAI reports whether one of the seats is AI-controlled.
func (g *GameSession) VersusAI() bool {
	_, ok := g.AISeat()
	return ok
}

// AISeat returns the AI-controlled seat, if any.
func (g *GameSession) AISeat() (Seat, bool) {
	for _, s := range g.Seats {
		if s.AI {
			return s, true
		}
	}
	return Seat{}, false
}

// HumanSeat returns the local seat in a human-vs-AI session. In a
// human-vs-human session it returns the first seat.
func (g *GameSession) HumanSeat() Seat {
	for _, s := range g.Seats {
		if !s.AI {
			return s
		}
	}
	return g.Seats[0]
}

// ToMove returns the color on move. ok is false when the service did not
// report a turn counter.
func (g *GameSession) ToMove() (c Color, ok bool) {
	if !g.TurnsKnown {
		return NoColor, false
	}
	if g.Turns%2 == 0 {
		return Black, true
	}
	return White, true
}

// AIToMove reports whether the AI seat is known to be on move.
func (g *GameSession) AIToMove() bool {
	ai, ok := g.AISeat()
	if !ok {
		return false
	}
	c, known := g.ToMove()
	return known && c == ai.Color
}

// Complete reports whether the graph holds exactly one entry per node.
func (g *GameSession) Complete() bool {
	if g.Height <= 0 || g.Width <= 0 || len(g.Graph) != g.Height*g.Width {
		return false
	}
	for c := range g.Graph {
		if !c.In(g.Height, g.Width) {
			return false
		}
	}
	return true
}
