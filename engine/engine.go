// Package engine defines the contract with the remote game service.
package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"netsuji/types"
)

var (
	// ErrMalformedPayload is returned when a response cannot be decoded or
	// violates the session invariants.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrNotLoggedIn is returned by account calls that need a token.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrAuthFailed is returned when the service issues no token.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrAccountExists is returned when registration creates no account.
	ErrAccountExists = errors.New("an account with that email already exists")
)

// GameService is the remote, authoritative game service.
// SubmitMove and RequestAIMove report acceptance separately from transport
// errors: a rejected move is (false, nil).
type GameService interface {
	// FetchGame returns the current state of a session.
	FetchGame(ctx context.Context, id string) (*types.GameSession, error)

	// SubmitMove plays a node or a pass for the local seat.
	SubmitMove(ctx context.Context, id string, move types.Move) (bool, error)

	// RequestAIMove asks the service to play the AI seat's turn.
	RequestAIMove(ctx context.Context, id string) (bool, error)

	// CreateGame starts a new session and returns its id.
	CreateGame(ctx context.Context, cfg GameConfig) (string, error)
}

// Account is the authentication collaborator.
type Account interface {
	// Me returns the logged in user name, or ErrNotLoggedIn.
	Me(ctx context.Context) (string, error)
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password string) error
	Logout() error
	// Stats returns the logged in user's record against each AI level.
	Stats(ctx context.Context) ([]AIStats, error)
}

// AIStats is a player's record against one AI difficulty.
type AIStats struct {
	Difficulty types.Difficulty
	Wins       int
	Losses     int
	MinTurns   int // shortest finished game, 0 if unknown
	MaxTurns   int
}

// Games returns the number of finished games.
func (s AIStats) Games() int {
	return s.Wins + s.Losses
}

// Ratio returns the share of games won, or 0 before the first game.
func (s AIStats) Ratio() float64 {
	if s.Games() == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games())
}

// TotalStats sums the records of all levels. Difficulty is left unset.
func TotalStats(stats []AIStats) AIStats {
	var total AIStats
	for _, s := range stats {
		total.Wins += s.Wins
		total.Losses += s.Losses
		if s.MinTurns > 0 && (total.MinTurns == 0 || s.MinTurns < total.MinTurns) {
			total.MinTurns = s.MinTurns
		}
		if s.MaxTurns > total.MaxTurns {
			total.MaxTurns = s.MaxTurns
		}
	}
	return total
}

// Opponent selects who sits in the second seat.
type Opponent string

const (
	OpponentComputer Opponent = "computer"
	OpponentLocal    Opponent = "local"
)

const (
	MinBoardSide = 3
	MaxBoardSide = 20
)

// GameConfig holds configuration for starting a new session.
type GameConfig struct {
	Height     int              `json:"height"`
	Width      int              `json:"width"`
	Full       bool             `json:"full"` // fully connected grid
	Opponent   Opponent         `json:"opponent"`
	Difficulty types.Difficulty `json:"difficulty"` // required when Opponent is OpponentComputer
}

// DefaultConfig returns a reasonable default configuration.
func DefaultConfig() GameConfig {
	return GameConfig{
		Height:     10,
		Width:      10,
		Full:       true,
		Opponent:   OpponentComputer,
		Difficulty: types.DifficultyEasy,
	}
}

// InvalidInput reports a setup form value the client refuses to send.
type InvalidInput struct {
	Field  string
	Reason string
}

func (e *InvalidInput) Error() string {
	return fmt.Sprintf("Invalid %s, %s", e.Field, e.Reason)
}

// Validate checks the configuration before any request is made.
func (c GameConfig) Validate() error {
	side := fmt.Sprintf("ensure your number is between %d and %d inclusive", MinBoardSide, MaxBoardSide)
	if c.Height < MinBoardSide || c.Height > MaxBoardSide {
		return &InvalidInput{Field: "height", Reason: side}
	}
	if c.Width < MinBoardSide || c.Width > MaxBoardSide {
		return &InvalidInput{Field: "width", Reason: side}
	}
	switch c.Opponent {
	case OpponentComputer:
		if c.Difficulty == types.DifficultyUnset {
			return &InvalidInput{Field: "difficulty", Reason: "a computer opponent needs a difficulty"}
		}
		if _, err := types.ParseDifficulty(string(c.Difficulty)); err != nil {
			return &InvalidInput{Field: "difficulty", Reason: err.Error()}
		}
	case OpponentLocal:
	default:
		return &InvalidInput{Field: "opponent", Reason: fmt.Sprintf("unknown opponent %q", c.Opponent)}
	}
	return nil
}

// WireDifficulty is the difficulty sent on creation; local games use "self".
func (c GameConfig) WireDifficulty() string {
	if c.Opponent == OpponentLocal {
		return "self"
	}
	return string(c.Difficulty)
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9]+@[a-zA-Z0-9]+\.[a-zA-Z]+$`)

// MinPasswordLength is the shortest password accepted on registration.
const MinPasswordLength = 8

// ValidateCredentials checks registration input before it is sent.
func ValidateCredentials(email, password string) error {
	if !emailPattern.MatchString(email) {
		return &InvalidInput{Field: "email", Reason: "expected name@domain.tld"}
	}
	if len([]rune(password)) < MinPasswordLength {
		return &InvalidInput{Field: "password", Reason: fmt.Sprintf("must be at least %d characters long", MinPasswordLength)}
	}
	return nil
}
