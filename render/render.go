// Package render projects a game session onto a drawable plan. It performs
// no I/O and never modifies the session it is given.
package render

import (
	"fmt"

	"netsuji/types"
)

// Cell describes one node: the router layer and the control layer.
// NoColor means no router marker or no stone.
type Cell struct {
	Coord  types.Coord
	Router types.Color
	Stone  types.Color
}

// Plan is everything a view needs to draw one frame of the board.
type Plan struct {
	Height int
	Width  int
	Cells  []Cell // row-major

	Title  string
	Scores string

	Over   bool
	Winner types.Color // NoColor while ongoing or on a tie

	PassEnabled bool
	InputOpen   bool
}

// At returns the cell at c. c must lie on the board.
func (p Plan) At(c types.Coord) Cell {
	return p.Cells[c.Row*p.Width+c.Col]
}

// Board builds the plan for game. unlocked is the current gate state.
// A nil game yields an empty plan with a waiting title.
func Board(game *types.GameSession, unlocked bool) Plan {
	if game == nil {
		return Plan{Title: "Waiting for game..."}
	}

	p := Plan{
		Height: game.Height,
		Width:  game.Width,
		Cells:  make([]Cell, 0, game.Height*game.Width),
		Over:   game.Over,
	}
	for r := 0; r < game.Height; r++ {
		for c := 0; c < game.Width; c++ {
			coord := types.Coord{Row: r, Col: c}
			node := game.Node(coord)
			p.Cells = append(p.Cells, Cell{Coord: coord, Router: node.RouterOwner, Stone: node.Controller})
		}
	}

	if game.Over {
		p.Winner = winner(game)
	}
	if game.VersusAI() {
		p.Title, p.Scores = versusAI(game, p.Winner)
	} else {
		p.Title, p.Scores = versusHuman(game, p.Winner)
	}

	p.PassEnabled = !game.Over
	p.InputOpen = unlocked && !game.Over
	return p
}

func winner(game *types.GameSession) types.Color {
	black, white := game.Seats[0], game.Seats[1]
	switch {
	case black.Score > white.Score:
		return black.Color
	case white.Score > black.Score:
		return white.Color
	}
	return types.NoColor
}

func versusAI(game *types.GameSession, win types.Color) (title, scores string) {
	you := game.HumanSeat()
	ai, _ := game.AISeat()

	scores = fmt.Sprintf("You (%s) - %g  |  AI (%s) - %g", you.Color, you.Score, ai.Color, ai.Score)
	if !game.Over {
		opponent := "AI"
		if game.Difficulty != types.DifficultyUnset {
			opponent = game.Difficulty.Label() + " AI"
		}
		return fmt.Sprintf("You (%s) VS %s (%s)", you.Color, opponent, ai.Color), scores
	}

	switch win {
	case you.Color:
		title = fmt.Sprintf("You (%s) Win!", you.Color)
	case types.NoColor:
		title = fmt.Sprintf("You (%s) Tied!", you.Color)
	default:
		title = fmt.Sprintf("You (%s) Lost.", you.Color)
	}
	return title, scores
}

func versusHuman(game *types.GameSession, win types.Color) (title, scores string) {
	black, white := game.Seats[0], game.Seats[1]
	scores = fmt.Sprintf("%s - %g  |  %s - %g", black.Color, black.Score, white.Color, white.Score)
	switch {
	case !game.Over:
		title = "You VS Other"
	case win == types.NoColor:
		title = "Tied!"
	default:
		title = fmt.Sprintf("%s Wins!", win)
	}
	return title, scores
}
