// Package gating pits a challenger evaluator against a defender evaluator
// over a short match and decides whether the challenger is strong enough to
// replace the defender — the self-play loop's network-promotion check.
//
// Grounded on the teacher's arena.go (Arena.Play's best-agent-vs-current-
// agent match, UpdateThreshold gate in cmd/train/main.go's agogo.Config),
// rebuilt on mcts.Tree/evaluator.Evaluator instead of the teacher's
// dual.Dual network and game.State abstraction.
package gating

import (
	"github.com/notnil/chess"
	"github.com/pkg/errors"

	"github.com/kingside-labs/batchmcts/board"
	"github.com/kingside-labs/batchmcts/evaluator"
	"github.com/kingside-labs/batchmcts/mcts"
)

// Config controls a gating match.
type Config struct {
	Games           int         // total games played, split evenly across colors
	SimsPerMove     int         // simulations spent choosing each move
	UpdateThreshold float64     // challenger win rate required to pass, in [0,1]
	Tree            mcts.Config // search parameters shared by both sides
}

// Result is the aggregate outcome of a gating match.
type Result struct {
	ChallengerWins int
	DefenderWins   int
	Draws          int
}

// Games returns the total number of games played.
func (r Result) Games() int { return r.ChallengerWins + r.DefenderWins + r.Draws }

// WinRate returns the challenger's win rate, counting draws as half a win —
// the same scoring the teacher's UpdateThreshold compared against.
func (r Result) WinRate() float64 {
	if r.Games() == 0 {
		return 0
	}
	return (float64(r.ChallengerWins) + 0.5*float64(r.Draws)) / float64(r.Games())
}

// Passed reports whether the challenger's win rate clears cfg's threshold.
func (r Result) Passed(cfg Config) bool {
	return r.WinRate() >= cfg.UpdateThreshold
}

// Play runs cfg.Games games between challenger and defender, alternating
// which one plays White each game so neither is systematically favored by
// the first-move advantage, and returns the aggregate Result.
func Play(challenger, defender evaluator.Evaluator, cfg Config) (Result, error) {
	var result Result
	for i := 0; i < cfg.Games; i++ {
		challengerIsWhite := i%2 == 0
		outcome, err := playOneGame(challenger, defender, challengerIsWhite, cfg)
		if err != nil {
			return result, errors.Wrapf(err, "gating: game %d", i)
		}
		switch outcome {
		case board.Draw:
			result.Draws++
		case board.WhiteWins:
			if challengerIsWhite {
				result.ChallengerWins++
			} else {
				result.DefenderWins++
			}
		case board.BlackWins:
			if challengerIsWhite {
				result.DefenderWins++
			} else {
				result.ChallengerWins++
			}
		}
	}
	return result, nil
}

func playOneGame(challenger, defender evaluator.Evaluator, challengerIsWhite bool, cfg Config) (board.Outcome, error) {
	tree := mcts.NewTree(board.NewPosition(), cfg.Tree, 1)
	tree.SetTemperatureOverride(0) // gating plays each side's strongest move, not an exploratory sample

	for {
		pos := tree.Position()
		if outcome, terminal := pos.Terminal(); terminal {
			return outcome, nil
		}

		eval := defender
		if (pos.Turn() == chess.White) == challengerIsWhite {
			eval = challenger
		}

		for s := 0; s < cfg.SimsPerMove; s++ {
			if err := mcts.RunSimulation(tree, eval); err != nil {
				return board.Ongoing, err
			}
		}
		if _, err := tree.PlayBestMove(); err != nil {
			return board.Ongoing, err
		}
	}
}
