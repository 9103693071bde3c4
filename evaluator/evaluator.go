// Package evaluator defines the batched policy/value black box the
// scheduler calls out to, generalizing the teacher's Inferencer interface
// (mcts/search.go: Infer(state) (policy, value)) to a batched signature —
// spec.md §1 treats the neural network itself as out of scope.
package evaluator

import (
	"github.com/notnil/chess"

	"github.com/kingside-labs/batchmcts/move"
)

// Input is one leaf position awaiting evaluation.
type Input struct {
	FEN        string
	LegalMoves []move.Move
	Side       chess.Color
}

// Output is the evaluator's response to one Input: a prior probability per
// entry of LegalMoves (same order, same length) and a scalar value from
// Side's perspective in [-1, 1].
type Output struct {
	Priors []float32
	Value  float32
}

// Evaluator infers policy/value pairs for a batch of leaf positions in one
// call, the shape the scheduler's sector-based batching requires.
type Evaluator interface {
	Infer(inputs []Input) ([]Output, error)
}

// UniformEvaluator is a reference/test Evaluator: every move in a position
// gets an equal prior and every position is valued at 0. Useful for
// exercising search mechanics without a real network (spec.md §8's
// "uniform policy, zero q on every update" scenario).
type UniformEvaluator struct{}

// Infer implements Evaluator.
func (UniformEvaluator) Infer(inputs []Input) ([]Output, error) {
	out := make([]Output, len(inputs))
	for i, in := range inputs {
		n := len(in.LegalMoves)
		priors := make([]float32, n)
		if n > 0 {
			p := 1.0 / float32(n)
			for j := range priors {
				priors[j] = p
			}
		}
		out[i] = Output{Priors: priors, Value: 0}
	}
	return out, nil
}
