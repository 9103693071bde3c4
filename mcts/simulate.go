package mcts

import (
	"github.com/kingside-labs/batchmcts/board"
	"github.com/kingside-labs/batchmcts/evaluator"
)

// RunSimulation performs one Select/evaluate/Expand/Update cycle against a
// single Go-native Evaluator: the tree-mechanics equivalent of what
// scheduler.Advance does across a whole sector at once, for callers that
// only ever have one tree in flight (the showtree debug dump, gating
// matches) and so don't need sector-wide batching.
func RunSimulation(t *Tree, eval evaluator.Evaluator) error {
	leaf, err := t.Select()
	if err != nil {
		return err
	}
	if !t.NeedsEvaluation(leaf) {
		t.Update(0)
		return nil
	}

	pos := t.Position()
	legal := pos.LegalMoves(nil)
	if len(legal) == 0 {
		t.MarkTerminal(leaf, terminalValue(pos))
		t.Update(0)
		return nil
	}

	inputs := []evaluator.Input{{
		FEN:        pos.Current().Position().String(),
		LegalMoves: legal,
		Side:       pos.Turn(),
	}}
	outputs, err := eval.Infer(inputs)
	if err != nil {
		return err
	}

	if err := t.Expand(leaf, legal, outputs[0].Priors); err != nil {
		return err
	}
	if leaf == t.RootIndex() {
		t.AddRootNoise()
	}
	t.Update(outputs[0].Value)
	return nil
}

func terminalValue(pos *board.Position) float32 {
	if pos.InCheckmate() {
		return -1
	}
	return 0
}
