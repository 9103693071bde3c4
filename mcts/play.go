package mcts

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/kingside-labs/batchmcts/board"
	"github.com/kingside-labs/batchmcts/move"
)

// AddRootNoise mixes Dirichlet exploration noise into the root's child
// priors. Callers should invoke it exactly once, immediately after the
// first Expand of a fresh root (spec.md §4.5; AlphaZero adds noise at the
// real root of every move, not just the start of the game).
func (t *Tree) AddRootNoise() { t.addRootNoise() }

// Policy returns the root's materialized children as parallel
// move/visit-count slices — the raw statistics the self-play driver turns
// into a training policy target (spec.md §4.5/§5).
func (t *Tree) Policy() (moves []move.Move, visits []uint32) {
	root := &t.nodes[t.rootIdx]
	n := int(root.numExpanded)
	moves = make([]move.Move, n)
	visits = make([]uint32, n)
	for i := 0; i < n; i++ {
		idx := int32(t.refs.Uint32(root.childRefOff + uint32(i)*childRefSize))
		child := &t.nodes[idx]
		moves[i] = child.move
		visits[i] = child.Visits()
	}
	return moves, visits
}

// Temperature returns the temperature PlayBestMove would currently use,
// given moveNumber and cfg.TemperaturePlies (spec.md §4.5's 40-ply/configurable
// temperature drop).
func (t *Tree) Temperature() float32 {
	if t.hasTempOverride {
		return t.tempOverride
	}
	if t.moveNumber < t.cfg.TemperaturePlies {
		return t.cfg.ExploreTemperature
	}
	return t.cfg.ExploitTemperature
}

// PlayBestMove samples (or, at zero temperature, argmaxes) among the root's
// materialized children weighted by visit count, plays the chosen move on
// the position, reuses that child as the new root, and advances
// moveNumber. It rewinds any in-flight Select path first, matching
// BatchMCTS::play_best_moves's undo_select-then-play ordering.
func (t *Tree) PlayBestMove() (move.Move, error) {
	t.UndoSelect()

	root := &t.nodes[t.rootIdx]
	if root.numExpanded == 0 {
		return move.None, errors.New("mcts: cannot play a move before the root has any materialized children")
	}

	childIdx, err := t.sampleChild(root)
	if err != nil {
		return move.None, err
	}
	chosen := t.nodes[childIdx]

	if err := t.pos.Play(chosen.move); err != nil {
		return move.None, errors.WithStack(err)
	}
	t.rootIdx = childIdx
	t.moveNumber++
	return chosen.move, nil
}

// PlayBestMoveAndReset behaves like PlayBestMove but is used when the
// chosen move ends the game (or the caller otherwise wants a fresh game):
// it discards the whole arena and starts a new one at the standard
// starting position, bumping gameNumber.
func (t *Tree) PlayBestMoveAndReset() (move.Move, error) {
	mv, err := t.PlayBestMove()
	if err != nil {
		return move.None, err
	}
	t.Reset()
	return mv, nil
}

// Reset discards the current arena and position, starting a fresh game at
// the standard starting position.
func (t *Tree) Reset() {
	t.nodes = t.nodes[:0]
	t.records.Reset()
	t.refs.Reset()
	t.pos = board.NewPosition()
	t.nodes = append(t.nodes, Node{color: t.pos.Turn()})
	t.rootIdx = 0
	t.path = t.path[:0]
	t.moveNumber = 0
	t.gameNumber++
}

func (t *Tree) sampleChild(root *Node) (int32, error) {
	n := int(root.numExpanded)
	temp := t.Temperature()

	if temp <= 1e-3 {
		best := int32(-1)
		var bestVisits uint32
		for i := 0; i < n; i++ {
			idx := int32(t.refs.Uint32(root.childRefOff + uint32(i)*childRefSize))
			v := t.nodes[idx].Visits()
			if best == -1 || v > bestVisits {
				best, bestVisits = idx, v
			}
		}
		return best, nil
	}

	weights := make([]float64, n)
	var total float64
	invT := 1 / float64(temp)
	for i := 0; i < n; i++ {
		idx := int32(t.refs.Uint32(root.childRefOff + uint32(i)*childRefSize))
		v := float64(t.nodes[idx].Visits())
		w := math.Pow(v, invT)
		weights[i] = w
		total += w
	}
	if total == 0 {
		return int32(t.refs.Uint32(root.childRefOff)), nil
	}

	r := t.rand.Float64() * total
	var cum float64
	for i := 0; i < n; i++ {
		cum += weights[i]
		if r <= cum {
			return int32(t.refs.Uint32(root.childRefOff + uint32(i)*childRefSize)), nil
		}
	}
	return int32(t.refs.Uint32(root.childRefOff + uint32(n-1)*childRefSize)), nil
}

// MinimaxEvaluation recomputes idx's value by minimaxing over its
// materialized children rather than returning the running mean Q, matching
// _examples/original_source/backend/MCTS.cpp's minimax_evaluation. Terminal
// nodes return their stored terminal value directly; a node with no
// materialized children falls back to its own running mean.
//
// The original's skip rule for which children to include in the minimax
// ("!child.is_leaf() || child.is_terminal_position()") is one of spec.md
// §9's flagged open questions; this always includes every materialized
// child, which is the conservative reading (never silently discard search
// effort).
func (t *Tree) MinimaxEvaluation(idx int32) float32 {
	n := &t.nodes[idx]
	if n.terminal {
		return n.terminalValue
	}
	if n.numExpanded == 0 {
		return n.QSA()
	}
	best := math32.Inf(-1)
	for i := 0; i < int(n.numExpanded); i++ {
		childIdx := int32(t.refs.Uint32(n.childRefOff + uint32(i)*childRefSize))
		v := -t.MinimaxEvaluation(childIdx)
		if v > best {
			best = v
		}
	}
	return best
}
