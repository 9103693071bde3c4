// Package mcts implements the packed-node MCTS arena and its PUCT selection
// rule, grounded on the teacher's mcts/node.go and mcts/tree.go generalized
// to the spec's quantized-prior child records and lazy materialization, and
// on _examples/original_source/backend/MCTS.{h,cpp} for the exact PUCT/
// backup arithmetic.
package mcts

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/notnil/chess"

	"github.com/kingside-labs/batchmcts/move"
)

// childRecordSize is the byte footprint of one child record: a 16-bit
// move.Move plus an 8-bit quantized prior (spec.md §3.4 region 1).
const childRecordSize = 3

// childRefSize is the byte footprint of one materialized-child arena index
// (spec.md §3.4 region 2).
const childRefSize = 4

// quantizePrior packs a float32 probability into a byte, matching
// spec.md's quantization scheme exactly: floor(min(p*256, 255)).
func quantizePrior(p float32) byte {
	v := p * 256
	if v > 255 {
		v = 255
	}
	if v < 0 {
		v = 0
	}
	return byte(v)
}

// dequantizePrior reverses quantizePrior's midpoint-of-bucket rounding.
func dequantizePrior(b byte) float32 {
	return (float32(b) + 0.5) / 256
}

// Node is one vertex of the MCTS arena. Stat fields mirror the teacher's
// mutex-guarded Node (node.go): visits and qsa are read/written under lock
// so concurrent simulations sharing a tree can update the same node.
type Node struct {
	mu sync.Mutex

	move  move.Move   // the move that led to this node from its parent
	color chess.Color // side to move once here
	psa   byte        // quantized prior, copied in at materialization time

	visits uint32
	qsa    float32

	terminal      bool
	terminalValue float32 // from this node's side-to-move perspective

	childRecOff uint32 // offset in the records block, valid once expanded
	childRefOff uint32 // offset in the refs block, valid once numExpanded>0
	numChildren uint16
	numExpanded uint16
}

// expanded reports whether Expand has run for this node.
func (n *Node) expanded() bool { return n.numChildren > 0 || n.terminal }

// accumulate folds one backed-up value into the running mean, matching the
// teacher's incremental-mean update: qsa += (v - qsa) / visits.
func (n *Node) accumulate(v float32) {
	n.mu.Lock()
	n.visits++
	n.qsa += (v - n.qsa) / float32(n.visits)
	n.mu.Unlock()
}

// stats returns a consistent (visits, qsa) snapshot under lock.
func (n *Node) stats() (uint32, float32) {
	n.mu.Lock()
	v, q := n.visits, n.qsa
	n.mu.Unlock()
	return v, q
}

// Visits reports how many times this node has been backed up through.
func (n *Node) Visits() uint32 {
	v, _ := n.stats()
	return v
}

// QSA reports this node's mean backed-up value.
func (n *Node) QSA() float32 {
	_, q := n.stats()
	return q
}

// Move reports the move that led to this node.
func (n *Node) Move() move.Move { return n.move }

// Color reports the side to move once at this node.
func (n *Node) Color() chess.Color { return n.color }

// Terminal reports whether this node ends the game, and if so its value
// from its own side-to-move's perspective.
func (n *Node) Terminal() (float32, bool) { return n.terminalValue, n.terminal }

// NumChildren and NumExpanded report the child-record and materialized-child
// counts (spec.md §3.4).
func (n *Node) NumChildren() int { return int(n.numChildren) }
func (n *Node) NumExpanded() int { return int(n.numExpanded) }

// puct computes the PUCT score U(s,a) - Q(s,a) for a child with visit count
// childVisits and mean value childQ given prior p and the parent's visit
// count parentVisits (spec.md §4.2; the "newer" unconditional-leaf-term
// formula per _examples/original_source/backend/MCTS.cpp's
// select_best_child, not the older best>cpuct*p*sqrt(N) comparison).
// childQ is stored from the child's own side-to-move perspective, which is
// the opposite side from the parent doing the selecting, so it is
// subtracted rather than added: a child that is good for the opponent
// (high childQ) should score lower from the parent's point of view.
func puct(c float32, parentVisits uint32, childVisits uint32, childQ float32, p float32) float32 {
	u := c * p * math32.Sqrt(float32(parentVisits)) / (1 + float32(childVisits))
	return u - childQ
}
