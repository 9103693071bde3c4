package mcts

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/notnil/chess"
	"github.com/pkg/errors"
	distrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/kingside-labs/batchmcts/alloc"
	"github.com/kingside-labs/batchmcts/board"
	"github.com/kingside-labs/batchmcts/move"
)

// Config configures one Tree's search behaviour (spec.md §4).
type Config struct {
	PUCT float32 // exploration constant c_puct

	DirichletAlpha   float64 // Dirichlet concentration parameter at the root
	DirichletEpsilon float32 // root-noise mixing weight, 0 disables noise

	TemperaturePlies   int     // ply count below which PlayBestMove uses ExploreTemperature
	ExploreTemperature float32 // temperature used while ply < TemperaturePlies
	ExploitTemperature float32 // temperature used from TemperaturePlies onward

	RecordsBlockCap uint32 // initial capacity of the child-records block
	RefsBlockCap    uint32 // initial capacity of the child-refs block
}

// DefaultConfig returns the AlphaZero-standard defaults used by the
// teacher's DefaultConfig, adapted to this package's field names.
func DefaultConfig() Config {
	return Config{
		PUCT:               1.5,
		DirichletAlpha:     0.3,
		DirichletEpsilon:   0.25,
		TemperaturePlies:   40,
		ExploreTemperature: 1.0,
		ExploitTemperature: 0.25,
		RecordsBlockCap:    4096,
		RefsBlockCap:       4096,
	}
}

// Tree is one game's MCTS arena: a flat node vector plus the two
// byte-packed regions backing each node's children (spec.md §3.4/§9's
// indexed-arena redesign; see DESIGN.md).
type Tree struct {
	cfg Config

	pos  *board.Position
	rand *distrand.Rand

	nodes      []Node
	records    *alloc.Block
	refs       *alloc.Block
	rootIdx    int32
	path       []int32
	moveNumber int
	gameNumber int

	hasTempOverride bool
	tempOverride    float32
}

// NewTree creates a Tree rooted at pos's current position. pos is owned by
// the Tree for the remainder of its lifetime: Select/Update walk it forward
// and back.
func NewTree(pos *board.Position, cfg Config, seed uint64) *Tree {
	t := &Tree{
		cfg:     cfg,
		pos:     pos,
		rand:    distrand.New(distrand.NewSource(seed)),
		nodes:   make([]Node, 0, 1024),
		records: alloc.NewBlock(cfg.RecordsBlockCap),
		refs:    alloc.NewBlock(cfg.RefsBlockCap),
	}
	t.nodes = append(t.nodes, Node{color: pos.Turn()})
	t.rootIdx = 0
	return t
}

// RootIndex returns the arena index of the current root.
func (t *Tree) RootIndex() int32 { return t.rootIdx }

// Root returns the current root node.
func (t *Tree) Root() *Node { return &t.nodes[t.rootIdx] }

// Position exposes the tree's position, positioned at the root between
// simulations and at the selected leaf mid-simulation.
func (t *Tree) Position() *board.Position { return t.pos }

// MoveNumber reports how many moves have been played since this Tree (or
// its most recent reset) began.
func (t *Tree) MoveNumber() int { return t.moveNumber }

// GameNumber reports how many times this Tree has been Reset (directly or
// via PlayBestMoveAndReset) since construction.
func (t *Tree) GameNumber() int { return t.gameNumber }

// Select descends from the root via PUCT, materializing at most one new
// child, and leaves the tree's Position sitting at the returned leaf. The
// caller must follow up with Update (after evaluating the leaf, unless it
// is terminal) before calling Select again.
func (t *Tree) Select() (leaf int32, err error) {
	t.path = t.path[:0]
	cur := t.rootIdx
	t.path = append(t.path, cur)

	for {
		n := &t.nodes[cur]
		if n.terminal || !n.expanded() {
			return cur, nil
		}

		nextIdx, isNew, err := t.selectChild(cur)
		if err != nil {
			return 0, err
		}
		if isNew {
			t.path = append(t.path, nextIdx)
			return nextIdx, nil
		}
		if err := t.pos.Play(t.nodes[nextIdx].move); err != nil {
			return 0, errors.WithStack(err)
		}
		cur = nextIdx
		t.path = append(t.path, cur)
	}
}

// selectChild picks between the best already-materialized child and the
// highest-prior not-yet-materialized one, per
// _examples/original_source/backend/MCTS.cpp's select_best_child: records
// are kept sorted by descending prior at Expand time, so the single
// candidate worth considering among unmaterialized children is always the
// one immediately after the materialized prefix.
func (t *Tree) selectChild(parentIdx int32) (childIdx int32, isNew bool, err error) {
	parent := &t.nodes[parentIdx]
	parentVisits, _ := parent.stats()

	best := int32(-1)
	bestScore := math32.Inf(-1)
	for i := 0; i < int(parent.numExpanded); i++ {
		idx := int32(t.refs.Uint32(parent.childRefOff + uint32(i)*childRefSize))
		child := &t.nodes[idx]
		visits, q := child.stats()
		p := dequantizePrior(child.psa)
		score := puct(t.cfg.PUCT, parentVisits, visits, q, p)
		if score > bestScore {
			bestScore = score
			best = idx
		}
	}

	if int(parent.numExpanded) < int(parent.numChildren) {
		_, prior := t.childRecord(parent, int(parent.numExpanded))
		p := dequantizePrior(prior)
		score := puct(t.cfg.PUCT, parentVisits, 0, 0, p)
		if best == -1 || score > bestScore {
			newIdx, err := t.materializeChild(parentIdx, int(parent.numExpanded))
			if err != nil {
				return 0, false, err
			}
			if err := t.pos.Play(t.nodes[newIdx].move); err != nil {
				return 0, false, errors.WithStack(err)
			}
			return newIdx, true, nil
		}
	}

	if best == -1 {
		return 0, false, errors.New("mcts: expanded node has no selectable child")
	}
	return best, false, nil
}

func (t *Tree) childRecord(n *Node, localIdx int) (move.Move, byte) {
	off := n.childRecOff + uint32(localIdx)*childRecordSize
	m := move.Move(t.records.Uint16(off))
	p := t.records.Byte(off + 2)
	return m, p
}

func (t *Tree) materializeChild(parentIdx int32, localIdx int) (int32, error) {
	parent := &t.nodes[parentIdx]
	mv, prior := t.childRecord(parent, localIdx)

	child := Node{move: mv, color: opposite(parent.color), psa: prior}
	newIdx := int32(len(t.nodes))
	t.nodes = append(t.nodes, child)
	parent = &t.nodes[parentIdx] // append may have moved the arena

	var off uint32
	if parent.numExpanded == 0 {
		off = t.refs.Alloc(childRefSize)
	} else {
		off, _ = t.refs.Realloc(parent.childRefOff,
			uint32(parent.numExpanded)*childRefSize,
			uint32(parent.numExpanded+1)*childRefSize)
	}
	parent.childRefOff = off
	t.refs.PutUint32(off+uint32(parent.numExpanded)*childRefSize, uint32(newIdx))
	parent.numExpanded++
	return newIdx, nil
}

// Expand materializes priors/legalMoves as the child records of leaf
// (spec.md §3.4), sorting by descending prior so selectChild's prefix
// invariant holds. It is a no-op if leaf is terminal or already expanded.
func (t *Tree) Expand(leaf int32, legalMoves []move.Move, priors []float32) error {
	n := &t.nodes[leaf]
	if n.terminal || n.expanded() {
		return nil
	}
	if len(legalMoves) != len(priors) {
		return errors.Errorf("mcts: %d moves but %d priors", len(legalMoves), len(priors))
	}
	if len(legalMoves) == 0 {
		return errors.New("mcts: cannot expand a non-terminal node with zero legal moves")
	}

	order := make([]int, len(legalMoves))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return priors[order[a]] > priors[order[b]] })

	size := uint32(len(legalMoves)) * childRecordSize
	off := t.records.Alloc(size)
	for i, oi := range order {
		recOff := off + uint32(i)*childRecordSize
		t.records.PutUint16(recOff, uint16(legalMoves[oi]))
		t.records.PutByte(recOff+2, quantizePrior(priors[oi]))
	}
	n.childRecOff = off
	n.numChildren = uint16(len(legalMoves))
	return nil
}

// MarkTerminal records that leaf ends the game with the given value from
// leaf's own side-to-move perspective.
func (t *Tree) MarkTerminal(leaf int32, value float32) {
	n := &t.nodes[leaf]
	n.terminal = true
	n.terminalValue = value
}

// Update backs value (from the leaf's side-to-move perspective) up the path
// selected by the most recent Select call, flipping sign each ply since
// sides alternate, then rewinds the tree's Position back to the root and
// clears the path so the next Select starts clean.
func (t *Tree) Update(value float32) {
	leafIdx := t.path[len(t.path)-1]
	if leaf := &t.nodes[leafIdx]; leaf.terminal {
		value = leaf.terminalValue
	}

	v := value
	for i := len(t.path) - 1; i >= 0; i-- {
		t.nodes[t.path[i]].accumulate(v)
		v = -v
	}

	for i := 0; i < len(t.path)-1; i++ {
		t.pos.Undo()
	}
	t.path = t.path[:0]
}

// UndoSelect rewinds the position without touching any node's stats,
// abandoning the in-flight simulation (mirrors MCTS::update's sim-limit
// unwind-without-stats-touch path and BatchMCTS::play_best_moves's
// undo_select before replaying the root).
func (t *Tree) UndoSelect() {
	for i := 0; i < len(t.path)-1; i++ {
		t.pos.Undo()
	}
	t.path = t.path[:0]
}

// NeedsEvaluation reports whether leaf requires an evaluator call before
// Update can run (false for terminal leaves, which already know their
// value).
func (t *Tree) NeedsEvaluation(leaf int32) bool {
	return !t.nodes[leaf].terminal
}

func opposite(c chess.Color) chess.Color {
	if c == chess.White {
		return chess.Black
	}
	return chess.White
}

// addRootNoise mixes Dirichlet noise into the root's child priors
// in-place, AlphaZero-style (teacher's tree.go does the same via
// gonum/stat/distmv.Dirichlet + golang.org/x/exp/rand).
func (t *Tree) addRootNoise() {
	if t.cfg.DirichletEpsilon <= 0 {
		return
	}
	root := &t.nodes[t.rootIdx]
	n := int(root.numChildren)
	if n == 0 {
		return
	}

	alpha := make([]float64, n)
	for i := range alpha {
		alpha[i] = t.cfg.DirichletAlpha
	}
	dist, ok := distmv.NewDirichlet(alpha, t.rand)
	if !ok {
		return
	}
	noise := dist.Rand(nil)

	eps := t.cfg.DirichletEpsilon
	for i := 0; i < n; i++ {
		off := root.childRecOff + uint32(i)*childRecordSize
		p := dequantizePrior(t.records.Byte(off + 2))
		mixed := (1-eps)*p + eps*float32(noise[i])
		t.records.PutByte(off+2, quantizePrior(mixed))
	}
}
