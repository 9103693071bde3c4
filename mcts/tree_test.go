package mcts

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	"github.com/kingside-labs/batchmcts/board"
	"github.com/kingside-labs/batchmcts/move"
)

func uniformPriors(n int) []float32 {
	p := make([]float32, n)
	for i := range p {
		p[i] = 1.0 / float32(n)
	}
	return p
}

func newTestTree() *Tree {
	cfg := DefaultConfig()
	cfg.DirichletEpsilon = 0
	return NewTree(board.NewPosition(), cfg, 1)
}

func expandLeaf(t *testing.T, tree *Tree, leaf int32) {
	pos := tree.Position()
	legal := pos.LegalMoves(nil)
	require.NoError(t, tree.Expand(leaf, legal, uniformPriors(len(legal))))
}

func TestFirstSelectReturnsUnexpandedRoot(t *testing.T) {
	tree := newTestTree()
	leaf, err := tree.Select()
	require.NoError(t, err)
	require.Equal(t, tree.RootIndex(), leaf)
	require.True(t, tree.NeedsEvaluation(leaf))
}

func TestExpandThenUpdateIncrementsRootVisits(t *testing.T) {
	tree := newTestTree()
	leaf, err := tree.Select()
	require.NoError(t, err)
	expandLeaf(t, tree, leaf)
	tree.Update(0.1)
	require.Equal(t, uint32(1), tree.Root().Visits())
}

func TestManySimulationsMaterializeMultipleChildren(t *testing.T) {
	tree := newTestTree()
	for i := 0; i < 50; i++ {
		leaf, err := tree.Select()
		require.NoError(t, err)
		if tree.NeedsEvaluation(leaf) {
			if tree.nodes[leaf].numChildren == 0 {
				expandLeaf(t, tree, leaf)
			}
			tree.Update(0)
		} else {
			tree.Update(0)
		}
	}
	require.Greater(t, tree.Root().NumExpanded(), 1)
	require.Equal(t, uint32(50), tree.Root().Visits())
}

func TestBackupAlternatesSign(t *testing.T) {
	tree := newTestTree()
	leaf, err := tree.Select()
	require.NoError(t, err)
	expandLeaf(t, tree, leaf)
	tree.Update(1.0)

	leaf2, err := tree.Select()
	require.NoError(t, err)
	require.NotEqual(t, tree.RootIndex(), leaf2)
	tree.Update(0.5)

	require.Equal(t, float32(0.5), tree.nodes[leaf2].QSA())
	require.Equal(t, uint32(2), tree.Root().Visits())
	require.Equal(t, float32(0.25), tree.Root().QSA())
}

func TestPlayBestMoveAdvancesPositionAndReusesSubtree(t *testing.T) {
	tree := newTestTree()
	for i := 0; i < 20; i++ {
		leaf, err := tree.Select()
		require.NoError(t, err)
		if tree.NeedsEvaluation(leaf) && tree.nodes[leaf].numChildren == 0 {
			expandLeaf(t, tree, leaf)
		}
		tree.Update(0)
	}
	mv, err := tree.PlayBestMove()
	require.NoError(t, err)
	require.NotEqual(t, move.None, mv)
	require.Equal(t, 1, tree.MoveNumber())
	require.Equal(t, chess.Black, tree.Position().Turn())
}

func TestMarkTerminalShortCircuitsUpdateValue(t *testing.T) {
	tree := newTestTree()
	leaf, err := tree.Select()
	require.NoError(t, err)
	expandLeaf(t, tree, leaf)
	tree.Update(0)

	leaf2, err := tree.Select()
	require.NoError(t, err)
	tree.MarkTerminal(leaf2, 1.0)
	require.False(t, tree.NeedsEvaluation(leaf2))
	tree.Update(0.9999) // ignored: terminal value wins
	require.Equal(t, float32(1.0), tree.nodes[leaf2].QSA())
}

func TestResetStartsFreshGame(t *testing.T) {
	tree := newTestTree()
	leaf, err := tree.Select()
	require.NoError(t, err)
	expandLeaf(t, tree, leaf)
	tree.Update(0)
	tree.Reset()
	require.Equal(t, 0, tree.MoveNumber())
	require.Equal(t, 1, tree.GameNumber())
	require.Equal(t, int32(0), tree.RootIndex())
	require.Equal(t, uint32(0), tree.Root().Visits())
}
