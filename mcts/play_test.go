package mcts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinimaxEvaluationFallsBackToQSAForUnexpandedNode(t *testing.T) {
	tree := newTestTree()
	leaf, err := tree.Select()
	require.NoError(t, err)
	expandLeaf(t, tree, leaf)
	tree.Update(0.4)

	require.Equal(t, tree.Root().QSA(), tree.MinimaxEvaluation(tree.RootIndex()))
}

func TestMinimaxEvaluationReturnsTerminalValueDirectly(t *testing.T) {
	tree := newTestTree()
	leaf, err := tree.Select()
	require.NoError(t, err)
	tree.MarkTerminal(leaf, -1)
	require.Equal(t, float32(-1), tree.MinimaxEvaluation(leaf))
}

func TestMinimaxEvaluationNegatesBestChild(t *testing.T) {
	tree := newTestTree()
	leaf, err := tree.Select()
	require.NoError(t, err)
	expandLeaf(t, tree, leaf)
	tree.Update(0)

	for i := 0; i < 10; i++ {
		child, err := tree.Select()
		require.NoError(t, err)
		if tree.NeedsEvaluation(child) && tree.nodes[child].numChildren == 0 {
			expandLeaf(t, tree, child)
		}
		tree.Update(0)
	}

	root := tree.Root()
	require.Greater(t, root.NumExpanded(), 0)

	var best float32 = -2
	for i := 0; i < root.NumExpanded(); i++ {
		childIdx := tree.ChildRef(tree.RootIndex(), i)
		v := -tree.nodes[childIdx].QSA()
		if v > best {
			best = v
		}
	}
	require.Equal(t, best, tree.MinimaxEvaluation(tree.RootIndex()))
}
