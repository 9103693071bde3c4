// Package mctsdebug renders a live mcts.Tree arena as a Graphviz DOT graph,
// for ad hoc inspection of search behaviour (cmd/showtree). It gives
// github.com/awalterschulze/gographviz — a teacher dependency with no other
// natural home in this rewrite — a home, in place of the teacher's PNG
// board-rendering use of golang.org/x/image/github.com/golang/freetype
// (dropped; see DESIGN.md).
package mctsdebug

import (
	"fmt"

	"github.com/awalterschulze/gographviz"

	"github.com/kingside-labs/batchmcts/mcts"
)

// Dump walks tree's materialized subtree from root and returns its DOT
// source. Each node is labeled with its move, visit count and mean value;
// edges carry no label.
func Dump(tree *mcts.Tree, maxDepth int) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("mcts"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	root := tree.Root()
	rootName := nodeName(tree.RootIndex())
	if err := g.AddNode("mcts", rootName, map[string]string{
		"label": quote(fmt.Sprintf("root\\nN=%d Q=%.3f", root.Visits(), root.QSA())),
	}); err != nil {
		return "", err
	}

	walk(g, tree, tree.RootIndex(), 0, maxDepth)
	return g.String(), nil
}

func walk(g *gographviz.Graph, tree *mcts.Tree, idx int32, depth, maxDepth int) {
	if maxDepth > 0 && depth >= maxDepth {
		return
	}
	n := tree.NodeAt(idx)
	for i := 0; i < n.NumExpanded(); i++ {
		childIdx := tree.ChildRef(idx, i)
		child := tree.NodeAt(childIdx)
		name := nodeName(childIdx)

		_ = g.AddNode("mcts", name, map[string]string{
			"label": quote(fmt.Sprintf("%v\\nN=%d Q=%.3f", child.Move(), child.Visits(), child.QSA())),
		})
		_ = g.AddEdge(nodeName(idx), name, true, nil)

		walk(g, tree, childIdx, depth+1, maxDepth)
	}
}

func nodeName(idx int32) string { return fmt.Sprintf("n%d", idx) }

func quote(s string) string { return `"` + s + `"` }
