// Command showtree runs a handful of simulations from a single FEN (or the
// starting position) against the uniform reference evaluator and dumps the resulting
// search tree as Graphviz DOT, for eyeballing what PUCT actually grew.
//
// Grounded on the teacher's cmd/infer/main.go (flag-based single-position
// driver) and mctsdebug for the dump itself.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kingside-labs/batchmcts/board"
	"github.com/kingside-labs/batchmcts/evaluator"
	"github.com/kingside-labs/batchmcts/mcts"
	"github.com/kingside-labs/batchmcts/mctsdebug"
	"github.com/kingside-labs/batchmcts/policyindex"
)

var (
	fen      = flag.String("fen", "", "starting FEN; defaults to the initial position")
	sims     = flag.Int("sims", 200, "number of simulations to run before dumping the tree")
	maxDepth = flag.Int("max_depth", 3, "maximum depth of the dumped tree")
	out      = flag.String("out", "", "file to write the DOT graph to; defaults to stdout")
)

func main() {
	flag.Parse()
	policyindex.Init()

	pos := board.NewPosition()
	if *fen != "" {
		var err error
		pos, err = board.FromFEN(*fen)
		if err != nil {
			log.Fatalf("showtree: parsing FEN: %v", err)
		}
	}

	tree := mcts.NewTree(pos, mcts.DefaultConfig(), 1)
	eval := evaluator.UniformEvaluator{}

	for i := 0; i < *sims; i++ {
		if err := mcts.RunSimulation(tree, eval); err != nil {
			log.Fatalf("showtree: simulation %d: %v", i, err)
		}
	}

	dot, err := mctsdebug.Dump(tree, *maxDepth)
	if err != nil {
		log.Fatalf("showtree: dumping tree: %v", err)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("showtree: creating %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}
	fmt.Fprintln(w, dot)
}

