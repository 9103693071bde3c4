package evaluator

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	"github.com/kingside-labs/batchmcts/move"
)

func TestUniformEvaluatorSumsToOne(t *testing.T) {
	var e UniformEvaluator
	in := Input{
		FEN:        "startpos",
		LegalMoves: []move.Move{move.Encode(chess.E2, chess.E4, move.FlagDoublePush), move.Encode(chess.G1, chess.F3, move.FlagQuiet)},
		Side:       chess.White,
	}
	out, err := e.Infer([]Input{in})
	require.NoError(t, err)
	require.Len(t, out, 1)
	var sum float32
	for _, p := range out[0].Priors {
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-6)
	require.Equal(t, float32(0), out[0].Value)
}

func TestUniformEvaluatorHandlesNoLegalMoves(t *testing.T) {
	var e UniformEvaluator
	out, err := e.Infer([]Input{{FEN: "terminal"}})
	require.NoError(t, err)
	require.Empty(t, out[0].Priors)
}
