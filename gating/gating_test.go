package gating

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingside-labs/batchmcts/evaluator"
	"github.com/kingside-labs/batchmcts/mcts"
)

func testConfig() Config {
	return Config{
		Games:           2,
		SimsPerMove:     4,
		UpdateThreshold: 0.55,
		Tree:            mcts.DefaultConfig(),
	}
}

func TestPlayReturnsOneResultPerGame(t *testing.T) {
	cfg := testConfig()
	result, err := Play(evaluator.UniformEvaluator{}, evaluator.UniformEvaluator{}, cfg)
	require.NoError(t, err)
	require.Equal(t, cfg.Games, result.Games())
}

func TestIdenticalEvaluatorsRarelyClearAHighThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.UpdateThreshold = 0.9
	result, err := Play(evaluator.UniformEvaluator{}, evaluator.UniformEvaluator{}, cfg)
	require.NoError(t, err)
	require.False(t, result.Passed(cfg))
}

func TestWinRateCountsDrawsAsHalf(t *testing.T) {
	r := Result{Draws: 10}
	require.InDelta(t, 0.5, r.WinRate(), 1e-9)
}

func TestWinRateWithNoGamesIsZero(t *testing.T) {
	var r Result
	require.Equal(t, 0.0, r.WinRate())
}
