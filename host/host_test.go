package host

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kingside-labs/batchmcts/evaluator"
	"github.com/kingside-labs/batchmcts/mcts"
)

func TestCreateBatchMCTSRequiresInitialize(t *testing.T) {
	initDone = false
	_, err := CreateBatchMCTS(Config{NumSectors: 1, SectorSize: 1}, evaluator.UniformEvaluator{})
	require.Error(t, err)
	Initialize("")
}

func TestCreateBatchMCTSRejectsInvalidConfig(t *testing.T) {
	Initialize("")
	_, err := CreateBatchMCTS(Config{}, evaluator.UniformEvaluator{})
	require.Error(t, err)
}

func TestHandleLifecycle(t *testing.T) {
	Initialize("")
	h, err := CreateBatchMCTS(Config{
		NumSectors: 1,
		SectorSize: 2,
		Workers:    1,
		Tree:       mcts.DefaultConfig(),
	}, evaluator.UniformEvaluator{})
	require.NoError(t, err)

	_, err = h.Select()
	require.NoError(t, err)
	require.NoError(t, h.Update())
	require.False(t, h.AllGamesOver())
	require.NoError(t, h.Destroy())
}
