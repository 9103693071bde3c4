package policyindex

import (
	"testing"

	"github.com/kingside-labs/batchmcts/move"
	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"
)

func TestDoublePawnPushIsPlaneOne(t *testing.T) {
	Init()
	m := move.Encode(chess.E2, chess.E4, move.FlagDoublePush)
	idx, err := Encode(chess.White, chess.Pawn, m)
	require.NoError(t, err)
	require.Equal(t, 1, idx.Plane)
}

func TestQueenMoveDistanceOnePlane(t *testing.T) {
	Init()
	m := move.Encode(chess.D1, chess.D2, move.FlagQuiet)
	idx, err := Encode(chess.White, chess.Queen, m)
	require.NoError(t, err)
	require.Equal(t, dirN*7+0, idx.Plane)
}

func TestKnightPlanesAreDisjointFromSliderPlanes(t *testing.T) {
	Init()
	m := move.Encode(chess.B1, chess.C3, move.FlagQuiet)
	idx, err := Encode(chess.White, chess.Knight, m)
	require.NoError(t, err)
	require.GreaterOrEqual(t, idx.Plane, 56)
	require.Less(t, idx.Plane, 64)
}

func TestUnderpromotionPlanesAreInRange(t *testing.T) {
	Init()
	m := move.Encode(chess.A7, chess.A8, move.FlagPromoKnight)
	idx, err := Encode(chess.White, chess.Pawn, m)
	require.NoError(t, err)
	require.GreaterOrEqual(t, idx.Plane, 64)
	require.Less(t, idx.Plane, Planes)
}

func TestQueenPromotionReusesSliderPlane(t *testing.T) {
	Init()
	m := move.Encode(chess.A7, chess.A8, move.FlagPromoQueen)
	idx, err := Encode(chess.White, chess.Pawn, m)
	require.NoError(t, err)
	require.Less(t, idx.Plane, 56)
}

func TestOriginIsMirroredForBlack(t *testing.T) {
	Init()
	m := move.Encode(chess.E7, chess.E5, move.FlagDoublePush)
	idx, err := Encode(chess.Black, chess.Pawn, m)
	require.NoError(t, err)
	mirrored := 63 - int(chess.E7)
	require.Equal(t, mirrored/8, idx.Rank)
	require.Equal(t, mirrored%8, idx.File)
}

func TestEveryLegalMoveFromStartEncodes(t *testing.T) {
	Init()
	g := chess.NewGame()
	pos := g.Position()
	for _, cm := range pos.ValidMoves() {
		piece := pos.Board().Piece(cm.S1())
		m := move.FromChess(cm, pos)
		_, err := Encode(pos.Turn(), piece.Type(), m)
		require.NoError(t, err)
	}
}
