package move

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := Encode(chess.E2, chess.E4, FlagDoublePush)
	require.Equal(t, chess.E2, m.From())
	require.Equal(t, chess.E4, m.To())
	require.True(t, m.IsDoublePawnPush())
	require.False(t, m.IsCapture())
}

func TestPromoRoundTrip(t *testing.T) {
	m := Encode(chess.A7, chess.A8, FlagPromoRook)
	require.Equal(t, chess.Rook, m.Promo())
	require.False(t, m.IsCapture())
}

func TestPromoCaptureRoundTrip(t *testing.T) {
	m := Encode(chess.B7, chess.A8, FlagPromoQueenX)
	require.Equal(t, chess.Queen, m.Promo())
	require.True(t, m.IsCapture())
}

func TestFromChessStartPosition(t *testing.T) {
	g := chess.NewGame()
	pos := g.Position()
	legal := pos.ValidMoves()
	require.NotEmpty(t, legal)
	for _, cm := range legal {
		encoded := FromChess(cm, pos)
		found := Match(legal, pos, encoded)
		require.NotNil(t, found)
		require.Equal(t, cm.S1(), found.S1())
		require.Equal(t, cm.S2(), found.S2())
	}
}

func TestDoublePushDetected(t *testing.T) {
	g := chess.NewGame()
	pos := g.Position()
	var doublePush *chess.Move
	for _, cm := range pos.ValidMoves() {
		if cm.S1() == chess.E2 && cm.S2() == chess.E4 {
			doublePush = cm
		}
	}
	require.NotNil(t, doublePush)
	require.True(t, FromChess(doublePush, pos).IsDoublePawnPush())
}
