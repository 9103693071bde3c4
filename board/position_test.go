package board

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	"github.com/kingside-labs/batchmcts/move"
)

func TestNewPositionStartingMetadata(t *testing.T) {
	p := NewPosition()
	md := p.Metadata()
	require.True(t, md.WhiteKingSide)
	require.True(t, md.WhiteQueenSide)
	require.True(t, md.BlackKingSide)
	require.True(t, md.BlackQueenSide)
	require.Equal(t, -1, md.EnPassantSquare)
}

func TestPlayAdvancesTurn(t *testing.T) {
	p := NewPosition()
	var buf []move.Move
	legal := p.LegalMoves(buf)
	require.NotEmpty(t, legal)
	require.Equal(t, chess.White, p.Turn())
	require.NoError(t, p.Play(legal[0]))
	require.Equal(t, chess.Black, p.Turn())
}

func TestUndoReturnsToPriorPosition(t *testing.T) {
	p := NewPosition()
	legal := p.LegalMoves(nil)
	require.NoError(t, p.Play(legal[0]))
	require.True(t, p.Undo())
	require.Equal(t, chess.White, p.Turn())
	require.False(t, p.Undo())
}

func TestPlayAfterUndoOverwritesRedoBranch(t *testing.T) {
	p := NewPosition()
	legal := p.LegalMoves(nil)
	require.NoError(t, p.Play(legal[0]))
	require.True(t, p.Undo())
	legal = p.LegalMoves(nil)
	require.NoError(t, p.Play(legal[len(legal)-1]))
	require.Equal(t, 1, p.Ply())
}

func TestEnPassantSquareDetected(t *testing.T) {
	p := NewPosition()
	play := func(from, to chess.Square) {
		legal := p.LegalMoves(nil)
		var found move.Move
		matched := false
		for _, m := range legal {
			if m.From() == from && m.To() == to {
				found, matched = m, true
				break
			}
		}
		require.True(t, matched, "expected a legal move %v-%v", from, to)
		require.NoError(t, p.Play(found))
	}
	play(chess.E2, chess.E4)
	play(chess.A7, chess.A6)
	play(chess.E4, chess.E5)
	play(chess.D7, chess.D5)

	md := p.Metadata()
	require.Equal(t, int(chess.D6), md.EnPassantSquare)
}

func TestOngoingPositionIsNotTerminal(t *testing.T) {
	p := NewPosition()
	_, terminal := p.Terminal()
	require.False(t, terminal)
}

func TestFoolsMateIsCheckmate(t *testing.T) {
	p := NewPosition()
	moves := []struct{ from, to chess.Square }{
		{chess.F2, chess.F3},
		{chess.E7, chess.E5},
		{chess.G2, chess.G4},
		{chess.D8, chess.H4},
	}
	for _, mv := range moves {
		legal := p.LegalMoves(nil)
		var found move.Move
		matched := false
		for _, m := range legal {
			if m.From() == mv.from && m.To() == mv.to {
				found, matched = m, true
				break
			}
		}
		require.True(t, matched)
		require.NoError(t, p.Play(found))
	}
	outcome, terminal := p.Terminal()
	require.True(t, terminal)
	require.Equal(t, BlackWins, outcome)
	require.True(t, p.InCheckmate())
}
