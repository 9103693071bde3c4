package record

import (
	"bytes"
	"strings"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	"github.com/kingside-labs/batchmcts/board"
	"github.com/kingside-labs/batchmcts/move"
)

func TestWriteProducesFourLinesPerPlyPlusResult(t *testing.T) {
	g := &Game{}
	var squares [64]int
	squares[12] = 1 // e2 pawn, own-piece code 1
	metadata := [5]int{1, 1, 1, 1, -1}
	g.AddPly(squares, metadata, []PolicyCell{{Rank: 6, File: 4, Plane: 1, Prob: 1}},
		move.Encode(chess.E2, chess.E4, move.FlagDoublePush), chess.White)
	g.DeclareWinner(board.WhiteWins)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5) // board, policy, move, side, result

	boardFields := strings.Split(strings.TrimRight(lines[0], ","), ",")
	require.Len(t, boardFields, 69) // 64 squares + 5 metadata values
	require.Equal(t, "1", boardFields[12])
	require.Equal(t, "-1", boardFields[68])

	require.Equal(t, "6,4,1,1,", lines[1])
	require.Len(t, lines[2], 4) // 16-bit move rendered as 4 hex digits
	require.Equal(t, "0", lines[3])
	require.Equal(t, "1 WINNER!", lines[4])
}

func TestDrawResultLine(t *testing.T) {
	g := &Game{}
	g.DeclareWinner(board.Draw)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))
	require.Contains(t, buf.String(), "0 WINNER!")
}

func TestBlackWinsResultLine(t *testing.T) {
	g := &Game{}
	g.DeclareWinner(board.BlackWins)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))
	require.Contains(t, buf.String(), "-1 WINNER!")
}

func TestSideLineEncodesBlackAsOne(t *testing.T) {
	g := &Game{}
	var squares [64]int
	g.AddPly(squares, [5]int{0, 0, 0, 0, -1}, nil, move.Encode(chess.E7, chess.E5, move.FlagQuiet), chess.Black)
	g.DeclareWinner(board.Draw)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, "1", lines[3])
}
