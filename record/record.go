// Package record accumulates one self-play game's training examples and
// writes them out in the plain-text format spec.md §6 describes: one block
// per ply (board/metadata line, policy line, move played, side to move),
// followed by a trailing result line.
//
// Grounded on _examples/original_source/backend/MCTS.cpp's add_move/
// declare_winner and the operator<< dumps for Policy/BoardState, and on the
// teacher's game-record accumulation inside arena.go's Play loop.
package record

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/notnil/chess"
	"github.com/pkg/errors"

	"github.com/kingside-labs/batchmcts/board"
	"github.com/kingside-labs/batchmcts/move"
)

// PolicyCell is one non-zero policy-tensor cell at the moment a ply was
// recorded: a (rank, file, plane) address and the visit-count-normalized
// probability there.
type PolicyCell struct {
	Rank, File, Plane int
	Prob              float32
}

// Ply is one recorded half-move: the board/metadata encoding of the
// position it was played from, the search's root policy over that
// position's legal moves, the move actually played, and who played it.
type Ply struct {
	Board    [64]int
	Metadata [5]int
	Policy   []PolicyCell
	Played   move.Move
	Side     chess.Color
}

// Game accumulates a full game's plies plus its eventual result.
type Game struct {
	Plies  []Ply
	Result board.Outcome
}

// AddPly appends one recorded ply.
func (g *Game) AddPly(board [64]int, metadata [5]int, policy []PolicyCell, played move.Move, side chess.Color) {
	g.Plies = append(g.Plies, Ply{Board: board, Metadata: metadata, Policy: policy, Played: played, Side: side})
}

// DeclareWinner sets the game's terminal result.
func (g *Game) DeclareWinner(result board.Outcome) { g.Result = result }

// resultLine renders the trailing "<result> WINNER!" line, result in
// {-1,0,+1}.
func resultLine(o board.Outcome) string {
	switch o {
	case board.WhiteWins:
		return "1 WINNER!"
	case board.BlackWins:
		return "-1 WINNER!"
	default:
		return "0 WINNER!"
	}
}

// Write serializes g in the §6 text format: per ply, a board/metadata line,
// a policy line, a move line and a side line, followed by the trailing
// result line.
func Write(w io.Writer, g *Game) error {
	bw := bufio.NewWriter(w)
	for _, p := range g.Plies {
		if _, err := fmt.Fprintln(bw, boardLine(p.Board, p.Metadata)); err != nil {
			return errors.WithStack(err)
		}
		if _, err := fmt.Fprintln(bw, policyLine(p.Policy)); err != nil {
			return errors.WithStack(err)
		}
		if _, err := fmt.Fprintf(bw, "%04x\n", uint16(p.Played)); err != nil {
			return errors.WithStack(err)
		}
		if _, err := fmt.Fprintln(bw, sideLine(p.Side)); err != nil {
			return errors.WithStack(err)
		}
	}
	if _, err := fmt.Fprintln(bw, resultLine(g.Result)); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(bw.Flush())
}

// boardLine renders the 64 board scalars followed by the 5 metadata
// integers, every value comma-terminated.
func boardLine(squares [64]int, metadata [5]int) string {
	var sb strings.Builder
	for _, c := range squares {
		fmt.Fprintf(&sb, "%d,", c)
	}
	for _, m := range metadata {
		fmt.Fprintf(&sb, "%d,", m)
	}
	return sb.String()
}

func policyLine(cells []PolicyCell) string {
	var sb strings.Builder
	for _, c := range cells {
		fmt.Fprintf(&sb, "%d,%d,%d,%g,", c.Rank, c.File, c.Plane, c.Prob)
	}
	return sb.String()
}

func sideLine(c chess.Color) string {
	if c == chess.White {
		return "0"
	}
	return "1"
}
