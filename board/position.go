// Package board wraps notnil/chess into the play/undo position the MCTS
// tree needs (Undo is a pointer move; Play clones the current snapshot),
// plus the metadata tuple (castling rights, en passant square) and
// terminal-evaluation helpers the tree reads out of it.
//
// Grounded on the teacher's game/chess.go: history is a slice of
// *chess.Game snapshots and Play/Undo move a pointer through it rather than
// mutating a position in place, since notnil/chess has no cheap
// move-unmake.
package board

import (
	"github.com/notnil/chess"
	"github.com/pkg/errors"

	"github.com/kingside-labs/batchmcts/move"
)

// Outcome classifies a terminal position.
type Outcome int

const (
	Ongoing Outcome = iota
	Draw
	WhiteWins
	BlackWins
)

// Metadata is the non-board state the policy/value evaluator needs
// alongside the piece placement (spec.md §4.3): castling rights for both
// sides and the square of a legal en passant capture, if any. Values are
// unmirrored (White's perspective); callers writing them into a tensor are
// responsible for the side-to-move mirroring spec.md §4.3 describes.
type Metadata struct {
	WhiteKingSide   bool
	WhiteQueenSide  bool
	BlackKingSide   bool
	BlackQueenSide  bool
	EnPassantSquare int // -1 when no en passant capture is available, else 0..63
}

// Position is a chess position with cheap Play/Undo, backed by a history of
// *chess.Game snapshots (clone-on-play) rather than a mutating board.
type Position struct {
	history []*chess.Game
	ptr     int
}

// NewPosition returns a Position at the standard starting position.
func NewPosition() *Position {
	return &Position{history: []*chess.Game{chess.NewGame()}}
}

// FromFEN returns a Position at the given FEN string.
func FromFEN(fen string) (*Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Position{history: []*chess.Game{chess.NewGame(opt)}}, nil
}

// Current returns the *chess.Game snapshot the Position currently sits at.
func (p *Position) Current() *chess.Game { return p.history[p.ptr] }

// Turn reports the side to move.
func (p *Position) Turn() chess.Color { return p.Current().Position().Turn() }

// Piece returns the piece occupying sq, or the empty piece if none.
func (p *Position) Piece(sq chess.Square) chess.Piece {
	return p.Current().Position().Board().Piece(sq)
}

// LegalMoves appends every legal move.Move in the current position to buf
// and returns the extended slice.
func (p *Position) LegalMoves(buf []move.Move) []move.Move {
	pos := p.Current().Position()
	for _, cm := range pos.ValidMoves() {
		buf = append(buf, move.FromChess(cm, pos))
	}
	return buf
}

// Play applies m, which must be a legal move in the current position. It
// advances ptr to a fresh snapshot, overwriting any redo branch left behind
// by a prior Undo (mirrors the teacher's Apply/UndoLastMove pair).
func (p *Position) Play(m move.Move) error {
	cur := p.Current()
	pos := cur.Position()
	cm := move.Match(pos.ValidMoves(), pos, m)
	if cm == nil {
		return errors.Errorf("board: move %04x is not legal in the current position", uint16(m))
	}
	next := cur.Clone()
	if err := next.Move(cm); err != nil {
		return errors.WithStack(err)
	}
	p.ptr++
	if p.ptr < len(p.history) {
		p.history[p.ptr] = next
		p.history = p.history[:p.ptr+1]
	} else {
		p.history = append(p.history, next)
	}
	return nil
}

// Undo rewinds one ply. It reports false if already at the root.
func (p *Position) Undo() bool {
	if p.ptr == 0 {
		return false
	}
	p.ptr--
	return true
}

// Ply reports how many moves have been played to reach the current
// snapshot.
func (p *Position) Ply() int { return p.ptr }

// Metadata returns the current position's castling rights and en passant
// square, unmirrored.
func (p *Position) Metadata() Metadata {
	pos := p.Current().Position()
	cr := pos.CastleRights()
	sq := -1
	if ep := pos.EnPassantSquare(); ep != chess.NoSquare {
		sq = int(ep)
	}
	return Metadata{
		WhiteKingSide:   cr.CanCastle(chess.White, chess.KingSide),
		WhiteQueenSide:  cr.CanCastle(chess.White, chess.QueenSide),
		BlackKingSide:   cr.CanCastle(chess.Black, chess.KingSide),
		BlackQueenSide:  cr.CanCastle(chess.Black, chess.QueenSide),
		EnPassantSquare: sq,
	}
}

// EncodeBoard returns the position's piece placement as one scalar per
// square, row-major: 0 for empty, 1..6 for the side-to-move's own piece
// types, 7..12 for the opponent's, with the square rotated 180 degrees when
// Black is to move so the network always sees "my pieces at the bottom".
func (p *Position) EncodeBoard() [64]int {
	var out [64]int
	side := p.Turn()
	for sq := 0; sq < 64; sq++ {
		dest := sq
		if side == chess.Black {
			dest = 63 - sq
		}
		out[dest] = pieceCode(p.Piece(chess.Square(sq)), side)
	}
	return out
}

func pieceCode(piece chess.Piece, side chess.Color) int {
	if piece == chess.NoPiece {
		return 0
	}
	code := ownPieceCode(piece.Type())
	if piece.Color() != side {
		code += 6
	}
	return code
}

func ownPieceCode(t chess.PieceType) int {
	switch t {
	case chess.Pawn:
		return 1
	case chess.Knight:
		return 2
	case chess.Bishop:
		return 3
	case chess.Rook:
		return 4
	case chess.Queen:
		return 5
	case chess.King:
		return 6
	default:
		return 0
	}
}

// EncodeMetadata returns the castling/en-passant tuple (own_OO, own_OOO,
// opponent_OO, opponent_OOO, ep_square), reordered so "own"/"opponent" are
// relative to the side to move and with the en passant square mirrored as
// 63-s for Black.
func (p *Position) EncodeMetadata() [5]int {
	md := p.Metadata()
	side := p.Turn()

	ownOO, ownOOO := md.WhiteKingSide, md.WhiteQueenSide
	oppOO, oppOOO := md.BlackKingSide, md.BlackQueenSide
	ep := md.EnPassantSquare
	if side == chess.Black {
		ownOO, oppOO = oppOO, ownOO
		ownOOO, oppOOO = oppOOO, ownOOO
		if ep >= 0 {
			ep = 63 - ep
		}
	}

	return [5]int{boolToInt(ownOO), boolToInt(ownOOO), boolToInt(oppOO), boolToInt(oppOOO), ep}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Terminal reports whether the current position ends the game and, if so,
// how.
func (p *Position) Terminal() (Outcome, bool) {
	switch p.Current().Outcome() {
	case chess.Draw:
		return Draw, true
	case chess.WhiteWon:
		return WhiteWins, true
	case chess.BlackWon:
		return BlackWins, true
	default:
		return Ongoing, false
	}
}

// InCheckmate reports whether the current position is a checkmate, which
// distinguishes a mate from the other drawn/stalemate terminal methods when
// a caller needs to know specifically whether the side to move was mated.
func (p *Position) InCheckmate() bool {
	return p.Current().Method() == chess.Checkmate
}
