// Package move implements the 16-bit move encoding shared by the policy
// lookup table, the packed MCTS node's child records and the self-play
// record format.
package move

import "github.com/notnil/chess"

// Flag is a single 4-bit move-kind code (spec.md §3.2: "4 bits flags
// (promotion type, capture bit, castle bits, double-push bit)"). Sixteen
// values is exactly enough room for one quiet/special code plus four
// promotion piece types crossed with capture/non-capture, so — like most
// bitboard move encodings — the flag field is one enumerated code rather
// than independent bits.
type Flag uint16

const (
	FlagQuiet        Flag = 0x0
	FlagDoublePush   Flag = 0x1
	FlagKingCastle   Flag = 0x2
	FlagQueenCastle  Flag = 0x3
	FlagCapture      Flag = 0x4
	FlagEnPassant    Flag = 0x5
	FlagPromoKnight  Flag = 0x8
	FlagPromoBishop  Flag = 0x9
	FlagPromoRook    Flag = 0xA
	FlagPromoQueen   Flag = 0xB
	FlagPromoKnightX Flag = 0xC
	FlagPromoBishopX Flag = 0xD
	FlagPromoRookX   Flag = 0xE
	FlagPromoQueenX  Flag = 0xF
)

// Move is a 16-bit encoding: 6 bits origin square, 6 bits destination
// square, 4 bits flags (spec.md §3.2). Moves are value types.
type Move uint16

// None is the sentinel "no move" value; a real chess move never collides
// with it because FlagPromoQueenX (0xF) combined with from==to==0x3F would
// be the only clash and 0x3F/0x3F is never a legal origin/destination pair.
const None Move = 0xFFFF

// Encode packs an origin/destination square pair and a flag code into a
// Move.
func Encode(from, to chess.Square, flag Flag) Move {
	return Move(uint16(from)&0x3F) | Move(uint16(to)&0x3F)<<6 | Move(flag&0xF)<<12
}

// From returns the origin square.
func (m Move) From() chess.Square { return chess.Square(m & 0x3F) }

// To returns the destination square.
func (m Move) To() chess.Square { return chess.Square((m >> 6) & 0x3F) }

// Flag returns the 4-bit move-kind code.
func (m Move) Flag() Flag { return Flag((m >> 12) & 0xF) }

// IsCapture reports whether the move captures a piece, including en
// passant and promotion-captures.
func (m Move) IsCapture() bool {
	switch m.Flag() {
	case FlagCapture, FlagEnPassant, FlagPromoKnightX, FlagPromoBishopX, FlagPromoRookX, FlagPromoQueenX:
		return true
	default:
		return false
	}
}

// IsEnPassant reports whether the move is an en passant capture.
func (m Move) IsEnPassant() bool { return m.Flag() == FlagEnPassant }

// IsDoublePawnPush reports whether the move is a two-square pawn push.
func (m Move) IsDoublePawnPush() bool { return m.Flag() == FlagDoublePush }

// IsKingsideCastle reports whether the move is a kingside castle.
func (m Move) IsKingsideCastle() bool { return m.Flag() == FlagKingCastle }

// IsQueensideCastle reports whether the move is a queenside castle.
func (m Move) IsQueensideCastle() bool { return m.Flag() == FlagQueenCastle }

// Promo returns the promotion piece type, or chess.NoPieceType if the move
// does not promote.
func (m Move) Promo() chess.PieceType {
	switch m.Flag() {
	case FlagPromoKnight, FlagPromoKnightX:
		return chess.Knight
	case FlagPromoBishop, FlagPromoBishopX:
		return chess.Bishop
	case FlagPromoRook, FlagPromoRookX:
		return chess.Rook
	case FlagPromoQueen, FlagPromoQueenX:
		return chess.Queen
	default:
		return chess.NoPieceType
	}
}

// FromChess encodes a *chess.Move, keyed against the position it was
// generated from so double-pawn-push can be detected (the chess.Move value
// alone does not carry that information).
func FromChess(cm *chess.Move, pos *chess.Position) Move {
	capture := cm.HasTag(chess.Capture) || cm.HasTag(chess.EnPassant)

	var flag Flag
	switch {
	case cm.HasTag(chess.EnPassant):
		flag = FlagEnPassant
	case cm.Promo() != chess.NoPieceType:
		flag = promoFlag(cm.Promo(), capture)
	case cm.HasTag(chess.KingSideCastle):
		flag = FlagKingCastle
	case cm.HasTag(chess.QueenSideCastle):
		flag = FlagQueenCastle
	case capture:
		flag = FlagCapture
	case isDoublePush(cm, pos):
		flag = FlagDoublePush
	default:
		flag = FlagQuiet
	}
	return Encode(cm.S1(), cm.S2(), flag)
}

func promoFlag(p chess.PieceType, capture bool) Flag {
	switch p {
	case chess.Knight:
		if capture {
			return FlagPromoKnightX
		}
		return FlagPromoKnight
	case chess.Bishop:
		if capture {
			return FlagPromoBishopX
		}
		return FlagPromoBishop
	case chess.Rook:
		if capture {
			return FlagPromoRookX
		}
		return FlagPromoRook
	default:
		if capture {
			return FlagPromoQueenX
		}
		return FlagPromoQueen
	}
}

// isDoublePush reports whether cm moves a pawn two ranks forward.
func isDoublePush(cm *chess.Move, pos *chess.Position) bool {
	piece := pos.Board().Piece(cm.S1())
	if piece.Type() != chess.Pawn {
		return false
	}
	from, to := int(cm.S1()), int(cm.S2())
	diff := to - from
	return diff == 16 || diff == -16
}

// Match finds the *chess.Move among legal that encodes to the same Move
// value, or nil if none does. Equality is origin/destination/flag-only, so
// a *chess.Move generated from the same position round-trips exactly.
func Match(legal []*chess.Move, pos *chess.Position, want Move) *chess.Move {
	for _, cm := range legal {
		if FromChess(cm, pos) == want {
			return cm
		}
	}
	return nil
}
