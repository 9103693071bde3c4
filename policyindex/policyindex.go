// Package policyindex maps a (side-to-move, piece type, move) triple onto a
// cell of the 8x8x73 policy tensor used by the external policy/value
// evaluator. Only this forward direction is provided; there is no inverse
// lookup.
//
// The plane arithmetic mirrors the original engine's move2index table
// (_examples/original_source/Constants.cpp): sliding pieces get 8 directions
// x 7 distances (planes 0..55), knights get 8 deltas (56..63), and
// underpromotions get 3 pieces x 3 directions (64..72); queen promotions and
// non-promoting pawn moves reuse the slider planes.
package policyindex

import (
	"fmt"

	"github.com/kingside-labs/batchmcts/move"
	"github.com/notnil/chess"
)

const (
	// Planes is the size of the third policy-tensor axis.
	Planes = 73
	// Ranks and Files are the board extents of the first two axes.
	Ranks = 8
	Files = 8

	noPlane = -1
)

// direction indices, shared between the slider and non-promoting pawn plane
// formulas: 0=N,1=NE,2=E,3=SE,4=S,5=SW,6=W,7=NW.
const (
	dirN = iota
	dirNE
	dirE
	dirSE
	dirS
	dirSW
	dirW
	dirNW
)

// PolicyIndex addresses a single cell (rank, file, plane) of the policy
// tensor (spec.md §3.3).
type PolicyIndex struct {
	Rank, File, Plane int
}

var pieceTypes = [6]chess.PieceType{
	chess.King, chess.Queen, chess.Rook, chess.Bishop, chess.Knight, chess.Pawn,
}

func pieceSlot(pt chess.PieceType) int {
	for i, p := range pieceTypes {
		if p == pt {
			return i
		}
	}
	return -1
}

// table[color][pieceSlot][moveCode] = plane, or noPlane if the combination
// can never occur for a legal move.
var table [2][6][1 << 16]int16

var initialized bool

// Init precomputes the (color, piece-type, move) -> plane lookup table. It
// must be called once, process-wide, before Encode is used (mirrors
// spec.md §6's process-wide initializer, and the teacher's pattern of a
// package-level precomputed cache such as move2index_cache).
func Init() {
	for c := 0; c < 2; c++ {
		color := chess.White
		if c == 1 {
			color = chess.Black
		}
		for slot, pt := range pieceTypes {
			for code := 0; code < 1<<16; code++ {
				table[c][slot][code] = int16(computePlane(color, pt, move.Move(code)))
			}
		}
	}
	initialized = true
}

// Initialized reports whether Init has run. Exported so callers can assert
// the process-wide setup order instead of silently computing with an empty
// table.
func Initialized() bool { return initialized }

// Encode returns the PolicyIndex for playing m from a position where color
// is to move and the moving piece has type pt. The origin square is
// mirrored for Black so the policy tensor is always expressed "my pieces at
// the bottom", per spec.md §3.3/§4.4.
func Encode(color chess.Color, pt chess.PieceType, m move.Move) (PolicyIndex, error) {
	if !initialized {
		return PolicyIndex{}, fmt.Errorf("policyindex: Init was never called")
	}
	slot := pieceSlot(pt)
	if slot < 0 {
		return PolicyIndex{}, fmt.Errorf("policyindex: unsupported piece type %v", pt)
	}
	c := 0
	if color == chess.Black {
		c = 1
	}
	plane := int(table[c][slot][m])
	if plane == noPlane {
		return PolicyIndex{}, fmt.Errorf("policyindex: move %04x is not representable for %v %v", uint16(m), color, pt)
	}
	origin := int(m.From())
	if color == chess.Black {
		origin = 63 - origin
	}
	return PolicyIndex{Rank: origin / 8, File: origin % 8, Plane: plane}, nil
}

// computePlane reproduces move2index_initializer: the direction/distance (or
// knight-delta, or underpromotion) arithmetic is evaluated on the raw
// (unmirrored) origin/destination squares, with the sign of the difference
// flipped for Black so "forward" is consistent regardless of side to move.
func computePlane(color chess.Color, pt chess.PieceType, m move.Move) int {
	from, to := int(m.From()), int(m.To())
	diff := to - from
	if color == chess.Black {
		diff = from - to
	}

	switch pt {
	case chess.King, chess.Queen, chess.Rook, chess.Bishop:
		return sliderPlane(from, to, diff)
	case chess.Knight:
		return knightPlane(diff)
	case chess.Pawn:
		return pawnPlane(diff, m.Promo())
	default:
		return noPlane
	}
}

func sliderPlane(from, to, diff int) int {
	var dir, num int
	switch {
	case diff != 0 && diff%8 == 0:
		dir, num = dirFor(diff, dirN, dirS), diff/8
	case diff != 0 && diff%9 == 0:
		dir, num = dirFor(diff, dirNE, dirSW), diff/9
	case diff != 0 && diff%7 == 0 && from/8 != to/8:
		dir, num = dirFor(diff, dirNW, dirSE), diff/7
	case diff != 0 && abs(diff) < 8:
		dir, num = dirFor(diff, dirE, dirW), diff
	default:
		return noPlane
	}
	num = abs(num)
	if num < 1 || num > 7 {
		return noPlane
	}
	return dir*7 + num - 1
}

func dirFor(diff int, pos, neg int) int {
	if diff > 0 {
		return pos
	}
	return neg
}

func knightPlane(diff int) int {
	switch diff {
	case 10:
		return 56 + 0
	case 17:
		return 56 + 1
	case 15:
		return 56 + 2
	case 6:
		return 56 + 3
	case -10:
		return 56 + 4
	case -17:
		return 56 + 5
	case -15:
		return 56 + 6
	case -6:
		return 56 + 7
	default:
		return noPlane
	}
}

func pawnPlane(diff int, promo chess.PieceType) int {
	prom := true
	var promoBase int
	switch promo {
	case chess.Bishop:
		promoBase = 64
	case chess.Knight:
		promoBase = 67
	case chess.Rook:
		promoBase = 70
	default:
		prom = false
	}

	var dir int
	switch diff {
	case 7:
		dir = dirFor2(prom, 0, dirNW)
	case 8, 16:
		dir = dirFor2(prom, 1, dirN)
	case 9:
		dir = dirFor2(prom, 2, dirNE)
	default:
		return noPlane
	}

	if !prom {
		plane := dir * 7
		if diff == 16 {
			plane++
		}
		return plane
	}
	return promoBase + dir
}

// dirFor2 picks the underpromotion-local direction code (0/1/2) when prom is
// true, or the shared slider direction constant otherwise.
func dirFor2(prom bool, underpromoDir, sliderDir int) int {
	if prom {
		return underpromoDir
	}
	return sliderDir
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
