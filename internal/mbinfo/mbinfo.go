// Package mbinfo defines the interface to the native index classifier that
// maps a position to the king configuration bucket, pawn file type and table
// indices of the MB table set.
package mbinfo

import (
	"github.com/discochess/tablebase/internal/material"
	"github.com/discochess/tablebase/internal/naming"
)

// NotApplicable marks an index that does not apply to the position.
const NotApplicable = ^uint64(0)

// Piece codes used in Request.Board. White pieces are positive, Black pieces
// negative, empty squares zero.
const (
	Pawn   int8 = 1
	Knight int8 = 2
	Bishop int8 = 3
	Rook   int8 = 4
	Queen  int8 = 5
	King   int8 = 6
)

// PieceCode returns the board code of a piece.
func PieceCode(c material.Color, r material.Role) int8 {
	code := int8(r) + 1
	if c == material.Black {
		return -code
	}
	return code
}

// Request is the classifier input for a single position.
type Request struct {
	// Board holds one piece code per square, a1 = 0 through h8 = 63.
	Board [64]int8
	Turn  material.Color
	// EnPassant is the en passant target square, or 0 if there is none.
	EnPassant int
}

// ParityCandidate is a bishop parity table that may hold the position,
// together with the index of the position in that table.
type ParityCandidate struct {
	Parity naming.Parity
	Index  uint64
}

// Info is the classifier output for a single position.
type Info struct {
	KKIndex  uint32
	PawnFile naming.PawnFileType

	// Parities lists candidate bishop parity tables in the order they must
	// be tried.
	Parities []ParityCandidate

	// Per pawn file type indices. Each is NotApplicable when the position
	// cannot be found in a table of that type.
	OP11 uint64
	BP11 uint64
	OP21 uint64
	OP12 uint64
	OP22 uint64
	DP22 uint64
	OP31 uint64
	OP13 uint64
	OP41 uint64
	OP14 uint64
	OP32 uint64
	OP23 uint64
	OP33 uint64
	OP42 uint64
	OP24 uint64
}

// Classifier computes table indices for positions.
// Implementations must be safe for concurrent use.
type Classifier interface {
	// AddPath tells the classifier about a table set directory.
	AddPath(dir string)

	// Classify computes the table indices of a position. It reports false
	// when no table data is available for the position.
	Classify(req Request) (Info, bool)
}
