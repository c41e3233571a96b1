// Package naming decodes and encodes the directory and file names of an MB
// table set.
//
// A table set is a root directory holding one directory per material and
// structural variant (for example "kqpkp_op1_out" or "kbbk_wbo_out"), each of
// which holds one file per side to move and king configuration bucket
// (for example "kqpkp_w_12.mb").
package naming

import (
	"path"

	"github.com/discochess/tablebase/internal/material"
)

// PawnFileType classifies the file occupancy of the pawns.
type PawnFileType uint8

const (
	Free PawnFileType = iota
	BP11
	OP11
	OP21
	OP12
	OP22
	DP22
	OP31
	OP13
	OP41
	OP14
	OP32
	OP23
	OP33
	OP42
	OP24
)

// NumPawnFileTypes is the number of pawn file types.
const NumPawnFileTypes = 16

var pawnFileNames = [NumPawnFileTypes]string{
	"free", "bp11", "op11", "op21", "op12", "op22", "dp22", "op31",
	"op13", "op41", "op14", "op32", "op23", "op33", "op42", "op24",
}

func (p PawnFileType) String() string {
	if int(p) < len(pawnFileNames) {
		return pawnFileNames[p]
	}
	return "invalid"
}

// Valid reports whether p is one of the known pawn file types.
func (p PawnFileType) Valid() bool {
	return p < NumPawnFileTypes
}

// BishopParity restricts the square colors of one side's bishops.
type BishopParity uint8

const (
	None BishopParity = iota
	Even
	Odd
)

func (b BishopParity) String() string {
	switch b {
	case None:
		return "none"
	case Even:
		return "even"
	case Odd:
		return "odd"
	}
	return "invalid"
}

// Parity holds the bishop parity of White and Black, indexed by color.
type Parity [2]BishopParity

// Any reports whether either side carries a bishop parity.
func (p Parity) Any() bool {
	return p[material.White] != None || p[material.Black] != None
}

// Kind distinguishes the primary tables from the high-DTC overflow tables.
type Kind uint8

const (
	KindMB Kind = iota
	KindHighDTC
)

func (k Kind) String() string {
	if k == KindMB {
		return "mb"
	}
	return "hi"
}

// Extension returns the file extension of tables of kind k.
func (k Kind) Extension() string {
	if k == KindMB {
		return ".mb"
	}
	return ".hi"
}

// Key identifies a single table of a table set.
type Key struct {
	Material material.Signature
	PawnFile PawnFileType
	Parity   Parity
	Side     material.Color
	KKIndex  uint32
	Kind     Kind
}

// Dir returns the directory part of k.
func (k Key) Dir() Dir {
	return Dir{Material: k.Material, PawnFile: k.PawnFile, Parity: k.Parity}
}

// File returns the file part of k.
func (k Key) File() File {
	return File{Material: k.Material, Side: k.Side, KKIndex: k.KKIndex, Kind: k.Kind}
}

// Path returns the slash-separated path of the table relative to the root of
// its table set. Distinct keys have distinct paths.
func (k Key) Path() string {
	return path.Join(k.Dir().Name(), k.File().Name())
}

func (k Key) String() string {
	return k.Path()
}

// NewKey combines a decoded directory and file into a table key.
func NewKey(d Dir, f File) Key {
	return Key{
		Material: f.Material,
		PawnFile: d.PawnFile,
		Parity:   d.Parity,
		Side:     f.Side,
		KKIndex:  f.KKIndex,
		Kind:     f.Kind,
	}
}
