//go:build cgo && mbeval

// Package mbeval binds the native mbeval library, which implements the index
// computation of the MB table set.
//
// Build with -tags mbeval and make mbeval.h and libmbeval available to cgo,
// for example through CGO_CFLAGS and CGO_LDFLAGS.
package mbeval

/*
#cgo LDFLAGS: -lmbeval
#include <stdlib.h>
#include <mbeval.h>
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/discochess/tablebase/internal/material"
	"github.com/discochess/tablebase/internal/mbinfo"
	"github.com/discochess/tablebase/internal/naming"
)

// Compile-time check that Classifier implements mbinfo.Classifier.
var _ mbinfo.Classifier = (*Classifier)(nil)

var initOnce sync.Once

// Classifier calls into mbeval.
type Classifier struct {
	// mbeval keeps its table paths in process-global state.
	mu sync.Mutex
}

// New initializes mbeval, once per process, and returns a classifier.
func New() *Classifier {
	initOnce.Do(func() {
		C.mbeval_init()
	})
	return &Classifier{}
}

// AddPath registers a table set directory with mbeval.
func (c *Classifier) AddPath(dir string) {
	cdir := C.CString(dir)
	defer C.free(unsafe.Pointer(cdir))

	c.mu.Lock()
	defer c.mu.Unlock()
	C.mbeval_add_path(cdir)
}

var pieceCodes = [...]C.int{
	mbinfo.Pawn:   C.PAWN,
	mbinfo.Knight: C.KNIGHT,
	mbinfo.Bishop: C.BISHOP,
	mbinfo.Rook:   C.ROOK,
	mbinfo.Queen:  C.QUEEN,
	mbinfo.King:   C.KING,
}

// Classify computes the MB_INFO of a position.
func (c *Classifier) Classify(req mbinfo.Request) (mbinfo.Info, bool) {
	var squares [64]C.int
	for sq, code := range req.Board {
		switch {
		case code > 0:
			squares[sq] = pieceCodes[code]
		case code < 0:
			squares[sq] = -pieceCodes[-code]
		}
	}

	side := C.int(C.WHITE)
	if req.Turn == material.Black {
		side = C.int(C.BLACK)
	}

	var info C.MB_INFO
	// No castling rights and no move counters; the last flag asks for the
	// full set of per pawn file indices.
	if C.mbeval_get_mb_info(&squares[0], side, C.int(req.EnPassant), 0, 0, 1, &info) != 0 {
		return mbinfo.Info{}, false
	}
	return convert(&info)
}

func convert(info *C.MB_INFO) (mbinfo.Info, bool) {
	pawnFile, ok := pawnFileTypes[int(info.pawn_file_type)]
	if !ok {
		return mbinfo.Info{}, false
	}

	out := mbinfo.Info{
		KKIndex:  uint32(info.kk_index),
		PawnFile: pawnFile,
		OP11:     uint64(info.index_op_11),
		BP11:     uint64(info.index_bp_11),
		OP21:     uint64(info.index_op_21),
		OP12:     uint64(info.index_op_12),
		OP22:     uint64(info.index_op_22),
		DP22:     uint64(info.index_dp_22),
		OP31:     uint64(info.index_op_31),
		OP13:     uint64(info.index_op_13),
		OP41:     uint64(info.index_op_41),
		OP14:     uint64(info.index_op_14),
		OP32:     uint64(info.index_op_32),
		OP23:     uint64(info.index_op_23),
		OP33:     uint64(info.index_op_33),
		OP42:     uint64(info.index_op_42),
		OP24:     uint64(info.index_op_24),
	}

	for i := 0; i < int(info.num_parities); i++ {
		p := info.parity_index[i]
		white, ok := bishopParities[int(p.bishop_parity[0])]
		if !ok {
			return mbinfo.Info{}, false
		}
		black, ok := bishopParities[int(p.bishop_parity[1])]
		if !ok {
			return mbinfo.Info{}, false
		}
		out.Parities = append(out.Parities, mbinfo.ParityCandidate{
			Parity: naming.Parity{white, black},
			Index:  uint64(p.index),
		})
	}

	return out, true
}

var bishopParities = map[int]naming.BishopParity{
	int(C.NONE): naming.None,
	int(C.EVEN): naming.Even,
	int(C.ODD):  naming.Odd,
}

var pawnFileTypes = map[int]naming.PawnFileType{
	int(C.FREE_PAWNS):  naming.Free,
	int(C.BP_11_PAWNS): naming.BP11,
	int(C.OP_11_PAWNS): naming.OP11,
	int(C.OP_21_PAWNS): naming.OP21,
	int(C.OP_12_PAWNS): naming.OP12,
	int(C.OP_22_PAWNS): naming.OP22,
	int(C.DP_22_PAWNS): naming.DP22,
	int(C.OP_31_PAWNS): naming.OP31,
	int(C.OP_13_PAWNS): naming.OP13,
	int(C.OP_41_PAWNS): naming.OP41,
	int(C.OP_14_PAWNS): naming.OP14,
	int(C.OP_32_PAWNS): naming.OP32,
	int(C.OP_23_PAWNS): naming.OP23,
	int(C.OP_33_PAWNS): naming.OP33,
	int(C.OP_42_PAWNS): naming.OP42,
	int(C.OP_24_PAWNS): naming.OP24,
}
