package naming

import (
	"strconv"
	"strings"

	"github.com/discochess/tablebase/internal/material"
)

// Dir is a decoded table directory name.
type Dir struct {
	Material material.Signature
	PawnFile PawnFileType
	Parity   Parity
}

// File is a decoded table file name.
type File struct {
	Material material.Signature
	Side     material.Color
	KKIndex  uint32
	Kind     Kind
}

const dirSuffix = "_out"

type parityRule struct {
	suffix string
	parity BishopParity
}

var (
	blackParityRules = []parityRule{{"_bbo", Odd}, {"_bbe", Even}}
	whiteParityRules = []parityRule{{"_wbo", Odd}, {"_wbe", Even}}
)

// pawnFileRules are tried in order; the first matching suffix wins.
var pawnFileRules = []struct {
	suffix string
	typ    PawnFileType
}{
	{"_bp1", BP11},
	{"_op1", OP11},
	{"_op21", OP21},
	{"_op12", OP12},
	{"_dp2", DP22},
	{"_op22", OP22},
	{"_op31", OP31},
	{"_op13", OP13},
	{"_op41", OP41},
	{"_op14", OP14},
	{"_op32", OP32},
	{"_op23", OP23},
	{"_op33", OP33},
	{"_op42", OP42},
	{"_op24", OP24},
}

func stripParity(name string, rules []parityRule) (string, BishopParity) {
	for _, r := range rules {
		if rest, ok := strings.CutSuffix(name, r.suffix); ok {
			return rest, r.parity
		}
	}
	return name, None
}

// ParseDirname decodes a table directory name. It reports false for names
// that do not follow the naming convention.
func ParseDirname(name string) (Dir, bool) {
	name, ok := strings.CutSuffix(name, dirSuffix)
	if !ok {
		return Dir{}, false
	}

	var d Dir
	name, d.Parity[material.Black] = stripParity(name, blackParityRules)
	name, d.Parity[material.White] = stripParity(name, whiteParityRules)

	// Pawn file variants and bishop parities are never combined.
	if !d.Parity.Any() {
		for _, r := range pawnFileRules {
			if rest, ok := strings.CutSuffix(name, r.suffix); ok {
				name, d.PawnFile = rest, r.typ
				break
			}
		}
	}

	d.Material, ok = material.Parse(name)
	if !ok {
		return Dir{}, false
	}
	return d, true
}

// ParseFilename decodes a table file name. It reports false for names that
// do not follow the naming convention.
func ParseFilename(name string) (File, bool) {
	var f File
	switch {
	case strings.HasSuffix(name, KindMB.Extension()):
		name, f.Kind = strings.TrimSuffix(name, KindMB.Extension()), KindMB
	case strings.HasSuffix(name, KindHighDTC.Extension()):
		name, f.Kind = strings.TrimSuffix(name, KindHighDTC.Extension()), KindHighDTC
	default:
		return File{}, false
	}

	prefix, kk, ok := strings.Cut(name, "_b_")
	if ok {
		f.Side = material.Black
	} else if prefix, kk, ok = strings.Cut(name, "_w_"); ok {
		f.Side = material.White
	} else {
		return File{}, false
	}

	idx, err := strconv.ParseUint(kk, 10, 32)
	if err != nil {
		return File{}, false
	}
	f.KKIndex = uint32(idx)

	f.Material, ok = material.Parse(prefix)
	if !ok {
		return File{}, false
	}
	return f, true
}
