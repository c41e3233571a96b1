package naming

import (
	"strconv"
	"strings"

	"github.com/discochess/tablebase/internal/material"
)

var paritySuffixes = [2][3]string{
	material.White: {None: "", Even: "_wbe", Odd: "_wbo"},
	material.Black: {None: "", Even: "_bbe", Odd: "_bbo"},
}

func (p PawnFileType) suffix() string {
	for _, r := range pawnFileRules {
		if r.typ == p {
			return r.suffix
		}
	}
	return ""
}

// Name encodes d as a directory name. A directory with a bishop parity never
// carries a pawn file suffix, so PawnFile is ignored when Parity is set.
func (d Dir) Name() string {
	var b strings.Builder
	b.WriteString(d.Material.String())
	if d.Parity.Any() {
		b.WriteString(paritySuffixes[material.White][d.Parity[material.White]])
		b.WriteString(paritySuffixes[material.Black][d.Parity[material.Black]])
	} else {
		b.WriteString(d.PawnFile.suffix())
	}
	b.WriteString(dirSuffix)
	return b.String()
}

// Name encodes f as a file name.
func (f File) Name() string {
	return f.Material.String() + "_" + string(f.Side.Char()) + "_" +
		strconv.FormatUint(uint64(f.KKIndex), 10) + f.Kind.Extension()
}
