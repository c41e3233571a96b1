package tablebase

import (
	"context"
	"fmt"

	"github.com/discochess/tablebase/internal/mbinfo"
	"github.com/discochess/tablebase/internal/naming"
	"github.com/discochess/tablebase/internal/position"
	"github.com/discochess/tablebase/internal/registry"
)

// selectTable finds the table holding pos and the index of pos within it.
// It returns a nil table when no registered table applies.
func (tb *Tablebase) selectTable(ctx context.Context, pos *position.Position, info mbinfo.Info, kind naming.Kind) (registry.Table, uint64, error) {
	base := naming.Key{
		Material: pos.Material(),
		PawnFile: naming.Free,
		Side:     pos.Turn(),
		KKIndex:  info.KKIndex,
		Kind:     kind,
	}

	// Bishop parity tables take precedence, in classifier order.
	for _, c := range info.Parities {
		key := base
		key.Parity = c.Parity
		t, err := tb.registry.Lookup(ctx, key)
		if err != nil {
			return nil, 0, err
		}
		if t != nil {
			return t, c.Index, nil
		}
	}

	var index uint64
	switch info.PawnFile {
	case naming.Free:
		index = mbinfo.NotApplicable
	case naming.BP11:
		t, err := tb.lookupApplicable(ctx, base, naming.OP11, info.OP11)
		if err != nil || t != nil {
			return t, info.OP11, err
		}
		index = info.BP11
	case naming.OP11:
		index = info.OP11
	case naming.OP21:
		index = info.OP21
	case naming.OP12:
		index = info.OP12
	case naming.OP22:
		index = info.OP22
	case naming.DP22:
		t, err := tb.lookupApplicable(ctx, base, naming.OP22, info.OP22)
		if err != nil || t != nil {
			return t, info.OP22, err
		}
		index = info.DP22
	case naming.OP31:
		index = info.OP31
	case naming.OP13:
		index = info.OP13
	case naming.OP41:
		index = info.OP41
	case naming.OP14:
		index = info.OP14
	case naming.OP32:
		index = info.OP32
	case naming.OP23:
		index = info.OP23
	case naming.OP33:
		index = info.OP33
	case naming.OP42:
		index = info.OP42
	case naming.OP24:
		index = info.OP24
	default:
		return nil, 0, fmt.Errorf("unknown pawn file type %d", info.PawnFile)
	}

	if index == mbinfo.NotApplicable {
		return nil, 0, nil
	}

	key := base
	key.PawnFile = info.PawnFile
	t, err := tb.registry.Lookup(ctx, key)
	if err != nil || t == nil {
		return nil, 0, err
	}
	return t, index, nil
}

// lookupApplicable looks up the pawn file variant of base when index applies.
func (tb *Tablebase) lookupApplicable(ctx context.Context, base naming.Key, pf naming.PawnFileType, index uint64) (registry.Table, error) {
	if index == mbinfo.NotApplicable {
		return nil, nil
	}
	key := base
	key.PawnFile = pf
	return tb.registry.Lookup(ctx, key)
}
