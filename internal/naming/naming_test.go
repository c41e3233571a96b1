package naming

import (
	"testing"

	"github.com/discochess/tablebase/internal/material"
)

func mustMaterial(t *testing.T, s string) material.Signature {
	t.Helper()
	m, ok := material.Parse(s)
	if !ok {
		t.Fatalf("material.Parse(%q) failed", s)
	}
	return m
}

func TestParseDirname(t *testing.T) {
	tests := []struct {
		name     string
		material string
		pawnFile PawnFileType
		parity   Parity
		ok       bool
	}{
		{"kqkr_out", "kqkr", Free, Parity{}, true},
		{"kpkp_bp1_out", "kpkp", BP11, Parity{}, true},
		{"kpkp_op1_out", "kpkp", OP11, Parity{}, true},
		{"kppkp_op21_out", "kppkp", OP21, Parity{}, true},
		{"kppkpp_dp2_out", "kppkpp", DP22, Parity{}, true},
		{"kppkpp_op22_out", "kppkpp", OP22, Parity{}, true},
		{"kpppkpp_op32_out", "kpppkpp", OP32, Parity{}, true},
		{"kbbk_wbo_out", "kbbk", Free, Parity{Odd, None}, true},
		{"kbkb_bbe_out", "kbkb", Free, Parity{None, Even}, true},
		{"kbkb_wbe_bbo_out", "kbkb", Free, Parity{Even, Odd}, true},
		// A pawn file suffix is not recognized next to a parity suffix.
		{"kbpkp_op1_wbo_out", "", Free, Parity{}, false},
		{"kqkr", "", Free, Parity{}, false},
		{"kqkr_out.tmp", "", Free, Parity{}, false},
		{"kqxkr_out", "", Free, Parity{}, false},
		{"KQK_out", "", Free, Parity{}, false},
		{"kqrbnkqrbn_out", "", Free, Parity{}, false},
		{"_out", "", Free, Parity{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDirname(tt.name)
			if ok != tt.ok {
				t.Fatalf("ParseDirname(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
			if !ok {
				return
			}
			var want material.Signature
			if tt.material != "" {
				want = mustMaterial(t, tt.material)
			}
			if got.Material != want {
				t.Errorf("Material = %v, want %v", got.Material, want)
			}
			if got.PawnFile != tt.pawnFile {
				t.Errorf("PawnFile = %v, want %v", got.PawnFile, tt.pawnFile)
			}
			if got.Parity != tt.parity {
				t.Errorf("Parity = %v, want %v", got.Parity, tt.parity)
			}
		})
	}
}

func TestDirname_RoundTrip(t *testing.T) {
	materials := []string{"kqk", "kpkp", "kbbkn", "kqrbnkqrb"}

	for _, m := range materials {
		sig := mustMaterial(t, m)
		var dirs []Dir
		for p := PawnFileType(0); p < NumPawnFileTypes; p++ {
			dirs = append(dirs, Dir{Material: sig, PawnFile: p})
		}
		for _, w := range []BishopParity{None, Even, Odd} {
			for _, b := range []BishopParity{None, Even, Odd} {
				if w == None && b == None {
					continue
				}
				dirs = append(dirs, Dir{Material: sig, Parity: Parity{w, b}})
			}
		}

		for _, d := range dirs {
			name := d.Name()
			got, ok := ParseDirname(name)
			if !ok {
				t.Errorf("ParseDirname(%q) failed", name)
				continue
			}
			if got != d {
				t.Errorf("ParseDirname(%q) = %+v, want %+v", name, got, d)
			}
		}
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name     string
		material string
		side     material.Color
		kk       uint32
		kind     Kind
		ok       bool
	}{
		{"kqkr_w_0.mb", "kqkr", material.White, 0, KindMB, true},
		{"kqkr_b_461.mb", "kqkr", material.Black, 461, KindMB, true},
		{"kppkp_w_17.hi", "kppkp", material.White, 17, KindHighDTC, true},
		{"kqkr_w_4294967295.mb", "kqkr", material.White, 4294967295, KindMB, true},
		{"kqkr_w_4294967296.mb", "", 0, 0, 0, false},
		{"kqkr_w_.mb", "", 0, 0, 0, false},
		{"kqkr_w_1x.mb", "", 0, 0, 0, false},
		{"kqkr_x_1.mb", "", 0, 0, 0, false},
		{"kqkr_w_1.zst", "", 0, 0, 0, false},
		{"kqkr_w_1", "", 0, 0, 0, false},
		{"kqzkr_b_3.mb", "", 0, 0, 0, false},
		{"KQKR_w_0.mb", "", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFilename(tt.name)
			if ok != tt.ok {
				t.Fatalf("ParseFilename(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
			if !ok {
				return
			}
			want := File{Material: mustMaterial(t, tt.material), Side: tt.side, KKIndex: tt.kk, Kind: tt.kind}
			if got != want {
				t.Errorf("ParseFilename(%q) = %+v, want %+v", tt.name, got, want)
			}
			if back := got.Name(); back != tt.name {
				t.Errorf("Name() = %q, want %q", back, tt.name)
			}
		})
	}
}

func TestKey_Path(t *testing.T) {
	k := Key{
		Material: mustMaterial(t, "kbpkp"),
		Parity:   Parity{Odd, None},
		Side:     material.Black,
		KKIndex:  7,
		Kind:     KindMB,
	}
	if got, want := k.Path(), "kbpkp_wbo_out/kbpkp_b_7.mb"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}

	d, _ := ParseDirname(k.Dir().Name())
	f, _ := ParseFilename(k.File().Name())
	if got := NewKey(d, f); got != k {
		t.Errorf("NewKey() = %+v, want %+v", got, k)
	}
}

func TestPawnFileType_String(t *testing.T) {
	seen := make(map[string]bool)
	for p := PawnFileType(0); p < NumPawnFileTypes; p++ {
		s := p.String()
		if s == "invalid" || seen[s] {
			t.Errorf("PawnFileType(%d).String() = %q", p, s)
		}
		seen[s] = true
		if !p.Valid() {
			t.Errorf("PawnFileType(%d).Valid() = false", p)
		}
	}
	if PawnFileType(NumPawnFileTypes).Valid() {
		t.Error("out of range PawnFileType should not be valid")
	}
}
