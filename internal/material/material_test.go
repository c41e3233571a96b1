package material

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		white map[Role]uint8
		black map[Role]uint8
		ok    bool
	}{
		{"kings only", "kk", map[Role]uint8{King: 1}, map[Role]uint8{King: 1}, true},
		{"queen vs rook", "kqkr", map[Role]uint8{King: 1, Queen: 1}, map[Role]uint8{King: 1, Rook: 1}, true},
		{"upper case", "KBNK", nil, nil, false},
		{"mixed case", "kQk", nil, nil, false},
		{"pawns both sides", "kppkp", map[Role]uint8{King: 1, Pawn: 2}, map[Role]uint8{King: 1, Pawn: 1}, true},
		{"nine pieces", "kqrbnkqrb", map[Role]uint8{King: 1, Queen: 1, Rook: 1, Bishop: 1, Knight: 1}, map[Role]uint8{King: 1, Queen: 1, Rook: 1, Bishop: 1}, true},
		{"too long", "kqrbnkqrbn", nil, nil, false},
		{"invalid letter", "kxk", nil, nil, false},
		{"separator", "kq_kr", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			if ok != tt.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if !ok {
				return
			}
			var want Signature
			for r, n := range tt.white {
				want[White][r] = n
			}
			for r, n := range tt.black {
				want[Black][r] = n
			}
			if got != want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

func TestSignature_StringRoundTrip(t *testing.T) {
	for _, name := range []string{"kk", "kqk", "kqkr", "kbbknn", "kppkp", "krbnkqp", "kqrbnkqrb"} {
		s, ok := Parse(name)
		if !ok {
			t.Fatalf("Parse(%q) failed", name)
		}
		if got := s.String(); got != name {
			t.Errorf("Parse(%q).String() = %q", name, got)
		}
		back, ok := Parse(s.String())
		if !ok || back != s {
			t.Errorf("Parse(String()) = %v, %v; want %v", back, ok, s)
		}
	}
}

func TestSignature_Counts(t *testing.T) {
	s, _ := Parse("kqrkpp")

	if got := s.Pieces(White); got != 3 {
		t.Errorf("Pieces(White) = %d, want 3", got)
	}
	if got := s.Pieces(Black); got != 3 {
		t.Errorf("Pieces(Black) = %d, want 3", got)
	}
	if got := s.Total(); got != 6 {
		t.Errorf("Total() = %d, want 6", got)
	}
	if got := s.Count(Black, Pawn); got != 2 {
		t.Errorf("Count(Black, Pawn) = %d, want 2", got)
	}
	if got := s.Strength(White); got != 14 {
		t.Errorf("Strength(White) = %d, want 14", got)
	}
	if got := s.Strength(Black); got != 2 {
		t.Errorf("Strength(Black) = %d, want 2", got)
	}
	if got := s.Mirror().String(); got != "kppkqr" {
		t.Errorf("Mirror().String() = %q, want %q", got, "kppkqr")
	}
}

func TestRoleFromChar(t *testing.T) {
	for r := Pawn; r <= King; r++ {
		got, ok := RoleFromChar(r.Char())
		if !ok || got != r {
			t.Errorf("RoleFromChar(%q) = %v, %v", r.Char(), got, ok)
		}
		if _, ok := RoleFromChar(r.Char() - 'a' + 'A'); ok {
			t.Errorf("RoleFromChar(upper %q) should fail", r.Char())
		}
	}
	if _, ok := RoleFromChar('x'); ok {
		t.Error("RoleFromChar('x') should fail")
	}
}
