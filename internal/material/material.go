// Package material describes the piece material of a chess position, as used
// by table names.
package material

// Color is one side of the board.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposing color.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Char returns the single-letter code used in table file names.
func (c Color) Char() byte {
	if c == White {
		return 'w'
	}
	return 'b'
}

// Role is a piece kind, independent of color.
type Role uint8

const (
	Pawn Role = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

// NumRoles is the number of piece roles.
const NumRoles = 6

var roleChars = [NumRoles]byte{'p', 'n', 'b', 'r', 'q', 'k'}

// Char returns the lowercase letter for r.
func (r Role) Char() byte {
	return roleChars[r]
}

// RoleFromChar parses a lowercase role letter. Table names never use
// uppercase, so uppercase letters are rejected.
func RoleFromChar(c byte) (Role, bool) {
	for r, rc := range roleChars {
		if rc == c {
			return Role(r), true
		}
	}
	return 0, false
}

// MaxNameLen bounds the length of a material string in a table name.
const MaxNameLen = 9

// Signature holds the piece count of every role for both colors.
// It is comparable and can be used inside map keys.
type Signature [2][NumRoles]uint8

// Parse decodes a material string such as "kqkr".
//
// Pieces are attributed to Black until the first king letter, and every king
// letter switches the side before it is counted, so the string reads as
// k<white pieces>k<black pieces>.
func Parse(name string) (Signature, bool) {
	var s Signature
	if len(name) > MaxNameLen {
		return s, false
	}
	color := Black
	for i := 0; i < len(name); i++ {
		role, ok := RoleFromChar(name[i])
		if !ok {
			return Signature{}, false
		}
		if role == King {
			color = color.Other()
		}
		s[color][role]++
	}
	return s, true
}

// encodeOrder lists the roles in table name order after the king.
var encodeOrder = [...]Role{Queen, Rook, Bishop, Knight, Pawn}

// String encodes s as k<white pieces>k<black pieces>.
func (s Signature) String() string {
	buf := make([]byte, 0, s.Total())
	for _, c := range [...]Color{White, Black} {
		for i := uint8(0); i < s[c][King]; i++ {
			buf = append(buf, King.Char())
		}
		for _, r := range encodeOrder {
			for i := uint8(0); i < s[c][r]; i++ {
				buf = append(buf, r.Char())
			}
		}
	}
	return string(buf)
}

// Count returns the number of pieces of the given color and role.
func (s Signature) Count(c Color, r Role) int {
	return int(s[c][r])
}

// Pieces returns the number of pieces of color c, king included.
func (s Signature) Pieces(c Color) int {
	n := 0
	for _, v := range s[c] {
		n += int(v)
	}
	return n
}

// Total returns the number of pieces on the board.
func (s Signature) Total() int {
	return s.Pieces(White) + s.Pieces(Black)
}

var roleValues = [NumRoles]int{1, 3, 3, 5, 9, 0}

// Strength returns a simple material score for color c:
// pawn 1, knight 3, bishop 3, rook 5, queen 9.
func (s Signature) Strength(c Color) int {
	n := 0
	for r, v := range s[c] {
		n += int(v) * roleValues[r]
	}
	return n
}

// Mirror returns s with the colors swapped.
func (s Signature) Mirror() Signature {
	return Signature{s[Black], s[White]}
}
