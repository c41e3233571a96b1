package tablebase

import "fmt"

// Value is the result of a successful probe.
type Value struct {
	// DTC is the signed distance to conversion. Zero is a draw; a positive
	// distance favours the side to move, a negative one the opponent.
	DTC int
}

// Draw is the value of a drawn position.
var Draw = Value{}

// IsDraw reports whether v is a draw.
func (v Value) IsDraw() bool {
	return v.DTC == 0
}

// String returns "draw" or the signed distance, e.g. "+12" or "-7".
func (v Value) String() string {
	if v.IsDraw() {
		return "draw"
	}
	return fmt.Sprintf("%+d", v.DTC)
}
