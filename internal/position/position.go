// Package position adapts notnil/chess positions to the needs of table
// probing: material signatures, classifier requests and color mirroring.
package position

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"

	"github.com/discochess/tablebase/internal/material"
	"github.com/discochess/tablebase/internal/mbinfo"
)

// ErrInvalidFEN indicates the FEN string is malformed.
var ErrInvalidFEN = errors.New("invalid FEN notation")

// Position is an immutable chess position.
type Position struct {
	pos *chess.Position
	mat material.Signature
}

// Parse parses a FEN string. The halfmove clock and fullmove number may be
// omitted.
func Parse(fen string) (*Position, error) {
	if fields := strings.Fields(fen); len(fields) == 4 {
		fen = strings.Join(append(fields, "0", "1"), " ")
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return FromChess(chess.NewGame(opt).Position()), nil
}

// FromChess wraps a notnil/chess position.
func FromChess(pos *chess.Position) *Position {
	p := &Position{pos: pos}
	for _, pc := range pos.Board().SquareMap() {
		c, ok := colorOf(pc.Color())
		if !ok {
			continue
		}
		r, ok := roleOf(pc.Type())
		if !ok {
			continue
		}
		p.mat[c][r]++
	}
	return p
}

// Chess returns the underlying notnil/chess position.
func (p *Position) Chess() *chess.Position {
	return p.pos
}

// String returns the FEN of the position.
func (p *Position) String() string {
	return p.pos.String()
}

// Turn returns the side to move.
func (p *Position) Turn() material.Color {
	if p.pos.Turn() == chess.Black {
		return material.Black
	}
	return material.White
}

// Material returns the material signature of the position.
func (p *Position) Material() material.Signature {
	return p.mat
}

// Occupied returns the number of pieces on the board.
func (p *Position) Occupied() int {
	return p.mat.Total()
}

// Pieces returns the number of pieces of color c, king included.
func (p *Position) Pieces(c material.Color) int {
	return p.mat.Pieces(c)
}

// HasCastlingRights reports whether either side may still castle.
func (p *Position) HasCastlingRights() bool {
	cr := p.pos.CastleRights()
	for _, c := range [...]chess.Color{chess.White, chess.Black} {
		if cr.CanCastle(c, chess.KingSide) || cr.CanCastle(c, chess.QueenSide) {
			return true
		}
	}
	return false
}

// EnPassant returns the en passant target square if an en passant capture is
// actually legal.
func (p *Position) EnPassant() (chess.Square, bool) {
	sq := p.pos.EnPassantSquare()
	if sq == chess.NoSquare {
		return chess.NoSquare, false
	}
	for _, m := range p.pos.ValidMoves() {
		if m.HasTag(chess.EnPassant) {
			return sq, true
		}
	}
	return chess.NoSquare, false
}

// Request builds the classifier input for the position.
func (p *Position) Request() mbinfo.Request {
	req := mbinfo.Request{Turn: p.Turn()}
	for sq, pc := range p.pos.Board().SquareMap() {
		c, ok := colorOf(pc.Color())
		if !ok {
			continue
		}
		r, ok := roleOf(pc.Type())
		if !ok {
			continue
		}
		req.Board[sq] = mbinfo.PieceCode(c, r)
	}
	if sq, ok := p.EnPassant(); ok {
		req.EnPassant = int(sq)
	}
	return req
}

// InsufficientMaterial reports whether neither side can possibly checkmate.
func (p *Position) InsufficientMaterial() bool {
	return p.insufficient(material.White) && p.insufficient(material.Black)
}

func (p *Position) insufficient(c material.Color) bool {
	own, opp := p.mat[c], p.mat[c.Other()]
	if own[material.Pawn]+own[material.Rook]+own[material.Queen] > 0 {
		return false
	}

	// A lone knight cannot mate unless the opponent has pieces to
	// obstruct its own king.
	if own[material.Knight] > 0 {
		return p.mat.Pieces(c) <= 2 &&
			opp[material.Pawn]+opp[material.Knight]+opp[material.Bishop]+opp[material.Rook] == 0
	}

	// Bishops cannot mate if all bishops on the board share a square color
	// and there is nothing else to block with.
	if own[material.Bishop] > 0 {
		return p.bishopsOnOneColor() &&
			p.mat.Count(material.White, material.Pawn)+p.mat.Count(material.Black, material.Pawn) == 0 &&
			p.mat.Count(material.White, material.Knight)+p.mat.Count(material.Black, material.Knight) == 0
	}

	return true
}

func (p *Position) bishopsOnOneColor() bool {
	var dark, light bool
	for sq, pc := range p.pos.Board().SquareMap() {
		if pc.Type() != chess.Bishop {
			continue
		}
		if (int(sq.File())+int(sq.Rank()))%2 == 0 {
			dark = true
		} else {
			light = true
		}
	}
	return !(dark && light)
}

// Mirror returns the position with the board flipped vertically and the
// colors swapped, including side to move, castling rights and en passant.
func (p *Position) Mirror() (*Position, error) {
	board := p.pos.Board().SquareMap()
	flipped := make(map[chess.Square]chess.Piece, len(board))
	for sq, pc := range board {
		flipped[mirrorSquare(sq)] = chess.NewPiece(pc.Type(), pc.Color().Other())
	}

	turn := "b"
	if p.pos.Turn() == chess.Black {
		turn = "w"
	}

	cr := p.pos.CastleRights()
	var castle strings.Builder
	for _, r := range []struct {
		from chess.Color
		side chess.Side
		char byte
	}{
		{chess.Black, chess.KingSide, 'K'},
		{chess.Black, chess.QueenSide, 'Q'},
		{chess.White, chess.KingSide, 'k'},
		{chess.White, chess.QueenSide, 'q'},
	} {
		if cr.CanCastle(r.from, r.side) {
			castle.WriteByte(r.char)
		}
	}
	if castle.Len() == 0 {
		castle.WriteByte('-')
	}

	ep := "-"
	if sq, ok := p.EnPassant(); ok {
		ep = mirrorSquare(sq).String()
	}

	return Parse(fmt.Sprintf("%s %s %s %s 0 1", chess.NewBoard(flipped).String(), turn, castle.String(), ep))
}

func mirrorSquare(sq chess.Square) chess.Square {
	return chess.Square(int(sq) ^ 56)
}

func colorOf(c chess.Color) (material.Color, bool) {
	switch c {
	case chess.White:
		return material.White, true
	case chess.Black:
		return material.Black, true
	}
	return 0, false
}

func roleOf(t chess.PieceType) (material.Role, bool) {
	switch t {
	case chess.Pawn:
		return material.Pawn, true
	case chess.Knight:
		return material.Knight, true
	case chess.Bishop:
		return material.Bishop, true
	case chess.Rook:
		return material.Rook, true
	case chess.Queen:
		return material.Queen, true
	case chess.King:
		return material.King, true
	}
	return 0, false
}
