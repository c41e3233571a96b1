// Package pgn extracts endgame positions from PGN files.
package pgn

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/notnil/chess"
)

// ExtractEndgames extracts the unique positions with at most maxPieces
// pieces, kings included, from a PGN stream. FENs are returned in the order
// they first appear.
func ExtractEndgames(r io.Reader, maxPieces int) ([]string, error) {
	fens, _, err := ExtractWithStats(r, maxPieces)
	return fens, err
}

// ExtractEndgamesFromGames extracts endgame positions per game.
// Unlike ExtractEndgames, this preserves duplicates and game boundaries.
// Games that never reach maxPieces pieces are left out.
func ExtractEndgamesFromGames(r io.Reader, maxPieces int) ([][]string, GameStats, error) {
	var games [][]string
	var gs GameStats

	scanner := bufio.NewScanner(r)
	// Increase buffer size for long lines.
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var gameText strings.Builder
	inGame := false

	flush := func() {
		if gameText.Len() == 0 {
			return
		}
		fens, total, err := extractFromGame(gameText.String(), maxPieces)
		gameText.Reset()
		if err != nil {
			gs.SkippedGames++
			return
		}
		gs.TotalGames++
		gs.TotalPositions += total
		if len(fens) > 0 {
			games = append(games, fens)
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		// Detect game boundaries.
		if strings.HasPrefix(line, "[Event ") {
			if inGame {
				flush()
			}
			inGame = true
		}

		if inGame {
			gameText.WriteString(line)
			gameText.WriteString("\n")
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, GameStats{}, fmt.Errorf("reading PGN: %w", err)
	}

	gs.EndgameGames = len(games)
	return games, gs, nil
}

// extractFromGame returns the endgame FENs of a game and its total number of
// positions.
func extractFromGame(pgnText string, maxPieces int) ([]string, int, error) {
	pgnFunc, err := chess.PGN(strings.NewReader(pgnText))
	if err != nil {
		return nil, 0, err
	}

	game := chess.NewGame(pgnFunc)

	var fens []string
	positions := game.Positions()
	for _, pos := range positions {
		if len(pos.Board().SquareMap()) > maxPieces {
			continue
		}
		fens = append(fens, normalizeFEN(pos.String()))
	}

	return fens, len(positions), nil
}

// normalizeFEN normalizes a FEN to 4 fields (piece placement, side, castling, en passant).
func normalizeFEN(fen string) string {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return fen
	}
	return strings.Join(parts[:4], " ")
}

// GameStats contains statistics about endgame extraction.
type GameStats struct {
	TotalGames       int
	SkippedGames     int
	EndgameGames     int
	TotalPositions   int
	EndgamePositions int
	UniquePositions  int
}

// ExtractWithStats extracts unique endgame FENs and returns statistics.
func ExtractWithStats(r io.Reader, maxPieces int) ([]string, GameStats, error) {
	games, gs, err := ExtractEndgamesFromGames(r, maxPieces)
	if err != nil {
		return nil, GameStats{}, err
	}

	seen := make(map[string]struct{})
	var fens []string

	for _, gameFENs := range games {
		gs.EndgamePositions += len(gameFENs)
		for _, fen := range gameFENs {
			if _, ok := seen[fen]; !ok {
				seen[fen] = struct{}{}
				fens = append(fens, fen)
			}
		}
	}

	gs.UniquePositions = len(fens)
	return fens, gs, nil
}
