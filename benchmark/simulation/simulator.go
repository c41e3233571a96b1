// Package simulation replays the endgame positions of games against a
// tablebase the way an engine would probe them during play.
package simulation

import (
	"context"
	"errors"
	"time"

	"github.com/discochess/tablebase"
	"github.com/discochess/tablebase/internal/position"
)

// Prober probes positions given in FEN.
type Prober interface {
	ProbeFEN(ctx context.Context, fen string) (tablebase.Value, error)
}

// Compile-time check that the tablebase implements Prober.
var _ Prober = (*tablebase.Tablebase)(nil)

// Outcome classifies a probe.
type Outcome uint8

// Probe outcomes.
const (
	OutcomeResolved Outcome = iota
	OutcomeDraw
	OutcomeNoData
	OutcomeError
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{OutcomeResolved, OutcomeDraw, OutcomeNoData, OutcomeError}

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeDraw:
		return "draw"
	case OutcomeNoData:
		return "no data"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Simulator probes games position by position.
type Simulator struct {
	name   string
	prober Prober
}

// NewSimulator creates a Simulator that reports its results under name.
func NewSimulator(name string, prober Prober) *Simulator {
	return &Simulator{name: name, prober: prober}
}

// SimulateGame probes every position of a game in order.
// It returns early only when ctx is done.
func (s *Simulator) SimulateGame(ctx context.Context, fens []string) (*GameResult, error) {
	result := &GameResult{
		Latencies: make([]time.Duration, 0, len(fens)),
		Outcomes:  make([]Outcome, 0, len(fens)),
		Materials: make([]string, 0, len(fens)),
	}

	lastMaterial := ""
	for _, fen := range fens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pos, err := position.Parse(fen)
		if err != nil {
			result.Errors++
			continue
		}
		mat := pos.Material().String()
		result.Materials = append(result.Materials, mat)
		if mat != lastMaterial {
			result.TableSwitches++
			lastMaterial = mat
		}

		start := time.Now()
		v, err := s.prober.ProbeFEN(ctx, fen)
		elapsed := time.Since(start)

		var outcome Outcome
		switch {
		case err == nil && v.IsDraw():
			outcome = OutcomeDraw
			result.Draws++
		case err == nil:
			outcome = OutcomeResolved
			result.Resolved++
			result.DTCs = append(result.DTCs, abs(v.DTC))
		case errors.Is(err, tablebase.ErrNotFound):
			outcome = OutcomeNoData
			result.NoData++
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			outcome = OutcomeError
			result.Errors++
		}
		result.Latencies = append(result.Latencies, elapsed)
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result, nil
}

// SimulateGames probes multiple games and aggregates results.
func (s *Simulator) SimulateGames(ctx context.Context, games [][]string) (*AggregateResult, error) {
	agg := &AggregateResult{
		Name:             s.name,
		MaterialHits:     make(map[string]int),
		OutcomeLatencies: make(map[Outcome][]float64),
		SwitchesPerGame: make([]int, 0, len(games)),
	}

	for _, game := range games {
		gr, err := s.SimulateGame(ctx, game)
		if err != nil {
			return nil, err
		}

		agg.Games++
		agg.TotalProbes += len(gr.Latencies)
		agg.Resolved += gr.Resolved
		agg.Draws += gr.Draws
		agg.NoData += gr.NoData
		agg.Errors += gr.Errors
		agg.TotalSwitches += gr.TableSwitches
		agg.SwitchesPerGame = append(agg.SwitchesPerGame, gr.TableSwitches)
		agg.DTCs = append(agg.DTCs, gr.DTCs...)

		for i, d := range gr.Latencies {
			us := float64(d.Microseconds())
			agg.Latencies = append(agg.Latencies, us)
			agg.OutcomeLatencies[gr.Outcomes[i]] = append(agg.OutcomeLatencies[gr.Outcomes[i]], us)
		}
		for _, m := range gr.Materials {
			agg.MaterialHits[m]++
		}
	}

	return agg, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// GameResult contains the probe outcomes of a single game.
type GameResult struct {
	Resolved      int // Probes that returned a distance.
	Draws         int
	NoData        int
	Errors        int
	TableSwitches int // Number of times the material signature changed.
	Latencies     []time.Duration
	Outcomes      []Outcome // Outcome of each latency sample.
	Materials     []string  // Material signatures probed in order.
	DTCs          []int    // Absolute distances of resolved probes.
}

// AggregateResult contains aggregated results across multiple games.
type AggregateResult struct {
	Name          string
	Games         int
	TotalProbes   int
	Resolved      int
	Draws         int
	NoData        int
	Errors        int
	TotalSwitches int

	MaterialHits    map[string]int // Material signature -> probe count.
	SwitchesPerGame []int
	Latencies       []float64 // Probe latencies in microseconds.
	DTCs            []int

	// OutcomeLatencies splits Latencies by probe outcome. No-data probes
	// that stop before any table read are much cheaper than resolved ones.
	OutcomeLatencies map[Outcome][]float64
}

// FoundRate returns the percentage of probes that returned a value.
func (a *AggregateResult) FoundRate() float64 {
	if a.TotalProbes == 0 {
		return 0
	}
	return float64(a.Resolved+a.Draws) / float64(a.TotalProbes) * 100
}
