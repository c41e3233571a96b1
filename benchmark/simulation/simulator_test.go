package simulation

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/discochess/tablebase"
)

// fakeProber answers with a fixed result per FEN and ErrNotFound otherwise.
type fakeProber struct {
	values map[string]tablebase.Value
	errs   map[string]error
	calls  int
}

func (p *fakeProber) ProbeFEN(ctx context.Context, fen string) (tablebase.Value, error) {
	p.calls++
	if err, ok := p.errs[fen]; ok {
		return tablebase.Value{}, err
	}
	if v, ok := p.values[fen]; ok {
		return v, nil
	}
	return tablebase.Value{}, tablebase.ErrNotFound
}

const (
	kqkWhite = "8/8/4k3/8/8/8/8/Q3K3 w - -"
	kqkBlack = "8/8/4k3/8/8/8/8/Q3K3 b - -"
	krkWhite = "8/8/4k3/8/8/8/8/R3K3 w - -"
	kpkWhite = "8/8/4k3/8/8/8/4P3/4K3 w - -"
)

func TestSimulator_SimulateGame(t *testing.T) {
	p := &fakeProber{
		values: map[string]tablebase.Value{
			kqkWhite: {DTC: 10},
			kqkBlack: {DTC: -9},
			kpkWhite: tablebase.Draw,
		},
		errs: map[string]error{
			krkWhite: errors.New("read failed"),
		},
	}
	sim := NewSimulator("test", p)

	game := []string{kqkWhite, kqkBlack, krkWhite, kpkWhite, "not a fen"}
	result, err := sim.SimulateGame(context.Background(), game)
	if err != nil {
		t.Fatalf("SimulateGame() error = %v", err)
	}

	if result.Resolved != 2 {
		t.Errorf("Resolved = %d, want 2", result.Resolved)
	}
	if result.Draws != 1 {
		t.Errorf("Draws = %d, want 1", result.Draws)
	}
	if result.Errors != 2 {
		t.Errorf("Errors = %d, want 2", result.Errors)
	}
	if result.TableSwitches != 3 {
		t.Errorf("TableSwitches = %d, want 3", result.TableSwitches)
	}
	if len(result.Latencies) != 4 {
		t.Errorf("Latencies = %d, want 4", len(result.Latencies))
	}
	wantOutcomes := []Outcome{OutcomeResolved, OutcomeResolved, OutcomeError, OutcomeDraw}
	if !slices.Equal(result.Outcomes, wantOutcomes) {
		t.Errorf("Outcomes = %v, want %v", result.Outcomes, wantOutcomes)
	}
	if len(result.DTCs) != 2 || result.DTCs[0] != 10 || result.DTCs[1] != 9 {
		t.Errorf("DTCs = %v, want [10 9]", result.DTCs)
	}
	if p.calls != 4 {
		t.Errorf("prober called %d times, want 4", p.calls)
	}
}

func TestSimulator_SimulateGames(t *testing.T) {
	p := &fakeProber{values: map[string]tablebase.Value{kqkWhite: {DTC: 3}}}
	sim := NewSimulator("warm", p)

	games := [][]string{
		{kqkWhite, kqkWhite},
		{krkWhite, kqkWhite},
	}

	agg, err := sim.SimulateGames(context.Background(), games)
	if err != nil {
		t.Fatalf("SimulateGames() error = %v", err)
	}

	if agg.Name != "warm" {
		t.Errorf("Name = %q, want warm", agg.Name)
	}
	if agg.Games != 2 || agg.TotalProbes != 4 {
		t.Errorf("Games = %d, TotalProbes = %d; want 2, 4", agg.Games, agg.TotalProbes)
	}
	if agg.Resolved != 3 || agg.NoData != 1 {
		t.Errorf("Resolved = %d, NoData = %d; want 3, 1", agg.Resolved, agg.NoData)
	}
	if agg.MaterialHits["kqk"] != 3 || agg.MaterialHits["krk"] != 1 {
		t.Errorf("MaterialHits = %v", agg.MaterialHits)
	}
	if agg.TotalSwitches != 3 {
		t.Errorf("TotalSwitches = %d, want 3", agg.TotalSwitches)
	}
	if got := agg.FoundRate(); got != 75 {
		t.Errorf("FoundRate() = %v, want 75", got)
	}
	if n := len(agg.OutcomeLatencies[OutcomeResolved]); n != 3 {
		t.Errorf("resolved latencies = %d, want 3", n)
	}
	if n := len(agg.OutcomeLatencies[OutcomeNoData]); n != 1 {
		t.Errorf("no data latencies = %d, want 1", n)
	}
}

func TestSimulator_Canceled(t *testing.T) {
	sim := NewSimulator("test", &fakeProber{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sim.SimulateGames(ctx, [][]string{{kqkWhite}}); !errors.Is(err, context.Canceled) {
		t.Errorf("SimulateGames() error = %v, want context.Canceled", err)
	}
}

func TestComputeMetrics(t *testing.T) {
	agg := &AggregateResult{
		Games:           2,
		TotalProbes:     10,
		Resolved:        6,
		Draws:           2,
		TotalSwitches:   4,
		MaterialHits:    map[string]int{"kqk": 8, "krk": 2},
		SwitchesPerGame: []int{1, 3},
		DTCs:            []int{4, 17, 9},
	}

	m := ComputeMetrics(agg)

	if m.FoundRate != 80 {
		t.Errorf("FoundRate = %v, want 80", m.FoundRate)
	}
	if m.AvgSwitchesPerGame != 2 {
		t.Errorf("AvgSwitchesPerGame = %v, want 2", m.AvgSwitchesPerGame)
	}
	if m.UniqueMaterials != 2 {
		t.Errorf("UniqueMaterials = %d, want 2", m.UniqueMaterials)
	}
	if m.MaxDTC != 17 {
		t.Errorf("MaxDTC = %d, want 17", m.MaxDTC)
	}
	if m.TopMaterialPct != 80 {
		t.Errorf("TopMaterialPct = %v, want 80", m.TopMaterialPct)
	}
	if m.MaterialConcentration <= 0 {
		t.Errorf("MaterialConcentration = %v, want > 0", m.MaterialConcentration)
	}
}

func TestTopMaterials(t *testing.T) {
	agg := &AggregateResult{MaterialHits: map[string]int{"kqk": 5, "krk": 5, "kpk": 9, "kbnk": 1}}

	got := TopMaterials(agg, 3)
	want := []string{"kpk", "kqk", "krk"}
	if len(got) != len(want) {
		t.Fatalf("TopMaterials() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TopMaterials()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
