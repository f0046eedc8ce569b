package fit

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNewConfig(t *testing.T) {
	for _, v := range Variants() {
		t.Run(v, func(t *testing.T) {
			cfg, err := NewConfig(v, 10, 5, 20)
			if err != nil {
				t.Fatalf("NewConfig(%q): %v", v, err)
			}
			if cfg.ProblemSize != 5 || cfg.NPop != 10 || cfg.NPopF != 10 || cfg.MaxIterations != 20 {
				t.Fatalf("unexpected config: size=%d pop=%d iters=%d", cfg.ProblemSize, cfg.NPop, cfg.MaxIterations)
			}
			if cfg.LowerBound != 0 || cfg.UpperBound != 1 {
				t.Fatalf("expected unit bounds, got [%f,%f]", cfg.LowerBound, cfg.UpperBound)
			}
		})
	}
	if len(Variants()) != 7 {
		t.Fatalf("expected 7 variants, got %v", Variants())
	}
	if _, err := NewConfig("bogus", 10, 5, 20); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
	if _, err := NewConfig("ma", 10, 0, 20); err == nil {
		t.Fatalf("expected error for zero dimensions")
	}
}

func TestRunFindsMinimum(t *testing.T) {
	cfg, err := NewConfig("desma", 8, 2, 30)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	best := math.Inf(1)
	cfg.ObjectiveFunc = func(x []float64) float64 {
		c := (x[0]-0.3)*(x[0]-0.3) + (x[1]-0.7)*(x[1]-0.7)
		best = math.Min(best, c)
		return c
	}
	if _, err := Run(cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if best > 0.02 {
		t.Fatalf("expected cost near zero, got %f", best)
	}
}

func TestRunRecoversPanic(t *testing.T) {
	cfg, err := NewConfig("ma", 4, 1, 2)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	cfg.ObjectiveFunc = func([]float64) float64 { panic("boom") }
	if _, err := Run(cfg); err == nil {
		t.Fatalf("expected panic to surface as error")
	}
}

func TestBudgetCapsConcurrentWorkers(t *testing.T) {
	const limit = 47
	b := NewBudget(limit, 1)
	var granted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, ok := b.Reserve(); !ok {
					return
				}
				granted.Add(1)
			}
		}()
	}
	wg.Wait()
	if granted.Load() != limit-1 || b.Used() != limit || b.Remaining() != 0 {
		t.Fatalf("granted=%d used=%d remaining=%d", granted.Load(), b.Used(), b.Remaining())
	}
}

func TestRankingKeepsBestK(t *testing.T) {
	r := NewRanking(3)
	scores := []float64{0.5, 0.2, 0.9, 0.2, 0.1, math.Inf(1)}
	for i, s := range scores {
		r.Add(Entry{Eval: i + 1, Score: s, Knobs: map[string]float64{"gain": float64(i)}})
	}
	got := r.Entries()
	want := []int{5, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i, e := range got {
		if e.Eval != want[i] {
			t.Fatalf("rank %d: eval %d, want %d", i, e.Eval, want[i])
		}
	}
	got[0].Knobs["gain"] = 99
	if r.Entries()[0].Knobs["gain"] == 99 {
		t.Fatalf("Entries must return a copy")
	}
}
