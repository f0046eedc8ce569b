package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/internal/fit"
	"github.com/cwbudde/algo-synth/synth"
)

type optimizationConfig struct {
	reference        []float64
	baseParams       *synth.Params
	defs             []knobDef
	initCandidate    candidate
	note             int
	velocity         int
	baseHold         float64
	render           renderSettings
	seed             int64
	timeBudget       float64
	maxEvals         int
	reportEvery      int
	mayflyVariant    string
	mayflyPop        int
	mayflyRoundEvals int
	workers          int
	topK             int
}

type optimizationEval struct {
	metrics analysis.Metrics
	params  *synth.Params
	hold    float64
}

type optimizationResult struct {
	best        candidate
	bestMetrics analysis.Metrics
	bestParams  *synth.Params
	bestHold    float64
	top         []fit.Entry
	evals       int
	elapsed     float64
}

type optimizationState struct {
	mu       sync.Mutex
	best     candidate
	bestEval optimizationEval
	top      *fit.Ranking
}

func (s *optimizationState) bestScore() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bestEval.metrics.Score
}

// record ranks an evaluation and reports whether it beat the best so far.
func (s *optimizationState) record(eval int, res optimizationEval, defs []knobDef, cand candidate) (bool, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.top.Add(rankEntry(eval, res.metrics, defs, cand))
	improved := res.metrics.Score < s.bestEval.metrics.Score
	if improved {
		s.best = cloneCandidate(cand)
		s.bestEval = res
	}
	return improved, s.bestEval.metrics.Score
}

func runOptimization(cfg *optimizationConfig) (*optimizationResult, error) {
	start := time.Now()
	deadline := start.Add(time.Duration(cfg.timeBudget * float64(time.Second)))
	variant := strings.ToLower(cfg.mayflyVariant)
	if _, err := fit.NewConfig(variant, cfg.mayflyPop, max(len(cfg.defs), 1), 1); err != nil {
		return nil, err
	}

	best := cloneCandidate(cfg.initCandidate)
	initialEval, err := evaluateCandidate(cfg, best)
	if err != nil {
		return nil, fmt.Errorf("initial evaluation failed: %w", err)
	}
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n", initialEval.metrics.Score, initialEval.metrics.Similarity*100.0)

	state := &optimizationState{
		best:     best,
		bestEval: initialEval,
		top:      fit.NewRanking(cfg.topK),
	}
	state.top.Add(rankEntry(1, initialEval.metrics, cfg.defs, best))
	if len(cfg.defs) == 0 {
		return &optimizationResult{
			best: best, bestMetrics: initialEval.metrics, bestParams: initialEval.params,
			bestHold: initialEval.hold, top: state.top.Entries(), evals: 1,
			elapsed: time.Since(start).Seconds(),
		}, nil
	}

	budget := fit.NewBudget(cfg.maxEvals, 1)
	var rounds int64
	var improves int64

	workers := cfg.workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = max(workers, 1)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if time.Now().After(deadline) {
					return
				}
				remaining := budget.Remaining()
				if remaining <= 0 {
					return
				}
				round := int(atomic.AddInt64(&rounds, 1))
				iters := max(1, min(cfg.mayflyRoundEvals, remaining)/(2*cfg.mayflyPop))

				mcfg, err := fit.NewConfig(variant, cfg.mayflyPop, len(cfg.defs), iters)
				if err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d setup failed: %v\n", round, err)
					return
				}
				mcfg.Rand = rand.New(rand.NewSource(cfg.seed + int64(round)*7919))
				mcfg.ObjectiveFunc = func(pos []float64) float64 {
					if time.Now().After(deadline) {
						return state.bestScore() + 1.0
					}
					evalNum, ok := budget.Reserve()
					if !ok {
						return state.bestScore() + 1.0
					}

					cand := fromNormalized(pos, cfg.defs)
					res, err := evaluateCandidate(cfg, cand)
					if err != nil {
						return state.bestScore() + 0.8
					}

					improved, bestScore := state.record(int(evalNum), res, cfg.defs, cand)

					if improved {
						n := atomic.AddInt64(&improves, 1)
						fmt.Printf("Improved #%d eval=%d score=%.4f sim=%.2f%%\n", n, evalNum, res.metrics.Score, res.metrics.Similarity*100.0)
					}
					if cfg.reportEvery > 0 && evalNum%int64(cfg.reportEvery) == 0 {
						fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.4f\n", evalNum, cfg.maxEvals, time.Since(start).Seconds(), bestScore)
					}
					return res.metrics.Score
				}

				if _, err := fit.Run(mcfg); err != nil {
					fmt.Fprintf(os.Stderr, "mayfly round %d failed: %v\n", round, err)
				}
			}
		}()
	}
	wg.Wait()

	state.mu.Lock()
	defer state.mu.Unlock()
	return &optimizationResult{
		best:        cloneCandidate(state.best),
		bestMetrics: state.bestEval.metrics,
		bestParams:  state.bestEval.params,
		bestHold:    state.bestEval.hold,
		top:         state.top.Entries(),
		evals:       budget.Used(),
		elapsed:     time.Since(start).Seconds(),
	}, nil
}

func evaluateCandidate(cfg *optimizationConfig, cand candidate) (optimizationEval, error) {
	params, hold := applyCandidate(cfg.baseParams, cfg.baseHold, cfg.defs, cand)
	mono, _, err := renderNote(params, cfg.note, cfg.velocity, hold, cfg.render)
	if err != nil {
		return optimizationEval{}, err
	}
	return optimizationEval{
		metrics: analysis.Compare(cfg.reference, mono, cfg.render.sampleRate),
		params:  params,
		hold:    hold,
	}, nil
}

func cloneCandidate(c candidate) candidate {
	vals := make([]float64, len(c.Vals))
	copy(vals, c.Vals)
	return candidate{Vals: vals}
}

func rankEntry(eval int, metrics analysis.Metrics, defs []knobDef, cand candidate) fit.Entry {
	e := fit.Entry{
		Eval:       eval,
		Score:      metrics.Score,
		Similarity: metrics.Similarity,
		Knobs:      make(map[string]float64, len(defs)),
	}
	for i, d := range defs {
		e.Knobs[d.Name] = cand.Vals[i]
	}
	return e
}
