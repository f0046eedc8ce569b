// Package fit wraps the mayfly optimiser for the preset fitting tools: variant
// selection, a shared evaluation budget and a ranking of the best candidates.
package fit

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/cwbudde/mayfly"
)

var variants = map[string]func() *mayfly.Config{
	"ma":      mayfly.NewDefaultConfig,
	"desma":   mayfly.NewDESMAConfig,
	"olce":    mayfly.NewOLCEConfig,
	"eobbma":  mayfly.NewEOBBMAConfig,
	"gsasma":  mayfly.NewGSASMAConfig,
	"mpma":    mayfly.NewMPMAConfig,
	"aoblmoa": mayfly.NewAOBLMOAConfig,
}

// Variants returns the supported variant names in sorted order.
func Variants() []string {
	out := make([]string, 0, len(variants))
	for k := range variants {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NewConfig builds a mayfly configuration searching the unit cube of dims
// dimensions with pop males and pop females for iters iterations.
func NewConfig(variant string, pop, dims, iters int) (*mayfly.Config, error) {
	mk, ok := variants[variant]
	if !ok {
		return nil, fmt.Errorf("unsupported mayfly variant %q", variant)
	}
	if pop < 1 || dims < 1 || iters < 1 {
		return nil, fmt.Errorf("invalid mayfly sizes pop=%d dims=%d iters=%d", pop, dims, iters)
	}
	cfg := mk()
	cfg.ProblemSize = dims
	cfg.LowerBound = 0
	cfg.UpperBound = 1
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

// Run optimises cfg and turns a panic inside the optimiser into an error.
func Run(cfg *mayfly.Config) (res *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

// Budget hands out evaluation numbers to concurrent workers up to a limit.
type Budget struct {
	used  atomic.Int64
	limit int64
}

// NewBudget returns a budget of limit evaluations with used already spent.
func NewBudget(limit, used int) *Budget {
	b := &Budget{limit: int64(limit)}
	b.used.Store(int64(used))
	return b
}

// Reserve claims the next evaluation and returns its 1-based number, or false
// once the budget is exhausted.
func (b *Budget) Reserve() (int64, bool) {
	for {
		cur := b.used.Load()
		if cur >= b.limit {
			return 0, false
		}
		if b.used.CompareAndSwap(cur, cur+1) {
			return cur + 1, true
		}
	}
}

// Used returns the number of evaluations claimed so far.
func (b *Budget) Used() int { return int(b.used.Load()) }

// Remaining returns how many evaluations are left.
func (b *Budget) Remaining() int { return max(int(b.limit-b.used.Load()), 0) }
