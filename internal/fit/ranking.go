package fit

import "sort"

// Entry is one evaluated candidate as written to fit reports.
type Entry struct {
	Eval       int                `json:"eval"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`
}

// Ranking keeps the k lowest-scoring entries, earlier evaluations first on
// ties. It is not safe for concurrent use.
type Ranking struct {
	k       int
	entries []Entry
}

func NewRanking(k int) *Ranking {
	k = max(k, 1)
	return &Ranking{k: k, entries: make([]Entry, 0, k+1)}
}

// Add inserts e if it ranks within the top k.
func (r *Ranking) Add(e Entry) {
	i := sort.Search(len(r.entries), func(i int) bool {
		c := r.entries[i]
		if c.Score == e.Score {
			return c.Eval > e.Eval
		}
		return c.Score > e.Score
	})
	if i >= r.k {
		return
	}
	r.entries = append(r.entries, Entry{})
	copy(r.entries[i+1:], r.entries[i:])
	r.entries[i] = e
	if len(r.entries) > r.k {
		r.entries = r.entries[:r.k]
	}
}

// Entries returns a deep copy of the ranking, best first.
func (r *Ranking) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = e
		out[i].Knobs = make(map[string]float64, len(e.Knobs))
		for k, v := range e.Knobs {
			out[i].Knobs[k] = v
		}
	}
	return out
}
