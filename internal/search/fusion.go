package search

import "sort"

// RRF fusion defaults
const (
	DefaultRRFConstant    = 60
	DefaultSemanticWeight = 0.7
	DefaultKeywordWeight  = 0.3
)

// Fuser combines two ranked result lists with weighted Reciprocal
// Rank Fusion. A chunk present in both lists accumulates both
// contributions; a chunk present in one list gets only that list's
// contribution, with no penalty for the missing rank.
type Fuser struct {
	k              int
	semanticWeight float64
	keywordWeight  float64
}

// NewFuser creates a fuser with the given RRF constant and weights.
func NewFuser(k int, semanticWeight, keywordWeight float64) *Fuser {
	if k <= 0 {
		k = DefaultRRFConstant
	}
	return &Fuser{k: k, semanticWeight: semanticWeight, keywordWeight: keywordWeight}
}

// Fuse merges the two lists. Ranks are 1-based. Output scores are
// normalized so the top result is 1.0. Ties keep first-encounter
// order: all semantic results, in rank order, then keyword-only
// results in rank order.
func (f *Fuser) Fuse(semantic, keyword []Result) []Result {
	scores := make(map[string]float64)
	resultMap := make(map[string]Result)
	var order []string

	for rank, r := range semantic {
		contribution := f.semanticWeight / float64(f.k+rank+1)
		if _, seen := scores[r.ChunkID]; !seen {
			order = append(order, r.ChunkID)
			resultMap[r.ChunkID] = r
		}
		scores[r.ChunkID] += contribution
	}
	for rank, r := range keyword {
		contribution := f.keywordWeight / float64(f.k+rank+1)
		if _, seen := scores[r.ChunkID]; !seen {
			order = append(order, r.ChunkID)
			resultMap[r.ChunkID] = r
		}
		scores[r.ChunkID] += contribution
	}

	if len(order) == 0 {
		return nil
	}

	// Stable sort over first-encounter order resolves score ties.
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	maxScore := scores[order[0]]
	if maxScore == 0 {
		maxScore = 1
	}

	fused := make([]Result, 0, len(order))
	for _, id := range order {
		r := resultMap[id]
		r.Score = scores[id] / maxScore
		fused = append(fused, r)
	}
	return fused
}
