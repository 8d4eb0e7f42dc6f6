package searcher

import (
	"sort"
	"strings"

	lev "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/dshills/stdland/pkg/types"
)

// Weights of the subsequence score components
const (
	densityWeight  = 0.55
	coverageWeight = 0.35
	startWeight    = 0.10

	// typoBase is the best score a non-subsequence (typo) match can get
	typoBase = 0.3

	// noMatch is the score of a key the query does not match at all
	noMatch = 1.0
)

// keyList adapts a slice of strings to fuzzy.Source
type keyList []string

func (k keyList) String(i int) string { return k[i] }
func (k keyList) Len() int            { return len(k) }

// fuzzyIndex holds the lower-cased search keys of a dataset
type fuzzyIndex struct {
	paths keyList
	names keyList
}

func newFuzzyIndex(symbols []types.Symbol) *fuzzyIndex {
	idx := &fuzzyIndex{
		paths: make(keyList, len(symbols)),
		names: make(keyList, len(symbols)),
	}
	for i := range symbols {
		idx.paths[i] = strings.ToLower(symbols[i].Path)
		idx.names[i] = strings.ToLower(symbols[i].Name)
	}
	return idx
}

// scoredItem is one symbol's fuzzy score. best is the item score, other is
// the score of the remaining key and only breaks ties.
type scoredItem struct {
	index int
	best  float64
	other float64
}

// search scores every symbol against query (already trimmed and lower-cased)
// and returns those scoring at most threshold, best first
func (f *fuzzyIndex) search(query string, threshold float64) []scoredItem {
	n := len(f.names)
	pathScores := keyScores(query, f.paths)
	nameScores := keyScores(query, f.names)

	items := make([]scoredItem, 0)
	for i := 0; i < n; i++ {
		ps := pathScores[i]
		ns := nameScores[i]
		if ns == noMatch {
			ns = typoScore(query, f.names[i])
		}

		best, other := ps, ns
		if ns < ps {
			best, other = ns, ps
		}
		if best > threshold {
			continue
		}
		items = append(items, scoredItem{index: i, best: best, other: other})
	}

	sort.SliceStable(items, func(a, b int) bool {
		if items[a].best != items[b].best {
			return items[a].best < items[b].best
		}
		if items[a].other != items[b].other {
			return items[a].other < items[b].other
		}
		return items[a].index < items[b].index
	})

	return items
}

// keyScores scores query against every key. Keys without a subsequence match
// keep noMatch.
func keyScores(query string, keys keyList) []float64 {
	scores := make([]float64, len(keys))
	for i := range scores {
		scores[i] = noMatch
	}

	for _, m := range fuzzy.FindFrom(query, keys) {
		scores[m.Index] = subsequenceScore(query, keys[m.Index], m.MatchedIndexes)
	}
	return scores
}

// subsequenceScore maps a subsequence match to [0, 1). Tight, complete and
// early matches score lower; an exact match scores 0.
func subsequenceScore(query, key string, matched []int) float64 {
	if key == query {
		return 0
	}
	if len(matched) == 0 || len(key) == 0 {
		return noMatch
	}

	span := matched[len(matched)-1] - matched[0] + 1
	density := clamp01(float64(len(query)) / float64(span))
	coverage := clamp01(float64(len(query)) / float64(len(key)))
	start := clamp01(float64(matched[0]) / float64(len(key)))

	return densityWeight*(1-density) + coverageWeight*(1-coverage) + startWeight*start
}

// typoScore scores a key the query is not a subsequence of by edit distance
func typoScore(query, key string) float64 {
	maxLen := len(query)
	if len(key) > maxLen {
		maxLen = len(key)
	}
	if maxLen == 0 {
		return noMatch
	}

	dist := lev.LevenshteinDistance(query, key)
	return typoBase + (1-typoBase)*clamp01(float64(dist)/float64(maxLen))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
