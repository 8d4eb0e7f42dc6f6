package lookup

import "github.com/dshills/stdland/pkg/types"

// Redirect thresholds used when none are configured
const (
	DefaultMaxScore = 0.0003
	DefaultMinGap   = 0.0002
)

// Decide reports whether the top result is a good enough match to skip the
// results page. A missing result counts as a score of 1.
//
// The match is good when the best score is below maxScore and beats the
// runner-up by more than minGap, or when the best result's path is exactly
// the query.
func Decide(results []types.SearchResult, query string, maxScore, minGap float64) bool {
	if len(results) == 0 {
		return false
	}

	first := results[0].Score
	second := 1.0
	if len(results) > 1 {
		second = results[1].Score
	}

	return (first < maxScore && second-first > minGap) || results[0].Item.Path == query
}
