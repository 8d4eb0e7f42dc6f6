package types

// SearchResult represents a single ranked match
type SearchResult struct {
	Item  Symbol  `json:"item"`
	Score float64 `json:"score"` // 0 is a perfect match, 1 a complete mismatch
	Rank  int     `json:"rank"`  // Position in result set (1-based)
	URL   string  `json:"url"`   // Destination in the dataset the item came from
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.Score < 0 || sr.Score > 1 {
		return ErrInvalidScore
	}

	return sr.Item.Validate()
}
