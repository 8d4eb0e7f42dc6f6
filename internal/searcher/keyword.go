package searcher

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/dshills/stdland/pkg/types"
)

// Boosts applied to the keyword query clauses
const (
	nameBoost       = 2.0
	namePrefixBoost = 1.5
	nameFuzzyBoost  = 0.5
)

// keywordIndex is an in-memory BM25 index over a dataset
type keywordIndex struct {
	index bleve.Index
}

// keywordHit is a matched symbol with its raw BM25 score
type keywordHit struct {
	index int
	score float64
}

func newKeywordIndex(symbols []types.Symbol) (*keywordIndex, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}

	batch := idx.NewBatch()
	for i := range symbols {
		doc := map[string]interface{}{
			"name": symbols[i].Name,
			"path": symbols[i].Path,
			"kind": string(symbols[i].Type),
		}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("failed to index symbol %d: %w", i, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("failed to build keyword index: %w", err)
	}

	return &keywordIndex{index: idx}, nil
}

// search returns up to size hits ordered by BM25 score, plus the total
// number of matching documents
func (k *keywordIndex) search(ctx context.Context, text string, size int) ([]keywordHit, int, error) {
	lower := strings.ToLower(text)

	name := bleve.NewMatchQuery(text)
	name.SetField("name")
	name.SetBoost(nameBoost)

	path := bleve.NewMatchQuery(text)
	path.SetField("path")

	kind := bleve.NewMatchQuery(text)
	kind.SetField("kind")

	prefix := bleve.NewPrefixQuery(lower)
	prefix.SetField("name")
	prefix.SetBoost(namePrefixBoost)

	typo := bleve.NewFuzzyQuery(lower)
	typo.SetField("name")
	typo.SetFuzziness(1)
	typo.SetBoost(nameFuzzyBoost)

	q := bleve.NewDisjunctionQuery([]query.Query{name, path, kind, prefix, typo}...)

	req := bleve.NewSearchRequestOptions(q, size, 0, false)
	res, err := k.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("keyword search failed: %w", err)
	}

	hits := make([]keywordHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		i, err := strconv.Atoi(h.ID)
		if err != nil {
			continue
		}
		hits = append(hits, keywordHit{index: i, score: h.Score})
	}

	return hits, int(res.Total), nil
}

func (k *keywordIndex) close() error {
	return k.index.Close()
}

// normalizeKeyword maps raw BM25 scores onto the fuzzy convention: the top
// hit scores 0, weaker hits approach 1
func normalizeKeyword(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return noMatch
	}
	return clamp01(1 - score/maxScore)
}
