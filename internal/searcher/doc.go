// Package searcher ranks the symbols of a catalog dataset against a query.
//
// The searcher provides three search modes:
//   - Fuzzy: Subsequence matching on path and name with typo tolerance (default)
//   - Keyword: BM25 full-text search over name, path and kind
//   - Hybrid: Fuzzy + keyword merged with Reciprocal Rank Fusion
//
// Scores follow one convention in every mode: 0 is a perfect match and 1 a
// mismatch. The redirect heuristic in package lookup depends on fuzzy scores,
// so lookups always use the fuzzy mode.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(cat, searcher.Options{})
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query:   "serve",
//	    Dataset: "std",
//	    Limit:   6,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s %s (score: %.4f)\n", r.Rank, r.Item.Name, r.URL, r.Score)
//	}
//
// # Fuzzy Scoring
//
// Query and keys are lower-cased. For each key (path, name):
//
//   - An exact match scores 0
//   - A subsequence match scores 0.55*(1-density) + 0.35*(1-coverage) + 0.10*start,
//     where density is len(query) over the span of the matched characters,
//     coverage is len(query) over len(key), and start is the relative
//     position of the first matched character
//   - Otherwise the name key falls back to edit distance:
//     0.3 + 0.7*distance/max(len)
//
// An item scores the minimum over its keys and is kept when the score is at
// most the threshold (0.6 by default). Ties are broken by the other key's
// score, then by dataset order.
//
// # Keyword Scoring
//
// An in-memory bleve index is built per dataset on first use. Hits are
// normalised as 1 - score/topScore.
//
// # Hybrid Scoring
//
// RRF(d) = Σ 1/(k + rank(d)) over the fuzzy and keyword rankings (k = 60),
// normalised as 1 - RRF(d)/(2/(k+1)).
//
// # Caching
//
// Responses are cached in an LRU (1000 entries) keyed by the query, mode,
// limit, dataset and dataset fingerprint, with a TTL of one hour by default.
// Cached responses are deep copied on the way in and out.
package searcher
