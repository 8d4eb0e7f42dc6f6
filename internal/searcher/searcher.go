package searcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/stdland/internal/catalog"
	"github.com/dshills/stdland/pkg/types"
)

// SearchMode defines how search is performed
type SearchMode string

const (
	SearchModeFuzzy   SearchMode = "fuzzy"   // Subsequence and typo matching on path and name
	SearchModeKeyword SearchMode = "keyword" // BM25 text search only
	SearchModeHybrid  SearchMode = "hybrid"  // Fuzzy + BM25 with RRF
)

// Request limits and defaults
const (
	DefaultLimit     = 6
	MaxLimit         = 100
	DefaultThreshold = 0.6
	DefaultCacheSize = 1000
	DefaultCacheTTL  = time.Hour
	DefaultRRF       = 60.0
)

var (
	// ErrEmptyQuery is returned for a blank query
	ErrEmptyQuery = errors.New("query cannot be empty")
	// ErrInvalidLimit is returned for a negative limit
	ErrInvalidLimit = errors.New("limit must not be negative")
	// ErrUnsupportedMode is returned for an unknown search mode
	ErrUnsupportedMode = errors.New("unsupported search mode")

	errIndexClosed = errors.New("keyword index closed")
)

// maxIndexAttempts bounds retries when a dataset is reloaded mid-search
const maxIndexAttempts = 3

// ParseMode converts a mode name; an empty name selects fuzzy
func ParseMode(s string) (SearchMode, error) {
	switch SearchMode(strings.ToLower(s)) {
	case "", SearchModeFuzzy:
		return SearchModeFuzzy, nil
	case SearchModeKeyword:
		return SearchModeKeyword, nil
	case SearchModeHybrid:
		return SearchModeHybrid, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMode, s)
	}
}

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	Query       string
	Dataset     string // Empty selects the catalog default
	Limit       int
	Mode        SearchMode
	UseCache    bool // Whether to use query cache
	CacheTTL    time.Duration
	RRFConstant float64 // k value for Reciprocal Rank Fusion (default 60)
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results        []types.SearchResult
	TotalResults   int // Matches before the limit was applied
	SearchMode     SearchMode
	Dataset        string
	Duration       time.Duration
	CacheHit       bool
	FuzzyResults   int
	KeywordResults int
}

// Options configures a Searcher
type Options struct {
	Threshold float64 // Worst fuzzy score still reported (default 0.6)
	CacheSize int     // LRU entries (default 1000)
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// datasetIndexes are the search structures built for one dataset version
type datasetIndexes struct {
	fingerprint string
	symbols     []types.Symbol
	fuzzy       *fuzzyIndex

	// mu is held for reading while the keyword index is in use
	mu          sync.RWMutex
	closed      bool
	keywordOnce sync.Once
	keyword     *keywordIndex
	keywordErr  error
}

// Searcher ranks the symbols of catalog datasets
type Searcher struct {
	catalog   *catalog.Catalog
	threshold float64

	indexMu sync.Mutex
	indexes map[string]*datasetIndexes

	cache   *lru.Cache[[32]byte, *cacheEntry]
	cacheMu sync.RWMutex
}

// NewSearcher creates a new Searcher instance
func NewSearcher(cat *catalog.Catalog, opts Options) *Searcher {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}

	// Cache will automatically evict least recently used entries
	cache, err := lru.New[[32]byte, *cacheEntry](opts.CacheSize)
	if err != nil {
		// This should never happen with valid size parameter
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		catalog:   cat,
		threshold: opts.Threshold,
		indexes:   make(map[string]*datasetIndexes),
		cache:     cache,
	}
}

// Catalog returns the catalog the searcher reads from
func (s *Searcher) Catalog() *catalog.Catalog {
	return s.catalog
}

// Search performs a search based on the request parameters
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	ds, err := s.catalog.Get(req.Dataset)
	if err != nil {
		return nil, err
	}

	if req.UseCache {
		if cached := s.checkCache(req, ds.Fingerprint); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	response, err := s.searchDataset(ctx, req, ds)
	for attempt := 1; errors.Is(err, errIndexClosed) && attempt < maxIndexAttempts; attempt++ {
		// The dataset was reloaded between lookup and use
		if ds, err = s.catalog.Get(req.Dataset); err != nil {
			return nil, err
		}
		response, err = s.searchDataset(ctx, req, ds)
	}
	if err != nil {
		return nil, err
	}

	response.Duration = time.Since(startTime)
	response.SearchMode = req.Mode
	response.Dataset = ds.Name

	if req.UseCache {
		s.storeInCache(req, ds.Fingerprint, response)
	}

	return response, nil
}

func (s *Searcher) searchDataset(ctx context.Context, req SearchRequest, ds *catalog.Dataset) (*SearchResponse, error) {
	idx := s.indexesFor(ds)

	switch req.Mode {
	case SearchModeFuzzy:
		return s.fuzzySearch(req, idx, ds), nil
	case SearchModeKeyword:
		return s.keywordSearch(ctx, req, idx, ds)
	case SearchModeHybrid:
		return s.hybridSearch(ctx, req, idx, ds)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, req.Mode)
	}
}

// rankedResult is a symbol index with its normalised score
type rankedResult struct {
	index int
	score float64
}

// fuzzySearch ranks by subsequence and typo score
func (s *Searcher) fuzzySearch(req SearchRequest, idx *datasetIndexes, ds *catalog.Dataset) *SearchResponse {
	items := idx.fuzzy.search(req.Query, s.threshold)

	ranked := make([]rankedResult, len(items))
	for i, it := range items {
		ranked[i] = rankedResult{index: it.index, score: it.best}
	}

	return &SearchResponse{
		Results:      toResults(ranked, req.Limit, ds),
		TotalResults: len(ranked),
		FuzzyResults: len(ranked),
	}
}

// keywordSearch performs only BM25 text search
func (s *Searcher) keywordSearch(ctx context.Context, req SearchRequest, idx *datasetIndexes, ds *catalog.Dataset) (*SearchResponse, error) {
	var (
		hits  []keywordHit
		total int
	)
	err := idx.withKeyword(func(kw *keywordIndex) error {
		var err error
		hits, total, err = kw.search(ctx, req.Query, req.Limit)
		return err
	})
	if err != nil {
		return nil, err
	}

	ranked := make([]rankedResult, len(hits))
	for i, h := range hits {
		ranked[i] = rankedResult{index: h.index, score: normalizeKeyword(h.score, hits[0].score)}
	}

	return &SearchResponse{
		Results:        toResults(ranked, req.Limit, ds),
		TotalResults:   total,
		KeywordResults: len(hits),
	}, nil
}

// hybridSearch combines fuzzy and BM25 rankings using Reciprocal Rank Fusion
func (s *Searcher) hybridSearch(ctx context.Context, req SearchRequest, idx *datasetIndexes, ds *catalog.Dataset) (*SearchResponse, error) {
	// Every keyword hit is fetched so the total counts the union of both
	// match sets; only the top candidates of each list are fused.
	var hits []keywordHit
	err := idx.withKeyword(func(kw *keywordIndex) error {
		var err error
		hits, _, err = kw.search(ctx, req.Query, len(idx.symbols))
		return err
	})
	if err != nil {
		return nil, err
	}

	fuzzyItems := idx.fuzzy.search(req.Query, s.threshold)

	matched := make(map[int]struct{}, len(fuzzyItems)+len(hits))
	for _, it := range fuzzyItems {
		matched[it.index] = struct{}{}
	}
	for _, h := range hits {
		matched[h.index] = struct{}{}
	}

	candidates := req.Limit * 2

	fuzzyRanks := make([]int, 0, candidates)
	for _, it := range fuzzyItems {
		if len(fuzzyRanks) == candidates {
			break
		}
		fuzzyRanks = append(fuzzyRanks, it.index)
	}
	keywordRanks := make([]int, 0, candidates)
	for _, h := range hits {
		if len(keywordRanks) == candidates {
			break
		}
		keywordRanks = append(keywordRanks, h.index)
	}

	fused := applyRRF(fuzzyRanks, keywordRanks, req.RRFConstant)

	return &SearchResponse{
		Results:        toResults(fused, req.Limit, ds),
		TotalResults:   len(matched),
		FuzzyResults:   len(fuzzyItems),
		KeywordResults: len(hits),
	}, nil
}

// applyRRF applies Reciprocal Rank Fusion to combine two rankings
// RRF formula: RRF(d) = Σ 1/(k + rank(d))
// The fused score is normalised so that a document ranked first by both
// lists scores 0.
func applyRRF(fuzzyRanks, keywordRanks []int, k float64) []rankedResult {
	if k == 0 {
		k = DefaultRRF
	}

	scores := make(map[int]float64)
	order := make([]int, 0, len(fuzzyRanks)+len(keywordRanks))
	add := func(ranks []int) {
		for rank, index := range ranks {
			if _, seen := scores[index]; !seen {
				order = append(order, index)
			}
			scores[index] += 1.0 / (k + float64(rank+1))
		}
	}
	add(fuzzyRanks)
	add(keywordRanks)

	best := 2.0 / (k + 1)
	results := make([]rankedResult, len(order))
	for i, index := range order {
		results[i] = rankedResult{index: index, score: scores[index]}
	}

	// Descending fused score; first-seen order breaks ties
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	for i := range results {
		results[i].score = clamp01(1 - results[i].score/best)
	}
	return results
}

// toResults converts the first limit ranked entries into search results
func toResults(ranked []rankedResult, limit int, ds *catalog.Dataset) []types.SearchResult {
	if limit > len(ranked) {
		limit = len(ranked)
	}
	results := make([]types.SearchResult, limit)
	for i := 0; i < limit; i++ {
		sym := ds.Symbols[ranked[i].index]
		results[i] = types.SearchResult{
			Item:  sym,
			Score: ranked[i].score,
			Rank:  i + 1,
			URL:   ds.URLFor(sym),
		}
	}
	return results
}

// indexesFor returns the search structures of ds, rebuilding them when the
// dataset's fingerprint changed
func (s *Searcher) indexesFor(ds *catalog.Dataset) *datasetIndexes {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	if idx, ok := s.indexes[ds.Name]; ok {
		if idx.fingerprint == ds.Fingerprint {
			return idx
		}
		idx.close()
	}

	idx := &datasetIndexes{
		fingerprint: ds.Fingerprint,
		symbols:     ds.Symbols,
		fuzzy:       newFuzzyIndex(ds.Symbols),
	}
	s.indexes[ds.Name] = idx
	return idx
}

// withKeyword runs fn against the BM25 index, building it on first use.
// It returns errIndexClosed once the indexes have been replaced.
func (d *datasetIndexes) withKeyword(fn func(kw *keywordIndex) error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return errIndexClosed
	}
	d.keywordOnce.Do(func() {
		d.keyword, d.keywordErr = newKeywordIndex(d.symbols)
	})
	if d.keywordErr != nil {
		return d.keywordErr
	}
	return fn(d.keyword)
}

// close waits for in-flight keyword searches, then releases the index
func (d *datasetIndexes) close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.closed = true
	if d.keyword != nil {
		_ = d.keyword.close()
	}
}

// validateRequest ensures search request is valid and applies defaults
func (s *Searcher) validateRequest(req *SearchRequest) error {
	req.Query = strings.ToLower(strings.TrimSpace(req.Query))
	if req.Query == "" {
		return ErrEmptyQuery
	}
	if req.Limit < 0 {
		return ErrInvalidLimit
	}
	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	mode, err := ParseMode(string(req.Mode))
	if err != nil {
		return err
	}
	req.Mode = mode
	if req.Dataset == "" {
		req.Dataset = s.catalog.Default()
	}
	if req.RRFConstant == 0 {
		req.RRFConstant = DefaultRRF
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}
	return nil
}

// checkCache looks up cached search results
func (s *Searcher) checkCache(req SearchRequest, fingerprint string) *SearchResponse {
	hash := s.computeQueryHash(req, fingerprint)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	// Deep copy while still holding the read lock
	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

// storeInCache saves search results to cache
func (s *Searcher) storeInCache(req SearchRequest, fingerprint string, response *SearchResponse) {
	hash := s.computeQueryHash(req, fingerprint)

	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(hash, entry)
	s.cacheMu.Unlock()
}

// copySearchResponse creates a deep copy of a SearchResponse
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}

	dst := *src
	// SearchResult holds only values, so copying the slice is a deep copy
	dst.Results = make([]types.SearchResult, len(src.Results))
	copy(dst.Results, src.Results)
	return &dst
}

// computeQueryHash computes a unique hash for a search request against a
// specific dataset version
func (s *Searcher) computeQueryHash(req SearchRequest, fingerprint string) [32]byte {
	key := fmt.Sprintf("%s|%s|%s|%s|%d|%g|%g",
		req.Query, req.Mode, req.Dataset, fingerprint, req.Limit, req.RRFConstant, s.threshold)
	return sha256.Sum256([]byte(key))
}

// InvalidateCache removes all cached responses. Responses for a reloaded
// dataset are never served since its fingerprint is part of the key.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// CacheLen returns the number of cached responses
func (s *Searcher) CacheLen() int {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache.Len()
}

// Close releases the keyword indexes
func (s *Searcher) Close() error {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	for name, idx := range s.indexes {
		idx.close()
		delete(s.indexes, name)
	}
	return nil
}
