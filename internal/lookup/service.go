package lookup

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/stdland/internal/searcher"
	"github.com/dshills/stdland/pkg/types"
)

// Options configures a Service. Zero values select the defaults.
type Options struct {
	GitHostPrefix string  // Hosts starting with this use the git dataset (default "git.")
	PageResults   int     // Results shown when not redirecting (default 4)
	MaxScore      float64 // Redirect threshold on the best score
	MinGap        float64 // Required lead of the best score over the runner-up
	UseCache      bool
}

// Result is the outcome of a lookup. Exactly one of Redirect or Results is
// meaningful: a non-empty Redirect means the client should be sent there.
type Result struct {
	Query    string
	Dataset  string
	Redirect string
	Results  []types.SearchResult
}

// Service turns a requested path into a redirect or a results page
type Service struct {
	searcher *searcher.Searcher
	opts     Options
}

// NewService creates a lookup service backed by s
func NewService(s *searcher.Searcher, opts Options) *Service {
	if opts.GitHostPrefix == "" {
		opts.GitHostPrefix = "git."
	}
	if opts.PageResults <= 0 {
		opts.PageResults = 4
	}
	if opts.MaxScore == 0 {
		opts.MaxScore = DefaultMaxScore
	}
	if opts.MinGap == 0 {
		opts.MinGap = DefaultMinGap
	}
	return &Service{searcher: s, opts: opts}
}

// DatasetForHost picks the dataset served on host
func (s *Service) DatasetForHost(host string) string {
	return DatasetForHost(host, s.opts.GitHostPrefix)
}

// DatasetForHost returns the git dataset for hosts starting with prefix and
// the stable dataset otherwise
func DatasetForHost(host, prefix string) string {
	if prefix != "" && strings.HasPrefix(host, prefix) {
		return types.DatasetGit
	}
	return types.DatasetStable
}

// Lookup searches the host's dataset for id. An empty id yields an empty
// result without searching.
func (s *Service) Lookup(ctx context.Context, host, id string) (*Result, error) {
	return s.Resolve(ctx, s.DatasetForHost(host), id)
}

// Resolve is Lookup against a named dataset; an empty name selects the
// stable dataset
func (s *Service) Resolve(ctx context.Context, dataset, id string) (*Result, error) {
	if dataset == "" {
		dataset = types.DatasetStable
	}
	result := &Result{Query: id, Dataset: dataset, Results: []types.SearchResult{}}
	if strings.TrimSpace(id) == "" {
		return result, nil
	}

	// Two results are needed to judge the gap; the page shows PageResults
	limit := s.opts.PageResults
	if limit < 2 {
		limit = 2
	}

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:    id,
		Dataset:  dataset,
		Limit:    limit,
		Mode:     searcher.SearchModeFuzzy,
		UseCache: s.opts.UseCache,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", id, err)
	}

	if Decide(resp.Results, id, s.opts.MaxScore, s.opts.MinGap) {
		result.Redirect = resp.Results[0].URL
		return result, nil
	}

	results := resp.Results
	if len(results) > s.opts.PageResults {
		results = results[:s.opts.PageResults]
	}
	result.Results = results
	return result, nil
}
