package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/dshills/stdland/internal/catalog"
	"github.com/dshills/stdland/internal/searcher"
	"github.com/dshills/stdland/pkg/types"
)

// apiResponse is the envelope of every JSON response
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// searchData is the payload of /api/search
type searchData struct {
	Query   string       `json:"query"`
	Dataset string       `json:"dataset"`
	Mode    string       `json:"mode"`
	Total   int          `json:"total"`
	Results []resultView `json:"results"`
}

// resultView is one row as rendered by the page and the search box
type resultView struct {
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	Type       types.ItemType `json:"type"`
	LineNumber int            `json:"lineNumber,omitempty"`
	Score      float64        `json:"score"`
	URL        string         `json:"url"`
	Icon       types.Icon     `json:"icon"`
}

// pageData feeds the HTML templates
type pageData struct {
	Query         string
	Dataset       string
	Results       []resultView
	SiteURL       string
	RepositoryURL string
	LiveResults   int
}

var templateFuncs = template.FuncMap{
	"json": func(v any) (template.JS, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return template.JS(b), nil
	},
}

func toViews(results []types.SearchResult) []resultView {
	views := make([]resultView, len(results))
	for i, r := range results {
		views[i] = resultView{
			Name:       r.Item.Name,
			Path:       r.Item.Path,
			Type:       r.Item.Type,
			LineNumber: r.Item.LineNumber,
			Score:      r.Score,
			URL:        r.URL,
			Icon:       types.IconFor(r.Item.Type),
		}
	}
	return views
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, "lookup", s.newPage(r, "", nil))
}

func (s *Server) handleDonate(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, "donate", s.newPage(r, "", nil))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleLookup redirects to a good-enough match for the requested path or
// renders the results page
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.URL.Path, "/api/docs") {
		s.renderNotFound(w, r)
		return
	}

	id := strings.TrimRight(r.PathValue("id"), "/")
	res, err := s.lookup.Lookup(r.Context(), r.Host, id)
	if err != nil {
		log.Printf("Lookup %q failed: %v", id, err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	if res.Redirect != "" {
		http.Redirect(w, r, res.Redirect, http.StatusTemporaryRedirect)
		return
	}

	s.renderPage(w, http.StatusOK, "lookup", s.newPage(r, res.Query, res.Results))
}

// handleDocs returns a whole dataset
func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	ds, err := s.searcher.Catalog().Get(r.PathValue("module"))
	if err != nil {
		if !errors.Is(err, catalog.ErrDatasetNotFound) {
			log.Printf("Docs %q failed: %v", r.PathValue("module"), err)
		}
		writeJSON(w, http.StatusNotFound, apiResponse{Success: false})
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: ds.Symbols})
}

// handleSearch serves the live search box
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: searcher.ErrEmptyQuery.Error()})
		return
	}

	dataset := q.Get("dataset")
	if dataset == "" {
		dataset = s.lookup.DatasetForHost(r.Host)
	}

	limit := s.search.LiveResults
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > searcher.MaxLimit {
			writeJSON(w, http.StatusBadRequest, apiResponse{Error: "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	modeName := q.Get("mode")
	if modeName == "" {
		modeName = s.search.Mode
	}
	mode, err := searcher.ParseMode(modeName)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Error: err.Error()})
		return
	}

	resp, err := s.searcher.Search(r.Context(), searcher.SearchRequest{
		Query:       query,
		Dataset:     dataset,
		Limit:       limit,
		Mode:        mode,
		UseCache:    true,
		CacheTTL:    s.search.CacheTTL,
		RRFConstant: s.search.RRFConstant,
	})
	switch {
	case errors.Is(err, catalog.ErrDatasetNotFound):
		writeJSON(w, http.StatusNotFound, apiResponse{Error: err.Error()})
		return
	case err != nil:
		log.Printf("Search %q failed: %v", query, err)
		writeJSON(w, http.StatusInternalServerError, apiResponse{Error: "search failed"})
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: searchData{
		Query:   query,
		Dataset: resp.Dataset,
		Mode:    string(resp.SearchMode),
		Total:   resp.TotalResults,
		Results: toViews(resp.Results),
	}})
}

func (s *Server) newPage(r *http.Request, query string, results []types.SearchResult) pageData {
	return pageData{
		Query:         query,
		Dataset:       s.lookup.DatasetForHost(r.Host),
		Results:       toViews(results),
		SiteURL:       s.cfg.SiteURL,
		RepositoryURL: s.cfg.RepositoryURL,
		LiveResults:   s.search.LiveResults,
	}
}

func (s *Server) renderNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusNotFound, "notfound", s.newPage(r, "", nil))
}

// renderPage buffers the template so a failure can still become a 500
func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("Render %s failed: %v", name, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
