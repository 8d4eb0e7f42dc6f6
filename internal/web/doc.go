// Package web serves std.land over HTTP.
//
// Any path that is not a page or an API route is treated as a lookup: the
// path is fuzzy-matched against the host's dataset and, when the best match
// is clearly ahead of the rest, the client is redirected straight to the
// symbol's source. Otherwise the search page is rendered with the top
// results and the live search box takes over.
//
// Routes:
//
//	GET /                  search page
//	GET /donate            donate page
//	GET /healthz           liveness probe
//	GET /static/...        embedded assets
//	GET /api/docs/{module} whole dataset as JSON
//	GET /api/search        live search (q, dataset, limit, mode)
//	GET /{id...}           lookup
//
// The /api/ routes are rate limited per client IP.
package web
