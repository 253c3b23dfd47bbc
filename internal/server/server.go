// Package server exposes the deep search orchestrator over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/hushh/deepsearch/internal/metrics"
	"github.com/hushh/deepsearch/internal/model"
	"github.com/hushh/deepsearch/internal/store"
)

// Searcher runs deep searches.
type Searcher interface {
	Search(ctx context.Context, req model.SearchRequest) (*model.SearchSession, error)
	NewSearchID() string
}

// SearchReader reads persisted sessions.
type SearchReader interface {
	GetSearch(ctx context.Context, searchID string) (*model.SearchSession, error)
	ListSearches(ctx context.Context, filter store.SearchFilter) ([]store.SearchSummary, error)
}

// Extractor analyses a confirmed profile for the pivot-extract endpoint.
type Extractor interface {
	Extract(ctx context.Context, req model.PivotRequest) (*model.PivotExtraction, error)
}

// Config holds request-level limits.
type Config struct {
	MaxBodyBytes int64
}

// Deps are the collaborators behind the routes. Searches and Extractor are
// optional; their routes are omitted when nil.
type Deps struct {
	Searcher  Searcher
	Searches  SearchReader
	Extractor Extractor
	Metrics   *metrics.Metrics
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// NewRouter builds the HTTP handler.
func NewRouter(deps Deps, cfg Config) http.Handler {
	h := &handlers{deps: deps, now: time.Now}

	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
		MaxAge:         300,
	}))
	r.Use(h.recoverer)
	r.Use(maxBodyBytes(cfg.MaxBodyBytes))

	r.Get("/health", h.health)
	r.Handle("/metrics", deps.Metrics.Handler())

	r.Post("/v1/deepsearch", h.deepSearch)
	r.Post("/functions/v1/deepsearch-orchestrator", h.deepSearch)

	if deps.Searches != nil {
		r.Get("/v1/searches", h.listSearches)
		r.Get("/v1/searches/{searchID}", h.getSearch)
	}
	if deps.Extractor != nil {
		r.Post("/v1/pivot-extract", h.pivotExtract)
	}

	return r
}
