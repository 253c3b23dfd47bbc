// Package store persists finished search sessions.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/hushh/deepsearch/internal/model"
)

// ErrNotFound is returned by GetSearch when no session has the given id.
var ErrNotFound = eris.New("store: search not found")

// SearchFilter specifies criteria for listing searches.
type SearchFilter struct {
	Status model.SessionStatus `json:"status,omitempty"`
	Limit  int                 `json:"limit,omitempty"`
}

// SearchSummary is one row of a search listing.
type SearchSummary struct {
	SearchID          string              `json:"searchId" yaml:"searchId"`
	Name              string              `json:"name" yaml:"name"`
	Status            model.SessionStatus `json:"status" yaml:"status"`
	CurrentPhase      int                 `json:"currentPhase" yaml:"currentPhase"`
	OverallConfidence int                 `json:"overallConfidence" yaml:"overallConfidence"`
	Mode              string              `json:"mode,omitempty" yaml:"mode,omitempty"`
	ExecutionTimeMs   int64               `json:"executionTimeMs" yaml:"executionTimeMs"`
	CreatedAt         time.Time           `json:"createdAt" yaml:"createdAt"`
}

// Store defines the persistence interface for search sessions.
type Store interface {
	// SaveSearch upserts the search row, its merged profile, and one row per
	// adapter result. Saving the same session twice is idempotent.
	SaveSearch(ctx context.Context, req model.SearchRequest, sess *model.SearchSession) error
	GetSearch(ctx context.Context, searchID string) (*model.SearchSession, error)
	ListSearches(ctx context.Context, filter SearchFilter) ([]SearchSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultListLimit = 50

func listLimit(f SearchFilter) int {
	if f.Limit <= 0 || f.Limit > 500 {
		return defaultListLimit
	}
	return f.Limit
}
