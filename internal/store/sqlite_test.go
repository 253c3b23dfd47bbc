package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushh/deepsearch/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_SaveAndGetSearch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	req, sess := sampleSession()

	require.NoError(t, st.SaveSearch(ctx, req, sess))

	got, err := st.GetSearch(ctx, sess.SearchID)
	require.NoError(t, err)

	assert.Equal(t, sess.SearchID, got.SearchID)
	assert.Equal(t, model.SessionStatusPartial, got.Status)
	assert.Equal(t, 2, got.CurrentPhase)
	assert.Equal(t, 64, got.OverallConfidence)
	assert.Equal(t, []int{1, 2}, got.PhasesCompleted)
	assert.Equal(t, int64(1840), got.ExecutionTimeMs)
	assert.Equal(t, "phased", got.Mode)
	assert.Equal(t, sess.MergedProfile, got.MergedProfile)

	require.Len(t, got.APIs, 3)
	cg := got.APIs["codeGraph"]
	assert.Equal(t, model.APIStatusSuccess, cg.Status)
	assert.InDelta(t, 82, cg.Confidence, 0.001)
	assert.JSONEq(t, `{"company":"Analytical Engines"}`, string(cg.Data))
	assert.Equal(t, "context deadline exceeded", got.APIs["webCrawl"].Error)
	assert.Nil(t, got.APIs["proConnect"].Data)
}

func TestSQLite_SaveSearch_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	req, sess := sampleSession()

	require.NoError(t, st.SaveSearch(ctx, req, sess))

	sess.Status = model.SessionStatusComplete
	sess.OverallConfidence = 88
	sess.APIs["codeGraph"] = model.APIResult{
		APIName: "codeGraph", BrandedName: "Hushh CodeGraph", Status: model.APIStatusSuccess,
		Confidence: 95, Data: json.RawMessage(`{}`),
	}
	require.NoError(t, st.SaveSearch(ctx, req, sess))

	got, err := st.GetSearch(ctx, sess.SearchID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusComplete, got.Status)
	assert.Equal(t, 88, got.OverallConfidence)
	assert.Len(t, got.APIs, 3)
	assert.InDelta(t, 95, got.APIs["codeGraph"].Confidence, 0.001)

	list, err := st.ListSearches(ctx, SearchFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLite_GetSearch_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetSearch(context.Background(), "ds_missing_000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListSearches(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	st.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for _, tc := range []struct {
		id     string
		status model.SessionStatus
	}{
		{"ds_a_000001", model.SessionStatusComplete},
		{"ds_b_000002", model.SessionStatusFailed},
		{"ds_c_000003", model.SessionStatusComplete},
	} {
		sess := &model.SearchSession{SearchID: tc.id, Status: tc.status, CurrentPhase: 1, PhasesCompleted: []int{1}}
		require.NoError(t, st.SaveSearch(ctx, model.SearchRequest{Name: "Name " + tc.id}, sess))
	}

	all, err := st.ListSearches(ctx, SearchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ds_c_000003", all[0].SearchID)
	assert.Equal(t, "Name ds_c_000003", all[0].Name)
	assert.Equal(t, base.Add(3*time.Minute), all[0].CreatedAt.UTC())

	complete, err := st.ListSearches(ctx, SearchFilter{Status: model.SessionStatusComplete})
	require.NoError(t, err)
	assert.Len(t, complete, 2)

	limited, err := st.ListSearches(ctx, SearchFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_ListSearches_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	list, err := st.ListSearches(context.Background(), SearchFilter{})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSQLite_ImplementsStore(t *testing.T) {
	var _ Store = newTestSQLiteStore(t)
	var _ Store = (*PostgresStore)(nil)
}
