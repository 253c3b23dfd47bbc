package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hushh/deepsearch/internal/db"
	"github.com/hushh/deepsearch/internal/model"
)

func TestBuildRows(t *testing.T) {
	req, sess := sampleSession()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows, err := buildRows(req, sess, now)
	require.NoError(t, err)

	require.Len(t, rows.search, 1)
	assert.Equal(t, []any{
		"ds_lz1abc_x1y2z3", "Ada Lovelace", "ada@example.com", "+1 (555) 123-4567",
		"partial", 2, 64, "[1,2]", int64(1840), "phased", now,
	}, rows.search[0])

	require.Len(t, rows.profile, 1)
	assert.Equal(t, `["ada@example.com"]`, rows.profile[0][2])
	assert.Equal(t, `[{"platform":"github","url":"https://github.com/ada","username":"ada","verified":true}]`, rows.profile[0][10])

	require.Len(t, rows.apiCalls, 3)
	// Sorted by adapter name.
	assert.Equal(t, "codeGraph", rows.apiCalls[0][2])
	assert.Equal(t, `{"company":"Analytical Engines"}`, rows.apiCalls[0][7])
	assert.Nil(t, rows.apiCalls[0][8])
	assert.Equal(t, "proConnect", rows.apiCalls[1][2])
	assert.Nil(t, rows.apiCalls[1][7])
	assert.Equal(t, "webCrawl", rows.apiCalls[2][2])
	assert.Equal(t, "context deadline exceeded", rows.apiCalls[2][8])
}

func TestBuildRows_OptionalInputsAreNull(t *testing.T) {
	sess := &model.SearchSession{SearchID: "ds_a_b", Status: model.SessionStatusFailed}

	rows, err := buildRows(model.SearchRequest{Name: "X"}, sess, time.Now())
	require.NoError(t, err)

	assert.Nil(t, rows.search[0][2])
	assert.Nil(t, rows.search[0][3])
	assert.Equal(t, "[]", rows.search[0][7])
	assert.Equal(t, "[]", rows.profile[0][2])
	assert.Empty(t, rows.apiCalls)

	stmts, err := rows.statements(db.Question)
	require.NoError(t, err)
	assert.Len(t, stmts, 2)
}

func TestBuildRows_RequiresID(t *testing.T) {
	_, err := buildRows(model.SearchRequest{Name: "X"}, &model.SearchSession{}, time.Now())
	require.Error(t, err)

	_, err = buildRows(model.SearchRequest{Name: "X"}, nil, time.Now())
	require.Error(t, err)
}

func TestStatements_Placeholders(t *testing.T) {
	req, sess := sampleSession()
	rows, err := buildRows(req, sess, time.Now())
	require.NoError(t, err)

	pg, err := rows.statements(db.Dollar)
	require.NoError(t, err)
	require.Len(t, pg, 3)
	assert.Contains(t, pg[0].sql, `INSERT INTO "osint_searches"`)
	assert.Contains(t, pg[0].sql, "$11")
	assert.NotContains(t, pg[0].sql, `"created_at" = EXCLUDED`)
	assert.Contains(t, pg[2].sql, `ON CONFLICT ("search_id", "api_name")`)
	assert.Len(t, pg[2].args, 30)

	lite, err := rows.statements(db.Question)
	require.NoError(t, err)
	assert.NotContains(t, lite[1].sql, "$")
}

func TestListLimit(t *testing.T) {
	assert.Equal(t, defaultListLimit, listLimit(SearchFilter{}))
	assert.Equal(t, 10, listLimit(SearchFilter{Limit: 10}))
	assert.Equal(t, defaultListLimit, listLimit(SearchFilter{Limit: 10000}))
}
