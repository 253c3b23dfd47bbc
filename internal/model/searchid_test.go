package model

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var searchIDPattern = regexp.MustCompile(`^ds_[0-9a-z]+_[0-9a-z]{6}$`)

func TestNewSearchID_Format(t *testing.T) {
	t.Parallel()

	id := NewSearchID()
	assert.Regexp(t, searchIDPattern, id)
}

func TestNewSearchID_EncodesTimestamp(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1735689600123)
	id := newSearchID(now)

	parts := strings.Split(id, "_")
	require.Len(t, parts, 3)
	ms, err := strconv.ParseInt(parts[1], 36, 64)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), ms)
}

func TestNewSearchID_Unique(t *testing.T) {
	t.Parallel()

	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := NewSearchID()
		require.Regexp(t, searchIDPattern, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate search id %s", id)
		seen[id] = struct{}{}
	}
}

func TestSearchIDContext(t *testing.T) {
	t.Parallel()

	assert.Empty(t, SearchIDFromContext(context.Background()))
	ctx := ContextWithSearchID(context.Background(), "ds_abc_123456")
	assert.Equal(t, "ds_abc_123456", SearchIDFromContext(ctx))
}
