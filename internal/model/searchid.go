package model

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSearchID returns an id of the form ds_<millis base36>_<6 random base36>.
func NewSearchID() string {
	return newSearchID(time.Now())
}

func newSearchID(now time.Time) string {
	suffix := make([]byte, 6)
	max := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms.
			panic(err)
		}
		suffix[i] = base36[n.Int64()]
	}
	return "ds_" + strconv.FormatInt(now.UnixMilli(), 36) + "_" + string(suffix)
}

type searchIDKey struct{}

// ContextWithSearchID pins the id a search started from ctx runs under.
func ContextWithSearchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, searchIDKey{}, id)
}

// SearchIDFromContext returns the pinned search id, or "" when none is set.
func SearchIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(searchIDKey{}).(string)
	return id
}
