package codecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	calls int
	body  string
	err   error
}

func (c *countingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.body + url, nil
}

func TestLruFetcherCachesSuccess(t *testing.T) {
	next := &countingFetcher{body: "code:"}
	f := WrapLruCacheToFetcher(next, 10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := f.Fetch(ctx, "http://blob/a")
		require.NoError(t, err)
		require.Equal(t, "code:http://blob/a", got)
	}
	require.Equal(t, 1, next.calls)

	f.Evict("http://blob/a")
	_, err := f.Fetch(ctx, "http://blob/a")
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

func TestLruFetcherDoesNotCacheErrors(t *testing.T) {
	next := &countingFetcher{err: errors.New("boom")}
	f := WrapLruCacheToFetcher(next, 10, time.Minute)
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), "http://blob/a")
		require.Error(t, err)
	}
	require.Equal(t, 2, next.calls)
}

func TestDisabledCachePassesThrough(t *testing.T) {
	next := &countingFetcher{body: "x"}
	f := WrapLruCacheToFetcher(next, 0, time.Minute)
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), "u")
		require.NoError(t, err)
	}
	f.Evict("u")
	require.Equal(t, 2, next.calls)
}
