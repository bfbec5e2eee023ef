package codecache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/codeman/internal/fetcher"
	"github.com/xxxsen/codeman/internal/metrics"
)

// Fetcher is a fetcher.IFetcher whose cached entries can be dropped by URL.
type Fetcher interface {
	fetcher.IFetcher
	Evict(url string)
}

// WrapLruCacheToFetcher caches successful fetches per URL. With a non-positive size or
// ttl the wrapper only passes through.
func WrapLruCacheToFetcher(f fetcher.IFetcher, size int, ttl time.Duration) Fetcher {
	if size <= 0 || ttl <= 0 {
		return &passthroughFetcher{next: f}
	}
	return &lruFetcher{
		next:  f,
		cache: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

type lruFetcher struct {
	next  fetcher.IFetcher
	cache *expirable.LRU[string, string]
}

func (l *lruFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if cached, ok := l.cache.Get(url); ok {
		logutil.GetLogger(ctx).Debug("code cache hit", zap.String("url", url))
		metrics.CodeFetches.WithLabelValues("hit").Inc()
		return cached, nil
	}
	res, err := l.next.Fetch(ctx, url)
	metrics.CodeFetches.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return "", err
	}
	l.cache.Add(url, res)
	return res, nil
}

func (l *lruFetcher) Evict(url string) {
	l.cache.Remove(url)
}

type passthroughFetcher struct {
	next fetcher.IFetcher
}

func (p *passthroughFetcher) Fetch(ctx context.Context, url string) (string, error) {
	res, err := p.next.Fetch(ctx, url)
	metrics.CodeFetches.WithLabelValues(metrics.Result(err)).Inc()
	return res, err
}

func (p *passthroughFetcher) Evict(string) {}
