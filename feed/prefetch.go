package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	mixer "github.com/gef-festival/photo-mixer"
	"github.com/gef-festival/photo-mixer/cache"
	"github.com/gef-festival/photo-mixer/log"
)

// Per-item prefetch states. An item moves loading→loaded once and never
// transitions back.
const (
	StateLoading = "loading"
	StateLoaded  = "loaded"
)

// Prefetcher warms gallery images off the critical rendering path so
// views can swap a placeholder for the real image as soon as it is
// available. Warmed URLs are remembered in the cache store across
// restarts.
type Prefetcher struct {
	client *http.Client
	cache  cache.CacheStore

	mu    sync.RWMutex
	state map[string]string
}

func NewPrefetcher(client *http.Client, cacheStore cache.CacheStore) *Prefetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Prefetcher{
		client: client,
		cache:  cacheStore,
		state:  make(map[string]string),
	}
}

// State reports the prefetch state of a URL; untracked URLs are
// considered loading.
func (p *Prefetcher) State(url string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if s, ok := p.state[url]; ok {
		return s
	}
	return StateLoading
}

// Loaded reports whether the URL's bytes have been fetched.
func (p *Prefetcher) Loaded(url string) bool {
	return p.State(url) == StateLoaded
}

// Warm starts fetching every untracked photo in the snapshot. Each item
// is independent; one failing image never blocks the others.
func (p *Prefetcher) Warm(ctx context.Context, photos []mixer.PhotoRecord) {
	for _, photo := range photos {
		url := photo.URL
		if url == "" || !p.markLoading(url) {
			continue
		}

		go p.fetch(ctx, url)
	}
}

// markLoading claims a URL; returns false when it is already tracked.
func (p *Prefetcher) markLoading(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.state[url]; ok {
		return false
	}
	p.state[url] = StateLoading
	return true
}

func (p *Prefetcher) markLoaded(url string) {
	p.mu.Lock()
	p.state[url] = StateLoaded
	p.mu.Unlock()
}

func (p *Prefetcher) fetch(ctx context.Context, url string) {
	if p.cache != nil {
		if state, err := p.cache.GetData(ctx, url); err == nil && state == StateLoaded {
			p.markLoaded(url)
			return
		}
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		log.Debug("fail to prefetch image", zap.Error(err), zap.String("url", url), log.SourceFeed)
		return
	}

	p.markLoaded(url)

	if p.cache != nil {
		if err := p.cache.SaveData(ctx, url, StateLoaded); err != nil {
			log.Debug("fail to persist prefetch state", zap.Error(err), log.SourceFeed)
		}
	}
}
