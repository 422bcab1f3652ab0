package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/qolzam/metamorph/contents/metadata"
)

// FakeFetcher returns canned pages and counts calls per URL
type FakeFetcher struct {
	mu    sync.Mutex
	pages map[string]*metadata.Page
	errs  map[string]error
	calls map[string]int
	total int64

	// Gate, when set, blocks every Fetch until it is closed
	Gate chan struct{}
}

// NewFakeFetcher creates a fetcher that answers unknown URLs with an empty page
func NewFakeFetcher() *FakeFetcher {
	return &FakeFetcher{
		pages: make(map[string]*metadata.Page),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// SetPage registers tags for url
func (f *FakeFetcher) SetPage(url string, tags map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = &metadata.Page{Tags: tags}
}

// SetError makes fetches of url fail
func (f *FakeFetcher) SetError(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[url] = err
}

func (f *FakeFetcher) Fetch(ctx context.Context, url string) (*metadata.Page, error) {
	atomic.AddInt64(&f.total, 1)
	f.mu.Lock()
	f.calls[url]++
	page, err := f.pages[url], f.errs[url]
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}
	if page == nil {
		return &metadata.Page{Tags: map[string]string{}}, nil
	}
	return page, nil
}

// Calls returns how often url was fetched
func (f *FakeFetcher) Calls(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// Total returns the number of fetches across all URLs
func (f *FakeFetcher) Total() int {
	return int(atomic.LoadInt64(&f.total))
}
