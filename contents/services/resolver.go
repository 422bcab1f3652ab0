// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	neturl "net/url"
	"strings"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/contents/metadata"
	"github.com/qolzam/metamorph/contents/models"
	"github.com/qolzam/metamorph/contents/repository"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/cache"
	"github.com/qolzam/metamorph/internal/metrics"
	"github.com/qolzam/metamorph/internal/pkg/log"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "content:url:"

// Resolver returns the canonical Content for a URL, creating it on first sight
type Resolver interface {
	Resolve(ctx context.Context, url string) (*models.Content, error)
}

// Config holds resolver settings
type Config struct {
	// CacheTTL bounds how long a resolved content stays in the cache. Zero
	// keeps it until evicted.
	CacheTTL time.Duration
	// FetchTimeout bounds a single metadata fetch
	FetchTimeout time.Duration
}

type resolver struct {
	repo    repository.ContentRepository
	fetcher metadata.Fetcher
	cache   cache.Cache
	metrics *metrics.Metrics
	config  Config
	group   singleflight.Group
}

// NewResolver creates a Resolver. cache and m may be nil.
func NewResolver(repo repository.ContentRepository, fetcher metadata.Fetcher, c cache.Cache, m *metrics.Metrics, cfg Config) Resolver {
	return &resolver{
		repo:    repo,
		fetcher: fetcher,
		cache:   c,
		metrics: m,
		config:  cfg,
	}
}

// Resolve trims url and returns its content. Concurrent calls for the same new
// URL share one fetch; the unique url column settles races across processes.
// A failed fetch creates no row. The row is committed on its own, so it
// outlives a submit that fails after resolving.
func (r *resolver) Resolve(ctx context.Context, url string) (*models.Content, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, apperr.Validation("url", "must not be empty")
	}
	if err := checkURL(url); err != nil {
		return nil, apperr.MetadataFetch(url, err)
	}

	if content := r.fromCache(ctx, url); content != nil {
		return content, nil
	}

	content, err := r.repo.FindByURL(ctx, url)
	if err == nil {
		r.toCache(ctx, content)
		return content, nil
	}
	if !errors.Is(err, repository.ErrContentNotFound) {
		return nil, err
	}

	v, err, shared := r.group.Do(url, func() (interface{}, error) {
		return r.create(context.WithoutCancel(ctx), url)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.DebugWithContext(ctx, "content fetch for %s shared with a concurrent caller", url)
	}
	return v.(*models.Content), nil
}

func (r *resolver) create(ctx context.Context, url string) (*models.Content, error) {
	// Another flight may have finished between our lookup and this one
	if existing, err := r.repo.FindByURL(ctx, url); err == nil {
		return existing, nil
	} else if !errors.Is(err, repository.ErrContentNotFound) {
		return nil, err
	}

	if r.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.FetchTimeout)
		defer cancel()
	}

	page, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		r.metrics.MetadataFetch(metrics.ResultError)
		log.WarnWithContext(ctx, "metadata fetch failed for %s: %v", url, err)
		return nil, apperr.MetadataFetch(url, err)
	}
	r.metrics.MetadataFetch(metrics.ResultOK)
	log.Dump("metadata for "+url, page.Tags)

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate content ID: %w", err)
	}

	stored, err := r.repo.InsertIfAbsent(ctx, &models.Content{
		ID:             id,
		URL:            url,
		Type:           models.TypeWeb,
		Title:          page.Title(url),
		Description:    page.Description(),
		TeaserImageURL: page.Image(),
		OG:             page.Raw(),
	})
	if err != nil {
		return nil, err
	}

	if stored.ID == id {
		log.InfoWithContext(ctx, "content %s created for %s", stored.ID, url)
	}
	r.toCache(ctx, stored)
	return stored, nil
}

func (r *resolver) fromCache(ctx context.Context, url string) *models.Content {
	if r.cache == nil {
		return nil
	}

	raw, err := r.cache.Get(ctx, cacheKeyPrefix+url)
	if err != nil {
		if !errors.Is(err, cache.ErrKeyNotFound) {
			log.WarnWithContext(ctx, "content cache read failed: %v", err)
		}
		r.metrics.CacheLookup(metrics.ResultMiss)
		return nil
	}

	var content models.Content
	if err := json.Unmarshal(raw, &content); err != nil {
		log.WarnWithContext(ctx, "content cache entry for %s is corrupt: %v", url, err)
		r.metrics.CacheLookup(metrics.ResultMiss)
		return nil
	}

	r.metrics.CacheLookup(metrics.ResultHit)
	return &content
}

func (r *resolver) toCache(ctx context.Context, content *models.Content) {
	if r.cache == nil {
		return
	}

	raw, err := json.Marshal(content)
	if err != nil {
		log.WarnWithContext(ctx, "failed to encode content %s for cache: %v", content.ID, err)
		return
	}
	if err := r.cache.Set(ctx, cacheKeyPrefix+content.URL, raw, r.config.CacheTTL); err != nil {
		log.WarnWithContext(ctx, "content cache write failed: %v", err)
	}
}

func checkURL(raw string) error {
	u, err := neturl.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
