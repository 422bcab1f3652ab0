// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package metadata fetches a web page and extracts its OpenGraph and Twitter
// card tags.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Page holds the tags read from a document head. Keys are the raw property or
// name attribute, e.g. "og:title" or "twitter:image".
type Page struct {
	Tags      map[string]string
	HTMLTitle string
}

// Fetcher loads page metadata for a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// Options configures HTTPFetcher
type Options struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

// HTTPFetcher fetches pages over HTTP with a bounded timeout and body size
type HTTPFetcher struct {
	client  *http.Client
	options Options
}

// NewHTTPFetcher creates a fetcher. A nil client uses a new http.Client with
// opts.Timeout.
func NewHTTPFetcher(client *http.Client, opts Options) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 2 << 20
	}
	return &HTTPFetcher{client: client, options: opts}
}

// Fetch requests url and parses its head
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if f.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.options.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if f.options.UserAgent != "" {
		req.Header.Set("User-Agent", f.options.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return Parse(io.LimitReader(resp.Body, f.options.MaxBodyBytes))
}

// Parse reads meta tags and the title from an HTML document. Parsing stops at
// the start of the body.
func Parse(r io.Reader) (*Page, error) {
	page := &Page{Tags: make(map[string]string)}
	z := html.NewTokenizer(r)
	inTitle := false

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return page, nil
			}
			return nil, fmt.Errorf("failed to parse html: %w", z.Err())

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "body":
				return page, nil
			case "title":
				inTitle = tt == html.StartTagToken
			case "meta":
				key, content := metaAttrs(tok)
				if key != "" && content != "" {
					if _, seen := page.Tags[key]; !seen {
						page.Tags[key] = content
					}
				}
			}

		case html.TextToken:
			if inTitle && page.HTMLTitle == "" {
				page.HTMLTitle = strings.TrimSpace(string(z.Text()))
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = false
			case "head":
				return page, nil
			}
		}
	}
}

func metaAttrs(tok html.Token) (key, content string) {
	for _, a := range tok.Attr {
		switch strings.ToLower(a.Key) {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(a.Val))
			}
		case "content":
			content = strings.TrimSpace(a.Val)
		}
	}
	return key, content
}

// Get returns the first non-empty tag among keys
func (p *Page) Get(keys ...string) string {
	for _, k := range keys {
		if v := p.Tags[k]; v != "" {
			return v
		}
	}
	return ""
}

// Title follows og:title, twitter:title, og:site_name and finally fallback
func (p *Page) Title(fallback string) string {
	if v := p.Get("og:title", "twitter:title", "og:site_name"); v != "" {
		return v
	}
	return fallback
}

// Description is og:description, else twitter:description, else absent
func (p *Page) Description() *string {
	return optional(p.Get("og:description", "twitter:description"))
}

// Image is og:image, else twitter:image, else absent
func (p *Page) Image() *string {
	return optional(p.Get("og:image", "og:image:url", "twitter:image", "twitter:image:src"))
}

// Raw returns the full payload for storage
func (p *Page) Raw() map[string]interface{} {
	raw := make(map[string]interface{}, len(p.Tags)+1)
	for k, v := range p.Tags {
		raw[k] = v
	}
	if p.HTMLTitle != "" {
		raw["title"] = p.HTMLTitle
	}
	return raw
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
