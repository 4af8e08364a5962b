// Package shortener retrieves naver.me short links by driving a browser
// through the article page's share layer. Everything here is best-effort:
// Shorten never returns an error, only a Result.
package shortener

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"milnews/internal/logger"
	"milnews/internal/metrics"
)

// Result reports one shortening attempt. At most one of ShortURL and
// FailureReason is set; both empty means the URL was not eligible and is
// passed through untouched.
type Result struct {
	OriginalURL   string `json:"original_url"`
	ShortURL      string `json:"short_url,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Item is one selected article to shorten.
type Item struct {
	URL   string `json:"url"`
	Press string `json:"press"`
}

// page is the slice of a browser page the strategies need. The production
// implementation wraps a playwright page; tests substitute a fake.
type page interface {
	Click(selector string, timeout time.Duration) error
	Attribute(selector, name string, timeout time.Duration) (string, error)
	InputValue(selector string, timeout time.Duration) (string, error)
	Text(selector string, timeout time.Duration) (string, error)
}

// shareSelectors is the ordered list of share-control guesses. The share
// layer markup changes often, so these are tried in sequence until one
// clicks.
var shareSelectors = []string{
	`button[aria-label="공유"]`,
	`button[aria-label="공유하기"]`,
	`button[class*="share"]`,
	`button[data-testid*="Share"]`,
	`button[title*="공유"]`,
}

// extractors locate the short-link value in the opened share layer:
// attribute first, then input value, then href, then visible text.
var extractors = []struct {
	name string
	fn   func(p page, timeout time.Duration) (string, error)
}{
	{"data-url attribute", func(p page, t time.Duration) (string, error) {
		return p.Attribute(`[data-url]`, "data-url", t)
	}},
	{"readonly input", func(p page, t time.Duration) (string, error) {
		return p.InputValue(`input[readonly]`, t)
	}},
	{"short href", func(p page, t time.Duration) (string, error) {
		return p.Attribute(`a[href*="naver.me"]`, "href", t)
	}},
	{"visible text", func(p page, t time.Duration) (string, error) {
		return p.Text(`[class*="url"], [class*="link_text"]`, t)
	}},
}

var shortURLPattern = regexp.MustCompile(`^https?://naver\.me/[0-9A-Za-z]+`)

// eligibleSuffixes: only aggregator article hosts have a share layer that
// produces naver.me links.
var eligibleSuffixes = []string{"naver.com"}

// Eligible reports whether a short link can exist for this URL at all.
func Eligible(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, suffix := range eligibleSuffixes {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return true
		}
	}
	return false
}

// Shortener drives share-layer sessions. newPage is the only coupling to a
// real browser.
type Shortener struct {
	newPage     func(ctx context.Context, url string) (page, func(), error)
	cache       *SelectorCache
	stepTimeout time.Duration
}

// Shorten attempts to obtain a short link for one article URL. Ineligible
// URLs pass through; every failure mode becomes a FailureReason.
func (s *Shortener) Shorten(ctx context.Context, rawURL, pressName string) Result {
	if !Eligible(rawURL) {
		return Result{OriginalURL: rawURL}
	}

	metrics.Global.IncrementShortensAttempted()

	if s.newPage == nil {
		return s.fail(rawURL, "shortener disabled")
	}

	p, closePage, err := s.newPage(ctx, rawURL)
	if err != nil {
		return s.fail(rawURL, "page load failed: "+err.Error())
	}
	defer closePage()

	selector := s.clickShare(p, pressName)
	if selector == "" {
		return s.fail(rawURL, "share control not found")
	}
	if s.cache != nil {
		s.cache.Put(pressName, selector)
	}

	for _, ex := range extractors {
		value, err := ex.fn(p, s.stepTimeout)
		if err != nil || value == "" {
			continue
		}
		value = strings.TrimSpace(value)
		if shortURLPattern.MatchString(value) {
			logger.Debug("short link extracted", "strategy", ex.name, "url", rawURL)
			return Result{OriginalURL: rawURL, ShortURL: value}
		}
	}

	return s.fail(rawURL, "no short link in share layer")
}

// clickShare tries the cached selector for this press first, then the
// default list. Returns the selector that clicked, or empty.
func (s *Shortener) clickShare(p page, pressName string) string {
	if s.cache != nil {
		if sel, ok := s.cache.Get(pressName); ok {
			if err := p.Click(sel, s.stepTimeout); err == nil {
				return sel
			}
		}
	}

	for _, sel := range shareSelectors {
		if err := p.Click(sel, s.stepTimeout); err == nil {
			return sel
		}
	}
	return ""
}

func (s *Shortener) fail(rawURL, reason string) Result {
	metrics.Global.IncrementShortensFailed()
	logger.Warn("shorten failed", "url", rawURL, "reason", reason)
	return Result{OriginalURL: rawURL, FailureReason: reason}
}

// ShortenAll shortens the selected items with bounded concurrency. Sessions
// share no mutable state, so failures stay isolated per item.
func (s *Shortener) ShortenAll(ctx context.Context, items []Item, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]Result, len(items))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(i int, item Item) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = s.Shorten(ctx, item.URL, item.Press)
		}(i, item)
	}

	wg.Wait()
	return results
}
