package source

import (
	"context"
	"html"
	"regexp"
	"strings"
	"sync"
	"time"

	"milnews/internal/logger"
	"milnews/internal/metrics"
)

// Article is a single raw record as returned by one search call. Immutable
// once fetched; text fields are already cleaned of markup.
type Article struct {
	Title       string
	Description string
	URL         string
	OriginalURL string // publisher-direct link, when distinct from URL
	Press       string
	PublishedAt time.Time // zero when absent or unparseable
}

// Source issues one outbound query for a keyword and returns raw articles.
type Source interface {
	Search(ctx context.Context, keyword string, limit int) ([]Article, error)
}

// KeywordResult pairs a keyword with the articles its query returned.
type KeywordResult struct {
	Keyword  string
	Articles []Article
}

var tagPattern = regexp.MustCompile(`</?[^<>]+>`)

// CleanText unescapes HTML entities, strips highlighting tags and collapses
// whitespace runs.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = tagPattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// Fetch queries src once per keyword, at most concurrency calls in flight.
// A failed keyword degrades to an empty result; the pipeline never aborts on
// a single keyword. Results are positionally stable so the merge downstream
// does not depend on completion order.
func Fetch(ctx context.Context, src Source, keywords []string, limit, concurrency int) []KeywordResult {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]KeywordResult, len(keywords))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, kw := range keywords {
		wg.Add(1)
		go func(i int, kw string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			metrics.Global.IncrementKeywordsFetched()
			articles, err := src.Search(ctx, kw, limit)
			if err != nil {
				metrics.Global.IncrementFetchErrors()
				logger.Warn("keyword fetch failed", "keyword", kw, "error", err)
				articles = nil
			}
			results[i] = KeywordResult{Keyword: kw, Articles: articles}
		}(i, kw)
	}

	wg.Wait()
	return results
}
