package source

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"
)

const defaultRSSQueryURL = "https://news.google.com/rss/search?hl=ko&gl=KR&ceid=KR:ko&q="

// RSSSource searches through a keyword-templated query feed.
type RSSSource struct {
	parser   *gofeed.Parser
	queryURL string
	timeout  time.Duration
}

func NewRSSSource(queryURL string, timeout time.Duration) *RSSSource {
	if queryURL == "" {
		queryURL = defaultRSSQueryURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RSSSource{
		parser:   gofeed.NewParser(),
		queryURL: queryURL,
		timeout:  timeout,
	}
}

func (s *RSSSource) Search(ctx context.Context, keyword string, limit int) ([]Article, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	feed, err := s.parser.ParseURLWithContext(s.queryURL+url.QueryEscape(keyword), ctx)
	if err != nil {
		return nil, fmt.Errorf("rss search %q: %w", keyword, err)
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if limit > 0 && len(articles) >= limit {
			break
		}
		if item.Link == "" {
			continue
		}

		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		}

		articles = append(articles, Article{
			Title:       CleanText(item.Title),
			Description: CleanText(item.Description),
			URL:         item.Link,
			PublishedAt: published,
		})
	}
	return articles, nil
}
