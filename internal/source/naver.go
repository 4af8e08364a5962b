package source

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"milnews/internal/metrics"
	"milnews/internal/ratelimit"
	"milnews/internal/retry"
)

const naverSearchPath = "/v1/search/news.json"

// NaverClient queries the Naver Open API news search endpoint.
type NaverClient struct {
	http    *resty.Client
	limiter *ratelimit.QuotaLimiter
	retry   retry.RetryConfig
}

type NaverOptions struct {
	BaseURL       string // override for tests; defaults to the public endpoint
	ClientID      string
	ClientSecret  string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	Limiter       *ratelimit.QuotaLimiter
}

func NewNaverClient(opts NaverOptions) *NaverClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://openapi.naver.com"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := opts.RetryAttempts
	if attempts < 1 {
		attempts = 3
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("X-Naver-Client-Id", opts.ClientID).
		SetHeader("X-Naver-Client-Secret", opts.ClientSecret)

	return &NaverClient{
		http:    client,
		limiter: opts.Limiter,
		retry:   retry.RetryConfig{MaxAttempts: attempts, Delay: delay, Backoff: true},
	}
}

type naverResponse struct {
	Items []naverItem `json:"items"`
}

type naverItem struct {
	Title        string `json:"title"`
	OriginalLink string `json:"originallink"`
	Link         string `json:"link"`
	Description  string `json:"description"`
	PubDate      string `json:"pubDate"`
}

// Search fetches recent articles for a keyword, retrying with exponential
// backoff when the API answers 429. Other failures are not retried.
func (c *NaverClient) Search(ctx context.Context, keyword string, limit int) ([]Article, error) {
	if c.limiter != nil {
		if err := c.limiter.Use(); err != nil {
			return nil, err
		}
	}

	var out naverResponse
	err := retry.WithRetry(ctx, c.retry, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"query":   keyword,
				"display": strconv.Itoa(limit),
				"sort":    "date",
			}).
			SetResult(&out).
			Get(naverSearchPath)
		if err != nil {
			return retry.Permanent(fmt.Errorf("naver search %q: %w", keyword, err))
		}
		switch resp.StatusCode() {
		case http.StatusOK:
			return nil
		case http.StatusTooManyRequests:
			metrics.Global.IncrementRateLimitHits()
			return fmt.Errorf("naver search %q: rate limited", keyword)
		default:
			return retry.Permanent(fmt.Errorf("naver search %q: status %d", keyword, resp.StatusCode()))
		}
	})
	if err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(out.Items))
	for _, item := range out.Items {
		if item.Link == "" {
			continue
		}
		original := item.OriginalLink
		if original == item.Link {
			original = ""
		}
		articles = append(articles, Article{
			Title:       CleanText(item.Title),
			Description: CleanText(item.Description),
			URL:         item.Link,
			OriginalURL: original,
			PublishedAt: parsePubDate(item.PubDate),
		})
	}
	return articles, nil
}

// parsePubDate parses the API's RFC 1123 pubDate. Parse failures yield the
// zero time, which the recency filter later drops; that is intentional.
func parsePubDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC1123Z, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
