package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const mobileSearchURL = "https://m.search.naver.com/search.naver?where=m_news&query="

const mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

// MobileSource scrapes the mobile search-results page. The page layout
// changes often, so every field is located through an ordered selector
// fallback list.
type MobileSource struct {
	client  *http.Client
	baseURL string
}

func NewMobileSource(timeout time.Duration) *MobileSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MobileSource{
		client:  &http.Client{Timeout: timeout},
		baseURL: mobileSearchURL,
	}
}

var (
	cardSelectors = []string{
		"ul.list_news > li.bx",
		"li.news_wrap",
		"div.news_area",
	}
	titleSelectors = []string{
		"a.news_tit",
		".news_tit",
		"a.tit",
	}
	descSelectors = []string{
		"div.news_dsc",
		"a.dsc_txt",
		".dsc_wrap",
	}
	pressSelectors = []string{
		"a.info.press",
		".press",
		"span.info_group a",
	}
	timeSelectors = []string{
		"span.info",
		".info_group span.info",
	}
)

func (s *MobileSource) Search(ctx context.Context, keyword string, limit int) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+url.QueryEscape(keyword), nil)
	if err != nil {
		return nil, fmt.Errorf("mobile search %q: %w", keyword, err)
	}
	req.Header.Set("User-Agent", mobileUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mobile search %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mobile search %q: status %d", keyword, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mobile search %q: parse: %w", keyword, err)
	}

	return parseMobileResults(doc, limit, time.Now()), nil
}

func parseMobileResults(doc *goquery.Document, limit int, now time.Time) []Article {
	var articles []Article

	for _, cardSel := range cardSelectors {
		doc.Find(cardSel).Each(func(i int, card *goquery.Selection) {
			if limit > 0 && len(articles) >= limit {
				return
			}

			title, link := firstLinkText(card, titleSelectors)
			if title == "" || link == "" {
				return
			}

			articles = append(articles, Article{
				Title:       CleanText(title),
				Description: CleanText(firstText(card, descSelectors)),
				URL:         link,
				Press:       strings.TrimSpace(firstText(card, pressSelectors)),
				PublishedAt: parseCardTime(firstTimeText(card), now),
			})
		})
		if len(articles) > 0 {
			break
		}
	}

	return articles
}

func firstLinkText(card *goquery.Selection, selectors []string) (text, href string) {
	for _, sel := range selectors {
		el := card.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		text = strings.TrimSpace(el.Text())
		href, _ = el.Attr("href")
		if text != "" && href != "" {
			return text, href
		}
	}
	return "", ""
}

func firstText(card *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if el := card.Find(sel).First(); el.Length() > 0 {
			if text := strings.TrimSpace(el.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

var relativeTimePattern = regexp.MustCompile(`^(\d+)(분|시간|일) ?전$`)

// firstTimeText returns the first info span that looks like a timestamp.
func firstTimeText(card *goquery.Selection) string {
	var found string
	for _, sel := range timeSelectors {
		card.Find(sel).EachWithBreak(func(i int, el *goquery.Selection) bool {
			text := strings.TrimSpace(el.Text())
			if relativeTimePattern.MatchString(text) || strings.HasSuffix(text, ".") {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			break
		}
	}
	return found
}

// parseCardTime resolves the page's relative timestamps (N분 전, N시간 전,
// N일 전) and absolute dates (2006.01.02.) against the fetch time. Anything
// unrecognized yields the zero time.
func parseCardTime(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	if m := relativeTimePattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}
		}
		switch m[2] {
		case "분":
			return now.Add(-time.Duration(n) * time.Minute)
		case "시간":
			return now.Add(-time.Duration(n) * time.Hour)
		case "일":
			return now.AddDate(0, 0, -n)
		}
	}

	if t, err := time.ParseInLocation("2006.01.02.", s, now.Location()); err == nil {
		return t
	}
	return time.Time{}
}
