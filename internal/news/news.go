// Package news implements the aggregate → filter → rank pipeline that turns
// per-keyword search results into a deduplicated, ordered article list.
package news

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"milnews/internal/metrics"
	"milnews/internal/press"
	"milnews/internal/source"
)

type PressMode int

const (
	ModeAll PressMode = iota
	ModeMajorOnly
)

// FilterContext carries the knobs for one pipeline invocation. Now is
// captured once per run so every recency decision sees the same clock.
type FilterContext struct {
	Keywords           []string
	Now                time.Time
	RecencyWindow      time.Duration
	PressMode          PressMode
	MinKeywordMatches  int
	VideoOnly          bool
	VideoRequiresMajor bool
}

// Aggregated is one article deduplicated by URL. Matched records which
// keyword queries returned this URL; descriptive fields are first-seen.
type Aggregated struct {
	Title       string
	Description string
	URL         string
	Press       string
	PublishedAt time.Time
	Matched     map[string]struct{}
}

// MatchedKeywords returns the match set sorted for stable output.
func (a *Aggregated) MatchedKeywords() []string {
	out := make([]string, 0, len(a.Matched))
	for kw := range a.Matched {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

type KeywordCount struct {
	Keyword string
	Count   int
}

// Ranked is an aggregated article with display-only occurrence counts. The
// counts never feed back into filtering; the match set does that.
type Ranked struct {
	Aggregated
	KeywordCounts    []KeywordCount
	TotalOccurrences int
	DisplayDate      string
	MatchSummary     string
}

type Pipeline struct {
	Press *press.Table
}

func NewPipeline(table *press.Table) *Pipeline {
	if table == nil {
		table = press.Default()
	}
	return &Pipeline{Press: table}
}

// Run executes the full pipeline for one request.
func (p *Pipeline) Run(fc FilterContext, results []source.KeywordResult) []Ranked {
	start := time.Now()
	defer func() {
		metrics.Global.RecordPipelineTime(time.Since(start))
		metrics.Global.SetLastRun()
	}()

	return p.Rank(fc, p.Filter(fc, p.Aggregate(results)))
}

// Aggregate merges per-keyword results into one record per distinct URL.
// First-seen wins for descriptive fields; later sightings only grow the
// match set, so merging is commutative across fetch completion order.
func (p *Pipeline) Aggregate(results []source.KeywordResult) map[string]*Aggregated {
	m := make(map[string]*Aggregated)

	for _, kr := range results {
		for _, a := range kr.Articles {
			if a.URL == "" {
				continue
			}
			if agg, ok := m[a.URL]; ok {
				agg.Matched[kr.Keyword] = struct{}{}
				metrics.Global.IncrementDuplicatesMerged()
				continue
			}
			metrics.Global.IncrementArticlesSeen()
			m[a.URL] = &Aggregated{
				Title:       a.Title,
				Description: a.Description,
				URL:         a.URL,
				Press:       p.Press.ResolveName(a.OriginalURL, a.URL, a.Press),
				PublishedAt: a.PublishedAt,
				Matched:     map[string]struct{}{kr.Keyword: {}},
			}
		}
	}

	return m
}

// The filter chain, applied in fixed order with short-circuit on the first
// drop. Filters only read the article; none of them mutate it.
var filterChain = []struct {
	name string
	keep func(p *Pipeline, fc FilterContext, a *Aggregated) bool
}{
	{"recency", keepRecent},
	{"press", keepPress},
	{"matches", keepMatches},
	{"video", keepVideo},
}

func (p *Pipeline) Filter(fc FilterContext, m map[string]*Aggregated) []*Aggregated {
	kept := make([]*Aggregated, 0, len(m))

outer:
	for _, a := range m {
		for _, f := range filterChain {
			if !f.keep(p, fc, a) {
				metrics.Global.IncrementDropped(f.name)
				continue outer
			}
		}
		kept = append(kept, a)
	}

	return kept
}

// keepRecent drops articles older than the window and articles whose
// timestamp never parsed (zero time). Age exactly at the window survives.
func keepRecent(p *Pipeline, fc FilterContext, a *Aggregated) bool {
	if a.PublishedAt.IsZero() {
		return false
	}
	return fc.Now.Sub(a.PublishedAt) <= fc.RecencyWindow
}

func keepPress(p *Pipeline, fc FilterContext, a *Aggregated) bool {
	if fc.PressMode != ModeMajorOnly {
		return true
	}
	return p.Press.IsMajor(a.Press)
}

func keepMatches(p *Pipeline, fc FilterContext, a *Aggregated) bool {
	return len(a.Matched) >= fc.MinKeywordMatches
}

var videoWords = []string{
	"영상", "동영상", "영상보기", "보러가기", "뉴스영상", "영상뉴스", "클릭하세요", "바로보기",
}

var videoURLHints = []string{"/v/", "/video/", "vid="}

func keepVideo(p *Pipeline, fc FilterContext, a *Aggregated) bool {
	if !fc.VideoOnly {
		return true
	}
	if fc.VideoRequiresMajor && !p.Press.IsMajor(a.Press) {
		return false
	}

	text := a.Title + " " + a.Description
	for _, w := range videoWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	for _, h := range videoURLHints {
		if strings.Contains(a.URL, h) {
			return true
		}
	}
	return false
}

var kst = time.FixedZone("KST", 9*60*60)

// Rank orders surviving articles by total keyword occurrences (descending),
// then publication time (newest first), then URL for reproducibility, and
// renders the display fields.
func (p *Pipeline) Rank(fc FilterContext, articles []*Aggregated) []Ranked {
	out := make([]Ranked, 0, len(articles))
	for _, a := range articles {
		counts, total := countKeywords(a.Title+" "+a.Description, fc.Keywords)
		out = append(out, Ranked{
			Aggregated:       *a,
			KeywordCounts:    counts,
			TotalOccurrences: total,
			DisplayDate:      a.PublishedAt.In(kst).Format("2006-01-02 15:04"),
			MatchSummary:     summarize(counts),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalOccurrences != out[j].TotalOccurrences {
			return out[i].TotalOccurrences > out[j].TotalOccurrences
		}
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].URL < out[j].URL
	})

	return out
}

// countKeywords counts case-insensitive literal occurrences of each keyword
// in the text. Keywords that never occur are omitted. The returned list is
// ordered by count descending, then keyword ascending.
func countKeywords(text string, keywords []string) ([]KeywordCount, int) {
	lower := strings.ToLower(text)

	var counts []KeywordCount
	total := 0
	for _, kw := range keywords {
		n := strings.Count(lower, strings.ToLower(kw))
		if n == 0 {
			continue
		}
		counts = append(counts, KeywordCount{Keyword: kw, Count: n})
		total += n
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Keyword < counts[j].Keyword
	})

	return counts, total
}

// summarize renders "kw(n)" for counts above one, bare "kw" otherwise.
func summarize(counts []KeywordCount) string {
	if len(counts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		if c.Count > 1 {
			parts = append(parts, c.Keyword+"("+strconv.Itoa(c.Count)+")")
		} else {
			parts = append(parts, c.Keyword)
		}
	}
	return strings.Join(parts, ", ")
}
