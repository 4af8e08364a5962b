package news

import (
	"testing"
	"time"

	"milnews/internal/press"
	"milnews/internal/source"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func testContext() FilterContext {
	return FilterContext{
		Keywords:          []string{"육군", "국방"},
		Now:               testNow,
		RecencyWindow:     4 * time.Hour,
		PressMode:         ModeAll,
		MinKeywordMatches: 1,
	}
}

func article(url, title, desc string, published time.Time) source.Article {
	return source.Article{
		Title:       title,
		Description: desc,
		URL:         url,
		PublishedAt: published,
	}
}

func TestAggregate_MergesSameURLAcrossKeywords(t *testing.T) {
	p := NewPipeline(nil)
	a := article("http://a", "육군 훈련", "국방부 발표", testNow.Add(-time.Hour))

	m := p.Aggregate([]source.KeywordResult{
		{Keyword: "육군", Articles: []source.Article{a}},
		{Keyword: "국방", Articles: []source.Article{a}},
	})

	if len(m) != 1 {
		t.Fatalf("got %d aggregated articles, want 1", len(m))
	}
	agg := m["http://a"]
	if agg == nil {
		t.Fatal("missing entry for http://a")
	}
	if len(agg.Matched) != 2 {
		t.Errorf("matched set = %v, want both keywords", agg.MatchedKeywords())
	}
}

func TestAggregate_FirstSeenWinsForDescriptiveFields(t *testing.T) {
	p := NewPipeline(nil)
	first := article("http://a", "첫 제목", "첫 설명", testNow.Add(-time.Hour))
	second := article("http://a", "둘째 제목", "둘째 설명", testNow.Add(-2*time.Hour))

	m := p.Aggregate([]source.KeywordResult{
		{Keyword: "육군", Articles: []source.Article{first}},
		{Keyword: "국방", Articles: []source.Article{second}},
	})

	agg := m["http://a"]
	if agg.Title != "첫 제목" || agg.Description != "첫 설명" {
		t.Errorf("descriptive fields overwritten: %+v", agg)
	}
	if !agg.PublishedAt.Equal(first.PublishedAt) {
		t.Errorf("timestamp overwritten: %v", agg.PublishedAt)
	}
}

func TestAggregate_PressResolvedFromOriginalURL(t *testing.T) {
	p := NewPipeline(nil)
	a := source.Article{
		Title:       "기사",
		URL:         "https://n.news.naver.com/article/1",
		OriginalURL: "https://www.yna.co.kr/view/1",
		PublishedAt: testNow,
	}

	m := p.Aggregate([]source.KeywordResult{{Keyword: "육군", Articles: []source.Article{a}}})
	if got := m[a.URL].Press; got != "연합뉴스" {
		t.Errorf("press = %q, want 연합뉴스", got)
	}
}

func TestFilter_RecencyBoundary(t *testing.T) {
	p := NewPipeline(nil)
	fc := testContext()

	outside := &Aggregated{
		URL:         "http://old",
		PublishedAt: testNow.Add(-fc.RecencyWindow - time.Second), // 07:59:59
		Matched:     map[string]struct{}{"육군": {}},
	}
	inside := &Aggregated{
		URL:         "http://new",
		PublishedAt: testNow.Add(-fc.RecencyWindow + time.Second), // 08:00:01
		Matched:     map[string]struct{}{"육군": {}},
	}

	kept := p.Filter(fc, map[string]*Aggregated{"http://old": outside, "http://new": inside})
	if len(kept) != 1 || kept[0].URL != "http://new" {
		t.Fatalf("kept = %v, want only http://new", urls(kept))
	}
}

func TestFilter_MissingTimestampDropped(t *testing.T) {
	p := NewPipeline(nil)
	a := &Aggregated{URL: "http://a", Matched: map[string]struct{}{"육군": {}}}

	kept := p.Filter(testContext(), map[string]*Aggregated{"http://a": a})
	if len(kept) != 0 {
		t.Error("article without a parseable timestamp must be dropped")
	}
}

func TestFilter_MajorOnlyPressExactness(t *testing.T) {
	p := NewPipeline(nil)
	fc := testContext()
	fc.PressMode = ModeMajorOnly

	major := &Aggregated{
		URL: "http://a", Press: "조선일보",
		PublishedAt: testNow.Add(-time.Hour),
		Matched:     map[string]struct{}{"육군": {}},
	}
	minor := &Aggregated{
		URL: "http://b", Press: "어떤매체",
		PublishedAt: testNow.Add(-time.Hour),
		Matched:     map[string]struct{}{"육군": {}, "국방": {}},
	}

	kept := p.Filter(fc, map[string]*Aggregated{"http://a": major, "http://b": minor})
	if len(kept) != 1 || kept[0].Press != "조선일보" {
		t.Fatalf("kept = %v, want only 조선일보", urls(kept))
	}
}

func TestFilter_MinKeywordMatches(t *testing.T) {
	p := NewPipeline(nil)
	fc := testContext()
	fc.MinKeywordMatches = 2

	one := &Aggregated{
		URL:         "http://one",
		PublishedAt: testNow.Add(-time.Hour),
		Matched:     map[string]struct{}{"육군": {}},
	}
	both := &Aggregated{
		URL:         "http://both",
		PublishedAt: testNow.Add(-time.Hour),
		Matched:     map[string]struct{}{"육군": {}, "국방": {}},
	}

	kept := p.Filter(fc, map[string]*Aggregated{"http://one": one, "http://both": both})
	if len(kept) != 1 || kept[0].URL != "http://both" {
		t.Fatalf("kept = %v, want only http://both", urls(kept))
	}
}

func TestFilter_ZeroThresholdKeepsAll(t *testing.T) {
	p := NewPipeline(nil)
	fc := testContext()
	fc.MinKeywordMatches = 0

	a := &Aggregated{
		URL:         "http://a",
		PublishedAt: testNow.Add(-time.Hour),
		Matched:     map[string]struct{}{"육군": {}},
	}
	if kept := p.Filter(fc, map[string]*Aggregated{"http://a": a}); len(kept) != 1 {
		t.Error("threshold 0 must keep every article")
	}
}

func TestFilter_VideoHeuristic(t *testing.T) {
	p := NewPipeline(nil)
	fc := testContext()
	fc.VideoOnly = true
	fc.VideoRequiresMajor = false

	textHit := &Aggregated{
		URL: "http://text", Title: "훈련 영상 공개", Press: "연합뉴스",
		PublishedAt: testNow.Add(-time.Hour),
		Matched:     map[string]struct{}{"육군": {}},
	}
	urlHit := &Aggregated{
		URL: "http://site/video/123", Title: "훈련 소식", Press: "연합뉴스",
		PublishedAt: testNow.Add(-time.Hour),
		Matched:     map[string]struct{}{"육군": {}},
	}
	neither := &Aggregated{
		URL: "http://plain", Title: "훈련 소식", Press: "연합뉴스",
		PublishedAt: testNow.Add(-time.Hour),
		Matched:     map[string]struct{}{"육군": {}},
	}

	kept := p.Filter(fc, map[string]*Aggregated{
		"http://text": textHit, "http://site/video/123": urlHit, "http://plain": neither,
	})
	if len(kept) != 2 {
		t.Fatalf("kept %v, want text and url hits only", urls(kept))
	}
}

func TestFilter_VideoRequiresMajorCoupling(t *testing.T) {
	p := NewPipeline(nil)
	fc := testContext()
	fc.VideoOnly = true
	fc.VideoRequiresMajor = true

	minorVideo := &Aggregated{
		URL: "http://v", Title: "훈련 영상", Press: "어떤매체",
		PublishedAt: testNow.Add(-time.Hour),
		Matched:     map[string]struct{}{"육군": {}},
	}
	if kept := p.Filter(fc, map[string]*Aggregated{"http://v": minorVideo}); len(kept) != 0 {
		t.Error("minor-press video must be dropped when the coupling is on")
	}

	fc.VideoRequiresMajor = false
	if kept := p.Filter(fc, map[string]*Aggregated{"http://v": minorVideo}); len(kept) != 1 {
		t.Error("minor-press video must survive when the coupling is off")
	}
}

func TestRank_OrdersByOccurrencesThenTime(t *testing.T) {
	p := NewPipeline(nil)
	fc := testContext()

	low := &Aggregated{
		URL: "http://low", Title: "육군 소식", Description: "",
		PublishedAt: testNow.Add(-time.Hour),
		Matched:     map[string]struct{}{"육군": {}},
	}
	high := &Aggregated{
		URL: "http://high", Title: "육군 육군 국방", Description: "국방",
		PublishedAt: testNow.Add(-3 * time.Hour),
		Matched:     map[string]struct{}{"육군": {}, "국방": {}},
	}

	ranked := p.Rank(fc, []*Aggregated{low, high})
	if ranked[0].URL != "http://high" {
		t.Errorf("first = %s, want higher occurrence count first", ranked[0].URL)
	}
}

func TestRank_TieBrokenByNewestThenURL(t *testing.T) {
	p := NewPipeline(nil)
	fc := testContext()

	older := &Aggregated{
		URL: "http://older", Title: "육군",
		PublishedAt: testNow.Add(-2 * time.Hour),
		Matched:     map[string]struct{}{"육군": {}},
	}
	newer := &Aggregated{
		URL: "http://newer", Title: "육군",
		PublishedAt: testNow.Add(-time.Hour),
		Matched:     map[string]struct{}{"육군": {}},
	}

	for i := 0; i < 5; i++ {
		ranked := p.Rank(fc, []*Aggregated{older, newer})
		if ranked[0].URL != "http://newer" {
			t.Fatalf("run %d: first = %s, want newest first on equal counts", i, ranked[0].URL)
		}
	}

	sameTime := &Aggregated{
		URL: "http://aaa", Title: "육군",
		PublishedAt: newer.PublishedAt,
		Matched:     map[string]struct{}{"육군": {}},
	}
	ranked := p.Rank(fc, []*Aggregated{newer, sameTime})
	if ranked[0].URL != "http://aaa" {
		t.Errorf("equal count and time must fall back to URL order, got %s", ranked[0].URL)
	}
}

func TestRank_CountsAreCaseInsensitiveSubstrings(t *testing.T) {
	p := NewPipeline(nil)
	fc := FilterContext{Keywords: []string{"ROKA", "국방"}, Now: testNow, RecencyWindow: 4 * time.Hour}

	a := &Aggregated{
		URL: "http://a", Title: "Roka 훈련과 roka 개편", Description: "국방 소식",
		PublishedAt: testNow.Add(-time.Hour),
		Matched:     map[string]struct{}{"ROKA": {}},
	}

	ranked := p.Rank(fc, []*Aggregated{a})
	if ranked[0].TotalOccurrences != 3 {
		t.Errorf("total = %d, want 3 (2x ROKA + 1x 국방)", ranked[0].TotalOccurrences)
	}
	if ranked[0].KeywordCounts[0].Keyword != "ROKA" || ranked[0].KeywordCounts[0].Count != 2 {
		t.Errorf("counts = %v, want ROKA first with 2", ranked[0].KeywordCounts)
	}
}

func TestRank_SummaryFormat(t *testing.T) {
	counts := []KeywordCount{{Keyword: "육군", Count: 2}, {Keyword: "국방", Count: 1}}
	if got := summarize(counts); got != "육군(2), 국방" {
		t.Errorf("summarize() = %q, want 육군(2), 국방", got)
	}
	if got := summarize(nil); got != "" {
		t.Errorf("summarize(nil) = %q, want empty", got)
	}
}

func TestRank_SummaryOrderedByCountThenKeyword(t *testing.T) {
	_, total := countKeywords("국방 국방 안보 육군", []string{"육군", "안보", "국방"})
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	counts, _ := countKeywords("국방 국방 안보 육군", []string{"육군", "안보", "국방"})
	if counts[0].Keyword != "국방" {
		t.Errorf("first = %q, want 국방 (highest count)", counts[0].Keyword)
	}
	if counts[1].Keyword != "안보" || counts[2].Keyword != "육군" {
		t.Errorf("ties must order alphabetically: %v", counts)
	}
}

// The end-to-end scenario from the product requirements: two articles under
// two keywords, with and without the major-press mode.
func TestRun_EndToEnd(t *testing.T) {
	p := NewPipeline(press.Default())
	fc := testContext()

	results := []source.KeywordResult{
		{Keyword: "육군", Articles: []source.Article{{
			Title: "육군 훈련 시작", Description: "국방부 발표",
			URL: "http://a", Press: "연합뉴스", OriginalURL: "https://www.yna.co.kr/view/1",
			PublishedAt: testNow.Add(-time.Hour),
		}}},
		{Keyword: "국방", Articles: []source.Article{{
			Title: "국방 예산안 통과", Description: "",
			URL: "http://b", Press: "기타매체",
			PublishedAt: testNow.Add(-time.Hour),
		}}},
	}

	ranked := p.Run(fc, results)
	if len(ranked) != 2 {
		t.Fatalf("got %d articles, want 2", len(ranked))
	}
	for _, r := range ranked {
		if len(r.Matched) == 0 {
			t.Errorf("%s has empty match set", r.URL)
		}
	}

	fc.PressMode = ModeMajorOnly
	ranked = p.Run(fc, results)
	if len(ranked) != 1 || ranked[0].URL != "http://a" {
		t.Fatalf("major-only must drop http://b, got %v", rankedURLs(ranked))
	}
}

func TestRun_ZeroResultsIsValid(t *testing.T) {
	p := NewPipeline(nil)
	ranked := p.Run(testContext(), nil)
	if ranked == nil || len(ranked) != 0 {
		t.Errorf("empty input must yield an empty (non-nil) list, got %v", ranked)
	}
}

func urls(articles []*Aggregated) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.URL)
	}
	return out
}

func rankedURLs(articles []Ranked) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.URL)
	}
	return out
}
