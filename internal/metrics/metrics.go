package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	KeywordsFetched   int64
	FetchErrors       int64
	RateLimitHits     int64
	ArticlesSeen      int64
	DuplicatesMerged  int64
	DroppedByFilter   map[string]int64
	ShortensAttempted int64
	ShortensFailed    int64

	// Timings
	LastPipelineTime    time.Duration
	AveragePipelineTime time.Duration
	TotalPipelineTime   time.Duration
	PipelineCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true, DroppedByFilter: make(map[string]int64)}

func (m *Metrics) IncrementKeywordsFetched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KeywordsFetched++
}

func (m *Metrics) IncrementFetchErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchErrors++
}

func (m *Metrics) IncrementRateLimitHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RateLimitHits++
}

func (m *Metrics) IncrementArticlesSeen() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ArticlesSeen++
}

func (m *Metrics) IncrementDuplicatesMerged() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesMerged++
}

// IncrementDropped records a drop attributed to the named filter.
func (m *Metrics) IncrementDropped(filter string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DroppedByFilter[filter]++
}

func (m *Metrics) IncrementShortensAttempted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShortensAttempted++
}

func (m *Metrics) IncrementShortensFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShortensFailed++
}

func (m *Metrics) RecordPipelineTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastPipelineTime = duration
	m.TotalPipelineTime += duration
	m.PipelineCount++

	if m.PipelineCount > 0 {
		m.AveragePipelineTime = m.TotalPipelineTime / time.Duration(m.PipelineCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dropped := make(map[string]int64, len(m.DroppedByFilter))
	for k, v := range m.DroppedByFilter {
		dropped[k] = v
	}

	return map[string]interface{}{
		"keywords_fetched":          m.KeywordsFetched,
		"fetch_errors":              m.FetchErrors,
		"rate_limit_hits":           m.RateLimitHits,
		"articles_seen":             m.ArticlesSeen,
		"duplicates_merged":         m.DuplicatesMerged,
		"dropped_by_filter":         dropped,
		"shortens_attempted":        m.ShortensAttempted,
		"shortens_failed":           m.ShortensFailed,
		"last_pipeline_time_ms":     m.LastPipelineTime.Milliseconds(),
		"average_pipeline_time_ms":  m.AveragePipelineTime.Milliseconds(),
		"last_run_time":             m.LastRunTime.Format(time.RFC3339),
		"last_error_time":           m.LastErrorTime.Format(time.RFC3339),
		"last_error":                m.LastError,
		"is_healthy":                m.IsHealthy,
	}
}
