// Package app wires the search pipeline and the shortener behind the HTTP
// boundary.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"milnews/internal/config"
	"milnews/internal/keyword"
	"milnews/internal/logger"
	"milnews/internal/metrics"
	"milnews/internal/news"
	"milnews/internal/press"
	"milnews/internal/shortener"
	"milnews/internal/source"
)

type Server struct {
	cfg       *config.Config
	source    source.Source
	pipeline  *news.Pipeline
	expander  *keyword.Expander
	shortener *shortener.Shortener
}

func New(cfg *config.Config, src source.Source, pipeline *news.Pipeline, short *shortener.Shortener) *Server {
	return &Server{
		cfg:       cfg,
		source:    src,
		pipeline:  pipeline,
		expander:  keyword.NewExpander(),
		shortener: short,
	}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/news", s.handleNews)
	mux.HandleFunc("/shorten", s.handleShorten)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "milnews"})
}

type articleResponse struct {
	Title         string          `json:"title"`
	Press         string          `json:"press"`
	PubDate       string          `json:"pubdate"`
	Matched       []string        `json:"matched"`
	Counts        []countResponse `json:"counts,omitempty"`
	Summary       string          `json:"summary,omitempty"`
	URL           string          `json:"url"`
	ShortEligible bool            `json:"short_eligible"`
}

type countResponse struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

type newsResponse struct {
	Count    int               `json:"count"`
	Message  string            `json:"message"`
	Keywords []string          `json:"keywords"`
	Articles []articleResponse `json:"articles"`
}

// handleNews runs the whole pipeline for one request. Zero results is a
// normal outcome, never an error.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	keywords := s.expander.Expand(q.Get("keywords"))
	display := parseDisplay(q.Get("display"), s.cfg.Display)

	fc := news.FilterContext{
		Keywords:           keywords,
		Now:                time.Now(),
		RecencyWindow:      s.cfg.RecencyWindow,
		PressMode:          parsePressMode(q.Get("mode")),
		MinKeywordMatches:  s.cfg.MinKeywordMatches,
		VideoOnly:          parseVideoFlag(q.Get("video"), q.Get("mode")),
		VideoRequiresMajor: s.cfg.VideoRequiresMajor,
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	results := source.Fetch(ctx, s.source, keywords, display, s.cfg.FetchConcurrency)
	ranked := s.pipeline.Run(fc, results)

	resp := newsResponse{
		Count:    len(ranked),
		Message:  fmt.Sprintf("%d articles within %s", len(ranked), s.cfg.RecencyWindow),
		Keywords: keywords,
		Articles: make([]articleResponse, 0, len(ranked)),
	}
	for _, a := range ranked {
		counts := make([]countResponse, 0, len(a.KeywordCounts))
		for _, c := range a.KeywordCounts {
			counts = append(counts, countResponse{Keyword: c.Keyword, Count: c.Count})
		}
		resp.Articles = append(resp.Articles, articleResponse{
			Title:         a.Title,
			Press:         a.Press,
			PubDate:       a.DisplayDate,
			Matched:       a.MatchedKeywords(),
			Counts:        counts,
			Summary:       a.MatchSummary,
			URL:           press.MobileLink(a.URL),
			ShortEligible: shortener.Eligible(a.URL),
		})
	}

	logger.Info("news request served", "keywords", len(keywords), "articles", len(ranked))
	writeJSON(w, http.StatusOK, resp)
}

type shortenRequest struct {
	Items []shortener.Item `json:"items"`
}

type shortenResponse struct {
	Results []shortener.Result `json:"results"`
}

// handleShorten shortens the client's selected article URLs. The result set
// from /news is never held server-side; the client passes back what it
// picked.
func (s *Server) handleShorten(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req shortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusOK, shortenResponse{Results: []shortener.Result{}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	results := s.shortener.ShortenAll(ctx, req.Items, s.cfg.ShortenConcurrency)
	writeJSON(w, http.StatusOK, shortenResponse{Results: results})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	code := http.StatusOK
	if !stats["is_healthy"].(bool) {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Global.GetStats())
}

// parsePressMode accepts the short form and the legacy Korean mode value.
func parsePressMode(mode string) news.PressMode {
	switch mode {
	case "major", "주요언론사만":
		return news.ModeMajorOnly
	default:
		return news.ModeAll
	}
}

func parseVideoFlag(video, mode string) bool {
	return video == "1" || video == "true" || mode == "동영상만"
}

// parseDisplay clamps the per-keyword result count to the API's 1..100 range.
func parseDisplay(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	if n > 100 {
		return 100
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", "error", err)
	}
}
