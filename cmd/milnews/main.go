package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/playwright-community/playwright-go"

	"milnews/internal/app"
	"milnews/internal/config"
	"milnews/internal/logger"
	"milnews/internal/news"
	"milnews/internal/press"
	"milnews/internal/ratelimit"
	"milnews/internal/shortener"
	"milnews/internal/source"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// No .env is fine in production; the environment is already set.
		logger.Debug(".env not loaded", "error", err)
	}
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	table, err := press.Load(cfg.PressConfigPath)
	if err != nil {
		logger.Error("load press table", "path", cfg.PressConfigPath, "error", err)
		os.Exit(1)
	}

	src := buildSource(cfg)
	short := buildShortener(cfg)

	server := app.New(cfg, src, news.NewPipeline(table), short)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
	}

	logger.Info("listening", "port", cfg.Port, "source", cfg.SourceKind)
	if err := httpServer.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func buildSource(cfg *config.Config) source.Source {
	switch cfg.SourceKind {
	case config.SourceMobile:
		return source.NewMobileSource(cfg.FetchTimeout)
	case config.SourceRSS:
		return source.NewRSSSource("", cfg.FetchTimeout)
	default:
		return source.NewNaverClient(source.NaverOptions{
			ClientID:      cfg.NaverClientID,
			ClientSecret:  cfg.NaverClientSecret,
			Timeout:       cfg.FetchTimeout,
			RetryAttempts: cfg.RetryAttempts,
			RetryDelay:    cfg.RetryDelay,
			Limiter:       ratelimit.NewQuotaLimiter(cfg.NaverDailyQuota),
		})
	}
}

// buildShortener starts the browser driver when enabled. A failed start
// degrades to a shortener whose attempts report failure reasons instead of
// taking the service down.
func buildShortener(cfg *config.Config) *shortener.Shortener {
	cache := shortener.NewSelectorCache(cfg.SelectorCachePath)
	if err := cache.Load(); err != nil {
		logger.Warn("selector cache unavailable", "error", err)
	}

	if !cfg.ShortenerEnabled {
		return shortener.New(nil, cache, cfg.StepTimeout)
	}

	if err := playwright.Install(); err != nil {
		logger.Warn("playwright install failed, shortener disabled", "error", err)
		return shortener.New(nil, cache, cfg.StepTimeout)
	}

	driver, err := shortener.NewDriver(cfg.NavTimeout)
	if err != nil {
		logger.Warn("browser start failed, shortener disabled", "error", err)
		return shortener.New(nil, cache, cfg.StepTimeout)
	}

	return shortener.New(driver, cache, cfg.StepTimeout)
}
