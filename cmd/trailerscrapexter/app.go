// cmd/trailerscrapexter/app.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/valpere/TrailerScrapexter/internal/browser"
	"github.com/valpere/TrailerScrapexter/internal/config"
	"github.com/valpere/TrailerScrapexter/internal/crawl"
	"github.com/valpere/TrailerScrapexter/internal/download"
	"github.com/valpere/TrailerScrapexter/internal/media"
	"github.com/valpere/TrailerScrapexter/internal/monitoring"
	"github.com/valpere/TrailerScrapexter/internal/scraper"
	"github.com/valpere/TrailerScrapexter/internal/store"
	"github.com/valpere/TrailerScrapexter/internal/utils"
)

// App owns the shared sessions and wiring for one process run.
type App struct {
	Logger         utils.Logger
	Client         *scraper.Client
	Resolver       *scraper.Resolver
	Browser        *browser.Session
	Runner         *crawl.Runner
	Layout         *store.Layout
	Index          *store.Index
	Metrics        *monitoring.MetricsManager
	MetricsHandler http.Handler
}

// buildApp wires the application from configuration. Everything shares
// one HTTP client and, when enabled, one browser session.
func buildApp(cfg *config.Config) (*App, error) {
	log := utils.NewLoggerWithLevel(utils.ParseLogLevel(cfg.Logging.Level))

	client := scraper.NewClient(scraper.ClientConfig{
		Timeout:       cfg.HTTP.Timeout,
		RetryAttempts: cfg.HTTP.RetryAttempts,
		RetryDelay:    cfg.HTTP.RetryDelay,
		RateLimit:     cfg.HTTP.RateLimit,
		RateBurst:     cfg.HTTP.RateBurst,
		UserAgents:    cfg.HTTP.UserAgents,
		Referer:       cfg.HTTP.Referer,
	})

	resolver := scraper.NewResolver(client, cfg.Site.BaseURL, log)

	metrics, metricsHandler := monitoring.NewMetricsManager("")
	resolver.OnDOMFallback = metrics.DOMFallback

	var session *browser.Session
	if cfg.Browser.Enabled {
		var err error
		session, err = browser.NewSession(&browser.Config{
			Headless:    cfg.Browser.Headless,
			PageTimeout: cfg.Browser.PageTimeout,
			PlayWait:    cfg.Browser.PlayWait,
		}, log)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to start browser session: %w", err)
		}
	}

	var rendered media.RenderedExtractor
	if session != nil {
		rendered = session
	}
	locator := media.NewLocator(client, rendered, cfg.Site.CDNDomains, log)

	userAgent := ""
	if len(cfg.HTTP.UserAgents) > 0 {
		userAgent = cfg.HTTP.UserAgents[0]
	}
	ffmpeg := download.NewFFmpeg(cfg.Download.FFmpegPath, cfg.Download.ToolTimeout, userAgent, cfg.HTTP.Referer, log)
	ytdlp := download.NewYtDlp(cfg.Download.YtDlpPath, cfg.Download.ToolTimeout, userAgent, cfg.HTTP.Referer, log)
	policy := download.DefaultPolicy(cfg.Download.MaxRetries, cfg.Download.RetryDelay)
	policy.OnRetry = metrics.DownloadRetry
	driver := download.NewDriver(ffmpeg, ytdlp, policy, log)
	fetcher := download.NewFetcher(client, log)

	layout := store.NewLayout(cfg.Storage.OutputDir)
	index, err := store.OpenIndex(cfg.Storage.IndexPath)
	if err != nil {
		if session != nil {
			session.Close()
		}
		client.Close()
		return nil, err
	}

	runner := crawl.NewRunner(crawl.Options{
		Resolver: resolver,
		Locator:  locator,
		Driver:   driver,
		Fetcher:  fetcher,
		Layout:   layout,
		Index:    index,
		Metrics:  metrics,
		MinPause: time.Duration(cfg.Download.MinPauseSecs * float64(time.Second)),
		MaxPause: time.Duration(cfg.Download.MaxPauseSecs * float64(time.Second)),
		Logger:   log,
	})

	return &App{
		Logger:         log,
		Client:         client,
		Resolver:       resolver,
		Browser:        session,
		Runner:         runner,
		Layout:         layout,
		Index:          index,
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
	}, nil
}

// Close releases the shared sessions. Safe on every exit path.
func (a *App) Close() {
	if a.Browser != nil {
		a.Browser.Close()
	}
	if a.Index != nil {
		a.Index.Close()
	}
	if a.Client != nil {
		a.Client.Close()
	}
}
