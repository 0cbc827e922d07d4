// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/valpere/TrailerScrapexter/internal/utils"
)

// Config controls the shared browser session.
type Config struct {
	Headless    bool
	UserAgent   string
	PageTimeout time.Duration
	PlayWait    time.Duration
}

// DefaultConfig returns a sensible headless configuration.
func DefaultConfig() *Config {
	return &Config{
		Headless:    true,
		PageTimeout: 45 * time.Second,
		PlayWait:    5 * time.Second,
	}
}

// Session owns one Chrome instance reused across an entire crawl run.
// It must be closed on every exit path, including interruption.
type Session struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	config      *Config
	log         utils.Logger
}

// NewSession starts a Chrome instance. The caller is responsible for
// calling Close.
func NewSession(config *Config, log utils.Logger) (*Session, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = utils.NopLogger{}
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // required for container environments
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
	}
	if config.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(config.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser now so a broken Chrome install fails fast
	// instead of at the first extraction attempt.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		cancel:      cancel,
		config:      config,
		log:         log,
	}, nil
}

// newTab creates a tab context bounded by the page timeout. The parent
// ctx carries crawl-level cancellation.
func (s *Session) newTab(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, s.config.PageTimeout)

	// Propagate crawl cancellation into the tab.
	stop := context.AfterFunc(ctx, timeoutCancel)

	return timeoutCtx, func() {
		stop()
		timeoutCancel()
		tabCancel()
	}
}

// HTML navigates to a URL and returns the rendered page markup.
func (s *Session) HTML(ctx context.Context, pageURL string) (string, error) {
	tabCtx, cancel := s.newTab(ctx)
	defer cancel()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", utils.WrapError(err, utils.ErrCodeBrowserFailed, "rendered fetch failed")
	}
	return html, nil
}

// Close shuts the browser down. Safe to call more than once.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	return nil
}
