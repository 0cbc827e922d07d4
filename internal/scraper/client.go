// internal/scraper/client.go
package scraper

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// Client is the shared HTTP client for catalog scraping. One instance
// is reused across an entire crawl run. It rotates user agents, rate
// limits requests as a politeness measure, and retries transport
// failures with exponential backoff.
type Client struct {
	httpClient    *http.Client
	userAgents    []string
	currentUA     int
	uaMutex       sync.Mutex
	rateLimiter   *rate.Limiter
	retryAttempts int
	retryDelay    time.Duration
	referer       string
}

// ClientConfig defines configuration options for the scraping client.
type ClientConfig struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	UserAgents    []string
	Referer       string
	RateLimit     float64 // requests per second
	RateBurst     int
}

// NewClient creates a scraping client with the specified configuration.
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 1.0
	}
	if config.RateBurst == 0 {
		config.RateBurst = 3
	}
	if len(config.UserAgents) == 0 {
		config.UserAgents = defaultUserAgents()
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		httpClient:    httpClient,
		userAgents:    config.UserAgents,
		rateLimiter:   rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
		retryAttempts: config.RetryAttempts,
		retryDelay:    config.RetryDelay,
		referer:       config.Referer,
	}
}

// Get performs a GET request with retry and backoff. The caller owns
// the response body.
func (c *Client) Get(ctx context.Context, targetURL string) (*http.Response, error) {
	return c.get(ctx, targetURL, nil)
}

// GetStream performs a GET request with headers suited to media
// downloads: a Range header so the server treats the request as a
// partial content fetch, and identity encoding so sizes are honest.
func (c *Client) GetStream(ctx context.Context, targetURL string) (*http.Response, error) {
	return c.get(ctx, targetURL, map[string]string{
		"Range":           "bytes=0-",
		"Accept":          "*/*",
		"Accept-Encoding": "identity;q=1, *;q=0",
	})
}

func (c *Client) get(ctx context.Context, targetURL string, extra map[string]string) (*http.Response, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	var lastErr error

	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		c.setRequestHeaders(req, extra)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w",
				attempt+1, c.retryAttempts+1, err)
			if attempt < c.retryAttempts && ctx.Err() == nil {
				c.waitForRetry(ctx, attempt)
				continue
			}
			break
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		resp.Body.Close()
		lastErr = fmt.Errorf("HTTP %d: %s (attempt %d/%d)",
			resp.StatusCode, resp.Status, attempt+1, c.retryAttempts+1)

		if !shouldRetryStatusCode(resp.StatusCode) {
			break
		}
		if attempt < c.retryAttempts {
			c.waitForRetry(ctx, attempt)
		}
	}

	return nil, lastErr
}

// Document fetches a page and parses it into a goquery document.
func (c *Client) Document(ctx context.Context, targetURL string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", targetURL, err)
	}
	return doc, nil
}

// ProbeResult is what a lightweight existence probe learned about a
// candidate URL.
type ProbeResult struct {
	Exists      bool
	ContentType string
	Length      int64
}

// Probe checks whether a candidate asset URL exists without pulling
// the body. It issues a 1-byte ranged GET; some CDNs reject HEAD, so a
// tiny range request is the reliable existence check.
func (c *Client) Probe(ctx context.Context, targetURL string) ProbeResult {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, targetURL, nil)
	if err != nil {
		return ProbeResult{}
	}
	c.setRequestHeaders(req, map[string]string{"Range": "bytes=0-0"})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ProbeResult{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return ProbeResult{}
	}

	return ProbeResult{
		Exists:      true,
		ContentType: strings.ToLower(resp.Header.Get("Content-Type")),
		Length:      resp.ContentLength,
	}
}

// setRequestHeaders configures request headers including user agent
// rotation and the catalog referer.
func (c *Client) setRequestHeaders(req *http.Request, extra map[string]string) {
	req.Header.Set("User-Agent", c.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
	if c.referer != "" {
		req.Header.Set("Referer", c.referer)
	}
	for key, value := range extra {
		req.Header.Set(key, value)
	}
}

// nextUserAgent returns the next user agent in rotation.
func (c *Client) nextUserAgent() string {
	c.uaMutex.Lock()
	defer c.uaMutex.Unlock()

	if len(c.userAgents) == 0 {
		return "TrailerScrapexter/1.0"
	}
	ua := c.userAgents[c.currentUA]
	c.currentUA = (c.currentUA + 1) % len(c.userAgents)
	return ua
}

// waitForRetry implements exponential backoff with jitter, bounded by
// the context.
func (c *Client) waitForRetry(ctx context.Context, attempt int) {
	backoff := c.retryDelay * time.Duration(1<<uint(attempt))
	jitter := time.Duration(rand.Int63n(int64(backoff/2) + 1))
	total := backoff + jitter
	if total > 30*time.Second {
		total = 30 * time.Second
	}

	timer := time.NewTimer(total)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// shouldRetryStatusCode determines if a status code warrants a retry.
func shouldRetryStatusCode(statusCode int) bool {
	retryable := map[int]bool{
		429: true, // Too Many Requests
		500: true,
		502: true,
		503: true,
		504: true,
		520: true, // CloudFlare errors
		521: true,
		522: true,
		523: true,
		524: true,
	}
	return retryable[statusCode]
}

// defaultUserAgents returns a set of realistic user agent strings.
func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/119.0",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	}
}
