// internal/scraper/client_test.go
package scraper

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(overrides ...func(*ClientConfig)) *Client {
	cfg := ClientConfig{
		Timeout:       5 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		RateLimit:     1000,
		RateBurst:     1000,
		Referer:       "https://javtrailers.com/",
	}
	for _, o := range overrides {
		o(&cfg)
	}
	return NewClient(cfg)
}

func TestClientGetRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	c := testClient()
	defer c.Close()

	resp, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer resp.Body.Close()

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestClientGetNoRetryOn404(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient()
	defer c.Close()

	if _, err := c.Get(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 404")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server called %d times, want 1 (404 is not retryable)", got)
	}
}

func TestClientRejectsBadScheme(t *testing.T) {
	c := testClient()
	defer c.Close()

	if _, err := c.Get(context.Background(), "ftp://example.com/file"); err == nil {
		t.Error("expected scheme rejection")
	}
	if _, err := c.Get(context.Background(), "blob:https://example.com/x"); err == nil {
		t.Error("expected blob rejection")
	}
}

func TestClientHeaders(t *testing.T) {
	var gotUA, gotReferer, gotRange string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		gotRange = r.Header.Get("Range")
	}))
	defer server.Close()

	c := testClient()
	defer c.Close()

	resp, err := c.GetStream(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetStream failed: %v", err)
	}
	resp.Body.Close()

	if gotUA == "" {
		t.Error("User-Agent not set")
	}
	if gotReferer != "https://javtrailers.com/" {
		t.Errorf("Referer = %q", gotReferer)
	}
	if gotRange != "bytes=0-" {
		t.Errorf("Range = %q", gotRange)
	}
}

func TestClientUserAgentRotation(t *testing.T) {
	c := testClient(func(cfg *ClientConfig) {
		cfg.UserAgents = []string{"ua-one", "ua-two"}
	})
	defer c.Close()

	if ua := c.nextUserAgent(); ua != "ua-one" {
		t.Errorf("first UA = %q", ua)
	}
	if ua := c.nextUserAgent(); ua != "ua-two" {
		t.Errorf("second UA = %q", ua)
	}
	if ua := c.nextUserAgent(); ua != "ua-one" {
		t.Errorf("rotation did not wrap: %q", ua)
	}
}

func TestClientProbe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/exists.mp4":
			w.Header().Set("Content-Type", "video/mp4")
			w.WriteHeader(http.StatusPartialContent)
			io.WriteString(w, "x")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := testClient()
	defer c.Close()

	res := c.Probe(context.Background(), server.URL+"/exists.mp4")
	if !res.Exists {
		t.Fatal("probe missed existing asset")
	}
	if res.ContentType != "video/mp4" {
		t.Errorf("ContentType = %q", res.ContentType)
	}

	if res := c.Probe(context.Background(), server.URL+"/missing.mp4"); res.Exists {
		t.Error("probe invented a missing asset")
	}
}

func TestClientDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><body><h1>Hello</h1></body></html>`)
	}))
	defer server.Close()

	c := testClient()
	defer c.Close()

	doc, err := c.Document(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if got := doc.Find("h1").Text(); got != "Hello" {
		t.Errorf("h1 = %q", got)
	}
}
