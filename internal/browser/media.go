// internal/browser/media.go
package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/valpere/TrailerScrapexter/internal/utils"
)

// domScanJS inspects the rendered page for media URLs: video and source
// elements, data attributes used by lazy players, and the globals common
// player libraries hang their state on.
const domScanJS = `(() => {
	const urls = [];
	const push = (u) => {
		if (typeof u === 'string' && u && !u.startsWith('blob:') && !u.startsWith('data:')) {
			urls.push(u);
		}
	};

	for (const el of document.querySelectorAll('video, video source, source')) {
		push(el.src);
		push(el.currentSrc);
		push(el.getAttribute('src'));
		push(el.getAttribute('data-src'));
	}
	for (const el of document.querySelectorAll('[data-video-url], [data-mp4], [data-hls], [data-stream]')) {
		push(el.getAttribute('data-video-url'));
		push(el.getAttribute('data-mp4'));
		push(el.getAttribute('data-hls'));
		push(el.getAttribute('data-stream'));
	}

	try {
		if (window.jwplayer) {
			const pl = window.jwplayer().getPlaylist ? window.jwplayer().getPlaylist() : null;
			if (pl) for (const item of pl) {
				push(item.file);
				if (item.sources) for (const s of item.sources) push(s.file);
			}
		}
	} catch (e) {}
	try {
		if (window.videojs && window.videojs.getAllPlayers) {
			for (const p of window.videojs.getAllPlayers()) push(p.currentSrc());
		}
	} catch (e) {}
	try {
		if (window.hls && window.hls.url) push(window.hls.url);
	} catch (e) {}

	return urls;
})()`

// playClickJS fires a click on the first visible play control so players
// that defer loading until interaction start their network traffic.
const playClickJS = `(() => {
	const selectors = [
		'video',
		'.vjs-big-play-button',
		'.jw-display-icon-display',
		'.plyr__control--overlaid',
		'[class*="play-button"]',
		'[class*="play-btn"]',
		'[aria-label="Play"]',
		'button[title="Play"]',
	];
	for (const sel of selectors) {
		const el = document.querySelector(sel);
		if (el) {
			el.click();
			if (el.tagName === 'VIDEO' && el.play) {
				el.play().catch(() => {});
			}
			return true;
		}
	}
	return false;
})()`

// largestIframeJS returns the src of the largest same-page iframe, the
// usual home of an embedded third-party player.
const largestIframeJS = `(() => {
	let best = '';
	let bestArea = 0;
	for (const f of document.querySelectorAll('iframe[src]')) {
		const r = f.getBoundingClientRect();
		const area = r.width * r.height;
		if (area > bestArea && f.src && !f.src.startsWith('about:')) {
			bestArea = area;
			best = f.src;
		}
	}
	return best;
})()`

// ExtractMediaURLs loads a page in a fresh tab, watches its network
// traffic, scans the rendered DOM, simulates a play click, and falls
// back to navigating into the largest embedded iframe. It returns
// candidate media URLs ranked manifests first, or an empty slice when
// the page yields nothing.
func (s *Session) ExtractMediaURLs(ctx context.Context, pageURL string) ([]string, error) {
	tabCtx, cancel := s.newTab(ctx)
	defer cancel()

	col := newCollector()
	chromedp.ListenTarget(tabCtx, col.Listen)

	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return nil, utils.WrapError(err, utils.ErrCodeBrowserFailed, "rendered navigation failed").
			WithContext("url", pageURL)
	}

	s.scanAndPlay(tabCtx, col)

	// A page with no direct player often wraps one in an iframe.
	if col.Empty() {
		if frameURL := s.largestIframe(tabCtx); frameURL != "" {
			s.log.WithField("iframe", frameURL).Debug("descending into embedded player frame")
			if err := chromedp.Run(tabCtx, chromedp.Navigate(frameURL), chromedp.WaitReady("body")); err == nil {
				s.scanAndPlay(tabCtx, col)
			}
		}
	}

	return col.URLs(), nil
}

// scanAndPlay runs the DOM scan, then clicks play and waits for the
// player to open its stream before scanning again.
func (s *Session) scanAndPlay(ctx context.Context, col *collector) {
	s.scanDOM(ctx, col)

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(playClickJS, &clicked)); err != nil || !clicked {
		return
	}

	wait := s.config.PlayWait
	if wait <= 0 {
		wait = 3 * time.Second
	}
	select {
	case <-ctx.Done():
		return
	case <-time.After(wait):
	}

	s.scanDOM(ctx, col)
}

func (s *Session) scanDOM(ctx context.Context, col *collector) {
	var urls []string
	if err := chromedp.Run(ctx, chromedp.Evaluate(domScanJS, &urls)); err != nil {
		s.log.WithField("error", err.Error()).Debug("DOM media scan failed")
		return
	}
	for _, u := range urls {
		col.Add(u)
	}
}

func (s *Session) largestIframe(ctx context.Context) string {
	var frameURL string
	if err := chromedp.Run(ctx, chromedp.Evaluate(largestIframeJS, &frameURL)); err != nil {
		return ""
	}
	return frameURL
}
