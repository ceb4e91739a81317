/**
 * @description
 * Browser renderer backed by chromedp (Chrome DevTools Protocol).
 * Launches an isolated headless Chrome session per attempt, with automation
 * fingerprints suppressed and static assets blocked at the network layer.
 *
 * @dependencies
 * - github.com/chromedp/chromedp: browser automation
 * - github.com/chromedp/cdproto/network: request blocking
 *
 * @notes
 * - A fresh allocator (fresh browser process and profile) per Render call
 *   prevents fingerprint and cookie state leaking between attempts.
 * - Blocking images/fonts/stylesheets only skips resource downloads; the
 *   src attributes and text nodes we read stay in the DOM.
 */

package scraper

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/pricewatch-project/backend/internal/config"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

// blockedResourcePatterns lists asset classes with no data value for extraction
var blockedResourcePatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.svg", "*.webp", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.otf",
	"*.css",
	"*.mp4", "*.webm", "*.avi",
}

// BrowserRenderer renders pages through a controlled headless Chrome session
type BrowserRenderer struct {
	cfg config.ScraperConfig
}

// NewBrowserRenderer creates a BrowserRenderer
func NewBrowserRenderer(cfg config.ScraperConfig) *BrowserRenderer {
	return &BrowserRenderer{cfg: cfg}
}

// Render loads url in a fresh browser session and returns the page HTML once
// the title element is present. The session is torn down on every exit path.
func (r *BrowserRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(browserUserAgent),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.NoSandbox,
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// Navigate: hard cap on page load
	navCtx, cancelNav := context.WithTimeout(browserCtx, r.cfg.NavigationTimeout)
	defer cancelNav()

	var pageTitle string
	err := chromedp.Run(navCtx,
		network.Enable(),
		network.SetBlockedURLS(blockedResourcePatterns),
		chromedp.Navigate(url),
		chromedp.Title(&pageTitle),
	)
	if err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}

	// DetectBlock: challenge pages announce themselves in the title
	if marker := matchBlockMarker(pageTitle); marker != "" {
		return "", &blockError{marker: marker}
	}

	// LocateTitle: bounded wait for the one element extraction requires
	waitCtx, cancelWait := context.WithTimeout(browserCtx, r.cfg.ElementTimeout)
	defer cancelWait()

	if err := chromedp.Run(waitCtx, chromedp.WaitReady(titleSelector, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTitleMissing, err)
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading page html: %w", err)
	}

	return html, nil
}
