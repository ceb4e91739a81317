/**
 * @description
 * Product extractor for Amazon product pages.
 * Renders a page through a Renderer backend, parses the result, and retries
 * transient failures with a bounded, configurable policy.
 *
 * @dependencies
 * - backend/internal/config: retry policy and renderer selection
 * - github.com/shopspring/decimal
 *
 * @notes
 * - Ordinary failure modes (timeouts, bot checks, missing title) never
 *   surface as errors; after the attempt budget is exhausted the caller
 *   gets a Snapshot with Success=false and must check the flag.
 * - Only configuration problems (malformed URL, missing API key) return
 *   an error.
 */

package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/pricewatch-project/backend/internal/config"
	"github.com/pricewatch-project/backend/internal/logger"
	"github.com/shopspring/decimal"
)

// ErrTitleMissing marks a rendered page without the required title element.
var ErrTitleMissing = errors.New("product title not found")

// blockError marks a rendered page recognized as a bot-check challenge.
type blockError struct {
	marker string
}

func (e *blockError) Error() string {
	return fmt.Sprintf("bot check detected (matched %q)", e.marker)
}

// IsBotCheck reports whether err came from a recognized challenge page.
func IsBotCheck(err error) bool {
	var be *blockError
	return errors.As(err, &be)
}

// Snapshot is the structured result of one extraction.
type Snapshot struct {
	Title     *string         `json:"title"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  *string         `json:"image_url"`
	FetchedAt time.Time       `json:"fetched_at"`
	Success   bool            `json:"success"`
}

// Renderer loads a product page and returns its rendered HTML.
// Implementations own navigation and element-wait timeouts; any error they
// return is treated as transient and retried.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Extractor pulls product snapshots out of Amazon pages
type Extractor struct {
	cfg      config.ScraperConfig
	renderer Renderer
}

// NewExtractor creates an Extractor on top of the given renderer
func NewExtractor(cfg config.ScraperConfig, renderer Renderer) *Extractor {
	return &Extractor{
		cfg:      cfg,
		renderer: renderer,
	}
}

// NewRenderer builds the renderer backend selected in the configuration
func NewRenderer(cfg config.ScraperConfig) (Renderer, error) {
	switch cfg.Renderer {
	case config.RendererAPI:
		return NewAPIRenderer(cfg)
	default:
		return NewBrowserRenderer(cfg), nil
	}
}

// Extract fetches url and returns a product snapshot.
// The returned error is non-nil only for malformed URLs; every other failure
// degrades to Snapshot{Success: false} after the attempt budget runs out.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (Snapshot, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Snapshot{}, fmt.Errorf("malformed product url %q", rawURL)
	}

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		snapshot, err := e.attempt(ctx, rawURL)
		if err == nil {
			return snapshot, nil
		}
		logger.Error("Extractor: attempt %d/%d failed for %s: %v", attempt, e.cfg.MaxAttempts, rawURL, err)

		if attempt < e.cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return failedSnapshot(), nil
			case <-time.After(e.retryDelay(attempt)):
			}
		}
	}

	return failedSnapshot(), nil
}

// attempt runs one full Launch→Done pass with a fresh rendering session.
// The renderer tears its session down on every exit path.
func (e *Extractor) attempt(ctx context.Context, rawURL string) (Snapshot, error) {
	html, err := e.renderer.Render(ctx, rawURL)
	if err != nil {
		return Snapshot{}, err
	}

	page, err := parseProductPage(html)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Title:     page.Title,
		Price:     page.Price,
		ImageURL:  page.ImageURL,
		FetchedAt: time.Now(),
		Success:   page.Title != nil && page.Price.IsPositive(),
	}, nil
}

// retryDelay returns the inter-attempt delay for the configured policy
func (e *Extractor) retryDelay(attempt int) time.Duration {
	if e.cfg.Backoff == config.BackoffExponential {
		return e.cfg.RetryDelay * time.Duration(1<<(attempt-1))
	}
	return e.cfg.RetryDelay
}

func failedSnapshot() Snapshot {
	return Snapshot{
		Title:     nil,
		Price:     decimal.Zero,
		ImageURL:  nil,
		FetchedAt: time.Now(),
		Success:   false,
	}
}
