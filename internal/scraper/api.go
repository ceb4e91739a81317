/**
 * @description
 * Rendering-API renderer (ScrapingAnt-compatible).
 * Delegates browser rendering to a remote API instead of a local Chrome,
 * for hosts where running a browser is impractical.
 *
 * @dependencies
 * - net/http
 * - backend/internal/config
 */

package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pricewatch-project/backend/internal/config"
)

// APIRenderer renders pages through a remote rendering API
type APIRenderer struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewAPIRenderer creates an APIRenderer.
// A missing API key is a configuration error, not a transient one.
func NewAPIRenderer(cfg config.ScraperConfig) (*APIRenderer, error) {
	if cfg.ScrapingAntKey == "" {
		return nil, errors.New("rendering api key is required")
	}
	return &APIRenderer{
		BaseURL: cfg.ScrapingAntURL,
		APIKey:  cfg.ScrapingAntKey,
		HTTPClient: &http.Client{
			Timeout: cfg.NavigationTimeout,
		},
	}, nil
}

// Render asks the API to load targetURL in a browser, wait for the product
// title selector, and return the rendered HTML.
func (r *APIRenderer) Render(ctx context.Context, targetURL string) (string, error) {
	u, err := url.Parse(r.BaseURL)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("url", targetURL)
	q.Set("x-api-key", r.APIKey)
	q.Set("browser", "true")
	q.Set("wait_for_selector", "span#productTitle")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("rendering api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rendering api error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	return string(body), nil
}
