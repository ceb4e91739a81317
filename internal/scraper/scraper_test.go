package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pricewatch-project/backend/internal/config"
)

const productPage = `<html><body>
	<span id="productTitle">Echo Dot (5th Gen)</span>
	<span class="a-price-whole">4,449</span>
	<img id="landingImage" src="https://m.media-amazon.com/images/dot.jpg">
</body></html>`

// fakeRenderer returns canned pages or errors per attempt, recording calls.
type fakeRenderer struct {
	pages []string
	errs  []error
	calls int
}

func (f *fakeRenderer) Render(ctx context.Context, url string) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.pages) {
		return f.pages[i], nil
	}
	return "", errors.New("no page scripted for this attempt")
}

func testConfig() config.ScraperConfig {
	return config.ScraperConfig{
		Renderer:    config.RendererBrowser,
		MaxAttempts: 3,
		RetryDelay:  0,
		Backoff:     config.BackoffFixed,
	}
}

func TestExtractSuccess(t *testing.T) {
	r := &fakeRenderer{pages: []string{productPage}}
	e := NewExtractor(testConfig(), r)

	snap, err := e.Extract(context.Background(), "https://www.amazon.in/dp/B0ABCDE123")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !snap.Success {
		t.Fatal("expected Success=true")
	}
	if snap.Title == nil || *snap.Title != "Echo Dot (5th Gen)" {
		t.Errorf("unexpected title: %v", snap.Title)
	}
	if snap.Price.String() != "4449" {
		t.Errorf("unexpected price: %s", snap.Price)
	}
	if r.calls != 1 {
		t.Errorf("expected 1 render call, got %d", r.calls)
	}
}

func TestExtractExhaustsAttemptBudget(t *testing.T) {
	boom := errors.New("navigation timeout")
	r := &fakeRenderer{errs: []error{boom, boom, boom}}
	e := NewExtractor(testConfig(), r)

	snap, err := e.Extract(context.Background(), "https://www.amazon.in/dp/B0ABCDE123")
	if err != nil {
		t.Fatalf("exhausted retries must degrade, not error: %v", err)
	}
	if snap.Success {
		t.Error("expected Success=false")
	}
	if snap.Title != nil {
		t.Errorf("expected nil title, got %v", snap.Title)
	}
	if !snap.Price.IsZero() {
		t.Errorf("expected zero price, got %s", snap.Price)
	}
	if r.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", r.calls)
	}
}

func TestExtractRetriesBotCheckWithFreshSession(t *testing.T) {
	botPage := `<html><head><title>Robot Check</title></head><body></body></html>`
	r := &fakeRenderer{pages: []string{botPage, productPage}}
	e := NewExtractor(testConfig(), r)

	snap, err := e.Extract(context.Background(), "https://www.amazon.in/dp/B0ABCDE123")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !snap.Success {
		t.Fatal("expected second attempt to succeed")
	}
	if r.calls != 2 {
		t.Errorf("expected 2 render calls, got %d", r.calls)
	}
}

func TestExtractMissingPriceDoesNotRetry(t *testing.T) {
	noPrice := `<html><body><span id="productTitle">Mystery Box</span></body></html>`
	r := &fakeRenderer{pages: []string{noPrice}}
	e := NewExtractor(testConfig(), r)

	snap, err := e.Extract(context.Background(), "https://www.amazon.in/dp/B0ABCDE123")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if snap.Success {
		t.Error("title without price must not count as success")
	}
	if snap.Title == nil {
		t.Error("title should still be reported")
	}
	if r.calls != 1 {
		t.Errorf("partial extraction is not transient; expected 1 attempt, got %d", r.calls)
	}
}

func TestExtractMalformedURLIsFatal(t *testing.T) {
	r := &fakeRenderer{pages: []string{productPage}}
	e := NewExtractor(testConfig(), r)

	if _, err := e.Extract(context.Background(), "not a url"); err == nil {
		t.Error("expected error for malformed URL")
	}
	if r.calls != 0 {
		t.Errorf("no render attempt should happen for a malformed URL, got %d", r.calls)
	}
}

func TestRetryDelayPolicies(t *testing.T) {
	fixed := NewExtractor(config.ScraperConfig{
		MaxAttempts: 3, RetryDelay: 2 * time.Second, Backoff: config.BackoffFixed,
	}, nil)
	for attempt := 1; attempt <= 3; attempt++ {
		if got := fixed.retryDelay(attempt); got != 2*time.Second {
			t.Errorf("fixed delay attempt %d = %v, want 2s", attempt, got)
		}
	}

	exp := NewExtractor(config.ScraperConfig{
		MaxAttempts: 3, RetryDelay: time.Second, Backoff: config.BackoffExponential,
	}, nil)
	wants := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, want := range wants {
		if got := exp.retryDelay(i + 1); got != want {
			t.Errorf("exponential delay attempt %d = %v, want %v", i+1, got, want)
		}
	}
}

func TestNewAPIRendererRequiresKey(t *testing.T) {
	_, err := NewAPIRenderer(config.ScraperConfig{ScrapingAntURL: "https://api.scrapingant.com/v2/general"})
	if err == nil {
		t.Error("expected error when API key is missing")
	}
}
