package scraper

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCleanPrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"₹1,234.50", "1234.50"},
		{"$89.99", "89.99"},
		{"1,29,999", "129999"},
		{"", "0"},
		{"N/A", "0"},
		{"Currently unavailable", "0"},
	}

	for _, tc := range cases {
		got := CleanPrice(tc.in)
		want, _ := decimal.NewFromString(tc.want)
		if !got.Equal(want) {
			t.Errorf("CleanPrice(%q) = %s, want %s", tc.in, got, want)
		}
	}
}

func TestCleanPriceIdempotent(t *testing.T) {
	first := CleanPrice("₹1,234.50")
	second := CleanPrice(first.String())
	if !first.Equal(second) {
		t.Errorf("CleanPrice not idempotent: %s then %s", first, second)
	}
}

func TestParseProductPage(t *testing.T) {
	html := `<html><head><title>Echo Dot - Amazon.in</title></head><body>
		<span id="productTitle"> Echo Dot (5th Gen) </span>
		<span class="a-price-whole">4,449</span>
		<img id="landingImage" src="https://m.media-amazon.com/images/dot.jpg">
	</body></html>`

	page, err := parseProductPage(html)
	if err != nil {
		t.Fatalf("parseProductPage returned error: %v", err)
	}
	if page.Title == nil || *page.Title != "Echo Dot (5th Gen)" {
		t.Errorf("unexpected title: %v", page.Title)
	}
	if !page.Price.Equal(decimal.NewFromInt(4449)) {
		t.Errorf("unexpected price: %s", page.Price)
	}
	if page.ImageURL == nil || *page.ImageURL != "https://m.media-amazon.com/images/dot.jpg" {
		t.Errorf("unexpected image: %v", page.ImageURL)
	}
}

func TestParseProductPageSelectorFallback(t *testing.T) {
	// No a-price-whole; price only reachable through the offscreen span
	html := `<html><body>
		<span id="productTitle">USB-C Cable</span>
		<span class="a-price"><span class="a-offscreen">₹299.00</span></span>
	</body></html>`

	page, err := parseProductPage(html)
	if err != nil {
		t.Fatalf("parseProductPage returned error: %v", err)
	}
	want, _ := decimal.NewFromString("299.00")
	if !page.Price.Equal(want) {
		t.Errorf("fallback selector price = %s, want %s", page.Price, want)
	}
}

func TestParseProductPageMissingPriceIsNotAnError(t *testing.T) {
	html := `<html><body><span id="productTitle">Mystery Box</span></body></html>`

	page, err := parseProductPage(html)
	if err != nil {
		t.Fatalf("missing price should not fail the parse: %v", err)
	}
	if !page.Price.IsZero() {
		t.Errorf("expected zero price, got %s", page.Price)
	}
	if page.ImageURL != nil {
		t.Errorf("expected nil image, got %v", page.ImageURL)
	}
}

func TestParseProductPageMissingTitle(t *testing.T) {
	html := `<html><body><span class="a-price-whole">999</span></body></html>`

	_, err := parseProductPage(html)
	if !errors.Is(err, ErrTitleMissing) {
		t.Fatalf("expected ErrTitleMissing, got %v", err)
	}
}

func TestParseProductPageDetectsBotCheck(t *testing.T) {
	cases := []string{
		`<html><head><title>Robot Check</title></head><body></body></html>`,
		`<html><head><title>Amazon CAPTCHA</title></head><body></body></html>`,
		`<html><head><title>Shop</title><meta name="description" content="Are you a human?"></head><body></body></html>`,
	}

	for _, html := range cases {
		_, err := parseProductPage(html)
		if err == nil || !IsBotCheck(err) {
			t.Errorf("expected bot check error for %q, got %v", html, err)
		}
	}
}
