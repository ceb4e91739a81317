/**
 * @description
 * Pure parsing layer for rendered Amazon product pages.
 * Extracts title, price and image from HTML via an ordered selector chain,
 * and recognizes bot-check challenge pages.
 *
 * @dependencies
 * - github.com/PuerkitoBio/goquery: HTML traversal
 * - github.com/shopspring/decimal: price arithmetic
 *
 * @notes
 * - Selectors are brittle and site-specific on purpose; keeping them in one
 *   ordered list keeps the fallback behavior testable without a browser.
 */

package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

const (
	titleSelector = "span#productTitle, #productTitle"
	imageSelector = "#landingImage, #imgBlkFront"
)

// priceSelectors is tried in order, most specific first. The first candidate
// that cleans to a positive price wins; the price stays hidden in a different
// span depending on the page template.
var priceSelectors = []string{
	"span.a-price-whole",
	"span.a-price .a-offscreen",
	"span.a-offscreen",
}

// blockMarkers are known challenge-page phrases, matched case-insensitively
// against the rendered page title and description metadata.
var blockMarkers = []string{
	"robot check",
	"captcha",
	"bot check",
	"automated access",
	"are you a human",
	"sorry! something went wrong",
}

// matchBlockMarker returns the first marker contained in text, or "".
func matchBlockMarker(text string) string {
	lowered := strings.ToLower(text)
	for _, marker := range blockMarkers {
		if strings.Contains(lowered, marker) {
			return marker
		}
	}
	return ""
}

// CleanPrice normalizes a raw price string to a decimal.
// Every character that is not a digit or decimal point is discarded before
// parsing, so "₹1,234.50" becomes 1234.50. Unparseable or empty input
// yields zero rather than an error; price is best-effort.
func CleanPrice(raw string) decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero
	}
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return price
}

// pageData is the parsed view of one rendered product page.
type pageData struct {
	Title    *string
	Price    decimal.Decimal
	ImageURL *string
}

// parseProductPage walks the rendered document in selector-chain order.
// It returns ErrBotCheck for challenge pages and ErrTitleMissing when the
// required title element is absent; a missing price is not an error.
func parseProductPage(html string) (*pageData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	// DetectBlock: page title and description metadata
	docTitle := strings.TrimSpace(doc.Find("title").First().Text())
	metaDesc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	if marker := matchBlockMarker(docTitle + " " + metaDesc); marker != "" {
		return nil, &blockError{marker: marker}
	}

	// LocateTitle: required
	title := strings.TrimSpace(doc.Find(titleSelector).First().Text())
	if title == "" {
		return nil, ErrTitleMissing
	}

	// LocatePrice: best-effort selector chain
	price := decimal.Zero
	for _, selector := range priceSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if p := CleanPrice(sel.Text()); p.IsPositive() {
			price = p
			break
		}
	}

	// LocateImage: best-effort
	var imageURL *string
	if src, ok := doc.Find(imageSelector).First().Attr("src"); ok && src != "" {
		imageURL = &src
	}

	return &pageData{
		Title:    &title,
		Price:    price,
		ImageURL: imageURL,
	}, nil
}
