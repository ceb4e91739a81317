package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAPIRendererRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("x-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if q.Get("browser") != "true" || q.Get("wait_for_selector") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if q.Get("url") != "https://www.amazon.in/dp/B0ABCDE123" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(productPage))
	}))
	defer srv.Close()

	r := &APIRenderer{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}

	html, err := r.Render(context.Background(), "https://www.amazon.in/dp/B0ABCDE123")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if html != productPage {
		t.Errorf("unexpected body: %q", html)
	}
}

func TestAPIRendererNonOKStatusIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r := &APIRenderer{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}

	if _, err := r.Render(context.Background(), "https://www.amazon.in/dp/B0ABCDE123"); err == nil {
		t.Error("expected error for non-200 response")
	}
}
