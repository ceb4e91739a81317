package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pricewatch-project/backend/internal/config"
	"github.com/pricewatch-project/backend/internal/models"
	"github.com/pricewatch-project/backend/internal/scraper"
	"github.com/shopspring/decimal"
)

// fakeProductStore records persistence calls in memory
type fakeProductStore struct {
	mu           sync.Mutex
	products     []models.Product
	snapshots    map[uint]scraper.Snapshot
	observations map[uint][]decimal.Decimal
	updateErr    error
}

func newFakeProductStore(products ...models.Product) *fakeProductStore {
	return &fakeProductStore{
		products:     products,
		snapshots:    make(map[uint]scraper.Snapshot),
		observations: make(map[uint][]decimal.Decimal),
	}
}

func (f *fakeProductStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	return f.products, nil
}

func (f *fakeProductStore) UpdateProductSnapshot(ctx context.Context, productID uint, snap scraper.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.snapshots[productID] = snap
	return nil
}

func (f *fakeProductStore) AppendPriceObservation(ctx context.Context, productID uint, price decimal.Decimal, recordedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observations[productID] = append(f.observations[productID], price)
	return nil
}

// trackingExtractor tracks in-flight concurrency and fails scripted URLs
type trackingExtractor struct {
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
	failURLs    map[string]bool
	errURLs     map[string]bool
}

func (e *trackingExtractor) Extract(ctx context.Context, url string) (scraper.Snapshot, error) {
	current := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		max := e.maxInFlight.Load()
		if current <= max || e.maxInFlight.CompareAndSwap(max, current) {
			break
		}
	}

	// Hold the slot long enough for other tasks to pile up
	time.Sleep(10 * time.Millisecond)

	if e.errURLs[url] {
		return scraper.Snapshot{}, errors.New("store exploded mid-refresh")
	}
	if e.failURLs[url] {
		return scraper.Snapshot{Price: decimal.Zero, FetchedAt: time.Now(), Success: false}, nil
	}
	title := "Product"
	return scraper.Snapshot{
		Title:     &title,
		Price:     decimal.NewFromInt(999),
		FetchedAt: time.Now(),
		Success:   true,
	}, nil
}

// countingAlerts counts EvaluateAndNotify invocations
type countingAlerts struct {
	calls atomic.Int64
}

func (a *countingAlerts) EvaluateAndNotify(ctx context.Context) {
	a.calls.Add(1)
}

func makeProducts(n int) []models.Product {
	products := make([]models.Product, n)
	for i := range products {
		products[i] = models.Product{
			ID:        uint(i + 1),
			AmazonURL: fmt.Sprintf("https://www.amazon.in/dp/B00000000%d", i),
		}
	}
	return products
}

func TestRefreshAllRespectsConcurrencyCap(t *testing.T) {
	const limit = 3
	store := newFakeProductStore(makeProducts(20)...)
	extractor := &trackingExtractor{}
	alerts := &countingAlerts{}

	svc := NewRefreshService(store, extractor, alerts, config.RefreshConfig{Concurrency: limit})

	summary, err := svc.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}
	if summary.Total != 20 || summary.Succeeded != 20 || summary.Failed != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if got := extractor.maxInFlight.Load(); got > limit {
		t.Errorf("concurrency cap violated: %d tasks in flight, cap %d", got, limit)
	}
	if alerts.calls.Load() != 1 {
		t.Errorf("alert pass should run exactly once, ran %d times", alerts.calls.Load())
	}
}

func TestRefreshAllIsolatesFailures(t *testing.T) {
	products := makeProducts(5)
	store := newFakeProductStore(products...)
	extractor := &trackingExtractor{
		failURLs: map[string]bool{products[1].AmazonURL: true},
		errURLs:  map[string]bool{products[3].AmazonURL: true},
	}

	svc := NewRefreshService(store, extractor, &countingAlerts{}, config.RefreshConfig{Concurrency: 2})

	summary, err := svc.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("RefreshAll returned error: %v", err)
	}
	if summary.Succeeded != 3 || summary.Failed != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	// Failed products stay untouched, the rest updated and got history rows
	for _, p := range products {
		_, updated := store.snapshots[p.ID]
		shouldFail := extractor.failURLs[p.AmazonURL] || extractor.errURLs[p.AmazonURL]
		if shouldFail && updated {
			t.Errorf("product %d failed extraction but was updated", p.ID)
		}
		if !shouldFail {
			if !updated {
				t.Errorf("product %d should have been updated", p.ID)
			}
			if len(store.observations[p.ID]) != 1 {
				t.Errorf("product %d should have one price observation, got %d", p.ID, len(store.observations[p.ID]))
			}
		}
	}
}

func TestRefreshAllCountsStoreErrorsAsFailures(t *testing.T) {
	store := newFakeProductStore(makeProducts(3)...)
	store.updateErr = errors.New("connection reset")
	extractor := &trackingExtractor{}
	alerts := &countingAlerts{}

	svc := NewRefreshService(store, extractor, alerts, config.RefreshConfig{Concurrency: 3})

	summary, err := svc.RefreshAll(context.Background())
	if err != nil {
		t.Fatalf("store errors must stay inside the batch: %v", err)
	}
	if summary.Failed != 3 || summary.Succeeded != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	// Alert pass still runs after a fully failed batch
	if alerts.calls.Load() != 1 {
		t.Errorf("alert pass should still run, ran %d times", alerts.calls.Load())
	}
}
