/**
 * @description
 * Alert engine for price drop notifications.
 * Runs once per batch cycle over every tracking relationship and decides,
 * per relationship, whether the subscriber should be emailed.
 *
 * @dependencies
 * - backend/internal/models
 * - github.com/shopspring/decimal
 * - html/template: alert email body
 *
 * @notes
 * - DecideAlert is a pure function; the service is the imperative shell
 *   around it. last_alert_price moves only after a successful send, so a
 *   failed send is re-evaluated next cycle.
 */

package services

import (
	"bytes"
	"context"
	"html/template"

	"github.com/pricewatch-project/backend/internal/logger"
	"github.com/pricewatch-project/backend/internal/models"
	"github.com/shopspring/decimal"
)

// alertThresholdPct is the minimum drop (vs. the tracking's initial price)
// before a relationship becomes eligible for an alert.
var alertThresholdPct = decimal.NewFromInt(10)

var hundred = decimal.NewFromInt(100)

// Notifier delivers one alert email
type Notifier interface {
	Send(to, subject, htmlBody string) error
}

// TrackingStore is the persistence surface the alert pass needs
type TrackingStore interface {
	ListTrackings(ctx context.Context) ([]models.Tracking, error)
	UpdateLastAlertPrice(ctx context.Context, trackingID uint, price decimal.Decimal) error
}

// AlertDecision is the outcome of the pure debounce rule for one relationship
type AlertDecision struct {
	ShouldNotify      bool
	DropPct           decimal.Decimal
	NewLastAlertPrice decimal.Decimal
}

// DecideAlert applies the drop threshold and the monotonic-improvement gate:
// notify on the first drop past the threshold, then again only when the price
// falls below the level already reported to the subscriber.
func DecideAlert(initialPrice, currentPrice decimal.Decimal, lastAlertPrice *decimal.Decimal) AlertDecision {
	if !initialPrice.IsPositive() || !currentPrice.IsPositive() {
		return AlertDecision{}
	}

	dropPct := initialPrice.Sub(currentPrice).Div(initialPrice).Mul(hundred)
	if !dropPct.GreaterThan(alertThresholdPct) {
		return AlertDecision{DropPct: dropPct}
	}

	if lastAlertPrice != nil && !currentPrice.LessThan(*lastAlertPrice) {
		// Subscriber already knows about this price level
		return AlertDecision{DropPct: dropPct}
	}

	return AlertDecision{
		ShouldNotify:      true,
		DropPct:           dropPct,
		NewLastAlertPrice: currentPrice,
	}
}

// AlertService evaluates tracking relationships and sends price drop emails
type AlertService struct {
	store    TrackingStore
	notifier Notifier
}

// NewAlertService creates an AlertService
func NewAlertService(store TrackingStore, notifier Notifier) *AlertService {
	return &AlertService{
		store:    store,
		notifier: notifier,
	}
}

// EvaluateAndNotify runs one alert pass over the full tracking set.
// Failures on one relationship never stop evaluation of the rest.
func (s *AlertService) EvaluateAndNotify(ctx context.Context) {
	logger.Info("AlertService: checking for progressive price drops...")

	trackings, err := s.store.ListTrackings(ctx)
	if err != nil {
		logger.Error("AlertService: failed to list trackings: %v", err)
		return
	}

	for i := range trackings {
		tracking := &trackings[i]

		decision := DecideAlert(tracking.InitialPrice, tracking.Product.CurrentPrice, tracking.LastAlertPrice)
		if !decision.ShouldNotify {
			continue
		}

		// Eligible but unreachable is not a failure
		if tracking.User.Email == nil || *tracking.User.Email == "" {
			continue
		}

		subject, body, err := buildAlertEmail(tracking, decision)
		if err != nil {
			logger.Error("AlertService: failed to render alert email for tracking %d: %v", tracking.ID, err)
			continue
		}

		logger.Info("AlertService: triggering alert for %s on product %d, price drop %s%%",
			*tracking.User.Email, tracking.ProductID, decision.DropPct.StringFixed(2))

		if err := s.notifier.Send(*tracking.User.Email, subject, body); err != nil {
			// last_alert_price stays untouched so the next cycle retries
			logger.Error("AlertService: failed to email user %d: %v", tracking.UserID, err)
			continue
		}

		if err := s.store.UpdateLastAlertPrice(ctx, tracking.ID, decision.NewLastAlertPrice); err != nil {
			logger.Error("AlertService: failed to record alert price for tracking %d: %v", tracking.ID, err)
		}
	}

	logger.Info("AlertService: alert check complete")
}

var alertBodyTemplate = template.Must(template.New("alert").Parse(`<html>
  <body>
    <h2>Price Drop Alert!</h2>
    <div style="margin: 20px 0;">
        <a href="{{.ProductURL}}">
        {{if .ImageURL}}<img src="{{.ImageURL}}" alt="Product Image" style="max-width: 300px; display: block;">{{end}}
        </a>
    </div>
    <p>The price of a product you are tracking has dropped by <b>{{.DropPct}}%</b>.</p>
    <p>Product: <b>{{.Title}}</b></p>
    <p>Current Price: <b>₹{{.CurrentPrice}}</b></p>
    <p>Initial Price: ₹{{.InitialPrice}}</p>
    <br>
    <a href="{{.ProductURL}}">Buy Now on Amazon</a>
  </body>
</html>`))

type alertEmailData struct {
	Title        string
	ProductURL   string
	ImageURL     string
	DropPct      string
	CurrentPrice string
	InitialPrice string
}

// buildAlertEmail renders the subject and HTML body for one alert
func buildAlertEmail(tracking *models.Tracking, decision AlertDecision) (subject, body string, err error) {
	title := "your tracked product"
	if tracking.Product.Title != nil && *tracking.Product.Title != "" {
		title = *tracking.Product.Title
	}

	subject = "Price Drop Alert: " + truncate(title, 30)

	data := alertEmailData{
		Title:        title,
		ProductURL:   tracking.Product.AmazonURL,
		DropPct:      decision.DropPct.StringFixed(2),
		CurrentPrice: tracking.Product.CurrentPrice.StringFixed(2),
		InitialPrice: tracking.InitialPrice.StringFixed(2),
	}
	if tracking.Product.ImageURL != nil {
		data.ImageURL = *tracking.Product.ImageURL
	}

	var buf bytes.Buffer
	if err = alertBodyTemplate.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
