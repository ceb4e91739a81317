/**
 * @description
 * SMTP mailer for price drop alerts.
 * Sends HTML email over STARTTLS.
 *
 * @dependencies
 * - gopkg.in/gomail.v2: SMTP transport
 * - backend/internal/config
 */

package mailer

import (
	"errors"

	"github.com/pricewatch-project/backend/internal/config"
	"github.com/pricewatch-project/backend/internal/logger"
	"gopkg.in/gomail.v2"
)

// Mailer delivers alert emails through a configured SMTP server
type Mailer struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
}

// New creates a Mailer
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send delivers one HTML email. Any error means the message may not have
// arrived and the caller must treat the send as failed.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	if m.cfg.Host == "" {
		return errors.New("smtp transport is not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return err
	}

	logger.Info("Mailer: email sent successfully to %s", to)
	return nil
}
