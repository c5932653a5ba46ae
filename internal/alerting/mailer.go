// Package alerting delivers operational alerts to the on-call mailbox.
package alerting

import (
	"context"
	"fmt"
	"time"

	"agency_portal_backend/platform/config"
	"agency_portal_backend/platform/logger"

	gomail "github.com/wneessen/go-mail"
)

// Mailer sends operational alert emails over SMTP. Alert delivery is best
// effort: failures are logged, never returned, since an alert must not take
// down the path that raised it.
type Mailer struct {
	cfg config.AlertConfig
	log *logger.Logger
}

// NewMailer creates the alert mailer. Returns nil when alerting is not
// configured, so callers can pass it straight through as a disabled alerter.
func NewMailer(cfg config.AlertConfig, log *logger.Logger) *Mailer {
	if !cfg.IsAlertingEnabled() {
		log.Warn("operational alerting disabled: SMTP host or recipient not configured")
		return nil
	}
	return &Mailer{cfg: cfg, log: log}
}

// Alert sends one alert email.
func (m *Mailer) Alert(ctx context.Context, subject, body string) {
	if err := m.send(ctx, subject, body); err != nil {
		m.log.Error("alert delivery failed", "error", err, "subject", subject)
		return
	}
	m.log.Info("operational alert sent", "subject", subject)
}

func (m *Mailer) send(ctx context.Context, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.GetAlertFromAddress()); err != nil {
		return fmt.Errorf("alert from: %w", err)
	}
	if err := msg.To(m.cfg.GetAlertToAddress()); err != nil {
		return fmt.Errorf("alert to: %w", err)
	}
	msg.Subject("[agency-portal] " + subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.GetAlertSMTPPort()),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
	}
	if m.cfg.GetAlertSMTPUsername() != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.GetAlertSMTPUsername()),
			gomail.WithPassword(m.cfg.GetAlertSMTPPassword()),
		)
	}

	client, err := gomail.NewClient(m.cfg.GetAlertSMTPHost(), opts...)
	if err != nil {
		return fmt.Errorf("alert client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("alert send: %w", err)
	}
	return nil
}
