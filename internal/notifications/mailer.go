package notifications

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/packaxis/packaxis-backend/pkg/config"
	"github.com/packaxis/packaxis-backend/pkg/logger"
)

const senderName = "Packaxis Orders"

// OrderConfirmation carries the fields rendered into the confirmation email.
type OrderConfirmation struct {
	OrderNumber string
	Email       string
	Total       float64
	Province    string
}

// Mailer sends transactional email through Sendgrid. When no API key is
// configured the mailer logs and drops the message so local environments
// work without credentials.
type Mailer struct {
	client *sendgrid.Client
	from   string
	logg   *logger.Logger
}

// NewMailer builds the Sendgrid-backed mailer.
func NewMailer(cfg config.SendgridConfig, logg *logger.Logger) (*Mailer, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	m := &Mailer{
		from: cfg.DefaultFrom,
		logg: logg,
	}
	if cfg.APIKey != "" {
		m.client = sendgrid.NewSendClient(cfg.APIKey)
	}
	return m, nil
}

// SendOrderConfirmation emails the order confirmation to the customer.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, confirmation OrderConfirmation) error {
	if confirmation.Email == "" {
		return fmt.Errorf("recipient email required")
	}
	if m.client == nil {
		m.logg.Warn(ctx, "sendgrid not configured, dropping order confirmation")
		return nil
	}

	subject := fmt.Sprintf("Order %s confirmed", confirmation.OrderNumber)
	plain := fmt.Sprintf(
		"Thanks for your order!\n\nOrder number: %s\nOrder total: $%.2f\n\nWe'll email you again when your order ships.",
		confirmation.OrderNumber, confirmation.Total,
	)
	html := fmt.Sprintf(
		"<p>Thanks for your order!</p><p>Order number: <strong>%s</strong><br>Order total: <strong>$%.2f</strong></p><p>We'll email you again when your order ships.</p>",
		confirmation.OrderNumber, confirmation.Total,
	)

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(senderName, m.from),
		subject,
		sgmail.NewEmail("", confirmation.Email),
		plain,
		html,
	)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	return nil
}
