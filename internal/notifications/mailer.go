package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/threadline-io/threadline-backend/internal/orders"
	"github.com/threadline-io/threadline-backend/pkg/config"
	pkgerrors "github.com/threadline-io/threadline-backend/pkg/errors"
	"github.com/threadline-io/threadline-backend/pkg/logger"
)

type sender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Mailer sends transactional email through SendGrid. Without an API key it
// logs instead of sending, which keeps local development working.
type Mailer struct {
	send sender
	from *mail.Email
	logg *logger.Logger
}

// NewMailer builds a mailer from the mail configuration.
func NewMailer(cfg config.MailConfig, logg *logger.Logger) *Mailer {
	m := &Mailer{
		from: mail.NewEmail(cfg.FromName, cfg.FromAddress),
		logg: logg,
	}
	if cfg.SendgridAPIKey != "" {
		m.send = sendgrid.NewSendClient(cfg.SendgridAPIKey)
	}
	return m
}

// SendVerificationCode emails the registration one-time code.
func (m *Mailer) SendVerificationCode(ctx context.Context, to, name, code string) error {
	subject := "Your Threadline verification code"
	plain := fmt.Sprintf("Hi %s,\n\nYour verification code is %s. It expires shortly, enter it to finish creating your account.\n", name, code)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your verification code is <strong>%s</strong>. It expires shortly, enter it to finish creating your account.</p>", name, code)
	return m.deliver(ctx, to, subject, plain, html)
}

// SendPasswordResetCode emails the password reset one-time code.
func (m *Mailer) SendPasswordResetCode(ctx context.Context, to, name, code string) error {
	subject := "Your Threadline password reset code"
	plain := fmt.Sprintf("Hi %s,\n\nYour password reset code is %s. If you did not request a reset, ignore this email.\n", name, code)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your password reset code is <strong>%s</strong>. If you did not request a reset, ignore this email.</p>", name, code)
	return m.deliver(ctx, to, subject, plain, html)
}

// SendOrderConfirmation emails a summary of a freshly placed order.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, to, name string, order *orders.OrderDTO) error {
	subject := fmt.Sprintf("Order confirmation %s", shortID(order.ID.String()))

	var lines strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&lines, "- %s (%s) x%d: %s\n", item.Name, item.Size, item.Quantity, item.LineTotal)
	}
	plain := fmt.Sprintf("Hi %s,\n\nThanks for your order!\n\n%sTotal: %s\n\nWe'll email you again when it ships.\n", name, lines.String(), order.Total)

	var rows strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&rows, "<tr><td>%s (%s)</td><td>x%d</td><td>%s</td></tr>", item.Name, item.Size, item.Quantity, item.LineTotal)
	}
	html := fmt.Sprintf("<p>Hi %s,</p><p>Thanks for your order!</p><table>%s</table><p><strong>Total: %s</strong></p><p>We'll email you again when it ships.</p>", name, rows.String(), order.Total)

	return m.deliver(ctx, to, subject, plain, html)
}

func (m *Mailer) deliver(ctx context.Context, to, subject, plain, html string) error {
	if strings.TrimSpace(to) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient address is required")
	}
	if m.send == nil {
		if m.logg != nil {
			lctx := m.logg.WithField(ctx, "to", to)
			lctx = m.logg.WithField(lctx, "subject", subject)
			m.logg.Info(lctx, "mail suppressed: no sendgrid api key configured")
		}
		return nil
	}

	message := mail.NewSingleEmail(m.from, subject, mail.NewEmail("", to), plain, html)
	response, err := m.send.SendWithContext(ctx, message)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sendgrid send")
	}
	if response.StatusCode >= 400 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("sendgrid send failed with status %d", response.StatusCode))
	}
	return nil
}

// shortID trims a uuid down to the first segment for subject lines.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
