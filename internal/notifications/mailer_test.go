package notifications

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/threadline-io/threadline-backend/internal/orders"
	"github.com/threadline-io/threadline-backend/pkg/config"
	pkgerrors "github.com/threadline-io/threadline-backend/pkg/errors"
)

type stubSender struct {
	last   *mail.SGMailV3
	status int
}

func (s *stubSender) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	s.last = email
	status := s.status
	if status == 0 {
		status = 202
	}
	return &rest.Response{StatusCode: status}, nil
}

func newTestMailer(send sender) *Mailer {
	m := NewMailer(config.MailConfig{FromAddress: "orders@threadline.example", FromName: "Threadline"}, nil)
	m.send = send
	return m
}

func TestSendVerificationCode(t *testing.T) {
	send := &stubSender{}
	m := newTestMailer(send)

	if err := m.SendVerificationCode(context.Background(), "jamie@example.com", "Jamie", "482913"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if send.last == nil {
		t.Fatalf("expected a message")
	}
	if send.last.Subject != "Your Threadline verification code" {
		t.Fatalf("unexpected subject %q", send.last.Subject)
	}
	body := send.last.Content[0].Value
	if !strings.Contains(body, "482913") {
		t.Fatalf("body must carry the code, got %q", body)
	}
	to := send.last.Personalizations[0].To[0].Address
	if to != "jamie@example.com" {
		t.Fatalf("unexpected recipient %q", to)
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	send := &stubSender{}
	m := newTestMailer(send)

	order := &orders.OrderDTO{
		ID:         uuid.New(),
		TotalCents: 10000,
		Total:      "100.00",
		Items: []orders.OrderItemDTO{
			{Name: "Linen Shirt", Size: "M", Quantity: 2, LineTotal: "100.00"},
		},
	}
	if err := m.SendOrderConfirmation(context.Background(), "jamie@example.com", "Jamie", order); err != nil {
		t.Fatalf("send: %v", err)
	}
	body := send.last.Content[0].Value
	if !strings.Contains(body, "Linen Shirt") || !strings.Contains(body, "100.00") {
		t.Fatalf("body must summarize the order, got %q", body)
	}
}

func TestDeliverReportsUpstreamFailure(t *testing.T) {
	send := &stubSender{status: 500}
	m := newTestMailer(send)

	err := m.SendPasswordResetCode(context.Background(), "jamie@example.com", "Jamie", "000111")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestDeliverSuppressedWithoutAPIKey(t *testing.T) {
	m := NewMailer(config.MailConfig{FromAddress: "orders@threadline.example"}, nil)

	if err := m.SendVerificationCode(context.Background(), "jamie@example.com", "Jamie", "482913"); err != nil {
		t.Fatalf("suppressed send must not error, got %v", err)
	}
}
