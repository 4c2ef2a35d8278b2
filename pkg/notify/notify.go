package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/example/freshgrocers/pkg/config"
	"github.com/example/freshgrocers/pkg/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Message is a single outgoing email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

type EmailSender interface {
	Send(ctx context.Context, msg Message) error
}

// SendGridSender delivers email through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridSender(cfg config.NotifyConfig) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	email := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Text, msg.HTML)
	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogSender only logs. It is used when no SendGrid key is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("email")}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("Email not sent, no provider configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

func NewEmailSender(cfg config.NotifyConfig, logger *zap.Logger) EmailSender {
	if cfg.SendGridAPIKey == "" {
		return NewLogSender(logger)
	}
	return NewSendGridSender(cfg)
}

func OrderSMS(order *models.Order) string {
	return fmt.Sprintf("Order %s confirmed. Track at freshgrocers.com", order.ID)
}

func OrderConfirmation(order *models.Order, name, email string) Message {
	var lines strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&lines, "%d x %s  $%.2f\n", item.Quantity, item.Name, item.Price*float64(item.Quantity))
	}
	fee := "FREE"
	if order.DeliveryFee > 0 {
		fee = fmt.Sprintf("$%.2f", order.DeliveryFee)
	}
	text := fmt.Sprintf(
		"Hi %s,\n\nThank you for your order #%d (%s).\n\n%s\nSubtotal: $%.2f\nTax: $%.2f\nDelivery: %s\nTotal: $%.2f\n\nPayment: %s\nDelivering to: %s\nYour delivery agent is %s.\n",
		name, order.OrderNumber, order.ID, lines.String(),
		order.Subtotal, order.Tax, fee, order.Total,
		order.PaymentMethod, order.DeliveryAddress, order.AgentName,
	)
	return Message{
		To:      email,
		ToName:  name,
		Subject: fmt.Sprintf("Fresh Grocers order %s confirmed", order.ID),
		Text:    text,
		HTML:    "<pre>" + html.EscapeString(text) + "</pre>",
	}
}

func ApplicationReceived(app *models.StaffApplication) Message {
	text := fmt.Sprintf("%s %s has applied for the %s position in %s. Please review the application in the admin console.",
		app.FirstName, app.LastName, app.RequestedRole, app.Department)
	return Message{
		To:      app.SupervisorEmail,
		Subject: "New staff application",
		Text:    text,
		HTML:    "<p>" + html.EscapeString(text) + "</p>",
	}
}
