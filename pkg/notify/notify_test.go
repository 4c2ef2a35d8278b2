package notify

import (
	"context"
	"testing"

	"github.com/example/freshgrocers/pkg/config"
	"github.com/example/freshgrocers/pkg/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestOrderConfirmation(t *testing.T) {
	order := &models.Order{
		ID:              "ORD-20261018-0042",
		OrderNumber:     123456,
		Items:           []models.OrderItem{{Name: "Organic Bananas", Price: 2.99, Quantity: 2}},
		Subtotal:        5.98,
		Tax:             0.48,
		DeliveryFee:     3.99,
		Total:           10.45,
		PaymentMethod:   "Cash on Delivery",
		DeliveryAddress: "12 Market Street",
		AgentName:       "Mike Davis",
	}

	msg := OrderConfirmation(order, "Jane Doe", "jane@example.com")
	assert.Equal(t, "jane@example.com", msg.To)
	assert.Equal(t, "Fresh Grocers order ORD-20261018-0042 confirmed", msg.Subject)
	assert.Contains(t, msg.Text, "2 x Organic Bananas  $5.98")
	assert.Contains(t, msg.Text, "Delivery: $3.99")
	assert.Contains(t, msg.Text, "Total: $10.45")

	order.DeliveryFee = 0
	assert.Contains(t, OrderConfirmation(order, "Jane Doe", "jane@example.com").Text, "Delivery: FREE")

	assert.Equal(t, "Order ORD-20261018-0042 confirmed. Track at freshgrocers.com", OrderSMS(order))
}

func TestApplicationReceived(t *testing.T) {
	msg := ApplicationReceived(&models.StaffApplication{
		FirstName: "Sam", LastName: "Lee", RequestedRole: models.StaffRoleCashier,
		Department: "Front of store", SupervisorEmail: "manager@freshgrocers.com",
	})
	assert.Equal(t, "manager@freshgrocers.com", msg.To)
	assert.Contains(t, msg.Text, "Sam Lee has applied for the cashier position in Front of store.")
}

func TestNewEmailSender(t *testing.T) {
	logger := zap.NewNop()

	sender := NewEmailSender(config.NotifyConfig{}, logger)
	assert.IsType(t, &LogSender{}, sender)
	assert.NoError(t, sender.Send(context.Background(), Message{To: "jane@example.com"}))

	assert.IsType(t, &SendGridSender{}, NewEmailSender(config.NotifyConfig{SendGridAPIKey: "SG.test", FromEmail: "orders@freshgrocers.com"}, logger))
}
