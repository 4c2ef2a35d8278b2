package actors

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/notify"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/example/freshgrocers/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryOutbox struct {
	mu      sync.Mutex
	records []repository.Notification
}

func (o *memoryOutbox) SaveNotification(_ context.Context, n *repository.Notification) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, *n)
	return nil
}

func (o *memoryOutbox) snapshot() []repository.Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]repository.Notification(nil), o.records...)
}

type memorySender struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (s *memorySender) Send(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func startDispatcher(t *testing.T, sender notify.EmailSender, outbox Outbox) *Dispatcher {
	t.Helper()
	d, err := StartDispatcher(zap.NewNop(), sender, outbox)
	require.NoError(t, err)
	t.Cleanup(d.Stop)
	return d
}

func TestOrderPlacedSendsSMSAndEmail(t *testing.T) {
	sender := &memorySender{}
	outbox := &memoryOutbox{}
	d := startDispatcher(t, sender, outbox)

	order := &models.Order{ID: "ORD-20261018-0042", OrderNumber: 123456, Total: 15.08}
	d.OrderPlaced(order, service.Contact{Name: "Jane Doe", Email: "jane@example.com", Phone: "5551234567"})

	require.Eventually(t, func() bool { return len(outbox.snapshot()) == 2 }, time.Second, 10*time.Millisecond)
	records := outbox.snapshot()

	assert.Equal(t, ChannelSMS, records[0].Channel)
	assert.Equal(t, "5551234567", records[0].Recipient)
	assert.Equal(t, "Order ORD-20261018-0042 confirmed. Track at freshgrocers.com", records[0].Message)
	assert.False(t, records[0].Delivered)

	assert.Equal(t, ChannelEmail, records[1].Channel)
	assert.True(t, records[1].Delivered)
	assert.Equal(t, "ORD-20261018-0042", records[1].OrderID)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "jane@example.com", sender.sent[0].To)
}

func TestRequestReportsSendFailure(t *testing.T) {
	outbox := &memoryOutbox{}
	d := startDispatcher(t, &memorySender{err: errors.New("quota exceeded")}, outbox)

	resp, err := d.Request(&SendNotification{Channel: ChannelEmail, Recipient: "jane@example.com", Subject: "hi"}, time.Second)
	require.NoError(t, err)
	assert.False(t, resp.Delivered)
	assert.Contains(t, resp.Error, "quota exceeded")

	resp, err = d.Request(&SendNotification{Channel: "pigeon", Recipient: "jane"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, `unknown channel "pigeon"`, resp.Error)

	assert.Len(t, outbox.snapshot(), 2)
}

func TestApplicationSubmittedEmailsSupervisor(t *testing.T) {
	sender := &memorySender{}
	d := startDispatcher(t, sender, nil)

	d.ApplicationSubmitted(&models.StaffApplication{
		FirstName: "Sam", LastName: "Lee", RequestedRole: models.StaffRoleCashier,
		SupervisorEmail: "manager@freshgrocers.com",
	})

	require.Eventually(t, func() bool {
		sender.mu.Lock()
		defer sender.mu.Unlock()
		return len(sender.sent) == 1
	}, time.Second, 10*time.Millisecond)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, "manager@freshgrocers.com", sender.sent[0].To)
}
