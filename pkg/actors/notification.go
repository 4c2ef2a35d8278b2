package actors

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/notify"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/example/freshgrocers/pkg/service"
	"go.uber.org/zap"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"

	sendTimeout = 10 * time.Second
)

// Outbox records every notification the actor handles.
type Outbox interface {
	SaveNotification(ctx context.Context, n *repository.Notification) error
}

// SendNotification asks the notification actor to deliver one message.
type SendNotification struct {
	Channel   string
	Recipient string
	Name      string
	Subject   string
	Message   string
	HTML      string
	OrderID   string
}

type NotificationResponse struct {
	Delivered bool
	Error     string
}

// NotificationActor delivers messages one at a time and keeps an outbox
// record of each. SMS has no gateway and is only recorded.
type NotificationActor struct {
	logger *zap.Logger
	email  notify.EmailSender
	outbox Outbox
}

func (a *NotificationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *SendNotification:
		resp := a.handle(msg)
		if ctx.Sender() != nil {
			ctx.Respond(resp)
		}

	case *actor.Started:
		a.logger.Info("Notification actor started")

	case *actor.Stopping:
		a.logger.Info("Notification actor stopping")
	}
}

func (a *NotificationActor) handle(msg *SendNotification) *NotificationResponse {
	sendCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	record := &repository.Notification{
		Channel:   msg.Channel,
		Recipient: msg.Recipient,
		Subject:   msg.Subject,
		Message:   msg.Message,
		OrderID:   msg.OrderID,
	}

	switch msg.Channel {
	case ChannelEmail:
		err := a.email.Send(sendCtx, notify.Message{
			To:      msg.Recipient,
			ToName:  msg.Name,
			Subject: msg.Subject,
			Text:    msg.Message,
			HTML:    msg.HTML,
		})
		if err != nil {
			record.Error = err.Error()
			a.logger.Warn("Failed to send email",
				zap.String("recipient", msg.Recipient),
				zap.String("order_id", msg.OrderID),
				zap.Error(err))
		} else {
			record.Delivered = true
		}
	case ChannelSMS:
		a.logger.Info("SMS recorded",
			zap.String("recipient", msg.Recipient),
			zap.String("message", msg.Message))
	default:
		record.Error = fmt.Sprintf("unknown channel %q", msg.Channel)
	}

	if a.outbox != nil {
		if err := a.outbox.SaveNotification(sendCtx, record); err != nil {
			a.logger.Warn("Failed to record notification", zap.Error(err))
		}
	}
	return &NotificationResponse{Delivered: record.Delivered, Error: record.Error}
}

// Dispatcher owns the actor system and turns domain events into
// notification messages. Sends never block the caller.
type Dispatcher struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

var (
	_ service.Notifier            = (*Dispatcher)(nil)
	_ service.ApplicationNotifier = (*Dispatcher)(nil)
)

func StartDispatcher(logger *zap.Logger, email notify.EmailSender, outbox Outbox) (*Dispatcher, error) {
	system := actor.NewActorSystem()

	props := actor.PropsFromProducer(func() actor.Actor {
		return &NotificationActor{
			logger: logger.Named("notification-actor"),
			email:  email,
			outbox: outbox,
		}
	})
	pid, err := system.Root.SpawnNamed(props, "notification-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn notification actor: %w", err)
	}

	return &Dispatcher{system: system, pid: pid, logger: logger}, nil
}

func (d *Dispatcher) OrderPlaced(order *models.Order, to service.Contact) {
	if to.Phone != "" {
		d.system.Root.Send(d.pid, &SendNotification{
			Channel:   ChannelSMS,
			Recipient: to.Phone,
			Name:      to.Name,
			Message:   notify.OrderSMS(order),
			OrderID:   order.ID,
		})
	}
	if to.Email != "" {
		msg := notify.OrderConfirmation(order, to.Name, to.Email)
		d.system.Root.Send(d.pid, &SendNotification{
			Channel:   ChannelEmail,
			Recipient: msg.To,
			Name:      msg.ToName,
			Subject:   msg.Subject,
			Message:   msg.Text,
			HTML:      msg.HTML,
			OrderID:   order.ID,
		})
	}
}

func (d *Dispatcher) ApplicationSubmitted(app *models.StaffApplication) {
	msg := notify.ApplicationReceived(app)
	d.system.Root.Send(d.pid, &SendNotification{
		Channel:   ChannelEmail,
		Recipient: msg.To,
		Subject:   msg.Subject,
		Message:   msg.Text,
		HTML:      msg.HTML,
	})
}

// Request sends one message and waits for the actor's answer.
func (d *Dispatcher) Request(msg *SendNotification, timeout time.Duration) (*NotificationResponse, error) {
	result, err := d.system.Root.RequestFuture(d.pid, msg, timeout).Result()
	if err != nil {
		return nil, err
	}
	resp, ok := result.(*NotificationResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected response %T", result)
	}
	return resp, nil
}

// Stop drains queued messages before the actor exits.
func (d *Dispatcher) Stop() {
	if err := d.system.Root.PoisonFuture(d.pid).Wait(); err != nil {
		d.logger.Warn("Notification actor did not stop cleanly", zap.Error(err))
	}
}
