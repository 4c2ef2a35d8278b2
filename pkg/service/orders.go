package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const (
	PaymentCashOnDelivery = "Cash on Delivery"
	maxOrderIDAttempts    = 5
)

// Contact is who receives the order confirmation.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type PlaceOrderRequest struct {
	CustomerID      string             `json:"customer_id"`
	Contact         Contact            `json:"contact"`
	DeliveryAddress string             `json:"delivery_address"`
	DeliveryNotes   string             `json:"delivery_notes"`
	AgentID         string             `json:"agent_id"`
	Items           []models.OrderItem `json:"items"`
}

type OrderQuery struct {
	CustomerID string             `json:"customer_id,omitempty"`
	Status     models.OrderStatus `json:"status,omitempty"`
	Search     string             `json:"search,omitempty"`
	From       time.Time          `json:"from,omitempty"`
	To         time.Time          `json:"to,omitempty"`
}

// OrderAPI is implemented in-process by OrderService and remotely by the
// order-service gRPC client.
type OrderAPI interface {
	PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*OrderView, error)
	GetOrder(ctx context.Context, id string) (*OrderView, error)
	ListOrders(ctx context.Context, q OrderQuery) ([]OrderView, error)
}

type AuditLogger interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

// Notifier dispatches order confirmations. It must not block the caller.
type Notifier interface {
	OrderPlaced(order *models.Order, to Contact)
}

type OrderService struct {
	orders   *repository.OrderRepository
	agents   *repository.AgentRepository
	pricing  *Calculator
	audit    AuditLogger
	notifier Notifier
	logger   *zap.Logger
	now      Clock
	intn     func(n int) int
}

type OrderOption func(*OrderService)

func WithAuditLogger(a AuditLogger) OrderOption {
	return func(s *OrderService) { s.audit = a }
}

func WithNotifier(n Notifier) OrderOption {
	return func(s *OrderService) { s.notifier = n }
}

func WithOrderClock(now Clock) OrderOption {
	return func(s *OrderService) { s.now = now }
}

// WithRandom replaces the source of order id suffixes and order numbers.
func WithRandom(intn func(n int) int) OrderOption {
	return func(s *OrderService) { s.intn = intn }
}

func NewOrderService(orders *repository.OrderRepository, agents *repository.AgentRepository, pricing *Calculator, logger *zap.Logger, opts ...OrderOption) *OrderService {
	s := &OrderService{
		orders:  orders,
		agents:  agents,
		pricing: pricing,
		logger:  logger.Named("orders"),
		now:     time.Now,
		intn:    rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*OrderView, error) {
	address := strings.TrimSpace(req.DeliveryAddress)
	if address == "" {
		return nil, invalid("please enter delivery address")
	}
	if req.AgentID == "" {
		return nil, invalid("please select a delivery agent")
	}
	if len(req.Items) == 0 {
		return nil, invalid("your cart is empty")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 || item.Price < 0 {
			return nil, invalid("invalid quantity for %s", item.Name)
		}
	}

	agent, err := s.agents.Get(ctx, req.AgentID)
	if err != nil {
		if IsNotFound(err) {
			return nil, invalid("unknown delivery agent %s", req.AgentID)
		}
		return nil, fmt.Errorf("failed to load agent: %w", err)
	}
	if agent.Status != models.AgentAvailable {
		return nil, invalid("delivery agent %s is not available", agent.Name)
	}

	now := s.now()
	id, err := s.newOrderID(ctx, now)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, len(req.Items))
	copy(items, req.Items)
	price := s.pricing.Price(items)

	order := &models.Order{
		ID:              id,
		OrderNumber:     100000 + s.intn(900000),
		CustomerID:      req.CustomerID,
		Items:           items,
		DeliveryAddress: address,
		DeliveryNotes:   strings.TrimSpace(req.DeliveryNotes),
		AgentID:         agent.ID,
		AgentName:       agent.Name,
		Subtotal:        price.Subtotal,
		DeliveryFee:     price.DeliveryFee,
		Tax:             price.Tax,
		Total:           price.Total,
		PaymentMethod:   PaymentCashOnDelivery,
		PlacedAt:        now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("Failed to create order", zap.Error(err))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.Float64("total", order.Total))

	if s.audit != nil {
		entry := &repository.AuditLog{
			Service:  "order-service",
			Action:   "create_order",
			EntityID: order.ID,
			Data: bson.M{
				"customer_id": order.CustomerID,
				"agent_id":    order.AgentID,
				"total":       order.Total,
				"items":       len(order.Items),
			},
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("Failed to write audit log", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	if s.notifier != nil {
		s.notifier.OrderPlaced(order, req.Contact)
	}

	view := NewOrderView(*order, now)
	return &view, nil
}

// newOrderID draws ORD-YYYYMMDD-NNNN ids until one is unused.
func (s *OrderService) newOrderID(ctx context.Context, now time.Time) (string, error) {
	for attempt := 0; attempt < maxOrderIDAttempts; attempt++ {
		id := fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), s.intn(10000))
		exists, err := s.orders.Exists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("failed to check order id: %w", err)
		}
		if !exists {
			return id, nil
		}
		s.logger.Debug("Order id collision", zap.String("order_id", id))
	}
	return "", fmt.Errorf("no free order id after %d attempts: %w", maxOrderIDAttempts, ErrConflict)
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*OrderView, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	view := NewOrderView(*order, s.now())
	return &view, nil
}

func (s *OrderService) ListOrders(ctx context.Context, q OrderQuery) ([]OrderView, error) {
	orders, err := s.orders.List(ctx, repository.OrderFilter{
		CustomerID: q.CustomerID,
		From:       q.From,
		To:         q.To,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	now := s.now()
	search := strings.ToLower(strings.TrimSpace(q.Search))
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		v := NewOrderView(o, now)
		if q.Status != "" && v.Status != q.Status {
			continue
		}
		if search != "" && !matchesOrder(o, search) {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

func matchesOrder(o models.Order, search string) bool {
	if strings.Contains(strings.ToLower(o.ID), search) ||
		strings.Contains(strconv.Itoa(o.OrderNumber), search) {
		return true
	}
	for _, item := range o.Items {
		if strings.Contains(strings.ToLower(item.Name), search) {
			return true
		}
	}
	return false
}
