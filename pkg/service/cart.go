package service

import (
	"context"
	"fmt"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"go.uber.org/zap"
)

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 10

type CartView struct {
	Items []models.CartItem `json:"items"`
	Pricing
}

type CheckoutRequest struct {
	DeliveryAddress string `json:"delivery_address"`
	DeliveryNotes   string `json:"delivery_notes"`
	AgentID         string `json:"agent_id"`
}

// CartService keeps one cart per session and turns it into an order.
type CartService struct {
	carts     *repository.CartStore
	products  *repository.ProductRepository
	customers *repository.CustomerRepository
	orders    OrderAPI
	pricing   *Calculator
	logger    *zap.Logger
}

func NewCartService(carts *repository.CartStore, products *repository.ProductRepository, customers *repository.CustomerRepository, orders OrderAPI, pricing *Calculator, logger *zap.Logger) *CartService {
	return &CartService{
		carts:     carts,
		products:  products,
		customers: customers,
		orders:    orders,
		pricing:   pricing,
		logger:    logger.Named("cart"),
	}
}

func (s *CartService) view(items []models.CartItem) *CartView {
	if items == nil {
		items = []models.CartItem{}
	}
	return &CartView{Items: items, Pricing: s.pricing.Price(items)}
}

func (s *CartService) Get(ctx context.Context, sessionID string) (*CartView, error) {
	items, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return s.view(items), nil
}

func checkQuantity(qty int) error {
	if qty < 1 || qty > MaxLineQuantity {
		return invalid("quantity must be between 1 and %d", MaxLineQuantity)
	}
	return nil
}

func (s *CartService) snapshot(ctx context.Context, productID int64, qty int) (models.CartItem, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return models.CartItem{}, notFound(err, "product", productID)
	}
	if !p.InStock() {
		return models.CartItem{}, invalid("%s is out of stock", p.Name)
	}
	return models.CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Emoji:     p.Emoji,
		Quantity:  qty,
	}, nil
}

// Add puts qty of a product in the cart. An existing line grows, capped at
// MaxLineQuantity, and keeps the price it was first added at.
func (s *CartService) Add(ctx context.Context, sessionID string, productID int64, qty int) (*CartView, error) {
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	line, err := s.snapshot(ctx, productID, qty)
	if err != nil {
		return nil, err
	}
	items, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	found := false
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += qty
			if items[i].Quantity > MaxLineQuantity {
				items[i].Quantity = MaxLineQuantity
			}
			found = true
			break
		}
	}
	if !found {
		items = append(items, line)
	}
	return s.save(ctx, sessionID, items)
}

// SetQuantity sets a line's quantity. Zero or less removes the line.
func (s *CartService) SetQuantity(ctx context.Context, sessionID string, productID int64, qty int) (*CartView, error) {
	if qty > MaxLineQuantity {
		return nil, invalid("quantity must be between 1 and %d", MaxLineQuantity)
	}
	if qty <= 0 {
		return s.Remove(ctx, sessionID, productID)
	}
	items, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = qty
			return s.save(ctx, sessionID, items)
		}
	}
	return nil, fmt.Errorf("cart item %d: %w", productID, ErrNotFound)
}

func (s *CartService) Remove(ctx context.Context, sessionID string, productID int64) (*CartView, error) {
	items, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	for i := range items {
		if items[i].ProductID == productID {
			items = append(items[:i], items[i+1:]...)
			return s.save(ctx, sessionID, items)
		}
	}
	return nil, fmt.Errorf("cart item %d: %w", productID, ErrNotFound)
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.carts.Clear(ctx, sessionID)
}

// BuyNow replaces the cart with a single line.
func (s *CartService) BuyNow(ctx context.Context, sessionID string, productID int64, qty int) (*CartView, error) {
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	line, err := s.snapshot(ctx, productID, qty)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, sessionID, []models.CartItem{line})
}

// Reorder replaces the cart with the items of one of the customer's orders.
func (s *CartService) Reorder(ctx context.Context, session *models.Session, orderID string) (*CartView, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != session.UserID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	items := make([]models.CartItem, len(order.Items))
	copy(items, order.Items)
	return s.save(ctx, session.ID, items)
}

func (s *CartService) save(ctx context.Context, sessionID string, items []models.CartItem) (*CartView, error) {
	if err := s.carts.Save(ctx, sessionID, items); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return s.view(items), nil
}

// Checkout places an order from the session's cart. The cart is cleared only
// when the order was stored.
func (s *CartService) Checkout(ctx context.Context, session *models.Session, req CheckoutRequest) (*OrderView, error) {
	items, err := s.carts.Get(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	contact := Contact{Name: session.Name, Email: session.Email}
	if customer, err := s.customers.Get(ctx, session.UserID); err == nil {
		contact.Name = customer.FullName()
		contact.Phone = customer.Phone
	}

	order, err := s.orders.PlaceOrder(ctx, &PlaceOrderRequest{
		CustomerID:      session.UserID,
		Contact:         contact,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryNotes:   req.DeliveryNotes,
		AgentID:         req.AgentID,
		Items:           items,
	})
	if err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx, session.ID); err != nil {
		s.logger.Warn("Failed to clear cart after checkout",
			zap.String("session_id", session.ID),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
	return order, nil
}
