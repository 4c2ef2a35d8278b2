package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/example/freshgrocers/pkg/config"
	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// fixture wires the services against in-memory sqlite and miniredis with a
// clock the test can move.
type fixture struct {
	t      *testing.T
	ctx    context.Context
	now    time.Time
	mr     *miniredis.Miniredis
	logger *zap.Logger

	customers    *repository.CustomerRepository
	staff        *repository.StaffRepository
	applications *repository.ApplicationRepository
	products     *repository.ProductRepository
	orderRepo    *repository.OrderRepository
	feedbackRepo *repository.FeedbackRepository
	agents       *repository.AgentRepository
	sessions     *repository.SessionStore
	carts        *repository.CartStore

	calc *Calculator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repository.OpenDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	mr := miniredis.RunT(t)
	rdb := repository.NewRedisRepositoryFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { rdb.Close() })

	f := &fixture{
		t:            t,
		ctx:          context.Background(),
		now:          time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		mr:           mr,
		logger:       zap.NewNop(),
		customers:    repository.NewCustomerRepository(db),
		staff:        repository.NewStaffRepository(db),
		applications: repository.NewApplicationRepository(db),
		products:     repository.NewProductRepository(db),
		orderRepo:    repository.NewOrderRepository(db),
		feedbackRepo: repository.NewFeedbackRepository(db),
		agents:       repository.NewAgentRepository(db),
		sessions:     repository.NewSessionStore(rdb, time.Hour),
		carts:        repository.NewCartStore(rdb, time.Hour),
		calc:         NewCalculator(config.Default().Pricing),
	}
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) seed() {
	f.t.Helper()
	require.NoError(f.t, NewSeeder(f.staff, f.agents, f.products, bcrypt.MinCost, f.logger).Seed(f.ctx))
}

func (f *fixture) orderService(opts ...OrderOption) *OrderService {
	opts = append([]OrderOption{WithOrderClock(f.clock)}, opts...)
	return NewOrderService(f.orderRepo, f.agents, f.calc, f.logger, opts...)
}

func (f *fixture) cartService(orders OrderAPI) *CartService {
	return NewCartService(f.carts, f.products, f.customers, orders, f.calc, f.logger)
}

func (f *fixture) authService() *AuthService {
	cfg := config.Default().Auth
	cfg.BcryptCost = bcrypt.MinCost
	cfg.JWTSecret = "test-secret"
	return NewAuthService(cfg, f.customers, f.staff, f.applications, f.sessions, f.carts, f.logger)
}

func (f *fixture) staffService() *StaffService {
	s := NewStaffService(f.staff, f.applications, f.customers, bcrypt.MinCost, f.logger)
	s.now = f.clock
	return s
}

func (f *fixture) feedbackService(orders OrderAPI) *FeedbackService {
	s := NewFeedbackService(f.feedbackRepo, orders, f.logger)
	s.now = f.clock
	return s
}

func (f *fixture) productID(name string) int64 {
	f.t.Helper()
	list, err := f.products.List(f.ctx, repository.ProductFilter{Search: name})
	require.NoError(f.t, err)
	require.NotEmpty(f.t, list, "product %s", name)
	return list[0].ID
}

// placeOrder stores an order for customerID through the order service.
func (f *fixture) placeOrder(orders *OrderService, customerID string, items ...models.OrderItem) *OrderView {
	f.t.Helper()
	view, err := orders.PlaceOrder(f.ctx, &PlaceOrderRequest{
		CustomerID:      customerID,
		DeliveryAddress: "12 Market Street",
		AgentID:         "AG001",
		Items:           items,
	})
	require.NoError(f.t, err)
	return view
}
