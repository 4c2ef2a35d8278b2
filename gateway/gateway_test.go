package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/example/freshgrocers/pkg/config"
	"github.com/example/freshgrocers/pkg/export"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/example/freshgrocers/pkg/service"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// memoryHistory records audit entries in place of MongoDB.
type memoryHistory struct {
	mu      sync.Mutex
	entries []*repository.AuditLog
}

func (m *memoryHistory) CreateAuditLog(_ context.Context, log *repository.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, log)
	return nil
}

func (m *memoryHistory) OrderHistory(_ context.Context, orderID string) (*repository.OrderHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := &repository.OrderHistory{OrderID: orderID, Audit: []*repository.AuditLog{}, Notifications: []*repository.Notification{}}
	for _, entry := range m.entries {
		if entry.EntityID == orderID {
			history.Audit = append(history.Audit, entry)
		}
	}
	return history, nil
}

type harness struct {
	t        *testing.T
	handler  http.Handler
	products *repository.ProductRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.BcryptCost = bcrypt.MinCost
	logger := zap.NewNop()

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

	customers := repository.NewCustomerRepository(db)
	staff := repository.NewStaffRepository(db)
	applications := repository.NewApplicationRepository(db)
	products := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	agents := repository.NewAgentRepository(db)
	sessions := repository.NewSessionStore(rdb, cfg.Auth.SessionTTL)
	carts := repository.NewCartStore(rdb, cfg.Auth.SessionTTL)

	require.NoError(t, service.NewSeeder(staff, agents, products, bcrypt.MinCost, logger).Seed(context.Background()))

	calc := service.NewCalculator(cfg.Pricing)
	history := &memoryHistory{}
	orders := service.NewOrderService(orderRepo, agents, calc, logger, service.WithAuditLogger(history))

	gw := NewGateway(cfg, logger, Services{
		Auth:      service.NewAuthService(cfg.Auth, customers, staff, applications, sessions, carts, logger),
		Cart:      service.NewCartService(carts, products, customers, orders, calc, logger),
		Orders:    orders,
		Inventory: service.NewInventoryService(products, logger),
		Staff:     service.NewStaffService(staff, applications, customers, bcrypt.MinCost, logger),
		Feedback:  service.NewFeedbackService(repository.NewFeedbackRepository(db), orders, logger),
		Delivery:  service.NewDeliveryService(agents, orders, logger),
		Reports:   service.NewReportService(orders, products, agents, logger),
		History:   history,
	})
	gw.SetupRoutes()

	return &harness{t: t, handler: gw.Handler(), products: products}
}

func (h *harness) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error
}

func (h *harness) customerToken() string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"first_name":       "Jane",
		"last_name":        "Doe",
		"email":            "jane@example.com",
		"phone":            "555-123-4567",
		"password":         "Secret123",
		"confirm_password": "Secret123",
		"address":          map[string]string{"street": "12 Market Street", "city": "Springfield", "state": "IL", "zip_code": "62701"},
		"accept_terms":     true,
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	return h.login("customer", map[string]string{"email": "jane@example.com", "password": "Secret123"})
}

func (h *harness) adminToken() string {
	h.t.Helper()
	return h.login("staff", map[string]string{"email": "admin@freshgrocers.com", "password": "admin123", "staff_id": "adm001"})
}

func (h *harness) login(kind string, body map[string]string) string {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/v1/auth/login?type="+kind, "", body)
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	var result service.LoginResult
	decode(h.t, rec, &result)
	require.NotEmpty(h.t, result.Token)
	return result.Token
}

func (h *harness) productID(name string) int64 {
	h.t.Helper()
	list, err := h.products.List(context.Background(), repository.ProductFilter{Search: name})
	require.NoError(h.t, err)
	require.NotEmpty(h.t, list)
	return list[0].ID
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCustomerCheckoutFlow(t *testing.T) {
	h := newHarness(t)
	token := h.customerToken()
	bananas := h.productID("Bananas")

	rec := h.do(http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{"product_id": bananas, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cart service.CartView
	decode(t, rec, &cart)
	require.Len(t, cart.Items, 1)
	assert.InDelta(t, 5.98, cart.Subtotal, 1e-9)
	assert.InDelta(t, 3.99, cart.DeliveryFee, 1e-9)

	rec = h.do(http.MethodPost, "/api/v1/orders", token, map[string]string{
		"delivery_address": "12 Market Street",
		"agent_id":         "AG001",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var placed struct {
		Order service.OrderView `json:"order"`
	}
	decode(t, rec, &placed)
	assert.Regexp(t, `^ORD-\d{8}-\d{4}$`, placed.Order.ID)
	assert.Equal(t, "Mike Davis", placed.Order.AgentName)
	assert.Equal(t, "pending", string(placed.Order.Status))

	rec = h.do(http.MethodGet, "/api/v1/cart", token, nil)
	decode(t, rec, &cart)
	assert.Empty(t, cart.Items)

	rec = h.do(http.MethodGet, "/api/v1/orders", token, nil)
	var list struct {
		Orders []service.OrderView `json:"orders"`
		Total  int                 `json:"total"`
	}
	decode(t, rec, &list)
	assert.Equal(t, 1, list.Total)

	rec = h.do(http.MethodGet, "/api/v1/orders/"+placed.Order.ID+"/track", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var track struct {
		Timeline []service.TimelineStep `json:"timeline"`
	}
	decode(t, rec, &track)
	require.Len(t, track.Timeline, 4)
	assert.True(t, track.Timeline[0].Current)

	rec = h.do(http.MethodPost, "/api/v1/orders/"+placed.Order.ID+"/reorder", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCheckoutRejectionKeepsCart(t *testing.T) {
	h := newHarness(t)
	token := h.customerToken()

	rec := h.do(http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{"product_id": h.productID("Carrots")})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/orders", token, map[string]string{"agent_id": "AG001"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "please enter delivery address", errorOf(t, rec))

	rec = h.do(http.MethodPost, "/api/v1/orders", token, map[string]string{"delivery_address": "12 Market Street", "agent_id": "AG002"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "delivery agent David Lee is not available", errorOf(t, rec))

	var cart service.CartView
	decode(t, h.do(http.MethodGet, "/api/v1/cart", token, nil), &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestOutOfStockIsRejected(t *testing.T) {
	h := newHarness(t)
	token := h.customerToken()

	rec := h.do(http.MethodPost, "/api/v1/cart/items", token, map[string]interface{}{"product_id": h.productID("Milk"), "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Fresh Milk is out of stock", errorOf(t, rec))

	rec = h.do(http.MethodPut, "/api/v1/cart/items/abc", token, map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireUserType(t *testing.T) {
	h := newHarness(t)
	customer := h.customerToken()
	admin := h.adminToken()

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"no token", "/api/v1/catalog", "", http.StatusUnauthorized},
		{"garbage token", "/api/v1/catalog", "not-a-jwt", http.StatusUnauthorized},
		{"customer on catalog", "/api/v1/catalog", customer, http.StatusOK},
		{"admin on catalog", "/api/v1/catalog", admin, http.StatusForbidden},
		{"customer on admin", "/api/v1/admin/dashboard", customer, http.StatusForbidden},
		{"admin on admin", "/api/v1/admin/dashboard", admin, http.StatusOK},
		{"customer me", "/api/v1/auth/me", customer, http.StatusOK},
		{"admin me", "/api/v1/auth/me", admin, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodGet, tt.path, tt.token, nil)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	rec := h.do(http.MethodPost, "/api/v1/auth/logout", customer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodGet, "/api/v1/catalog", customer, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginErrors(t *testing.T) {
	h := newHarness(t)
	h.customerToken()

	tests := []struct {
		name   string
		query  string
		body   map[string]string
		status int
		msg    string
	}{
		{"unknown email", "customer", map[string]string{"email": "nobody@example.com", "password": "x"}, http.StatusUnauthorized, "No account found with this email address. Please register first."},
		{"wrong password", "customer", map[string]string{"email": "jane@example.com", "password": "Wrong123"}, http.StatusUnauthorized, "Incorrect password. Please try again."},
		{"staff on customer login", "customer", map[string]string{"email": "admin@freshgrocers.com", "password": "admin123"}, http.StatusForbidden, "This email is registered as staff. Please use staff login."},
		{"wrong staff id", "staff", map[string]string{"email": "admin@freshgrocers.com", "password": "admin123", "staff_id": "MGR001"}, http.StatusUnauthorized, "Invalid credentials or staff ID. Please check your details and try again."},
		{"bad type", "robot", map[string]string{"email": "a@b.c", "password": "x"}, http.StatusBadRequest, "login type must be customer or staff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/api/v1/auth/login?type="+tt.query, "", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, errorOf(t, rec))
		})
	}
}

func TestAdminProductLifecycle(t *testing.T) {
	h := newHarness(t)
	admin := h.adminToken()

	rec := h.do(http.MethodPost, "/api/v1/admin/products", admin, map[string]interface{}{
		"name": "  Blueberries ", "category": "Fruits", "price": 4.499, "stock": 3, "low_stock_threshold": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created service.ProductView
	decode(t, rec, &created)
	assert.Equal(t, "Blueberries", created.Name)
	assert.Equal(t, "fruits", created.Category)
	assert.Equal(t, "low_stock", string(created.StockStatus))
	path := fmt.Sprintf("/api/v1/admin/products/%d", created.ID)

	rec = h.do(http.MethodPost, path+"/stock", admin, map[string]int{"stock": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	var adjusted service.ProductView
	decode(t, rec, &adjusted)
	assert.Equal(t, "Out of Stock", adjusted.StatusLabel)

	rec = h.do(http.MethodPost, path+"/stock", admin, map[string]int{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/admin/products", admin, map[string]interface{}{"name": "Nothing", "category": "x", "price": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var stats service.InventoryStats
	decode(t, h.do(http.MethodGet, "/api/v1/admin/products/stats", admin, nil), &stats)
	assert.Equal(t, 10, stats.TotalProducts)
}

func TestInventoryExport(t *testing.T) {
	h := newHarness(t)
	admin := h.adminToken()

	rec := h.do(http.MethodGet, "/api/v1/admin/products/export?category=dairy", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeCSV, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inventory-")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Name,Category,Price,Stock,Status,Last Updated", lines[0])

	rec = h.do(http.MethodGet, "/api/v1/admin/products/export?format=xlsx", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())

	rec = h.do(http.MethodGet, "/api/v1/admin/products/export?format=pdf", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaffApplicationApproval(t *testing.T) {
	h := newHarness(t)
	admin := h.adminToken()

	rec := h.do(http.MethodPost, "/api/v1/staff/applications", "", map[string]interface{}{
		"first_name":         "Sam",
		"last_name":          "Lee",
		"email":              "sam@freshgrocers.com",
		"phone":              "5559876543",
		"requested_role":     "cashier",
		"department":         "Front End",
		"supervisor_email":   "manager@freshgrocers.com",
		"password":           "Cashier123",
		"confirm_password":   "Cashier123",
		"accept_terms":       true,
		"background_consent": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/v1/auth/login?type=staff", "", map[string]string{
		"email": "sam@freshgrocers.com", "password": "Cashier123", "staff_id": "CSH001",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var apps struct {
		Applications []struct {
			ID string `json:"id"`
		} `json:"applications"`
	}
	decode(t, h.do(http.MethodGet, "/api/v1/admin/staff/applications?status=pending", admin, nil), &apps)
	require.Len(t, apps.Applications, 1)

	rec = h.do(http.MethodPost, "/api/v1/admin/staff/applications/"+apps.Applications[0].ID+"/approve", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var member struct {
		StaffID    string `json:"staff_id"`
		ApprovedBy string `json:"approved_by"`
	}
	decode(t, rec, &member)
	assert.Equal(t, "CSH001", member.StaffID)
	assert.Equal(t, "System Administrator", member.ApprovedBy)

	rec = h.do(http.MethodPost, "/api/v1/admin/staff/applications/"+apps.Applications[0].ID+"/approve", admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	h.login("staff", map[string]string{"email": "sam@freshgrocers.com", "password": "Cashier123", "staff_id": "csh001"})
}

func TestOtherCustomersOrderIsHidden(t *testing.T) {
	h := newHarness(t)
	jane := h.customerToken()

	rec := h.do(http.MethodPost, "/api/v1/cart/buy-now", jane, map[string]interface{}{"product_id": h.productID("Broccoli"), "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = h.do(http.MethodPost, "/api/v1/orders", jane, map[string]string{"delivery_address": "12 Market Street", "agent_id": "AG003"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var placed struct {
		Order service.OrderView `json:"order"`
	}
	decode(t, rec, &placed)

	rec = h.do(http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"first_name": "John", "last_name": "Roe", "email": "john@example.com", "phone": "5550001111",
		"password": "Secret123", "confirm_password": "Secret123", "accept_terms": true,
		"address": map[string]string{"street": "1 Elm St", "city": "Springfield", "state": "IL", "zip_code": "62701"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	john := h.login("customer", map[string]string{"email": "john@example.com", "password": "Secret123"})

	rec = h.do(http.MethodGet, "/api/v1/orders/"+placed.Order.ID, john, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	admin := h.adminToken()
	var all struct {
		Total int `json:"total"`
	}
	decode(t, h.do(http.MethodGet, "/api/v1/admin/orders?q="+placed.Order.ID, admin, nil), &all)
	assert.Equal(t, 1, all.Total)

	rec = h.do(http.MethodGet, "/api/v1/admin/orders?status=lost", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportsRejectBadDates(t *testing.T) {
	h := newHarness(t)
	admin := h.adminToken()

	rec := h.do(http.MethodGet, "/api/v1/admin/reports?from=yesterday", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/admin/reports?from=2026-10-18&to=2026-10-01", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "start date must be before end date", errorOf(t, rec))

	rec = h.do(http.MethodGet, "/api/v1/admin/reports/export", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "report-")
	var doc service.ReportExport
	decode(t, rec, &doc)
	assert.NotEmpty(t, doc.DateRange.Start)
}

func TestAdminOrderHistory(t *testing.T) {
	h := newHarness(t)
	token := h.customerToken()

	rec := h.do(http.MethodPost, "/api/v1/cart/buy-now", token, map[string]interface{}{"product_id": h.productID("Bananas")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = h.do(http.MethodPost, "/api/v1/orders", token, map[string]string{"delivery_address": "12 Market Street", "agent_id": "AG001"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var placed struct {
		Order service.OrderView `json:"order"`
	}
	decode(t, rec, &placed)

	admin := h.adminToken()
	rec = h.do(http.MethodGet, "/api/v1/admin/orders/"+placed.Order.ID+"/history", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var history repository.OrderHistory
	decode(t, rec, &history)
	assert.Equal(t, placed.Order.ID, history.OrderID)
	require.Len(t, history.Audit, 1)
	assert.Equal(t, "create_order", history.Audit[0].Action)

	rec = h.do(http.MethodGet, "/api/v1/admin/orders/ORD-00000000-0000/history", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/admin/orders/"+placed.Order.ID+"/history", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
