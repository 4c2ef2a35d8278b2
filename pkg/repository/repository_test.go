package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/example/freshgrocers/pkg/config"
	"github.com/example/freshgrocers/pkg/models"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenDatabase(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func openTestRedis(t *testing.T) (*RedisRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	repo := NewRedisRepositoryFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { repo.Close() })
	return repo, mr
}

func TestProductDeleteRemovesExactlyOne(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(openTestDB(t))

	products := []*models.Product{
		{Name: "Organic Bananas", Category: "fruits", Price: 2.99, Stock: 45, LowStockThreshold: 10},
		{Name: "Fresh Apples", Category: "fruits", Price: 3.49, Stock: 8, LowStockThreshold: 15},
		{Name: "Fresh Milk", Category: "dairy", Price: 4.29, Stock: 0, LowStockThreshold: 5},
	}
	for _, p := range products {
		require.NoError(t, repo.Create(ctx, p))
	}
	before, err := repo.List(ctx, ProductFilter{})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, products[1].ID))
	assert.ErrorIs(t, repo.Delete(ctx, products[1].ID), ErrNotFound)

	after, err := repo.List(ctx, ProductFilter{})
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[1])
}

func TestProductListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewProductRepository(openTestDB(t))
	for _, p := range []*models.Product{
		{Name: "Organic Bananas", Category: "fruits", Price: 2.99, Stock: 45, LowStockThreshold: 10, Description: "local farms"},
		{Name: "Fresh Apples", Category: "fruits", Price: 3.49, Stock: 8, LowStockThreshold: 15},
		{Name: "Fresh Milk", Category: "dairy", Price: 4.29, Stock: 0, LowStockThreshold: 5},
	} {
		require.NoError(t, repo.Create(ctx, p))
	}

	tests := []struct {
		name   string
		filter ProductFilter
		want   []string
	}{
		{"category", ProductFilter{Category: "fruits"}, []string{"Organic Bananas", "Fresh Apples"}},
		{"in stock", ProductFilter{StockStatus: models.StockInStock}, []string{"Organic Bananas"}},
		{"low stock", ProductFilter{StockStatus: models.StockLow}, []string{"Fresh Apples"}},
		{"out of stock", ProductFilter{StockStatus: models.StockOutOfStock}, []string{"Fresh Milk"}},
		{"search name", ProductFilter{Search: "FRESH"}, []string{"Fresh Apples", "Fresh Milk"}},
		{"search description", ProductFilter{Search: "farms"}, []string{"Organic Bananas"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			var names []string
			for _, p := range got {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestOrderItemsStoredAsJSON(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(openTestDB(t))
	placed := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

	order := &models.Order{
		ID:              "ORD-20261018-0042",
		OrderNumber:     123456,
		CustomerID:      "CUST-1",
		Items:           []models.OrderItem{{ProductID: 1, Name: "Organic Bananas", Price: 2.99, Quantity: 2}},
		DeliveryAddress: "1 Main St",
		AgentID:         "AG001",
		PlacedAt:        placed,
	}
	require.NoError(t, repo.Create(ctx, order))

	exists, err := repo.Exists(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repo.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Items, got.Items)
	assert.True(t, placed.Equal(got.PlacedAt))

	_, err = repo.Get(ctx, "ORD-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := repo.List(ctx, OrderFilter{CustomerID: "CUST-2"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStaffListSearchAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewStaffRepository(openTestDB(t))
	for _, s := range []*models.Staff{
		{StaffID: "ADM001", Name: "System Administrator", Email: "admin@freshgrocers.com", Role: models.StaffRoleAdmin, Status: models.StaffStatusActive, PasswordHash: "x"},
		{StaffID: "STF001", Name: "Staff Member 1", Email: "staff1@freshgrocers.com", Role: models.StaffRoleStaff, Status: models.StaffStatusActive, PasswordHash: "x"},
		{StaffID: "STF002", Name: "Staff Member 2", Email: "staff2@freshgrocers.com", Role: models.StaffRoleStaff, Status: models.StaffStatusInactive, PasswordHash: "x"},
	} {
		require.NoError(t, repo.Create(ctx, s))
	}

	n, err := repo.CountByRole(ctx, models.StaffRoleStaff)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	got, err := repo.List(ctx, StaffFilter{Search: "stf", Status: models.StaffStatusActive})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "STF001", got[0].StaffID)

	found, err := repo.FindByEmail(ctx, "ADMIN@freshgrocers.com")
	require.NoError(t, err)
	assert.Equal(t, "ADM001", found.StaffID)
}

func TestAgentUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewAgentRepository(openTestDB(t))
	require.NoError(t, repo.Create(ctx, &models.DeliveryAgent{ID: "AG001", Name: "Mike Johnson", Status: models.AgentAvailable}))

	require.NoError(t, repo.UpdateStatus(ctx, "AG001", models.AgentBusy))
	agent, err := repo.Get(ctx, "AG001")
	require.NoError(t, err)
	assert.Equal(t, models.AgentBusy, agent.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "AG404", models.AgentBusy), ErrNotFound)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	r, mr := openTestRedis(t)
	store := NewSessionStore(r, time.Hour)

	session := &models.Session{ID: "s1", UserID: "CUST-1", UserType: models.UserTypeCustomer, LoginTime: time.Now().UTC()}
	require.NoError(t, store.Save(ctx, session))
	assert.Equal(t, time.Hour, mr.TTL("session:s1"))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "CUST-1", got.UserID)

	require.NoError(t, mr.Set("session:s2", "{not json"))
	_, err = store.Get(ctx, "s2")
	assert.ErrorIs(t, err, ErrCorrupted)
	assert.False(t, mr.Exists("session:s2"))

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartStore(t *testing.T) {
	ctx := context.Background()
	r, mr := openTestRedis(t)
	carts := NewCartStore(r, time.Hour)

	items, err := carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, items)

	want := []models.CartItem{{ProductID: 1, Name: "Organic Bananas", Price: 2.99, Quantity: 2}}
	require.NoError(t, carts.Save(ctx, "s1", want))
	items, err = carts.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, items)

	require.NoError(t, carts.Save(ctx, "s1", nil))
	assert.False(t, mr.Exists("cart:s1"))
}
