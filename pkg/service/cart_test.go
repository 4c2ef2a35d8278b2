package service

import (
	"testing"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartAdd(t *testing.T) {
	f := newFixture(t)
	f.seed()
	carts := f.cartService(f.orderService())
	bananas := f.productID("Organic Bananas")

	view, err := carts.Add(f.ctx, "s1", bananas, 2)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, models.CartItem{ProductID: bananas, Name: "Organic Bananas", Price: 2.99, Emoji: "🍌", Quantity: 2}, view.Items[0])
	assert.Equal(t, 5.98, view.Subtotal)

	view, err = carts.Add(f.ctx, "s1", bananas, 9)
	require.NoError(t, err)
	assert.Equal(t, MaxLineQuantity, view.Items[0].Quantity)

	// Price changes after the snapshot do not touch the cart.
	p, err := f.products.Get(f.ctx, bananas)
	require.NoError(t, err)
	p.Price = 9.99
	require.NoError(t, f.products.Save(f.ctx, p))
	got, err := carts.Get(f.ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2.99, got.Items[0].Price)
}

func TestCartAddRejects(t *testing.T) {
	f := newFixture(t)
	f.seed()
	carts := f.cartService(f.orderService())

	_, err := carts.Add(f.ctx, "s1", f.productID("Carrots"), 0)
	assert.True(t, IsValidation(err))
	_, err = carts.Add(f.ctx, "s1", f.productID("Carrots"), 11)
	assert.True(t, IsValidation(err))
	_, err = carts.Add(f.ctx, "s1", f.productID("Fresh Milk"), 1)
	assert.EqualError(t, err, "Fresh Milk is out of stock")
	_, err = carts.Add(f.ctx, "s1", 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	view, err := carts.Get(f.ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartSetQuantityAndRemove(t *testing.T) {
	f := newFixture(t)
	f.seed()
	carts := f.cartService(f.orderService())
	carrots := f.productID("Carrots")
	bread := f.productID("Whole Wheat Bread")

	_, err := carts.Add(f.ctx, "s1", carrots, 1)
	require.NoError(t, err)
	_, err = carts.Add(f.ctx, "s1", bread, 1)
	require.NoError(t, err)

	view, err := carts.SetQuantity(f.ctx, "s1", carrots, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, view.Items[0].Quantity)

	_, err = carts.SetQuantity(f.ctx, "s1", carrots, 11)
	assert.True(t, IsValidation(err))

	view, err = carts.SetQuantity(f.ctx, "s1", carrots, 0)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, bread, view.Items[0].ProductID)

	_, err = carts.Remove(f.ctx, "s1", carrots)
	assert.ErrorIs(t, err, ErrNotFound)

	view, err = carts.BuyNow(f.ctx, "s1", carrots, 3)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, carrots, view.Items[0].ProductID)
	assert.Equal(t, 3, view.Items[0].Quantity)

	require.NoError(t, carts.Clear(f.ctx, "s1"))
	view, err = carts.Get(f.ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	f.seed()
	orders := f.orderService()
	carts := f.cartService(orders)
	session := &models.Session{ID: "s1", UserID: "CUST-1", Name: "Jane Doe", Email: "jane@example.com", UserType: models.UserTypeCustomer}

	_, err := carts.Add(f.ctx, "s1", f.productID("Organic Bananas"), 2)
	require.NoError(t, err)

	// A rejected checkout keeps the cart.
	_, err = carts.Checkout(f.ctx, session, CheckoutRequest{AgentID: "AG001"})
	require.Error(t, err)
	view, err := carts.Get(f.ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	order, err := carts.Checkout(f.ctx, session, CheckoutRequest{DeliveryAddress: "12 Market Street", AgentID: "AG003"})
	require.NoError(t, err)
	assert.Equal(t, "Sarah Wilson", order.AgentName)
	assert.Equal(t, 5.98, order.Subtotal)

	view, err = carts.Get(f.ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	stored, err := f.orderRepo.List(f.ctx, repository.OrderFilter{CustomerID: "CUST-1"})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestReorder(t *testing.T) {
	f := newFixture(t)
	f.seed()
	orders := f.orderService()
	carts := f.cartService(orders)
	placed := f.placeOrder(orders, "CUST-1", bananasAndMilk...)

	view, err := carts.Reorder(f.ctx, &models.Session{ID: "s1", UserID: "CUST-1"}, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, bananasAndMilk, view.Items)
	assert.Equal(t, 15.08, view.Total)

	_, err = carts.Reorder(f.ctx, &models.Session{ID: "s2", UserID: "CUST-2"}, placed.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
