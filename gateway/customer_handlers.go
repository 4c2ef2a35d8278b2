package gateway

import (
	"net/http"
	"strconv"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/service"
	"github.com/gin-gonic/gin"
)

type cartLineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (g *Gateway) productIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return 0, false
	}
	return id, true
}

func (g *Gateway) catalog(c *gin.Context) {
	products, err := g.svc.Inventory.Catalog(c.Request.Context(), c.Query("category"), c.Query("q"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

func (g *Gateway) getCart(c *gin.Context) {
	cart, err := g.svc.Cart.Get(c.Request.Context(), sessionFrom(c).ID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// addToCart treats a missing quantity as one.
func (g *Gateway) addToCart(c *gin.Context) {
	var req cartLineRequest
	if !g.bind(c, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	cart, err := g.svc.Cart.Add(c.Request.Context(), sessionFrom(c).ID, req.ProductID, req.Quantity)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (g *Gateway) setCartQuantity(c *gin.Context) {
	productID, ok := g.productIDParam(c, "productId")
	if !ok {
		return
	}
	var req quantityRequest
	if !g.bind(c, &req) {
		return
	}
	cart, err := g.svc.Cart.SetQuantity(c.Request.Context(), sessionFrom(c).ID, productID, req.Quantity)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (g *Gateway) removeFromCart(c *gin.Context) {
	productID, ok := g.productIDParam(c, "productId")
	if !ok {
		return
	}
	cart, err := g.svc.Cart.Remove(c.Request.Context(), sessionFrom(c).ID, productID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (g *Gateway) clearCart(c *gin.Context) {
	if err := g.svc.Cart.Clear(c.Request.Context(), sessionFrom(c).ID); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) buyNow(c *gin.Context) {
	var req cartLineRequest
	if !g.bind(c, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	cart, err := g.svc.Cart.BuyNow(c.Request.Context(), sessionFrom(c).ID, req.ProductID, req.Quantity)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (g *Gateway) checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if !g.bind(c, &req) {
		return
	}
	order, err := g.svc.Cart.Checkout(c.Request.Context(), sessionFrom(c), req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"order":   order,
		"message": "Order placed successfully!",
	})
}

func parseStatus(c *gin.Context) (models.OrderStatus, bool) {
	status := models.OrderStatus(c.Query("status"))
	if status == "" || status == "all" {
		return "", true
	}
	if !status.Valid() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown order status " + strconv.Quote(string(status))})
		return "", false
	}
	return status, true
}

func (g *Gateway) listMyOrders(c *gin.Context) {
	status, ok := parseStatus(c)
	if !ok {
		return
	}
	orders, err := g.svc.Orders.ListOrders(c.Request.Context(), service.OrderQuery{
		CustomerID: sessionFrom(c).UserID,
		Status:     status,
		Search:     c.Query("q"),
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

// ownOrder loads an order of the session's customer. Other customers' orders
// are reported as missing.
func (g *Gateway) ownOrder(c *gin.Context) (*service.OrderView, bool) {
	id := c.Param("id")
	order, err := g.svc.Orders.GetOrder(c.Request.Context(), id)
	if err == nil && order.CustomerID != sessionFrom(c).UserID {
		err = service.ErrNotFound
	}
	if err != nil {
		g.fail(c, err)
		return nil, false
	}
	return order, true
}

func (g *Gateway) getMyOrder(c *gin.Context) {
	order, ok := g.ownOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

func (g *Gateway) trackOrder(c *gin.Context) {
	order, ok := g.ownOrder(c)
	if !ok {
		return
	}
	if order.PlacedAt.IsZero() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "order has no placement time"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order":    order,
		"timeline": service.Timeline(order.PlacedAt, g.now()),
	})
}

func (g *Gateway) reorder(c *gin.Context) {
	cart, err := g.svc.Cart.Reorder(c.Request.Context(), sessionFrom(c), c.Param("id"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (g *Gateway) availableAgents(c *gin.Context) {
	agents, err := g.svc.Delivery.Agents(c.Request.Context(), models.AgentAvailable)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (g *Gateway) submitFeedback(c *gin.Context) {
	var req service.QuickFeedbackRequest
	if !g.bind(c, &req) {
		return
	}
	fb, err := g.svc.Feedback.SubmitQuick(c.Request.Context(), sessionFrom(c).UserID, &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (g *Gateway) rateOrder(c *gin.Context) {
	var req service.OrderRatingRequest
	if !g.bind(c, &req) {
		return
	}
	fb, err := g.svc.Feedback.RateOrder(c.Request.Context(), sessionFrom(c).UserID, c.Param("id"), &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (g *Gateway) listFeedback(c *gin.Context) {
	list, err := g.svc.Feedback.List(c.Request.Context(), sessionFrom(c).UserID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": list})
}

func (g *Gateway) pendingRatings(c *gin.Context) {
	orders, err := g.svc.Feedback.PendingRatings(c.Request.Context(), sessionFrom(c).UserID)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
