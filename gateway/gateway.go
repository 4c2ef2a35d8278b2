package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/example/freshgrocers/pkg/config"
	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/example/freshgrocers/pkg/service"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// HistoryReader returns the audit entries and notifications of an order.
type HistoryReader interface {
	OrderHistory(ctx context.Context, orderID string) (*repository.OrderHistory, error)
}

// Services are the handlers' dependencies. Orders is either the in-process
// OrderService or the gRPC client of the order service. History is nil when
// MongoDB is not connected.
type Services struct {
	Auth      *service.AuthService
	Cart      *service.CartService
	Orders    service.OrderAPI
	Inventory *service.InventoryService
	Staff     *service.StaffService
	Feedback  *service.FeedbackService
	Delivery  *service.DeliveryService
	Reports   *service.ReportService
	History   HistoryReader
}

type Gateway struct {
	config *config.Config
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
	svc    Services
	now    service.Clock
}

func NewGateway(cfg *config.Config, logger *zap.Logger, svc Services) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Gateway{
		config: cfg,
		logger: logger,
		router: router,
		svc:    svc,
		now:    time.Now,
	}
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := g.router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", g.register)
			auth.POST("/login", g.login)
			anyUser := RequireUserType(g.svc.Auth, models.UserTypeCustomer, models.UserTypeAdmin)
			auth.POST("/logout", anyUser, g.logout)
			auth.GET("/me", anyUser, g.me)
		}

		v1.POST("/staff/applications", g.applyForStaff)

		customer := v1.Group("")
		customer.Use(RequireUserType(g.svc.Auth, models.UserTypeCustomer))
		{
			customer.GET("/catalog", g.catalog)

			customer.GET("/cart", g.getCart)
			customer.POST("/cart/items", g.addToCart)
			customer.PUT("/cart/items/:productId", g.setCartQuantity)
			customer.DELETE("/cart/items/:productId", g.removeFromCart)
			customer.DELETE("/cart", g.clearCart)
			customer.POST("/cart/buy-now", g.buyNow)

			customer.POST("/orders", g.checkout)
			customer.GET("/orders", g.listMyOrders)
			customer.GET("/orders/:id", g.getMyOrder)
			customer.GET("/orders/:id/track", g.trackOrder)
			customer.POST("/orders/:id/reorder", g.reorder)
			customer.POST("/orders/:id/rating", g.rateOrder)

			customer.GET("/agents/available", g.availableAgents)

			customer.POST("/feedback", g.submitFeedback)
			customer.GET("/feedback", g.listFeedback)
			customer.GET("/feedback/pending", g.pendingRatings)
		}

		admin := v1.Group("/admin")
		admin.Use(RequireUserType(g.svc.Auth, models.UserTypeAdmin))
		{
			admin.GET("/dashboard", g.dashboard)

			admin.GET("/products", g.listProducts)
			admin.POST("/products", g.createProduct)
			admin.GET("/products/stats", g.productStats)
			admin.GET("/products/export", g.exportProducts)
			admin.PUT("/products/:id", g.updateProduct)
			admin.DELETE("/products/:id", g.deleteProduct)
			admin.POST("/products/:id/stock", g.adjustStock)

			admin.GET("/staff", g.listStaff)
			admin.POST("/staff", g.addStaff)
			admin.GET("/staff/stats", g.staffStats)
			admin.GET("/staff/applications", g.listApplications)
			admin.POST("/staff/applications/:id/approve", g.approveApplication)
			admin.POST("/staff/applications/:id/reject", g.rejectApplication)
			admin.POST("/staff/:staffId/toggle", g.toggleStaff)
			admin.POST("/staff/:staffId/password", g.resetStaffPassword)

			admin.GET("/orders", g.listAllOrders)
			admin.GET("/orders/:id/history", g.orderHistory)

			admin.GET("/delivery", g.deliveryDashboard)
			admin.GET("/delivery/agents", g.listAgents)
			admin.PUT("/delivery/agents/:id/status", g.updateAgentStatus)

			admin.GET("/reports", g.report)
			admin.GET("/reports/export", g.exportReport)
		}
	}

	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// Handler exposes the router, mainly for tests.
func (g *Gateway) Handler() http.Handler {
	return g.router
}

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Gateway.Host, g.config.Gateway.Port)
	g.server = &http.Server{Addr: addr, Handler: g.router}
	g.logger.Info("Gateway starting", zap.String("address", addr))
	if err := g.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	if g.server == nil {
		return nil
	}
	return g.server.Shutdown(ctx)
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
