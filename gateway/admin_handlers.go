package gateway

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/freshgrocers/pkg/export"
	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/example/freshgrocers/pkg/service"
	"github.com/gin-gonic/gin"
)

const dayLayout = "2006-01-02"

type stockRequest struct {
	Stock *int `json:"stock"`
}

type agentStatusRequest struct {
	Status models.AgentStatus `json:"status"`
}

func (g *Gateway) dashboard(c *gin.Context) {
	dash, err := g.svc.Reports.Dashboard(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func productFilter(c *gin.Context) repository.ProductFilter {
	category := c.Query("category")
	if category == "all" {
		category = ""
	}
	status := models.StockStatus(c.Query("status"))
	if status == "all" {
		status = ""
	}
	return repository.ProductFilter{Category: category, StockStatus: status, Search: c.Query("q")}
}

func (g *Gateway) listProducts(c *gin.Context) {
	products, err := g.svc.Inventory.List(c.Request.Context(), productFilter(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

func (g *Gateway) createProduct(c *gin.Context) {
	var req service.ProductRequest
	if !g.bind(c, &req) {
		return
	}
	product, err := g.svc.Inventory.Create(c.Request.Context(), &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.NewProductView(*product))
}

func (g *Gateway) updateProduct(c *gin.Context) {
	id, ok := g.productIDParam(c, "id")
	if !ok {
		return
	}
	var req service.ProductRequest
	if !g.bind(c, &req) {
		return
	}
	product, err := g.svc.Inventory.Update(c.Request.Context(), id, &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewProductView(*product))
}

func (g *Gateway) deleteProduct(c *gin.Context) {
	id, ok := g.productIDParam(c, "id")
	if !ok {
		return
	}
	if err := g.svc.Inventory.Delete(c.Request.Context(), id); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) adjustStock(c *gin.Context) {
	id, ok := g.productIDParam(c, "id")
	if !ok {
		return
	}
	var req stockRequest
	if !g.bind(c, &req) {
		return
	}
	if req.Stock == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stock is required"})
		return
	}
	product, err := g.svc.Inventory.AdjustStock(c.Request.Context(), id, *req.Stock)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, service.NewProductView(*product))
}

func (g *Gateway) productStats(c *gin.Context) {
	stats, err := g.svc.Inventory.Stats(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// exportProducts downloads the filtered inventory as ?format=csv (default)
// or xlsx.
func (g *Gateway) exportProducts(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	views, err := g.svc.Inventory.List(c.Request.Context(), productFilter(c))
	if err != nil {
		g.fail(c, err)
		return
	}
	products := make([]models.Product, len(views))
	for i, v := range views {
		products[i] = v.Product
	}

	var buf bytes.Buffer
	contentType := export.ContentTypeCSV
	if format == "xlsx" {
		contentType = export.ContentTypeXLSX
		err = export.InventoryXLSX(&buf, products)
	} else {
		err = export.InventoryCSV(&buf, products)
	}
	if err != nil {
		g.fail(c, err)
		return
	}

	filename := export.Filename(g.now().Format(dayLayout), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (g *Gateway) listStaff(c *gin.Context) {
	filter := repository.StaffFilter{
		Role:   models.StaffRole(c.Query("role")),
		Status: models.StaffStatus(c.Query("status")),
		Search: c.Query("q"),
	}
	if filter.Role == "all" {
		filter.Role = ""
	}
	if filter.Status == "all" {
		filter.Status = ""
	}
	staff, err := g.svc.Staff.List(c.Request.Context(), filter)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff, "total": len(staff)})
}

func (g *Gateway) addStaff(c *gin.Context) {
	var req service.AddStaffRequest
	if !g.bind(c, &req) {
		return
	}
	staff, err := g.svc.Staff.Add(c.Request.Context(), &req)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, staff)
}

func (g *Gateway) staffStats(c *gin.Context) {
	stats, err := g.svc.Staff.Stats(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (g *Gateway) listApplications(c *gin.Context) {
	status := models.ApplicationStatus(c.Query("status"))
	if status == "all" {
		status = ""
	}
	apps, err := g.svc.Staff.ListApplications(c.Request.Context(), status)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applications": apps, "total": len(apps)})
}

func (g *Gateway) approveApplication(c *gin.Context) {
	staff, err := g.svc.Staff.Approve(c.Request.Context(), c.Param("id"), sessionFrom(c).Name)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

func (g *Gateway) rejectApplication(c *gin.Context) {
	app, err := g.svc.Staff.Reject(c.Request.Context(), c.Param("id"), sessionFrom(c).Name)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

func (g *Gateway) toggleStaff(c *gin.Context) {
	staff, err := g.svc.Staff.ToggleStatus(c.Request.Context(), c.Param("staffId"))
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

func (g *Gateway) resetStaffPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if !g.bind(c, &req) {
		return
	}
	if err := g.svc.Staff.ResetPassword(c.Request.Context(), c.Param("staffId"), &req); err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (g *Gateway) listAllOrders(c *gin.Context) {
	status, ok := parseStatus(c)
	if !ok {
		return
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	orders, err := g.svc.Orders.ListOrders(c.Request.Context(), service.OrderQuery{
		CustomerID: c.Query("customer_id"),
		Status:     status,
		Search:     c.Query("q"),
		From:       from,
		To:         to,
	})
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": len(orders)})
}

func (g *Gateway) orderHistory(c *gin.Context) {
	if g.svc.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "order history is not available"})
		return
	}
	id := c.Param("id")
	if _, err := g.svc.Orders.GetOrder(c.Request.Context(), id); err != nil {
		g.fail(c, err)
		return
	}
	history, err := g.svc.History.OrderHistory(c.Request.Context(), id)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (g *Gateway) deliveryDashboard(c *gin.Context) {
	dash, err := g.svc.Delivery.Dashboard(c.Request.Context())
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (g *Gateway) listAgents(c *gin.Context) {
	status := models.AgentStatus(c.Query("status"))
	if status == "all" {
		status = ""
	}
	agents, err := g.svc.Delivery.Agents(c.Request.Context(), status)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (g *Gateway) updateAgentStatus(c *gin.Context) {
	var req agentStatusRequest
	if !g.bind(c, &req) {
		return
	}
	agent, err := g.svc.Delivery.UpdateAgentStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, agent)
}

// parseRange reads ?from=YYYY-MM-DD&to=YYYY-MM-DD. Both days are inclusive;
// missing bounds are left zero.
func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	var from, to time.Time
	if s := c.Query("from"); s != "" {
		t, err := time.ParseInLocation(dayLayout, s, time.Local)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be a date (YYYY-MM-DD)"})
			return from, to, false
		}
		from = t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.ParseInLocation(dayLayout, s, time.Local)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be a date (YYYY-MM-DD)"})
			return from, to, false
		}
		to = t.AddDate(0, 0, 1)
	}
	return from, to, true
}

func (g *Gateway) report(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	report, err := g.svc.Reports.Generate(c.Request.Context(), from, to)
	if err != nil {
		g.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (g *Gateway) exportReport(c *gin.Context) {
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	doc, err := g.svc.Reports.Export(c.Request.Context(), from, to)
	if err != nil {
		g.fail(c, err)
		return
	}
	filename := fmt.Sprintf("report-%s.json", g.now().Format(dayLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, doc)
}
