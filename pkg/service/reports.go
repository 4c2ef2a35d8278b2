package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultReportDays = 30
	topProductsLimit  = 5
	recentOrdersLimit = 5
)

type SalesMetrics struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalOrders    int     `json:"total_orders"`
	TotalCustomers int     `json:"total_customers"`
	AverageOrder   float64 `json:"average_order"`
}

type CategorySales struct {
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type ProductSales struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

type AgentDeliveries struct {
	AgentID   string  `json:"agent_id"`
	Name      string  `json:"name"`
	Orders    int     `json:"orders"`
	Delivered int     `json:"delivered"`
	Rating    float64 `json:"rating"`
}

type InventoryReport struct {
	InventoryStats
	LowStockItems []ProductView `json:"low_stock_items"`
}

type Report struct {
	From        time.Time         `json:"from"`
	To          time.Time         `json:"to"`
	Metrics     SalesMetrics      `json:"metrics"`
	Categories  []CategorySales   `json:"categories"`
	TopProducts []ProductSales    `json:"top_products"`
	Inventory   InventoryReport   `json:"inventory"`
	Deliveries  []AgentDeliveries `json:"deliveries"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ReportExport is the downloadable summary of a report.
type ReportExport struct {
	Metrics    SalesMetrics `json:"metrics"`
	ExportDate time.Time    `json:"export_date"`
	DateRange  DateRange    `json:"date_range"`
}

type Dashboard struct {
	TotalOrders     int           `json:"total_orders"`
	LowStockAlerts  int           `json:"low_stock_alerts"`
	AvailableAgents int           `json:"available_agents"`
	TodayRevenue    float64       `json:"today_revenue"`
	RecentOrders    []OrderView   `json:"recent_orders"`
	LowStockItems   []ProductView `json:"low_stock_items"`
}

type ReportService struct {
	orders   OrderAPI
	products *repository.ProductRepository
	agents   *repository.AgentRepository
	logger   *zap.Logger
	now      Clock
}

func NewReportService(orders OrderAPI, products *repository.ProductRepository, agents *repository.AgentRepository, logger *zap.Logger) *ReportService {
	return &ReportService{
		orders:   orders,
		products: products,
		agents:   agents,
		logger:   logger.Named("reports"),
		now:      time.Now,
	}
}

// normalizeRange defaults to the last 30 days. to is exclusive.
func (s *ReportService) normalizeRange(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultReportDays)
	}
	if !from.Before(to) {
		return from, to, invalid("start date must be before end date")
	}
	return from, to, nil
}

func (s *ReportService) Generate(ctx context.Context, from, to time.Time) (*Report, error) {
	from, to, err := s.normalizeRange(from, to)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListOrders(ctx, OrderQuery{From: from, To: to})
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	agents, err := s.agents.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	report := &Report{
		From:       from,
		To:         to,
		Metrics:    salesMetrics(orders),
		Inventory:  inventoryReport(products),
		Deliveries: agentDeliveries(orders, agents),
	}
	report.Categories, report.TopProducts = itemSales(orders, products)
	return report, nil
}

func (s *ReportService) Export(ctx context.Context, from, to time.Time) (*ReportExport, error) {
	report, err := s.Generate(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &ReportExport{
		Metrics:    report.Metrics,
		ExportDate: s.now().UTC(),
		DateRange: DateRange{
			Start: report.From.Format("2006-01-02"),
			End:   report.To.Format("2006-01-02"),
		},
	}, nil
}

func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	orders, err := s.orders.ListOrders(ctx, OrderQuery{})
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	available, err := s.agents.List(ctx, models.AgentAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	now := s.now()
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	dash := &Dashboard{
		TotalOrders:     len(orders),
		AvailableAgents: len(available),
		LowStockItems:   lowStock(products),
	}
	dash.LowStockAlerts = len(dash.LowStockItems)

	revenue := decimal.Zero
	for _, o := range orders {
		if !o.PlacedAt.Before(startOfDay) {
			revenue = revenue.Add(decimal.NewFromFloat(o.Total))
		}
	}
	dash.TodayRevenue = revenue.Round(2).InexactFloat64()

	// Orders come newest first.
	n := len(orders)
	if n > recentOrdersLimit {
		n = recentOrdersLimit
	}
	dash.RecentOrders = orders[:n]
	return dash, nil
}

func salesMetrics(orders []OrderView) SalesMetrics {
	revenue := decimal.Zero
	customers := make(map[string]struct{})
	for _, o := range orders {
		revenue = revenue.Add(decimal.NewFromFloat(o.Total))
		customers[o.CustomerID] = struct{}{}
	}
	m := SalesMetrics{
		TotalRevenue:   revenue.Round(2).InexactFloat64(),
		TotalOrders:    len(orders),
		TotalCustomers: len(customers),
	}
	if len(orders) > 0 {
		m.AverageOrder = revenue.Div(decimal.NewFromInt(int64(len(orders)))).Round(2).InexactFloat64()
	}
	return m
}

// lowStock lists products at or below their threshold, out of stock included.
func lowStock(products []models.Product) []ProductView {
	out := []ProductView{}
	for _, p := range products {
		if p.StockStatus() != models.StockInStock {
			out = append(out, NewProductView(p))
		}
	}
	return out
}

func inventoryReport(products []models.Product) InventoryReport {
	return InventoryReport{
		InventoryStats: *inventoryStats(products),
		LowStockItems:  lowStock(products),
	}
}

func itemSales(orders []OrderView, products []models.Product) ([]CategorySales, []ProductSales) {
	categoryOf := make(map[int64]string, len(products))
	for _, p := range products {
		categoryOf[p.ID] = p.Category
	}

	type totals struct {
		name     string
		quantity int
		revenue  decimal.Decimal
	}
	byCategory := make(map[string]*totals)
	byProduct := make(map[int64]*totals)
	add := func(m *totals, qty int, amount decimal.Decimal) {
		m.quantity += qty
		m.revenue = m.revenue.Add(amount)
	}

	for _, o := range orders {
		for _, item := range o.Items {
			amount := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
			category, ok := categoryOf[item.ProductID]
			if !ok {
				category = "other"
			}
			if byCategory[category] == nil {
				byCategory[category] = &totals{name: category}
			}
			add(byCategory[category], item.Quantity, amount)
			if byProduct[item.ProductID] == nil {
				byProduct[item.ProductID] = &totals{name: item.Name}
			}
			add(byProduct[item.ProductID], item.Quantity, amount)
		}
	}

	categories := make([]CategorySales, 0, len(byCategory))
	for _, t := range byCategory {
		categories = append(categories, CategorySales{
			Category: t.name,
			Quantity: t.quantity,
			Revenue:  t.revenue.Round(2).InexactFloat64(),
		})
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Revenue != categories[j].Revenue {
			return categories[i].Revenue > categories[j].Revenue
		}
		return categories[i].Category < categories[j].Category
	})

	top := make([]ProductSales, 0, len(byProduct))
	for id, t := range byProduct {
		top = append(top, ProductSales{
			ProductID: id,
			Name:      t.name,
			Quantity:  t.quantity,
			Revenue:   t.revenue.Round(2).InexactFloat64(),
		})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Quantity != top[j].Quantity {
			return top[i].Quantity > top[j].Quantity
		}
		return top[i].ProductID < top[j].ProductID
	})
	if len(top) > topProductsLimit {
		top = top[:topProductsLimit]
	}
	return categories, top
}

func agentDeliveries(orders []OrderView, agents []models.DeliveryAgent) []AgentDeliveries {
	index := make(map[string]int, len(agents))
	out := make([]AgentDeliveries, len(agents))
	for i, a := range agents {
		index[a.ID] = i
		out[i] = AgentDeliveries{AgentID: a.ID, Name: a.Name, Rating: a.Rating}
	}
	for _, o := range orders {
		i, ok := index[o.AgentID]
		if !ok {
			index[o.AgentID] = len(out)
			out = append(out, AgentDeliveries{AgentID: o.AgentID, Name: o.AgentName})
			i = len(out) - 1
		}
		out[i].Orders++
		if o.Status == models.OrderStatusDelivered {
			out[i].Delivered++
		}
	}
	return out
}
