package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductRequest struct {
	Name              string  `json:"name" validate:"required"`
	Category          string  `json:"category" validate:"required"`
	Price             float64 `json:"price" validate:"gte=0"`
	Stock             int     `json:"stock" validate:"gte=0"`
	LowStockThreshold int     `json:"low_stock_threshold" validate:"gte=0"`
	Emoji             string  `json:"emoji"`
	Description       string  `json:"description"`
	Supplier          string  `json:"supplier"`
}

// ProductView adds the derived stock fields to a product.
type ProductView struct {
	models.Product
	InStock     bool               `json:"in_stock"`
	StockStatus models.StockStatus `json:"stock_status"`
	StatusLabel string             `json:"status_label"`
}

func NewProductView(p models.Product) ProductView {
	status := p.StockStatus()
	return ProductView{
		Product:     p,
		InStock:     p.InStock(),
		StockStatus: status,
		StatusLabel: status.Label(),
	}
}

type InventoryStats struct {
	TotalProducts int     `json:"total_products"`
	LowStock      int     `json:"low_stock"`
	OutOfStock    int     `json:"out_of_stock"`
	TotalValue    float64 `json:"total_value"`
}

type InventoryService struct {
	products *repository.ProductRepository
	logger   *zap.Logger
}

func NewInventoryService(products *repository.ProductRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{
		products: products,
		logger:   logger.Named("inventory"),
	}
}

func (s *InventoryService) List(ctx context.Context, filter repository.ProductFilter) ([]ProductView, error) {
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	views := make([]ProductView, len(products))
	for i, p := range products {
		views[i] = NewProductView(p)
	}
	return views, nil
}

// Catalog is the customer view of the shelves.
func (s *InventoryService) Catalog(ctx context.Context, category, search string) ([]ProductView, error) {
	if category == "all" {
		category = ""
	}
	return s.List(ctx, repository.ProductFilter{Category: category, Search: search})
}

func (s *InventoryService) Get(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "product", id)
	}
	return p, nil
}

func (req *ProductRequest) normalize() error {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))
	return validateStruct(req)
}

func (req *ProductRequest) apply(p *models.Product) {
	p.Name = req.Name
	p.Category = req.Category
	p.Price = decimal.NewFromFloat(req.Price).Round(2).InexactFloat64()
	p.Stock = req.Stock
	p.LowStockThreshold = req.LowStockThreshold
	p.Emoji = strings.TrimSpace(req.Emoji)
	p.Description = strings.TrimSpace(req.Description)
	p.Supplier = strings.TrimSpace(req.Supplier)
}

func (s *InventoryService) Create(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	p := &models.Product{}
	req.apply(p)
	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.logger.Info("Product added", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *InventoryService) Update(ctx context.Context, id int64, req *ProductRequest) (*models.Product, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(p)
	if err := s.products.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	s.logger.Info("Product updated", zap.Int64("product_id", p.ID))
	return p, nil
}

func (s *InventoryService) AdjustStock(ctx context.Context, id int64, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, invalid("stock must be at least 0")
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Stock = stock
	if err := s.products.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}
	s.logger.Info("Stock adjusted", zap.Int64("product_id", p.ID), zap.Int("stock", stock))
	return p, nil
}

// Delete removes exactly one product.
func (s *InventoryService) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return notFound(err, "product", id)
	}
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func (s *InventoryService) Stats(ctx context.Context) (*InventoryStats, error) {
	products, err := s.products.List(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return inventoryStats(products), nil
}

func inventoryStats(products []models.Product) *InventoryStats {
	stats := &InventoryStats{TotalProducts: len(products)}
	value := decimal.Zero
	for i := range products {
		p := &products[i]
		switch p.StockStatus() {
		case models.StockLow:
			stats.LowStock++
		case models.StockOutOfStock:
			stats.OutOfStock++
		}
		value = value.Add(decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(p.Stock))))
	}
	stats.TotalValue = value.Round(2).InexactFloat64()
	return stats
}
