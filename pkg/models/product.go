package models

import "time"

type StockStatus string

const (
	StockInStock    StockStatus = "in_stock"
	StockLow        StockStatus = "low_stock"
	StockOutOfStock StockStatus = "out_of_stock"
)

// Label is the text shown in inventory tables and exports.
func (s StockStatus) Label() string {
	switch s {
	case StockOutOfStock:
		return "Out of Stock"
	case StockLow:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

type Product struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string    `gorm:"type:varchar(200);not null" json:"name"`
	Category          string    `gorm:"type:varchar(50);not null;index" json:"category"`
	Price             float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock             int       `gorm:"not null" json:"stock"`
	LowStockThreshold int       `gorm:"not null;default:0" json:"low_stock_threshold"`
	Emoji             string    `gorm:"type:varchar(16)" json:"emoji,omitempty"`
	Description       string    `gorm:"type:text" json:"description,omitempty"`
	Supplier          string    `gorm:"type:varchar(200)" json:"supplier,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) StockStatus() StockStatus {
	switch {
	case p.Stock <= 0:
		return StockOutOfStock
	case p.Stock <= p.LowStockThreshold:
		return StockLow
	default:
		return StockInStock
	}
}

func (p *Product) InStock() bool {
	return p.Stock > 0
}
