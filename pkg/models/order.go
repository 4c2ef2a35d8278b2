package models

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusInTransit OrderStatus = "in_transit"
	OrderStatusDelivered OrderStatus = "delivered"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusInTransit, OrderStatusDelivered:
		return true
	}
	return false
}

// Order has no status column: status is derived from PlacedAt when read.
type Order struct {
	ID              string      `gorm:"primaryKey;type:varchar(32)" json:"id"`
	OrderNumber     int         `gorm:"not null" json:"order_number"`
	CustomerID      string      `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	Items           []OrderItem `gorm:"type:text;serializer:json" json:"items"`
	DeliveryAddress string      `gorm:"type:varchar(500);not null" json:"delivery_address"`
	DeliveryNotes   string      `gorm:"type:text" json:"delivery_notes,omitempty"`
	AgentID         string      `gorm:"type:varchar(16);not null;index" json:"agent_id"`
	AgentName       string      `gorm:"type:varchar(200)" json:"agent_name"`
	Subtotal        float64     `gorm:"type:decimal(10,2)" json:"subtotal"`
	DeliveryFee     float64     `gorm:"type:decimal(10,2)" json:"delivery_fee"`
	Tax             float64     `gorm:"type:decimal(10,2)" json:"tax"`
	Total           float64     `gorm:"type:decimal(10,2)" json:"total"`
	PaymentMethod   string      `gorm:"type:varchar(50)" json:"payment_method"`
	PlacedAt        time.Time   `gorm:"not null;index" json:"placed_at"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Emoji     string  `json:"emoji,omitempty"`
}

// CartItem is the product snapshot held in a cart before checkout.
type CartItem = OrderItem
