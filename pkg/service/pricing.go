package service

import (
	"github.com/example/freshgrocers/pkg/config"
	"github.com/example/freshgrocers/pkg/models"
	"github.com/shopspring/decimal"
)

// freeDeliveryHintWindow is how far below the threshold the cart starts
// suggesting a top-up.
var freeDeliveryHintWindow = decimal.NewFromInt(5)

// Pricing is the financial breakdown of a cart or order, in dollars rounded to cents.
type Pricing struct {
	ItemCount    int     `json:"item_count"`
	Subtotal     float64 `json:"subtotal"`
	DeliveryFee  float64 `json:"delivery_fee"`
	Tax          float64 `json:"tax"`
	Total        float64 `json:"total"`
	FreeDelivery bool    `json:"free_delivery"`
	// AmountToFreeDelivery is set only when the subtotal is close to the threshold.
	AmountToFreeDelivery float64 `json:"amount_to_free_delivery,omitempty"`
}

// Calculator prices item lists. Cart previews and order placement share one
// instance so they always agree on the threshold comparison.
type Calculator struct {
	taxRate     decimal.Decimal
	deliveryFee decimal.Decimal
	threshold   decimal.Decimal
	inclusive   bool
}

func NewCalculator(cfg config.PricingConfig) *Calculator {
	return &Calculator{
		taxRate:     decimal.NewFromFloat(cfg.TaxRate),
		deliveryFee: decimal.NewFromFloat(cfg.DeliveryFee),
		threshold:   decimal.NewFromFloat(cfg.FreeDeliveryThreshold),
		inclusive:   cfg.FreeDeliveryInclusive,
	}
}

func (c *Calculator) qualifies(subtotal decimal.Decimal) bool {
	if c.inclusive {
		return subtotal.GreaterThanOrEqual(c.threshold)
	}
	return subtotal.GreaterThan(c.threshold)
}

func (c *Calculator) Price(items []models.OrderItem) Pricing {
	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
		count += item.Quantity
	}
	subtotal = subtotal.Round(2)

	fee := c.deliveryFee.Round(2)
	free := c.qualifies(subtotal)
	if free {
		fee = decimal.Zero
	}
	tax := subtotal.Mul(c.taxRate).Round(2)
	total := subtotal.Add(fee).Add(tax)

	p := Pricing{
		ItemCount:    count,
		Subtotal:     subtotal.InexactFloat64(),
		DeliveryFee:  fee.InexactFloat64(),
		Tax:          tax.InexactFloat64(),
		Total:        total.InexactFloat64(),
		FreeDelivery: free,
	}
	if !free && subtotal.GreaterThanOrEqual(c.threshold.Sub(freeDeliveryHintWindow)) {
		p.AmountToFreeDelivery = c.threshold.Sub(subtotal).InexactFloat64()
	}
	return p
}
