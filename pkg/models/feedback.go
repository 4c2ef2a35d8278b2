package models

import "time"

type FeedbackType string

const (
	FeedbackGeneral FeedbackType = "general"
	FeedbackOrder   FeedbackType = "order"
)

type Feedback struct {
	ID             string       `gorm:"primaryKey;type:varchar(40)" json:"id"`
	Type           FeedbackType `gorm:"type:varchar(10);not null" json:"type"`
	CustomerID     string       `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	OrderID        string       `gorm:"type:varchar(32);index" json:"order_id,omitempty"`
	Rating         int          `gorm:"not null" json:"rating"`
	QualityRating  int          `json:"quality_rating,omitempty"`
	DeliveryRating int          `json:"delivery_rating,omitempty"`
	ServiceRating  int          `json:"service_rating,omitempty"`
	Comment        string       `gorm:"type:text" json:"comment,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (Feedback) TableName() string {
	return "feedback"
}
