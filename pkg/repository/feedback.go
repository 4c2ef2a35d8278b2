package repository

import (
	"context"

	"github.com/example/freshgrocers/pkg/models"
	"gorm.io/gorm"
)

// FeedbackRepository is append-only.
type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, f *models.Feedback) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *FeedbackRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.Feedback, error) {
	var out []models.Feedback
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *FeedbackRepository) RatedOrderIDs(ctx context.Context, customerID string) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Feedback{}).
		Where("customer_id = ? AND type = ?", customerID, models.FeedbackOrder).
		Pluck("order_id", &ids).Error
	if err != nil {
		return nil, err
	}
	rated := make(map[string]bool, len(ids))
	for _, id := range ids {
		rated[id] = true
	}
	return rated, nil
}
