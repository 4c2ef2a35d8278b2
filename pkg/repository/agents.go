package repository

import (
	"context"

	"github.com/example/freshgrocers/pkg/models"
	"gorm.io/gorm"
)

type AgentRepository struct {
	db *gorm.DB
}

func NewAgentRepository(db *gorm.DB) *AgentRepository {
	return &AgentRepository{db: db}
}

func (r *AgentRepository) Get(ctx context.Context, id string) (*models.DeliveryAgent, error) {
	var a models.DeliveryAgent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *AgentRepository) List(ctx context.Context, status models.AgentStatus) ([]models.DeliveryAgent, error) {
	query := r.db.WithContext(ctx).Model(&models.DeliveryAgent{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var agents []models.DeliveryAgent
	if err := query.Order("id").Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *AgentRepository) UpdateStatus(ctx context.Context, id string, status models.AgentStatus) error {
	agent, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(agent).Update("status", status).Error
}

func (r *AgentRepository) Create(ctx context.Context, a *models.DeliveryAgent) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AgentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.DeliveryAgent{}).Count(&n).Error
	return n, err
}
