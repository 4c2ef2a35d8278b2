package service

import (
	"context"
	"fmt"
	"time"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"go.uber.org/zap"
)

type DeliveryStats struct {
	ActiveDeliveries int `json:"active_deliveries"`
	AvailableAgents  int `json:"available_agents"`
	DeliveredToday   int `json:"delivered_today"`
}

type DeliveryDashboard struct {
	Stats  DeliveryStats          `json:"stats"`
	Active []OrderView            `json:"active"`
	Agents []models.DeliveryAgent `json:"agents"`
}

type DeliveryService struct {
	agents *repository.AgentRepository
	orders OrderAPI
	logger *zap.Logger
	now    Clock
}

func NewDeliveryService(agents *repository.AgentRepository, orders OrderAPI, logger *zap.Logger) *DeliveryService {
	return &DeliveryService{
		agents: agents,
		orders: orders,
		logger: logger.Named("delivery"),
		now:    time.Now,
	}
}

func (s *DeliveryService) Agents(ctx context.Context, status models.AgentStatus) ([]models.DeliveryAgent, error) {
	if status != "" && !status.Valid() {
		return nil, invalid("unknown agent status %q", status)
	}
	return s.agents.List(ctx, status)
}

func (s *DeliveryService) UpdateAgentStatus(ctx context.Context, id string, status models.AgentStatus) (*models.DeliveryAgent, error) {
	if !status.Valid() {
		return nil, invalid("unknown agent status %q", status)
	}
	if err := s.agents.UpdateStatus(ctx, id, status); err != nil {
		return nil, notFound(err, "agent", id)
	}
	s.logger.Info("Agent status changed", zap.String("agent_id", id), zap.String("status", string(status)))
	agent, err := s.agents.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "agent", id)
	}
	return agent, nil
}

// Dashboard lists orders still on their way, the agents, and the day's counts.
func (s *DeliveryService) Dashboard(ctx context.Context) (*DeliveryDashboard, error) {
	orders, err := s.orders.ListOrders(ctx, OrderQuery{})
	if err != nil {
		return nil, err
	}
	agents, err := s.agents.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	now := s.now()
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	dash := &DeliveryDashboard{Active: []OrderView{}, Agents: agents}
	for _, o := range orders {
		if o.Status != models.OrderStatusDelivered {
			dash.Active = append(dash.Active, o)
			continue
		}
		if o.DeliveredAt != nil && !o.DeliveredAt.Before(startOfDay) {
			dash.Stats.DeliveredToday++
		}
	}
	dash.Stats.ActiveDeliveries = len(dash.Active)
	for _, a := range agents {
		if a.Status == models.AgentAvailable {
			dash.Stats.AvailableAgents++
		}
	}
	return dash, nil
}
