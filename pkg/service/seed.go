package service

import (
	"context"
	"fmt"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"go.uber.org/zap"
)

type seedStaff struct {
	id       string
	name     string
	email    string
	password string
	role     models.StaffRole
}

var defaultStaff = []seedStaff{
	{"ADM001", "System Administrator", "admin@freshgrocers.com", "admin123", models.StaffRoleAdmin},
	{"MGR001", "Store Manager", "manager@freshgrocers.com", "manager123", models.StaffRoleManager},
	{"STF001", "Staff Member 1", "staff1@freshgrocers.com", "staff123", models.StaffRoleStaff},
	{"STF002", "Staff Member 2", "staff2@freshgrocers.com", "staff123", models.StaffRoleStaff},
}

var defaultAgents = []models.DeliveryAgent{
	{ID: "AG001", Name: "Mike Davis", Status: models.AgentAvailable, Vehicle: "motorcycle", Rating: 4.8},
	{ID: "AG002", Name: "David Lee", Status: models.AgentBusy, Vehicle: "truck", Rating: 4.6},
	{ID: "AG003", Name: "Sarah Wilson", Status: models.AgentAvailable, Vehicle: "motorcycle", Rating: 4.9},
}

var defaultProducts = []models.Product{
	{Name: "Organic Bananas", Category: "fruits", Price: 2.99, Stock: 45, LowStockThreshold: 10, Emoji: "🍌", Description: "Fresh organic bananas from local farms"},
	{Name: "Fresh Apples", Category: "fruits", Price: 3.49, Stock: 8, LowStockThreshold: 15, Emoji: "🍎", Description: "Crisp red apples"},
	{Name: "Carrots", Category: "vegetables", Price: 1.99, Stock: 30, LowStockThreshold: 10, Emoji: "🥕", Description: "Fresh carrots"},
	{Name: "Broccoli", Category: "vegetables", Price: 2.79, Stock: 20, LowStockThreshold: 8, Emoji: "🥦"},
	{Name: "Fresh Milk", Category: "dairy", Price: 4.29, Stock: 0, LowStockThreshold: 5, Emoji: "🥛", Description: "Fresh whole milk"},
	{Name: "Cheddar Cheese", Category: "dairy", Price: 5.99, Stock: 15, LowStockThreshold: 5, Emoji: "🧀"},
	{Name: "Whole Wheat Bread", Category: "bakery", Price: 2.49, Stock: 25, LowStockThreshold: 8, Emoji: "🍞", Description: "Freshly baked whole wheat bread"},
	{Name: "Croissants", Category: "bakery", Price: 3.99, Stock: 12, LowStockThreshold: 6, Emoji: "🥐"},
	{Name: "Chicken Breast", Category: "meat", Price: 8.99, Stock: 18, LowStockThreshold: 8, Emoji: "🍗"},
	{Name: "Ground Beef", Category: "meat", Price: 7.99, Stock: 14, LowStockThreshold: 8, Emoji: "🥩"},
}

// Seeder fills empty tables with the demo store: staff accounts, delivery
// agents and the starting catalog. Tables that already hold rows are left alone.
type Seeder struct {
	staff    *repository.StaffRepository
	agents   *repository.AgentRepository
	products *repository.ProductRepository
	cost     int
	logger   *zap.Logger
}

func NewSeeder(staff *repository.StaffRepository, agents *repository.AgentRepository, products *repository.ProductRepository, bcryptCost int, logger *zap.Logger) *Seeder {
	return &Seeder{
		staff:    staff,
		agents:   agents,
		products: products,
		cost:     bcryptCost,
		logger:   logger.Named("seed"),
	}
}

func (s *Seeder) Seed(ctx context.Context) error {
	if err := s.seedStaff(ctx); err != nil {
		return err
	}
	if err := s.seedAgents(ctx); err != nil {
		return err
	}
	return s.seedProducts(ctx)
}

func (s *Seeder) seedStaff(ctx context.Context) error {
	n, err := s.staff.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	for _, st := range defaultStaff {
		hash, err := hashPassword(st.password, s.cost)
		if err != nil {
			return err
		}
		if err := s.staff.Create(ctx, &models.Staff{
			StaffID:      st.id,
			Name:         st.name,
			Email:        st.email,
			PasswordHash: hash,
			Role:         st.role,
			Status:       models.StaffStatusActive,
		}); err != nil {
			return fmt.Errorf("failed to seed staff %s: %w", st.id, err)
		}
	}
	s.logger.Info("Seeded staff accounts", zap.Int("count", len(defaultStaff)))
	return nil
}

func (s *Seeder) seedAgents(ctx context.Context) error {
	n, err := s.agents.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	for i := range defaultAgents {
		agent := defaultAgents[i]
		if err := s.agents.Create(ctx, &agent); err != nil {
			return fmt.Errorf("failed to seed agent %s: %w", agent.ID, err)
		}
	}
	s.logger.Info("Seeded delivery agents", zap.Int("count", len(defaultAgents)))
	return nil
}

func (s *Seeder) seedProducts(ctx context.Context) error {
	n, err := s.products.Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	for i := range defaultProducts {
		p := defaultProducts[i]
		if err := s.products.Create(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Name, err)
		}
	}
	s.logger.Info("Seeded products", zap.Int("count", len(defaultProducts)))
	return nil
}
