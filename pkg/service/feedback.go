package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/example/freshgrocers/pkg/models"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type QuickFeedbackRequest struct {
	Rating  int    `json:"rating" validate:"gte=1,lte=5"`
	Comment string `json:"comment"`
}

type OrderRatingRequest struct {
	Quality  int    `json:"quality" validate:"gte=1,lte=5"`
	Delivery int    `json:"delivery" validate:"gte=1,lte=5"`
	Service  int    `json:"service" validate:"gte=1,lte=5"`
	Comment  string `json:"comment"`
}

type FeedbackService struct {
	feedback *repository.FeedbackRepository
	orders   OrderAPI
	logger   *zap.Logger
	now      Clock
}

func NewFeedbackService(feedback *repository.FeedbackRepository, orders OrderAPI, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{
		feedback: feedback,
		orders:   orders,
		logger:   logger.Named("feedback"),
		now:      time.Now,
	}
}

func newFeedbackID() string {
	return "FB-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *FeedbackService) SubmitQuick(ctx context.Context, customerID string, req *QuickFeedbackRequest) (*models.Feedback, error) {
	if req.Rating == 0 {
		return nil, invalid("please select a rating before submitting")
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	fb := &models.Feedback{
		ID:         newFeedbackID(),
		Type:       models.FeedbackGeneral,
		CustomerID: customerID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
		CreatedAt:  s.now(),
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}
	s.logger.Info("Feedback received", zap.String("feedback_id", fb.ID), zap.Int("rating", fb.Rating))
	return fb, nil
}

// RateOrder records the three-part rating of a delivered order. The overall
// rating is the rounded mean of the parts.
func (s *FeedbackService) RateOrder(ctx context.Context, customerID, orderID string, req *OrderRatingRequest) (*models.Feedback, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if order.Status != models.OrderStatusDelivered {
		return nil, invalid("only delivered orders can be rated")
	}
	rated, err := s.feedback.RatedOrderIDs(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if rated[orderID] {
		return nil, conflict("this order has already been rated")
	}

	overall := int(math.Round(float64(req.Quality+req.Delivery+req.Service) / 3))
	fb := &models.Feedback{
		ID:             newFeedbackID(),
		Type:           models.FeedbackOrder,
		CustomerID:     customerID,
		OrderID:        orderID,
		Rating:         overall,
		QualityRating:  req.Quality,
		DeliveryRating: req.Delivery,
		ServiceRating:  req.Service,
		Comment:        strings.TrimSpace(req.Comment),
		CreatedAt:      s.now(),
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("failed to store rating: %w", err)
	}
	s.logger.Info("Order rated", zap.String("order_id", orderID), zap.Int("rating", overall))
	return fb, nil
}

func (s *FeedbackService) List(ctx context.Context, customerID string) ([]models.Feedback, error) {
	return s.feedback.ListByCustomer(ctx, customerID)
}

// PendingRatings lists the customer's delivered orders that have no rating yet.
func (s *FeedbackService) PendingRatings(ctx context.Context, customerID string) ([]OrderView, error) {
	orders, err := s.orders.ListOrders(ctx, OrderQuery{CustomerID: customerID, Status: models.OrderStatusDelivered})
	if err != nil {
		return nil, err
	}
	rated, err := s.feedback.RatedOrderIDs(ctx, customerID)
	if err != nil {
		return nil, err
	}
	pending := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		if !rated[o.ID] {
			pending = append(pending, o)
		}
	}
	return pending, nil
}
