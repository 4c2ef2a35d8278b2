package service

import (
	"time"

	"github.com/example/freshgrocers/pkg/models"
)

const (
	confirmedAfter = 5 * time.Minute
	inTransitAfter = 15 * time.Minute
	deliveredAfter = 45 * time.Minute
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// DeriveStatus maps an order's age onto its lifecycle stage. Orders placed in
// the future (clock skew) count as pending.
func DeriveStatus(placedAt, now time.Time) models.OrderStatus {
	age := now.Sub(placedAt)
	switch {
	case age < confirmedAfter:
		return models.OrderStatusPending
	case age < inTransitAfter:
		return models.OrderStatusConfirmed
	case age < deliveredAfter:
		return models.OrderStatusInTransit
	default:
		return models.OrderStatusDelivered
	}
}

type StatusInfo struct {
	Status models.OrderStatus `json:"status"`
	Label  string             `json:"label"`
	Color  string             `json:"color"`
	Icon   string             `json:"icon"`
}

var statusInfo = map[models.OrderStatus]StatusInfo{
	models.OrderStatusPending:   {models.OrderStatusPending, "Order Received", "#f59e0b", "fa-clock"},
	models.OrderStatusConfirmed: {models.OrderStatusConfirmed, "Confirmed & Preparing", "#3b82f6", "fa-check-circle"},
	models.OrderStatusInTransit: {models.OrderStatusInTransit, "Out for Delivery", "#8b5cf6", "fa-truck"},
	models.OrderStatusDelivered: {models.OrderStatusDelivered, "Delivered", "#10b981", "fa-check-double"},
}

func InfoFor(status models.OrderStatus) StatusInfo {
	return statusInfo[status]
}

func EstimatedDelivery(placedAt time.Time) time.Time {
	return placedAt.Add(deliveredAfter)
}

type TimelineStep struct {
	Status    models.OrderStatus `json:"status"`
	Label     string             `json:"label"`
	At        time.Time          `json:"at"`
	Completed bool               `json:"completed"`
	Current   bool               `json:"current"`
}

var timelineOffsets = []struct {
	status models.OrderStatus
	offset time.Duration
}{
	{models.OrderStatusPending, 0},
	{models.OrderStatusConfirmed, confirmedAfter},
	{models.OrderStatusInTransit, inTransitAfter},
	{models.OrderStatusDelivered, deliveredAfter},
}

// Timeline lists the four tracking steps with everything up to the current
// status marked completed.
func Timeline(placedAt, now time.Time) []TimelineStep {
	current := DeriveStatus(placedAt, now)
	steps := make([]TimelineStep, 0, len(timelineOffsets))
	reached := true
	for _, t := range timelineOffsets {
		steps = append(steps, TimelineStep{
			Status:    t.status,
			Label:     statusInfo[t.status].Label,
			At:        placedAt.Add(t.offset),
			Completed: reached,
			Current:   t.status == current,
		})
		if t.status == current {
			reached = false
		}
	}
	return steps
}

// OrderView is an order together with its status as of the read.
type OrderView struct {
	models.Order
	StatusInfo
	EstimatedDelivery time.Time  `json:"estimated_delivery"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
}

func NewOrderView(o models.Order, now time.Time) OrderView {
	status := DeriveStatus(o.PlacedAt, now)
	v := OrderView{
		Order:             o,
		StatusInfo:        statusInfo[status],
		EstimatedDelivery: EstimatedDelivery(o.PlacedAt),
	}
	if status == models.OrderStatusDelivered {
		at := v.EstimatedDelivery
		v.DeliveredAt = &at
	}
	return v
}
