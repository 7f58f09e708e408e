package models

import "time"

// Order lifecycle event types published to Kafka. Consumers (notifications,
// analytics) are outside this service.
const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderShipping  = "order.shipping"
	EventOrderDelivered = "order.delivered"
)

type OrderEvent struct {
	Type      string     `json:"type"`
	OrderID   string     `json:"order_id"`
	UserID    string     `json:"user_id,omitempty"`
	Amount    int64      `json:"amount,omitempty"`
	State     OrderState `json:"state"`
	Timestamp time.Time  `json:"timestamp"`
}
