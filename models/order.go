package models

import "time"

// OrderState is the lifecycle state of a committed order. Transitions are
// monotonic: PENDING -> PAID -> SHIPPING -> DELIVERED, with CANCELLED as a
// terminal branch from any pre-DELIVERED state. The order store enforces this
// on its side; we keep the ranking here for the idempotency short-circuits.
type OrderState string

const (
	StatePending   OrderState = "PENDING"
	StatePaid      OrderState = "PAID"
	StateShipping  OrderState = "SHIPPING"
	StateDelivered OrderState = "DELIVERED"
	StateCancelled OrderState = "CANCELLED"
)

var stateRanks = map[OrderState]int{
	StatePending:   1,
	StatePaid:      2,
	StateShipping:  3,
	StateDelivered: 4,
}

// Rank returns the position of the state on the forward path, or 0 for
// CANCELLED and unknown states.
func (s OrderState) Rank() int {
	return stateRanks[s]
}

// AtLeast reports whether s is the same as or later than other on the forward
// path. CANCELLED is never "at least" anything.
func (s OrderState) AtLeast(other OrderState) bool {
	return s.Rank() > 0 && s.Rank() >= other.Rank()
}

// Terminal reports whether no further transition is valid from s.
func (s OrderState) Terminal() bool {
	return s == StateDelivered || s == StateCancelled
}

func (s OrderState) String() string {
	return string(s)
}

// Cost is the price breakdown attached to an order by the order store.
type Cost struct {
	Products         int64 `json:"products"`
	ShippingFees     int64 `json:"shipping_fees"`
	DiscountProducts int64 `json:"discount_products"`
	DiscountShipping int64 `json:"discount_shipping"`
	Total            int64 `json:"total"`
}

// Consistent checks the cost invariant before a payment match is trusted.
func (c Cost) Consistent() bool {
	return c.Total == c.Products+c.ShippingFees-c.DiscountProducts-c.DiscountShipping
}

type OrderLineItem struct {
	ProductID       string `json:"product_id"`
	ProductName     string `json:"product_name"`
	UnitPrice       int64  `json:"unit_price"`
	Quantity        int    `json:"quantity"`
	SelectedVariant string `json:"selected_variant,omitempty"`
}

// Order is the durable record owned by the external order store. This service
// only reads and patches it through the order gateway.
type Order struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	LineItems []OrderLineItem `json:"line_items"`
	Cost      Cost            `json:"cost"`
	Address   string          `json:"address"`
	Memo      string          `json:"memo"`
	State     OrderState      `json:"state"`
	PaymentID string          `json:"payment_id,omitempty"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
