package models

import "fmt"

// PurchaseKind says where a staged purchase came from: a single "buy now"
// or a selection of cart lines.
type PurchaseKind string

const (
	PurchaseDirect PurchaseKind = "DIRECT"
	PurchaseCart   PurchaseKind = "CART"
)

type StagedLineItem struct {
	ProductID       string `json:"product_id" binding:"required"`
	ProductName     string `json:"product_name" binding:"required"`
	UnitPrice       int64  `json:"unit_price" binding:"min=0"`
	Quantity        int    `json:"quantity" binding:"required,min=1"`
	SelectedVariant string `json:"selected_variant,omitempty"`
}

// StagedOrder is an in-progress purchase that has not been committed yet.
// It lives entirely in a signed client-held token and expires with it.
type StagedOrder struct {
	Kind        PurchaseKind     `json:"kind" binding:"required,oneof=DIRECT CART"`
	Items       []StagedLineItem `json:"items" binding:"required,min=1,dive"`
	TotalAmount int64            `json:"total_amount" binding:"min=0"`
	ShippingFee int64            `json:"shipping_fee" binding:"min=0"`
	Address     string           `json:"address,omitempty"`
	Memo        string           `json:"memo,omitempty"`
	CartLineIDs []string         `json:"cart_line_ids,omitempty"`
}

// Validate enforces the constraints the binding tags cannot express.
func (s *StagedOrder) Validate() error {
	if len(s.Items) == 0 {
		return fmt.Errorf("staged order has no items")
	}
	for i, item := range s.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("item %d: quantity must be at least 1", i)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("item %d: unit price must not be negative", i)
		}
	}
	if s.TotalAmount < 0 || s.ShippingFee < 0 {
		return fmt.Errorf("totals must not be negative")
	}
	if s.Kind == PurchaseCart && len(s.CartLineIDs) == 0 {
		return fmt.Errorf("cart purchase requires cart line ids")
	}
	if s.Kind == PurchaseDirect && len(s.CartLineIDs) > 0 {
		return fmt.Errorf("direct purchase must not carry cart line ids")
	}
	if got := s.ComputedTotal(); got != s.TotalAmount {
		return fmt.Errorf("total amount %d does not match items + shipping (%d)", s.TotalAmount, got)
	}
	return nil
}

// ComputedTotal sums item subtotals plus the shipping fee.
func (s *StagedOrder) ComputedTotal() int64 {
	var total int64
	for _, item := range s.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total + s.ShippingFee
}

// CheckoutSession links a committed order to the cart lines that fed it, so
// reconciliation can finish the best-effort cart cleanup after payment.
type CheckoutSession struct {
	OrderID     string   `json:"order_id"`
	UserID      string   `json:"user_id"`
	CartLineIDs []string `json:"cart_line_ids,omitempty"`
}
