package models

// PaymentStatus is the payment provider's view of a payment. Only PAID
// corroborates an order transition.
type PaymentStatus string

const (
	PaymentReady     PaymentStatus = "READY"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// PaymentRecord is read-only from this service's perspective; the provider
// owns it and we only corroborate against it.
type PaymentRecord struct {
	PaymentID   string        `json:"payment_id"`
	Status      PaymentStatus `json:"status"`
	AmountTotal int64         `json:"amount_total"`
}
