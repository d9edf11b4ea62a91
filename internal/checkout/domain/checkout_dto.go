package domain

import (
	cart "github.com/fjod/storefront/internal/cart/domain"
	"github.com/fjod/storefront/internal/payment"
	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CheckoutRequest is what gets ordered. It is derived from a snapshot and
// never changes after that.
type CheckoutRequest struct {
	UserID        string
	TotalAmount   decimal.Decimal
	TransactionID string
	OrderItems    []OrderItem
}

func NewCheckoutRequest(userID, transactionID string, snap cart.Snapshot) CheckoutRequest {
	items := make([]OrderItem, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		items = append(items, OrderItem{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return CheckoutRequest{
		UserID:        userID,
		TotalAmount:   snap.Total,
		TransactionID: transactionID,
		OrderItems:    items,
	}
}

type Result struct {
	AttemptID     string         `json:"attempt_id"`
	Status        CheckoutStatus `json:"status"`
	OrderID       string         `json:"order_id,omitempty"`
	TransactionID string         `json:"transaction_id,omitempty"`
	PaymentStatus payment.Status `json:"payment_status,omitempty"`
	Reason        FailureReason  `json:"reason,omitempty"`
	Retryable     bool           `json:"retryable"`
	Redirect      Redirect       `json:"redirect"`
	Warning       string         `json:"warning,omitempty"`
	Message       string         `json:"message,omitempty"`
}

func (r *Result) Succeeded() bool {
	return r.Status == CheckoutStatusSucceeded
}
