package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var ErrInvalidOrder = errors.New("invalid order")

type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Delivery is one shipment of an order.
type Delivery struct {
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
	Status         string    `json:"status"`
	Region         string    `json:"region,omitempty"`
	Town           string    `json:"town,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Order struct {
	ID            uuid.UUID
	UserID        string
	TotalAmount   decimal.Decimal
	TransactionID string
	Items         []OrderItem
	Status        OrderStatus
	Delivery      []Delivery
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOrder builds a pending order. The transaction id is the caller's
// idempotency token and must be unique across orders.
func NewOrder(userID string, total decimal.Decimal, transactionID string, items []OrderItem, now time.Time) (*Order, error) {
	switch {
	case userID == "":
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidOrder)
	case transactionID == "":
		return nil, fmt.Errorf("%w: transaction id is required", ErrInvalidOrder)
	case len(items) == 0:
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidOrder)
	case !total.IsPositive():
		return nil, fmt.Errorf("%w: total must be positive", ErrInvalidOrder)
	}
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %q has quantity %d", ErrInvalidOrder, it.ProductID, it.Quantity)
		}
	}

	return &Order{
		ID:            uuid.New(),
		UserID:        userID,
		TotalAmount:   total.Round(2),
		TransactionID: transactionID,
		Items:         append([]OrderItem(nil), items...),
		Status:        OrderStatusPending,
		Delivery:      []Delivery{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Shipment finds a delivery by tracking number.
func (o *Order) Shipment(trackingNumber string) (Delivery, bool) {
	for _, d := range o.Delivery {
		if d.TrackingNumber == trackingNumber {
			return d, true
		}
	}
	return Delivery{}, false
}
