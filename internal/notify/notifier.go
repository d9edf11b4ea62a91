package notify

import (
	"context"
	"time"

	"github.com/fjod/storefront/internal/logger"
)

type ConfirmationItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// Confirmation is the order-confirmed event. Amounts are decimal strings.
type Confirmation struct {
	OrderID       string             `json:"order_id"`
	TransactionID string             `json:"transaction_id"`
	UserID        string             `json:"user_id"`
	Email         string             `json:"email"`
	CustomerName  string             `json:"customer_name"`
	Items         []ConfirmationItem `json:"items"`
	Subtotal      string             `json:"subtotal"`
	Shipping      string             `json:"shipping"`
	Total         string             `json:"total"`
	Region        string             `json:"region,omitempty"`
	Town          string             `json:"town,omitempty"`
	ConfirmedAt   time.Time          `json:"confirmed_at"`
}

type Notifier interface {
	OrderConfirmed(ctx context.Context, c Confirmation) error
}

// LogNotifier only logs. Used when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) OrderConfirmed(ctx context.Context, c Confirmation) error {
	logger.Printf(ctx, "order %s confirmed for user %s (no broker configured)", c.OrderID, c.UserID)
	return nil
}
