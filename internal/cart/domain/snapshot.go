package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is a point-in-time copy of a cart. It shares no memory with the
// cart it was taken from.
type Snapshot struct {
	OwnerID    string          `json:"owner_id"`
	Lines      []CartLine      `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Total      decimal.Decimal `json:"total"`
	ItemCount  int             `json:"item_count"`
	CapturedAt time.Time       `json:"captured_at"`
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}
