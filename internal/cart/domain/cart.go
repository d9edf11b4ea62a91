package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ShippingFee is the flat fee added to every cart total.
var ShippingFee = decimal.RequireFromString("9.99")

var ErrInvalidDelta = errors.New("cart: quantity delta must be a positive integer")

type CartLine struct {
	ProductID         string           `json:"product_id"`
	Name              string           `json:"name"`
	UnitPriceCurrent  decimal.Decimal  `json:"unit_price_current"`
	UnitPricePrevious *decimal.Decimal `json:"unit_price_previous,omitempty"`
	Quantity          int              `json:"quantity"`
	ImageURL          string           `json:"image_url"`
}

func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPriceCurrent.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart keeps lines in insertion order with at most one line per product.
// A line never holds a quantity below 1.
type Cart struct {
	OwnerID   string     `json:"owner_id"`
	Lines     []CartLine `json:"lines"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewCart(ownerID string, now time.Time) *Cart {
	return &Cart{
		OwnerID:   ownerID,
		Lines:     []CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) find(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) Line(productID string) (CartLine, bool) {
	i := c.find(productID)
	if i < 0 {
		return CartLine{}, false
	}
	return c.Lines[i].clone(), true
}

// Add bumps the quantity of an existing line, keeping its stored name, price
// and image, or appends line with quantity delta.
func (c *Cart) Add(line CartLine, delta int) {
	mustBePositive(delta)
	if i := c.find(line.ProductID); i >= 0 {
		c.Lines[i].Quantity += delta
		return
	}
	line = line.clone()
	line.Quantity = delta
	c.Lines = append(c.Lines, line)
}

// Subtract lowers the quantity of a line and drops it when nothing is left.
// It returns how many units were actually taken out.
func (c *Cart) Subtract(productID string, delta int) int {
	mustBePositive(delta)
	i := c.find(productID)
	if i < 0 {
		return 0
	}
	have := c.Lines[i].Quantity
	if have-delta > 0 {
		c.Lines[i].Quantity -= delta
		return delta
	}
	c.removeAt(i)
	return have
}

func (c *Cart) Remove(productID string) (CartLine, bool) {
	i := c.find(productID)
	if i < 0 {
		return CartLine{}, false
	}
	line := c.Lines[i]
	c.removeAt(i)
	return line, true
}

func (c *Cart) Clear() {
	c.Lines = []CartLine{}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, l := range c.Lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	return subtotal
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Clone() *Cart {
	out := *c
	out.Lines = make([]CartLine, len(c.Lines))
	for i, l := range c.Lines {
		out.Lines[i] = l.clone()
	}
	return &out
}

func (c *Cart) Snapshot(shipping decimal.Decimal, capturedAt time.Time) Snapshot {
	clone := c.Clone()
	subtotal := clone.Subtotal()
	return Snapshot{
		OwnerID:    clone.OwnerID,
		Lines:      clone.Lines,
		Subtotal:   subtotal,
		Shipping:   shipping,
		Total:      subtotal.Add(shipping),
		ItemCount:  clone.ItemCount(),
		CapturedAt: capturedAt,
	}
}

func (c *Cart) removeAt(i int) {
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

func (l CartLine) clone() CartLine {
	if l.UnitPricePrevious != nil {
		prev := *l.UnitPricePrevious
		l.UnitPricePrevious = &prev
	}
	return l
}

func mustBePositive(delta int) {
	if delta <= 0 {
		panic(fmt.Errorf("%w: got %d", ErrInvalidDelta, delta))
	}
}
