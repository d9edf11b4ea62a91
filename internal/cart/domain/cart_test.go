package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id, price string) CartLine {
	return CartLine{
		ProductID:        id,
		Name:             "product " + id,
		UnitPriceCurrent: decimal.RequireFromString(price),
		ImageURL:         "https://img.example/" + id + ".png",
	}
}

func TestAdd_MergesSameProduct(t *testing.T) {
	c := NewCart("u1", time.Now())

	c.Add(line("p1", "12.50"), 2)
	c.Add(line("p1", "12.50"), 3)

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)
}

func TestAdd_KeepsStoredLineDetails(t *testing.T) {
	c := NewCart("u1", time.Now())
	c.Add(line("p1", "10"), 1)

	changed := line("p1", "99")
	changed.Name = "renamed"
	c.Add(changed, 1)

	l, ok := c.Line("p1")
	require.True(t, ok)
	assert.Equal(t, "product p1", l.Name)
	assert.True(t, l.UnitPriceCurrent.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 2, l.Quantity)
}

func TestAdd_PreservesInsertionOrder(t *testing.T) {
	c := NewCart("u1", time.Now())
	c.Add(line("b", "1"), 1)
	c.Add(line("a", "1"), 1)
	c.Add(line("b", "1"), 1)

	assert.Equal(t, "b", c.Lines[0].ProductID)
	assert.Equal(t, "a", c.Lines[1].ProductID)
}

func TestSubtract(t *testing.T) {
	tests := []struct {
		name        string
		have        int
		delta       int
		wantRemoved int
		wantQty     int
		wantLine    bool
	}{
		{name: "partial", have: 5, delta: 2, wantRemoved: 2, wantQty: 3, wantLine: true},
		{name: "exact", have: 3, delta: 3, wantRemoved: 3, wantLine: false},
		{name: "more than held", have: 3, delta: 5, wantRemoved: 3, wantLine: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCart("u1", time.Now())
			c.Add(line("p1", "4"), tt.have)

			removed := c.Subtract("p1", tt.delta)

			assert.Equal(t, tt.wantRemoved, removed)
			l, ok := c.Line("p1")
			assert.Equal(t, tt.wantLine, ok)
			if tt.wantLine {
				assert.Equal(t, tt.wantQty, l.Quantity)
			}
		})
	}
}

func TestSubtract_MissingProductIsNoop(t *testing.T) {
	c := NewCart("u1", time.Now())
	c.Add(line("p1", "4"), 1)

	assert.Equal(t, 0, c.Subtract("nope", 1))
	assert.Len(t, c.Lines, 1)
}

func TestInvalidDeltaPanics(t *testing.T) {
	c := NewCart("u1", time.Now())

	assert.PanicsWithError(t, "cart: quantity delta must be a positive integer: got 0", func() {
		c.Add(line("p1", "1"), 0)
	})
	assert.Panics(t, func() { c.Subtract("p1", -1) })
}

func TestRemove(t *testing.T) {
	c := NewCart("u1", time.Now())
	c.Add(line("p1", "1"), 2)
	c.Add(line("p2", "1"), 1)

	removed, ok := c.Remove("p1")
	require.True(t, ok)
	assert.Equal(t, 2, removed.Quantity)
	assert.Len(t, c.Lines, 1)

	_, ok = c.Remove("p1")
	assert.False(t, ok)
}

func TestQuantitiesStayPositive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ids := []string{"a", "b", "c"}
	c := NewCart("u1", time.Now())

	for i := 0; i < 1000; i++ {
		id := ids[rng.Intn(len(ids))]
		delta := rng.Intn(6) + 1
		if rng.Intn(2) == 0 {
			c.Add(line(id, "1"), delta)
		} else {
			c.Subtract(id, delta)
		}
		for _, l := range c.Lines {
			require.Positive(t, l.Quantity)
		}
	}
}

func TestSnapshot_Totals(t *testing.T) {
	c := NewCart("u1", time.Now())
	c.Add(line("p1", "19.99"), 3)
	c.Add(line("p2", "0.10"), 7)

	snap := c.Snapshot(ShippingFee, time.Now())

	want := decimal.Zero
	for _, l := range snap.Lines {
		want = want.Add(l.UnitPriceCurrent.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	assert.True(t, snap.Subtotal.Equal(want))
	assert.Equal(t, "60.67", snap.Subtotal.StringFixed(2))
	assert.Equal(t, "70.66", snap.Total.StringFixed(2))
	assert.Equal(t, 10, snap.ItemCount)
}

func TestSnapshot_IsIndependentCopy(t *testing.T) {
	prev := decimal.NewFromInt(30)
	l := line("p1", "20")
	l.UnitPricePrevious = &prev
	c := NewCart("u1", time.Now())
	c.Add(l, 1)

	snap := c.Snapshot(ShippingFee, time.Now())
	c.Add(line("p1", "20"), 4)
	*c.Lines[0].UnitPricePrevious = decimal.NewFromInt(1)

	assert.Equal(t, 1, snap.Lines[0].Quantity)
	assert.True(t, snap.Lines[0].UnitPricePrevious.Equal(decimal.NewFromInt(30)))
}

func TestClear(t *testing.T) {
	c := NewCart("u1", time.Now())
	c.Add(line("p1", "1"), 1)

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.True(t, c.Snapshot(ShippingFee, time.Now()).IsEmpty())
}
