package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/storefront/internal/cart/cache"
	"github.com/fjod/storefront/internal/cart/domain"
	"github.com/fjod/storefront/internal/cart/repository"
	"github.com/fjod/storefront/internal/logger"
	"github.com/shopspring/decimal"
)

// CartStore is the authoritative cart of one owner. Mutations are serialised
// and written through to the repository before they become visible.
type CartStore struct {
	mu   sync.Mutex
	cart *domain.Cart

	repo     repository.CartRepository
	cache    cache.CartCache
	shipping decimal.Decimal
	now      func() time.Time
}

type Option func(*CartStore)

func WithShipping(fee decimal.Decimal) Option {
	return func(s *CartStore) { s.shipping = fee }
}

func WithClock(now func() time.Time) Option {
	return func(s *CartStore) { s.now = now }
}

// Open loads the persisted cart of ownerID, or starts an empty one.
func Open(ctx context.Context, ownerID string, repo repository.CartRepository, c cache.CartCache, opts ...Option) (*CartStore, error) {
	s := &CartStore{
		repo:     repo,
		cache:    c,
		shipping: domain.ShippingFee,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	cart, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.cart = cart
	return s, nil
}

func (s *CartStore) load(ctx context.Context, ownerID string) (*domain.Cart, error) {
	cart, err := s.cache.Get(ctx, ownerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Printf(ctx, "cache get error: %v", err)
	}

	cart, err = s.repo.GetCart(ctx, ownerID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return domain.NewCart(ownerID, s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", ownerID, err)
	}

	if err := s.cache.Set(ctx, cart); err != nil {
		logger.Printf(ctx, "cache set error: %v", err)
	}
	return cart, nil
}

func (s *CartStore) OwnerID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.OwnerID
}

// AddItem panics when delta is not positive.
func (s *CartStore) AddItem(ctx context.Context, line domain.CartLine, delta int) error {
	_, err := s.mutate(ctx, func(c *domain.Cart) bool {
		c.Add(line, delta)
		return true
	})
	return err
}

// SubtractItem returns the quantity actually removed. Subtracting a product
// that is not in the cart is a no-op.
func (s *CartStore) SubtractItem(ctx context.Context, productID string, delta int) (int, error) {
	removed := 0
	_, err := s.mutate(ctx, func(c *domain.Cart) bool {
		removed = c.Subtract(productID, delta)
		return removed > 0
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *CartStore) RemoveItem(ctx context.Context, productID string) (domain.CartLine, bool, error) {
	var line domain.CartLine
	changed, err := s.mutate(ctx, func(c *domain.Cart) bool {
		var ok bool
		line, ok = c.Remove(productID)
		return ok
	})
	if err != nil || !changed {
		return domain.CartLine{}, false, err
	}
	return line, true, nil
}

// Merge adds every line with its own quantity in a single write.
func (s *CartStore) Merge(ctx context.Context, lines []domain.CartLine) error {
	_, err := s.mutate(ctx, func(c *domain.Cart) bool {
		for _, l := range lines {
			c.Add(l, l.Quantity)
		}
		return len(lines) > 0
	})
	return err
}

func (s *CartStore) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, func(c *domain.Cart) bool {
		if c.IsEmpty() {
			return false
		}
		c.Clear()
		return true
	})
	return err
}

func (s *CartStore) Line(productID string) (domain.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Line(productID)
}

func (s *CartStore) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot(s.shipping, s.now())
}

// mutate applies fn to a copy of the cart and commits it once persisted.
// fn reports whether it changed anything; unchanged carts are not written.
func (s *CartStore) mutate(ctx context.Context, fn func(c *domain.Cart) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	if !fn(next) {
		return false, nil
	}
	next.UpdatedAt = s.now()

	if err := s.repo.SaveCart(ctx, next); err != nil {
		logger.Printf(ctx, "repo save cart error: %v", err)
		return false, fmt.Errorf("save cart: %w", err)
	}
	s.invalidate(ctx, next.OwnerID)

	s.cart = next
	return true, nil
}

func (s *CartStore) invalidate(ctx context.Context, ownerID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, ownerID); err != nil {
		logger.Printf(ctx, "cache invalidate error: %v", err)
	}
}
