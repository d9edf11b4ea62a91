package cache

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/cart/domain"
)

type CartCache interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	Set(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, ownerID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// Noop is used when no Redis is configured; every read misses.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.Cart, error) { return nil, ErrCacheMiss }
func (Noop) Set(context.Context, *domain.Cart) error           { return nil }
func (Noop) Delete(context.Context, string) error              { return nil }
