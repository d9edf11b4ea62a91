package repository

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/cart/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository persists whole carts keyed by owner.
type CartRepository interface {
	GetCart(ctx context.Context, ownerID string) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, ownerID string) error
	Close() error
}
