package repository

import (
	"context"
	"errors"

	"github.com/fjod/storefront/internal/orders/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateTransaction = errors.New("order for this transaction already exists")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	AddDelivery(ctx context.Context, id uuid.UUID, delivery domain.Delivery) (*domain.Order, error)
	RunMigrations(*Credentials) error
	Close() error
}
