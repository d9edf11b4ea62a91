package service

import (
	"context"
	"time"

	cart "github.com/fjod/storefront/internal/cart/domain"
	d "github.com/fjod/storefront/internal/checkout/domain"
	"github.com/fjod/storefront/internal/client"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/session"
)

type CheckoutService interface {
	Checkout(ctx context.Context, sess session.Session, c Cart, in Input) *d.Result
	Attempt(attemptID, userID string) (*d.Result, bool)
}

// Cart is the cart being checked out. *service.CartStore satisfies it.
type Cart interface {
	Snapshot() cart.Snapshot
	Clear(ctx context.Context) error
}

type Input struct {
	Method   payment.Method
	Billing  *payment.BillingAddress
	Delivery *payment.DeliveryDetails
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, req client.CreateOrderRequest) (*client.CreateOrderResponse, error)
}

type PaymentInitiator interface {
	Initiate(ctx context.Context, req payment.Request) (*payment.Response, error)
}

type OrderHandler struct {
	orderClient OrderCreator
	timeout     time.Duration
}

func NewOrderHandler(orderClient OrderCreator, timeout time.Duration) *OrderHandler {
	return &OrderHandler{
		orderClient: orderClient,
		timeout:     timeout,
	}
}

type PaymentHandler struct {
	paymentClient PaymentInitiator
	adapter       *payment.Adapter
	timeout       time.Duration
}

func NewPaymentHandler(paymentClient PaymentInitiator, adapter *payment.Adapter, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		paymentClient: paymentClient,
		adapter:       adapter,
		timeout:       timeout,
	}
}

type NotificationHandler struct {
	notifier notify.Notifier
	timeout  time.Duration
}

func NewNotificationHandler(notifier notify.Notifier, timeout time.Duration) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		timeout:  timeout,
	}
}

type CheckoutServiceImpl struct {
	order        *OrderHandler
	payment      *PaymentHandler
	notification *NotificationHandler
	attempts     *AttemptLog
	metrics      *metrics.CheckoutMetrics
	now          func() time.Time
	newID        func() string
}

type Option func(*CheckoutServiceImpl)

func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(s *CheckoutServiceImpl) { s.metrics = m }
}

func WithAttemptLog(l *AttemptLog) Option {
	return func(s *CheckoutServiceImpl) { s.attempts = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *CheckoutServiceImpl) { s.now = now }
}

func NewCheckoutService(order *OrderHandler, pay *PaymentHandler, notification *NotificationHandler, opts ...Option) *CheckoutServiceImpl {
	s := &CheckoutServiceImpl{
		order:        order,
		payment:      pay,
		notification: notification,
		attempts:     NewAttemptLog(defaultAttemptLogSize),
		now:          time.Now,
		newID:        newUUID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
