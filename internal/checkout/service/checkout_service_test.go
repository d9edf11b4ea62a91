package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cart "github.com/fjod/storefront/internal/cart/domain"
	d "github.com/fjod/storefront/internal/checkout/domain"
	"github.com/fjod/storefront/internal/client"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/session"
)

// events is shared by the fakes so tests can assert call ordering.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, s)
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type fakeOrders struct {
	ev    *events
	err   error
	delay time.Duration
	reqs  []client.CreateOrderRequest
	mu    sync.Mutex
	token string
	// onCall runs as the request arrives, before any delay.
	onCall func()
}

func (f *fakeOrders) CreateOrder(ctx context.Context, req client.CreateOrderRequest) (*client.CreateOrderResponse, error) {
	f.ev.add("order:" + req.UserID)
	if f.onCall != nil {
		f.onCall()
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.ev.add("order-done:" + req.UserID)
	return &client.CreateOrderResponse{ID: "ord-" + req.UserID, Status: "pending"}, nil
}

type fakePayments struct {
	ev   *events
	resp *payment.Response
	err  error
	reqs []payment.Request
	mu   sync.Mutex
	// onCall runs as the request arrives; ctxErr is the call's ctx.Err()
	// right after it.
	onCall func()
	ctxErr error
}

func (f *fakePayments) Initiate(ctx context.Context, req payment.Request) (*payment.Response, error) {
	f.ev.add("payment:" + req.OrderID)
	if f.onCall != nil {
		f.onCall()
		f.ctxErr = ctx.Err()
		if f.ctxErr != nil {
			return nil, f.ctxErr
		}
	}
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &payment.Response{Success: true, Status: payment.StatusCompleted, TransactionID: "pay-" + req.OrderID}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	err  error
	sent []notify.Confirmation
}

func (f *fakeNotifier) OrderConfirmed(_ context.Context, c notify.Confirmation) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return nil
}

type fakeCart struct {
	c        *cart.Cart
	clearErr error
}

func newFakeCart(owner string) *fakeCart {
	return &fakeCart{c: cart.NewCart(owner, time.Now())}
}

func (f *fakeCart) Snapshot() cart.Snapshot {
	return f.c.Snapshot(cart.ShippingFee, time.Now())
}

func (f *fakeCart) Clear(context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.c.Clear()
	return nil
}

type fixture struct {
	ev       *events
	orders   *fakeOrders
	payments *fakePayments
	notifier *fakeNotifier
	metrics  *metrics.CheckoutMetrics
	svc      *CheckoutServiceImpl
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ev := &events{}
	f := &fixture{
		ev:       ev,
		orders:   &fakeOrders{ev: ev},
		payments: &fakePayments{ev: ev},
		notifier: &fakeNotifier{},
		metrics:  metrics.NewCheckoutMetrics(prometheus.NewRegistry()),
	}
	f.svc = NewCheckoutService(
		NewOrderHandler(f.orders, time.Second),
		NewPaymentHandler(f.payments, payment.NewAdapter("254"), time.Second),
		NewNotificationHandler(f.notifier, time.Second),
		WithMetrics(f.metrics),
	)
	return f
}

func signedIn(id string) session.Session {
	return session.Session{Principal: &session.Principal{ID: id, Role: "customer"}, Token: "tok-" + id}
}

func mpesa() Input {
	return Input{
		Method:   payment.Mpesa{Phone: "0712345678"},
		Billing:  &payment.BillingAddress{FirstName: "Wanjiru", LastName: "K", Email: "w@example.com"},
		Delivery: &payment.DeliveryDetails{Region: "Nairobi", Town: "Westlands"},
	}
}

func filledCart(owner string) *fakeCart {
	c := newFakeCart(owner)
	c.c.Add(cart.CartLine{ProductID: "p1", Name: "Scarf", UnitPriceCurrent: decimal.RequireFromString("19.99")}, 2)
	c.c.Add(cart.CartLine{ProductID: "p2", Name: "Tote", UnitPriceCurrent: decimal.RequireFromString("5.50")}, 1)
	return c
}

func TestCheckout_Success(t *testing.T) {
	f := newFixture(t)
	c := filledCart("u1")

	res := f.svc.Checkout(context.Background(), signedIn("u1"), c, mpesa())

	require.Equal(t, d.CheckoutStatusSucceeded, res.Status, res.Message)
	assert.Equal(t, "ord-u1", res.OrderID)
	assert.Equal(t, "pay-ord-u1", res.TransactionID)
	assert.Equal(t, d.RedirectNone, res.Redirect)
	assert.Empty(t, res.Warning)
	assert.True(t, c.c.IsEmpty(), "cart is cleared after a paid checkout")

	require.Len(t, f.orders.reqs, 1)
	order := f.orders.reqs[0]
	assert.True(t, strings.HasPrefix(order.TransactionID, "tx_"))
	assert.Equal(t, 55.47, order.TotalAmount)
	assert.Equal(t, []client.OrderItem{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 1}}, order.OrderItems)

	require.Len(t, f.payments.reqs, 1)
	pay := f.payments.reqs[0]
	assert.Equal(t, 55.47, pay.Amount)
	assert.Equal(t, "254712345678", pay.PhoneNo)
	assert.Equal(t, "ord-u1", pay.OrderID)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "55.47", f.notifier.sent[0].Total)
	assert.Equal(t, "w@example.com", f.notifier.sent[0].Email)
	assert.Equal(t, "Westlands", f.notifier.sent[0].Town)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Attempts.WithLabelValues("SUCCEEDED", "")))
}

func TestCheckout_NotAuthenticated(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Checkout(context.Background(), session.Session{CartID: "c1"}, filledCart("guest:c1"), mpesa())

	assert.Equal(t, d.CheckoutStatusFailed, res.Status)
	assert.Equal(t, d.ReasonNotAuthenticated, res.Reason)
	assert.Equal(t, d.RedirectLogin, res.Redirect)
	assert.Empty(t, f.ev.all())
}

func TestCheckout_EmptyCartMakesNoCalls(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Checkout(context.Background(), signedIn("u1"), newFakeCart("u1"), mpesa())

	assert.Equal(t, d.CheckoutStatusFailed, res.Status)
	assert.Equal(t, d.ReasonEmptyCart, res.Reason)
	assert.Equal(t, d.RedirectCart, res.Redirect)
	assert.Empty(t, f.ev.all())
}

func TestCheckout_InvalidPhoneMakesNoCalls(t *testing.T) {
	f := newFixture(t)
	in := mpesa()
	in.Method = payment.Mpesa{Phone: "12-34"}

	res := f.svc.Checkout(context.Background(), signedIn("u1"), filledCart("u1"), in)

	assert.Equal(t, d.ReasonInvalidPaymentDetails, res.Reason)
	assert.False(t, res.Retryable)
	assert.Empty(t, f.ev.all())
}

func TestCheckout_OrderFailures(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantReason   d.FailureReason
		wantRetry    bool
		wantRedirect d.Redirect
	}{
		{name: "rejected", err: wrap(client.ErrRejected), wantReason: d.ReasonOrderRejected, wantRedirect: d.RedirectNone},
		{name: "session expired", err: wrap(client.ErrAuthenticationRequired), wantReason: d.ReasonAuthenticationRequired, wantRedirect: d.RedirectLogin},
		{name: "down", err: wrap(client.ErrUnavailable), wantReason: d.ReasonUnavailable, wantRetry: true, wantRedirect: d.RedirectNone},
		{name: "timeout", err: wrap(client.ErrTimeout), wantReason: d.ReasonTimeout, wantRetry: true, wantRedirect: d.RedirectNone},
		{name: "unknown", err: errors.New("???"), wantReason: d.ReasonInternal, wantRedirect: d.RedirectNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.orders.err = tt.err
			c := filledCart("u1")
			before := c.Snapshot()

			res := f.svc.Checkout(context.Background(), signedIn("u1"), c, mpesa())

			assert.Equal(t, d.CheckoutStatusFailed, res.Status)
			assert.Equal(t, tt.wantReason, res.Reason)
			assert.Equal(t, tt.wantRetry, res.Retryable)
			assert.Equal(t, tt.wantRedirect, res.Redirect)
			assert.Equal(t, tt.wantReason.Message(), res.Message)
			assert.NotContains(t, res.Message, "???")
			assert.Empty(t, f.payments.reqs, "no payment without an order")
			assert.Equal(t, before.Lines, c.Snapshot().Lines)
		})
	}
}

// wrap builds the error a client returns, without exposing its fields.
func wrap(kind error) error {
	return errors.Join(kind, errors.New("upstream detail"))
}

func TestCheckout_PaymentFailureKeepsCart(t *testing.T) {
	tests := []struct {
		name       string
		resp       *payment.Response
		err        error
		wantReason d.FailureReason
	}{
		{name: "declined", resp: &payment.Response{Success: false, Status: payment.StatusFailed, Message: "insufficient funds"}, wantReason: d.ReasonPaymentDeclined},
		{name: "success flag but failed", resp: &payment.Response{Success: true, Status: payment.StatusFailed}, wantReason: d.ReasonPaymentDeclined},
		{name: "gateway rejects request", err: wrap(client.ErrRejected), wantReason: d.ReasonPaymentDeclined},
		{name: "gateway down", err: wrap(client.ErrUnavailable), wantReason: d.ReasonUnavailable},
		{name: "gateway timeout", err: context.DeadlineExceeded, wantReason: d.ReasonTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.payments.resp = tt.resp
			f.payments.err = tt.err
			c := filledCart("u1")
			before := c.Snapshot()

			res := f.svc.Checkout(context.Background(), signedIn("u1"), c, mpesa())

			assert.Equal(t, d.CheckoutStatusFailed, res.Status)
			assert.Equal(t, tt.wantReason, res.Reason)
			assert.Equal(t, "ord-u1", res.OrderID, "the order stays behind as pending")
			assert.Equal(t, before.Lines, c.Snapshot().Lines)
			assert.True(t, before.Total.Equal(c.Snapshot().Total))
			assert.Empty(t, f.notifier.sent)
		})
	}
}

func TestCheckout_MpesaPendingCountsAsAccepted(t *testing.T) {
	f := newFixture(t)
	f.payments.resp = &payment.Response{Success: true, Status: payment.StatusPending, TransactionID: "stk-1"}
	c := filledCart("u1")

	res := f.svc.Checkout(context.Background(), signedIn("u1"), c, mpesa())

	assert.Equal(t, d.CheckoutStatusSucceeded, res.Status)
	assert.Equal(t, payment.StatusPending, res.PaymentStatus)
	assert.True(t, c.c.IsEmpty())
}

func TestCheckout_AmountMismatchAbortsBeforePayment(t *testing.T) {
	f := newFixture(t)
	c := newFakeCart("u1")
	c.c.Add(cart.CartLine{ProductID: "p1", UnitPriceCurrent: decimal.RequireFromString("10.005")}, 1)

	for i := 0; i < 3; i++ {
		res := f.svc.Checkout(context.Background(), signedIn("u1"), c, mpesa())

		assert.Equal(t, d.CheckoutStatusFailed, res.Status)
		assert.Equal(t, d.ReasonAmountMismatch, res.Reason)
		assert.Empty(t, res.OrderID)
	}
	assert.Empty(t, f.orders.reqs, "no order may be placed for an unpayable total")
	assert.Empty(t, f.payments.reqs)
	assert.False(t, c.c.IsEmpty())
}

func TestCheckout_CallerCancelDoesNotAbortInFlightSteps(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture, cancel context.CancelFunc)
	}{
		{
			name: "during order creation",
			setup: func(f *fixture, cancel context.CancelFunc) {
				f.orders.delay = 30 * time.Millisecond
				f.orders.onCall = cancel
			},
		},
		{
			name: "during payment",
			setup: func(f *fixture, cancel context.CancelFunc) {
				f.payments.onCall = cancel
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			tt.setup(f, cancel)
			c := filledCart("u1")

			res := f.svc.Checkout(ctx, signedIn("u1"), c, mpesa())

			require.Equal(t, d.CheckoutStatusSucceeded, res.Status, "reason %s", res.Reason)
			assert.Equal(t, "ord-u1", res.OrderID)
			assert.NoError(t, f.payments.ctxErr)
			assert.Len(t, f.payments.reqs, 1)
			assert.True(t, c.c.IsEmpty())
		})
	}
}

func TestCheckout_CancelledBeforeStartStillValidatesLocally(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.svc.Checkout(ctx, signedIn("u1"), newFakeCart("u1"), mpesa())

	assert.Equal(t, d.ReasonEmptyCart, res.Reason)
	assert.Empty(t, f.orders.reqs)
}

func TestCheckout_NotificationFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("broker down")
	c := filledCart("u1")

	res := f.svc.Checkout(context.Background(), signedIn("u1"), c, mpesa())

	assert.Equal(t, d.CheckoutStatusSucceeded, res.Status)
	assert.Equal(t, warnNotNotified, res.Warning)
	assert.True(t, c.c.IsEmpty())
}

func TestCheckout_ClearFailureIsAWarning(t *testing.T) {
	f := newFixture(t)
	c := filledCart("u1")
	c.clearErr = errors.New("disk full")

	res := f.svc.Checkout(context.Background(), signedIn("u1"), c, mpesa())

	assert.Equal(t, d.CheckoutStatusSucceeded, res.Status)
	assert.Equal(t, warnCartNotCleared, res.Warning)
}

func TestCheckout_ForwardsBearerToken(t *testing.T) {
	f := newFixture(t)
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"o1","status":"pending"}`))
	}))
	defer srv.Close()

	svc := NewCheckoutService(
		NewOrderHandler(client.NewOrdersClient(srv.URL, time.Second), time.Second),
		NewPaymentHandler(f.payments, payment.NewAdapter("254"), time.Second),
		nil,
	)

	res := svc.Checkout(context.Background(), signedIn("u1"), filledCart("u1"), mpesa())

	require.Equal(t, d.CheckoutStatusSucceeded, res.Status, res.Message)
	assert.Equal(t, "o1", res.OrderID)
	assert.Equal(t, "Bearer tok-u1", auth)
}

func TestCheckout_SessionExpiredUpstream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"token expired"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc := NewCheckoutService(
		NewOrderHandler(client.NewOrdersClient(srv.URL, time.Second), time.Second),
		NewPaymentHandler(f.payments, payment.NewAdapter("254"), time.Second),
		nil,
	)

	res := svc.Checkout(context.Background(), signedIn("u1"), filledCart("u1"), mpesa())

	assert.Equal(t, d.ReasonAuthenticationRequired, res.Reason)
	assert.Equal(t, d.RedirectLogin, res.Redirect)
	assert.NotContains(t, res.Message, "token expired")
}

func TestCheckout_OrderTimeout(t *testing.T) {
	f := newFixture(t)
	f.orders.delay = time.Second
	svc := NewCheckoutService(
		NewOrderHandler(f.orders, 20*time.Millisecond),
		NewPaymentHandler(f.payments, payment.NewAdapter("254"), time.Second),
		nil,
	)

	res := svc.Checkout(context.Background(), signedIn("u1"), filledCart("u1"), mpesa())

	assert.Equal(t, d.ReasonTimeout, res.Reason)
	assert.True(t, res.Retryable)
	assert.Empty(t, f.payments.reqs)
}

func TestCheckout_EachAttemptPaysAfterItsOwnOrder(t *testing.T) {
	f := newFixture(t)
	f.orders.delay = 20 * time.Millisecond

	var wg sync.WaitGroup
	for _, user := range []string{"a", "b"} {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			res := f.svc.Checkout(context.Background(), signedIn(user), filledCart(user), mpesa())
			assert.Equal(t, d.CheckoutStatusSucceeded, res.Status)
		}(user)
	}
	wg.Wait()

	log := f.ev.all()
	for _, user := range []string{"a", "b"} {
		done, paid := -1, -1
		for i, e := range log {
			switch e {
			case "order-done:" + user:
				done = i
			case "payment:ord-" + user:
				paid = i
			}
		}
		require.NotEqual(t, -1, done)
		require.NotEqual(t, -1, paid)
		assert.Less(t, done, paid, "user %s paid before its order resolved", user)
	}
}

func TestCheckout_RetryMintsNewTransaction(t *testing.T) {
	f := newFixture(t)
	f.payments.resp = &payment.Response{Success: false, Status: payment.StatusFailed}
	c := filledCart("u1")

	f.svc.Checkout(context.Background(), signedIn("u1"), c, mpesa())
	f.svc.Checkout(context.Background(), signedIn("u1"), c, mpesa())

	require.Len(t, f.orders.reqs, 2)
	assert.NotEqual(t, f.orders.reqs[0].TransactionID, f.orders.reqs[1].TransactionID)
}

func TestCheckout_AttemptLookup(t *testing.T) {
	f := newFixture(t)

	res := f.svc.Checkout(context.Background(), signedIn("u1"), filledCart("u1"), mpesa())

	got, ok := f.svc.Attempt(res.AttemptID, "u1")
	require.True(t, ok)
	assert.Equal(t, res.Status, got.Status)
	_, ok = f.svc.Attempt(res.AttemptID, "someone-else")
	assert.False(t, ok)
}
