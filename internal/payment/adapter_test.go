package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod("MPESA", MethodFields{Phone: "0712345678"})
	require.NoError(t, err)
	assert.Equal(t, Mpesa{Phone: "0712345678"}, m)

	m, err = ParseMethod("credit_card", MethodFields{CardholderName: "A N Other", CardNumber: "4242", Expiry: "12/30", CVC: "123"})
	require.NoError(t, err)
	assert.Equal(t, CreditCard{CardholderName: "A N Other", Number: "4242", Expiry: "12/30", CVC: "123"}, m)

	m, err = ParseMethod("paypal", MethodFields{})
	require.NoError(t, err)
	assert.Equal(t, PayPal{}, m)

	_, err = ParseMethod("mpesa", MethodFields{})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = ParseMethod("bitcoin", MethodFields{})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestBuild_Mpesa(t *testing.T) {
	a := NewAdapter("")
	billing := &BillingAddress{FirstName: "Wanjiru", LastName: "K", Email: "w@example.com"}

	req, err := a.Build(Mpesa{Phone: "0712 345 678"}, "ord-1", decimal.RequireFromString("49.975"), billing, nil)

	require.NoError(t, err)
	assert.Equal(t, MethodMpesa, req.PaymentMethod)
	assert.Equal(t, "254712345678", req.PhoneNo)
	assert.Equal(t, 49.98, req.Amount)
	assert.Equal(t, "ord-1", req.OrderID)
	assert.Same(t, billing, req.BillingAddress)
	assert.Nil(t, req.Card)
}

func TestBuild_InvalidPhoneFailsLocally(t *testing.T) {
	_, err := NewAdapter("254").Build(Mpesa{Phone: "12345"}, "ord-1", decimal.NewFromInt(10), nil, nil)

	assert.ErrorIs(t, err, ErrInvalidDetails)
}

func TestBuild_CardPassedThrough(t *testing.T) {
	card := CreditCard{CardholderName: "A", Number: "not-a-card", Expiry: "x", CVC: "y"}

	req, err := NewAdapter("254").Build(card, "ord-1", decimal.NewFromInt(10), nil, &DeliveryDetails{Region: "Nairobi", Town: "Westlands"})

	require.NoError(t, err)
	require.NotNil(t, req.Card)
	assert.Equal(t, card, *req.Card)
	assert.Empty(t, req.PhoneNo)
	assert.Equal(t, "Westlands", req.DeliveryDetails.Town)
}

func TestValidate_NilMethod(t *testing.T) {
	assert.ErrorIs(t, NewAdapter("254").Validate(nil), ErrInvalidDetails)
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name         string
		resp         Response
		wantStatus   Status
		wantAccepted bool
	}{
		{name: "completed", resp: Response{Success: true, Status: StatusCompleted, TransactionID: "t1"}, wantStatus: StatusCompleted, wantAccepted: true},
		{name: "mpesa push pending", resp: Response{Success: true, Status: StatusPending}, wantStatus: StatusPending, wantAccepted: true},
		{name: "declined", resp: Response{Success: false, Status: StatusFailed}, wantStatus: StatusFailed},
		{name: "success flag with failed status", resp: Response{Success: true, Status: StatusFailed}, wantStatus: StatusFailed},
		{name: "unsuccessful but pending", resp: Response{Success: false, Status: StatusPending}, wantStatus: StatusFailed},
		{name: "missing status", resp: Response{Success: true}, wantStatus: StatusCompleted, wantAccepted: true},
	}

	a := NewAdapter("254")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := a.Interpret(tt.resp)
			assert.Equal(t, tt.wantStatus, out.Status)
			assert.Equal(t, tt.wantAccepted, out.Accepted())
		})
	}
}
