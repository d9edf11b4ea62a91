package payment

import (
	"errors"
	"fmt"
	"strings"
)

type MethodName string

const (
	MethodMpesa      MethodName = "mpesa"
	MethodCreditCard MethodName = "credit_card"
	MethodPayPal     MethodName = "paypal"
)

var (
	ErrUnknownMethod  = errors.New("unknown payment method")
	ErrMissingField   = errors.New("missing payment field")
	ErrInvalidDetails = errors.New("invalid payment details")
)

// Method is one of Mpesa, CreditCard or PayPal.
type Method interface {
	Name() MethodName
	sealed()
}

type Mpesa struct {
	Phone string
}

// CreditCard is forwarded to the gateway as entered; no number validation
// happens here.
type CreditCard struct {
	CardholderName string `json:"cardholderName"`
	Number         string `json:"number"`
	Expiry         string `json:"expiry"`
	CVC            string `json:"cvc"`
}

type PayPal struct{}

func (Mpesa) Name() MethodName      { return MethodMpesa }
func (CreditCard) Name() MethodName { return MethodCreditCard }
func (PayPal) Name() MethodName     { return MethodPayPal }

func (Mpesa) sealed()      {}
func (CreditCard) sealed() {}
func (PayPal) sealed()     {}

// MethodFields is the flat shape payment methods arrive in over HTTP.
type MethodFields struct {
	Phone          string `json:"phone_number"`
	CardholderName string `json:"cardholder_name"`
	CardNumber     string `json:"card_number"`
	Expiry         string `json:"expiry"`
	CVC            string `json:"cvc"`
}

func ParseMethod(name string, f MethodFields) (Method, error) {
	switch MethodName(strings.ToLower(strings.TrimSpace(name))) {
	case MethodMpesa:
		if strings.TrimSpace(f.Phone) == "" {
			return nil, fmt.Errorf("%w: phone_number", ErrMissingField)
		}
		return Mpesa{Phone: f.Phone}, nil
	case MethodCreditCard:
		return CreditCard{
			CardholderName: f.CardholderName,
			Number:         f.CardNumber,
			Expiry:         f.Expiry,
			CVC:            f.CVC,
		}, nil
	case MethodPayPal:
		return PayPal{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
}
