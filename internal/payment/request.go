package payment

// Request is the body of POST /payments.
type Request struct {
	OrderID         string           `json:"orderId,omitempty"`
	PaymentMethod   MethodName       `json:"paymentMethod"`
	PhoneNo         string           `json:"phoneNo,omitempty"`
	Amount          float64          `json:"amount"`
	Card            *CreditCard      `json:"card,omitempty"`
	DeliveryDetails *DeliveryDetails `json:"deliveryDetails,omitempty"`
	BillingAddress  *BillingAddress  `json:"billingAddress,omitempty"`
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Response struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	TransactionID string `json:"transactionId,omitempty"`
	Status        Status `json:"status"`
}

type BillingAddress struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}

type DeliveryDetails struct {
	Region string `json:"region"`
	Town   string `json:"town"`
}
