package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/wneessen/go-mail"
)

var ErrNoRecipient = errors.New("confirmation has no recipient")

// Sender is the part of *mail.Client the mailer needs.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, msgs ...*mail.Msg) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

func NewSMTPSender(cfg SMTPConfig) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return client, nil
}

type Mailer struct {
	sender    Sender
	from      string
	storeName string
}

func NewMailer(sender Sender, from, storeName string) *Mailer {
	return &Mailer{sender: sender, from: from, storeName: storeName}
}

func (m *Mailer) SendConfirmation(ctx context.Context, c Confirmation) error {
	if c.Email == "" {
		return ErrNoRecipient
	}

	body, err := RenderConfirmation(c, m.storeName)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(c.Email); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", c.Email, err)
	}
	msg.Subject("Order Confirmation")
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := m.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send confirmation for order %s: %w", c.OrderID, err)
	}
	return nil
}

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<h1>Order Confirmation</h1>
<p>Dear {{.Customer}},</p>
<p>Thank you for your order! Here are your order details:</p>

<h2>Order ID: {{.OrderID}}</h2>

<h3>Items:</h3>
<ul>
{{- range .Items}}
  <li>{{.Name}} - Quantity: {{.Quantity}} - Price: ${{.UnitPrice}}</li>
{{- end}}
</ul>
{{if or .Region .Town}}
<h3>Delivery Details:</h3>
<p>Region: {{.Region}}</p>
<p>Town: {{.Town}}</p>
{{end}}
<h3>Total Amount: ${{.Total}}</h3>

<p>We'll notify you when your order ships.</p>

<p>Best regards,<br>{{.Store}}</p>
`))

func RenderConfirmation(c Confirmation, storeName string) (string, error) {
	customer := c.CustomerName
	if customer == "" {
		customer = "Customer"
	}
	data := struct {
		Confirmation
		Customer string
		Store    string
	}{c, customer, storeName}

	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render confirmation: %w", err)
	}
	return buf.String(), nil
}
