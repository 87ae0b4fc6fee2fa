package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"time"

	"github.com/leekchan/accounting"
	"go.uber.org/zap"

	"github.com/example/checkout-gateway/internal/conversion"
	"github.com/example/checkout-gateway/internal/gateway"
	"github.com/example/checkout-gateway/internal/pool"
	m "github.com/example/checkout-gateway/pkg/metrics"
)

// Gateway notification event types.
const (
	EventPaymentConfirmed = "PAYMENT_CONFIRMED"
	EventPaymentReceived  = "PAYMENT_RECEIVED"
	EventPaymentOverdue   = "PAYMENT_OVERDUE"
	EventPaymentDeleted   = "PAYMENT_DELETED"
	EventPaymentRefunded  = "PAYMENT_REFUNDED"
)

// TokenHeader carries the shared secret on every notification.
const TokenHeader = "asaas-access-token"

const publishTimeout = 5 * time.Second

var brl = accounting.Accounting{Symbol: "R$ ", Precision: 2, Thousand: ".", Decimal: ","}

type Payment struct {
	ID            string  `json:"id"`
	Customer      string  `json:"customer"`
	Value         float64 `json:"value"`
	NetValue      float64 `json:"netValue,omitempty"`
	BillingType   string  `json:"billingType"`
	Status        string  `json:"status"`
	DueDate       string  `json:"dueDate,omitempty"`
	ConfirmedDate string  `json:"confirmedDate,omitempty"`
}

type Notification struct {
	Event   string   `json:"event"`
	Payment *Payment `json:"payment"`
}

// Valid reports whether the notification carries what dispatch needs.
func (n Notification) Valid() bool {
	return n.Event != "" && n.Payment != nil
}

// PaymentEvent is published to the event bus for every notification.
type PaymentEvent struct {
	Event       string    `json:"event"`
	PaymentID   string    `json:"payment_id"`
	CustomerID  string    `json:"customer_id"`
	Value       float64   `json:"value"`
	BillingType string    `json:"billing_type"`
	Status      string    `json:"status"`
	ReceivedAt  time.Time `json:"received_at"`
}

type CustomerLookup interface {
	GetCustomer(ctx context.Context, id string) (*gateway.Customer, error)
}

type ConversionSink interface {
	Dispatch(ev conversion.Event)
}

type Publisher interface {
	Publish(ctx context.Context, key, payload []byte) error
}

type Receiver struct {
	secret      string
	customers   CustomerLookup
	conversions ConversionSink
	events      Publisher
	pool        pool.Submitter
	logger      *zap.Logger
}

type Option func(*Receiver)

// WithEvents publishes every notification to p on a pool task.
func WithEvents(p Publisher, sub pool.Submitter) Option {
	return func(r *Receiver) {
		r.events = p
		r.pool = sub
	}
}

func NewReceiver(secret string, customers CustomerLookup, conversions ConversionSink, logger *zap.Logger, opts ...Option) *Receiver {
	r := &Receiver{
		secret:      secret,
		customers:   customers,
		conversions: conversions,
		logger:      logger.Named("webhook"),
	}
	for _, o := range opts {
		o(r)
	}
	if secret == "" {
		r.logger.Warn("WEBHOOK_TOKEN not configured, notifications are accepted without authentication")
	}
	return r
}

// Authenticate compares the header token with the shared secret. Without a
// configured secret every request passes.
func (r *Receiver) Authenticate(token string) bool {
	if r.secret == "" {
		r.logger.Warn("webhook token validation disabled")
		return true
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(r.secret)) != 1 {
		r.logger.Warn("invalid webhook token")
		return false
	}
	return true
}

// Handle processes a valid notification. It has no error result: the
// gateway is acknowledged whatever happens here, so every failure is logged
// and processing continues.
func (r *Receiver) Handle(ctx context.Context, n Notification) {
	p := n.Payment
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("webhook processing panicked", zap.String("event", n.Event), zap.Any("panic", rec))
		}
	}()

	m.IncWebhook(n.Event)
	r.logger.Info("webhook received", zap.String("event", n.Event), zap.String("payment_id", p.ID), zap.String("status", p.Status))
	r.publish(n)

	switch n.Event {
	case EventPaymentConfirmed, EventPaymentReceived:
		r.onPaymentConfirmed(ctx, p)
	case EventPaymentOverdue:
		r.logger.Info("payment overdue", zap.String("payment_id", p.ID), zap.String("value", brl.FormatMoney(p.Value)))
	case EventPaymentDeleted:
		r.logger.Info("payment deleted", zap.String("payment_id", p.ID))
	case EventPaymentRefunded:
		r.logger.Info("payment refunded", zap.String("payment_id", p.ID), zap.String("value", brl.FormatMoney(p.Value)))
	default:
		r.logger.Info("event not handled", zap.String("event", n.Event))
	}
}

func (r *Receiver) onPaymentConfirmed(ctx context.Context, p *Payment) {
	r.logger.Info("payment confirmed",
		zap.String("payment_id", p.ID),
		zap.String("customer_id", p.Customer),
		zap.String("value", brl.FormatMoney(p.Value)),
		zap.String("billing_type", p.BillingType),
	)

	if p.Customer == "" {
		r.logger.Warn("confirmed payment without customer, conversion skipped", zap.String("payment_id", p.ID))
		return
	}
	customer, err := r.customers.GetCustomer(ctx, p.Customer)
	if err != nil {
		r.logger.Error("conversion enrichment failed", zap.String("payment_id", p.ID), zap.Error(err))
		return
	}

	r.conversions.Dispatch(conversion.Event{
		Name:    conversion.EventPurchase,
		Email:   customer.Email,
		Phone:   customer.ContactPhone(),
		Value:   p.Value,
		OrderID: p.ID,
	})
}

func (r *Receiver) publish(n Notification) {
	if r.events == nil {
		return
	}
	p := n.Payment
	payload, err := json.Marshal(PaymentEvent{
		Event:       n.Event,
		PaymentID:   p.ID,
		CustomerID:  p.Customer,
		Value:       p.Value,
		BillingType: p.BillingType,
		Status:      p.Status,
		ReceivedAt:  time.Now().UTC(),
	})
	if err != nil {
		r.logger.Error("encode payment event", zap.Error(err))
		return
	}

	task := func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := r.events.Publish(ctx, []byte(p.ID), payload); err != nil {
			r.logger.Error("publish payment event", zap.String("payment_id", p.ID), zap.Error(err))
		}
	}
	if err := r.pool.Submit(task); err != nil {
		r.logger.Error("payment event task rejected", zap.String("payment_id", p.ID), zap.Error(err))
	}
}
