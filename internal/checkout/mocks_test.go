package checkout

import (
	"context"
	"errors"
	"net/url"

	"github.com/example/checkout-gateway/internal/gateway"
)

var errMockUnexpected = errors.New("unexpected gateway call")

// mockGateway implements Gateway with overridable funcs and records calls.
type mockGateway struct {
	FindCustomersFunc     func(ctx context.Context, query url.Values) ([]gateway.Customer, error)
	CreateCustomerFunc    func(ctx context.Context, in gateway.Customer) (*gateway.Customer, error)
	CreateChargeFunc      func(ctx context.Context, in gateway.Charge) (*gateway.Charge, error)
	GetChargeFunc         func(ctx context.Context, id string) (*gateway.Charge, error)
	PayWithCreditCardFunc func(ctx context.Context, chargeID string, in gateway.CardPayment) (*gateway.Charge, error)
	PixQRCodeFunc         func(ctx context.Context, chargeID string) (*gateway.PixQRCode, error)

	calls     []string
	charges   []gateway.Charge
	customers []gateway.Customer
	payments  []gateway.CardPayment
	queries   []url.Values
}

func (m *mockGateway) FindCustomers(ctx context.Context, query url.Values) ([]gateway.Customer, error) {
	m.calls = append(m.calls, "FindCustomers")
	m.queries = append(m.queries, query)
	if m.FindCustomersFunc != nil {
		return m.FindCustomersFunc(ctx, query)
	}
	return nil, nil
}

func (m *mockGateway) CreateCustomer(ctx context.Context, in gateway.Customer) (*gateway.Customer, error) {
	m.calls = append(m.calls, "CreateCustomer")
	m.customers = append(m.customers, in)
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, in)
	}
	return &gateway.Customer{ID: "cus_new"}, nil
}

func (m *mockGateway) CreateCharge(ctx context.Context, in gateway.Charge) (*gateway.Charge, error) {
	m.calls = append(m.calls, "CreateCharge")
	m.charges = append(m.charges, in)
	if m.CreateChargeFunc != nil {
		return m.CreateChargeFunc(ctx, in)
	}
	in.ID = "pay_1"
	in.Status = gateway.StatusPending
	return &in, nil
}

func (m *mockGateway) GetCharge(ctx context.Context, id string) (*gateway.Charge, error) {
	m.calls = append(m.calls, "GetCharge")
	if m.GetChargeFunc != nil {
		return m.GetChargeFunc(ctx, id)
	}
	return nil, errMockUnexpected
}

func (m *mockGateway) PayWithCreditCard(ctx context.Context, chargeID string, in gateway.CardPayment) (*gateway.Charge, error) {
	m.calls = append(m.calls, "PayWithCreditCard")
	m.payments = append(m.payments, in)
	if m.PayWithCreditCardFunc != nil {
		return m.PayWithCreditCardFunc(ctx, chargeID, in)
	}
	return &gateway.Charge{ID: chargeID, Status: gateway.StatusConfirmed}, nil
}

func (m *mockGateway) PixQRCode(ctx context.Context, chargeID string) (*gateway.PixQRCode, error) {
	m.calls = append(m.calls, "PixQRCode")
	if m.PixQRCodeFunc != nil {
		return m.PixQRCodeFunc(ctx, chargeID)
	}
	return &gateway.PixQRCode{EncodedImage: "img", Payload: "pix-" + chargeID, ExpirationDate: "2026-10-20 23:59:59"}, nil
}
