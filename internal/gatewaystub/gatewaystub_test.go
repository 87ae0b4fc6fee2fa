package gatewaystub

import (
	"context"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/checkout-gateway/internal/config"
	"github.com/example/checkout-gateway/internal/gateway"
)

func newClient(t *testing.T, g *Gateway, key string) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(g.Handler())
	t.Cleanup(srv.Close)
	return gateway.NewClient(config.Gateway{BaseURL: srv.URL, APIKey: key}, zap.NewNop())
}

func TestRejectsWrongKey(t *testing.T) {
	g := New("key")
	c := newClient(t, g, "other")

	_, err := c.FindCustomers(context.Background(), url.Values{"email": {"a@x.com"}})
	var upstream *gateway.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 401, upstream.StatusCode)
	assert.Equal(t, "invalid_access_token", upstream.FirstCode())
}

func TestDuplicateOnCreate(t *testing.T) {
	g := New("")
	g.DuplicateOnCreate = true
	c := newClient(t, g, "")

	_, err := c.CreateCustomer(context.Background(), gateway.Customer{Name: "Ana", Email: "a@x.com"})
	var upstream *gateway.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "J_001", upstream.FirstCode())
	assert.Equal(t, 1, g.Calls(RouteCreateCustomer))
}

func TestCardChargeLifecycle(t *testing.T) {
	g := New("")
	cus := g.AddCustomer(gateway.Customer{Name: "Ana", Email: "a@x.com"})
	c := newClient(t, g, "")
	ctx := context.Background()

	charge, err := c.CreateCharge(ctx, gateway.Charge{Customer: cus.ID, BillingType: gateway.BillingCreditCard, Value: 5})
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusPending, charge.Status)

	_, err = c.PixQRCode(ctx, charge.ID)
	assert.Error(t, err, "card charges have no pix code")

	paid, err := c.PayWithCreditCard(ctx, charge.ID, gateway.CardPayment{CreditCard: gateway.CreditCard{Number: "4111111111111111"}})
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusConfirmed, paid.Status)
	assert.NotEmpty(t, paid.ConfirmedDate)

	got, err := c.GetCharge(ctx, charge.ID)
	require.NoError(t, err)
	assert.Equal(t, gateway.StatusConfirmed, got.Status)

	stored, ok := g.CardPayment(charge.ID)
	require.True(t, ok)
	assert.Equal(t, "4111111111111111", stored.CreditCard.Number)
}

func TestFailRate(t *testing.T) {
	g := New("")
	g.FailRate = 1
	c := newClient(t, g, "")

	_, err := c.GetCharge(context.Background(), "pay_1")
	var upstream *gateway.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 500, upstream.StatusCode)
}
