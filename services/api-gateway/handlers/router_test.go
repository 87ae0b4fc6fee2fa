package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/checkout-gateway/internal/checkout"
	"github.com/example/checkout-gateway/internal/config"
	"github.com/example/checkout-gateway/internal/conversion"
	"github.com/example/checkout-gateway/internal/gateway"
	"github.com/example/checkout-gateway/internal/gatewaystub"
	"github.com/example/checkout-gateway/internal/webhook"
)

const webhookSecret = "whsec"

type inlinePool struct{}

func (inlinePool) Submit(task func()) error { task(); return nil }

// adsServer records every event id posted to the conversions endpoint.
type adsServer struct {
	mu       sync.Mutex
	eventIDs []string
	status   int
}

func (a *adsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data []struct {
			EventID string `json:"event_id"`
		} `json:"data"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	a.mu.Lock()
	for _, d := range body.Data {
		a.eventIDs = append(a.eventIDs, d.EventID)
	}
	a.mu.Unlock()
	w.WriteHeader(a.status)
	_, _ = w.Write([]byte(`{"events_received":1}`))
}

func (a *adsServer) events() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.eventIDs...)
}

type fixture struct {
	stub    *gatewaystub.Gateway
	ads     *adsServer
	handler http.Handler
}

func newFixture(t *testing.T, adsStatus int, mutate func(*Deps)) *fixture {
	t.Helper()
	stub := gatewaystub.New("key")
	gwSrv := httptest.NewServer(stub.Handler())
	t.Cleanup(gwSrv.Close)

	ads := &adsServer{status: adsStatus}
	adsSrv := httptest.NewServer(ads)
	t.Cleanup(adsSrv.Close)

	lg := zap.NewNop()
	gw := gateway.NewClient(config.Gateway{BaseURL: gwSrv.URL, APIKey: "key"}, lg)
	reporter := conversion.NewReporter(config.Conversion{
		PixelID:     "123456",
		AccessToken: "EAAtoken",
		APIVersion:  "v19.0",
		BaseURL:     adsSrv.URL,
		Timeout:     time.Second,
		ProductID:   "curso-ingles-completo",
		Currency:    "BRL",
	}, adsSrv.Client(), lg)

	d := Deps{
		Checkout: checkout.NewService(gw, config.Catalog{Description: "Guia", PriceCash: 5.00, PriceFull: 5.00}, lg),
		Webhook:  webhook.NewReceiver(webhookSecret, gw, conversion.NewDispatcher(reporter, inlinePool{}, lg), lg),
		Logger:   lg,
		Env:      config.EnvSandbox,
	}
	if mutate != nil {
		mutate(&d)
	}
	return &fixture{stub: stub, ads: ads, handler: NewRouter(d)}
}

func (f *fixture) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func confirmed(paymentID, customerID string) map[string]any {
	return map[string]any{
		"event": webhook.EventPaymentConfirmed,
		"payment": map[string]any{
			"id":          paymentID,
			"customer":    customerID,
			"value":       5.00,
			"billingType": "PIX",
			"status":      "CONFIRMED",
		},
	}
}

func TestPixCheckoutThenConfirmation(t *testing.T) {
	f := newFixture(t, http.StatusOK, nil)

	rec := f.do(http.MethodPost, "/api/checkout", map[string]any{
		"name": "Ana", "email": "a@x.com", "taxId": "11122233344", "phone": "11999998888", "billingMethod": "INSTANT_TRANSFER",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res checkout.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "PENDING", res.Status)
	assert.NotEmpty(t, res.QRCode)
	assert.NotEmpty(t, res.PixPayload)

	charges := f.stub.Charges()
	require.Len(t, charges, 1)
	assert.Equal(t, res.PaymentID, charges[0].ID)

	rec = f.do(http.MethodPost, "/webhook/asaas", confirmed(res.PaymentID, charges[0].Customer),
		map[string]string{webhook.TokenHeader: webhookSecret})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, []string{res.PaymentID + "_Purchase"}, f.ads.events())
}

func TestCheckoutRejectsMissingFields(t *testing.T) {
	f := newFixture(t, http.StatusOK, nil)

	rec := f.do(http.MethodPost, "/api/checkout", map[string]any{"name": "Ana", "billingMethod": "PIX"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"missing required fields"}`, rec.Body.String())
	assert.Zero(t, f.stub.Calls(gatewaystub.RouteFindCustomers))
}

func TestCheckoutMalformedBody(t *testing.T) {
	f := newFixture(t, http.StatusOK, nil)

	rec := f.do(http.MethodPost, "/api/checkout", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, rec.Body.String())
}

func TestCheckoutDeclinedCard(t *testing.T) {
	f := newFixture(t, http.StatusOK, nil)

	rec := f.do(http.MethodPost, "/api/checkout", map[string]any{
		"name": "Ana", "email": "a@x.com", "cpf": "11122233344", "phone": "11999998888", "billingType": "CREDIT_CARD",
		"card":         map[string]any{"holderName": "ANA", "number": gatewaystub.DeclinedCardNumber, "expiry": "03/27", "cvv": "123"},
		"installments": "3",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var out ErrorOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Error)

	charges := f.stub.Charges()
	require.Len(t, charges, 1)
	assert.Equal(t, 3, charges[0].InstallmentCount)
}

func TestWebhookTokenMismatch(t *testing.T) {
	f := newFixture(t, http.StatusOK, nil)
	customer := f.stub.AddCustomer(gateway.Customer{Name: "Ana", Email: "a@x.com"})

	rec := f.do(http.MethodPost, "/webhook/asaas", confirmed("pay_1", customer.ID),
		map[string]string{webhook.TokenHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", rec.Body.String())
	assert.Zero(t, f.stub.Calls(gatewaystub.RouteGetCustomer))
	assert.Empty(t, f.ads.events())
}

func TestWebhookInvalidPayload(t *testing.T) {
	f := newFixture(t, http.StatusOK, nil)
	headers := map[string]string{webhook.TokenHeader: webhookSecret}

	for name, body := range map[string]any{
		"malformed":       "{",
		"missing payment": map[string]any{"event": webhook.EventPaymentConfirmed},
		"missing event":   map[string]any{"payment": map[string]any{"id": "pay_1"}},
	} {
		t.Run(name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/webhook/asaas", body, headers)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Invalid payload", rec.Body.String())
		})
	}
}

func TestWebhookAcknowledgesFailures(t *testing.T) {
	headers := map[string]string{webhook.TokenHeader: webhookSecret}

	t.Run("report rejected", func(t *testing.T) {
		f := newFixture(t, http.StatusInternalServerError, nil)
		customer := f.stub.AddCustomer(gateway.Customer{Name: "Ana", Email: "a@x.com"})

		rec := f.do(http.MethodPost, "/webhook/asaas", confirmed("pay_1", customer.ID), headers)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"pay_1_Purchase"}, f.ads.events())
	})

	t.Run("unknown customer", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, nil)

		rec := f.do(http.MethodPost, "/webhook/asaas", confirmed("pay_1", "cus_missing"), headers)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, f.ads.events())
	})

	t.Run("unhandled event", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, nil)

		rec := f.do(http.MethodPost, "/webhook/asaas", map[string]any{
			"event":   "PAYMENT_CREATED",
			"payment": map[string]any{"id": "pay_1"},
		}, headers)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, f.stub.Calls(gatewaystub.RouteGetCustomer))
	})
}

func TestPaymentQueries(t *testing.T) {
	f := newFixture(t, http.StatusOK, nil)

	rec := f.do(http.MethodPost, "/api/checkout", map[string]any{
		"name": "Ana", "email": "a@x.com", "taxId": "11122233344", "phone": "11999998888", "billingMethod": "PIX",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res checkout.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	rec = f.do(http.MethodGet, "/api/payments/"+res.PaymentID+"/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st StatusOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "PENDING", st.Status)
	assert.Equal(t, 5.00, st.Value)
	assert.Nil(t, st.ConfirmedDate)

	rec = f.do(http.MethodGet, "/api/checkout/status/"+res.PaymentID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, res.PaymentID, st.ID)

	rec = f.do(http.MethodGet, "/api/payments/"+res.PaymentID+"/pixQrCode", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var qr PixQRCodeOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &qr))
	assert.Equal(t, res.PixPayload, qr.Payload)
}

func TestPaymentQueryFailures(t *testing.T) {
	f := newFixture(t, http.StatusOK, nil)

	tests := []struct {
		path string
		code int
		body string
	}{
		{path: "/api/payments/pay_missing/status", code: http.StatusInternalServerError, body: `{"error":"failed to fetch payment"}`},
		{path: "/api/payments/pay_missing/pixQrCode", code: http.StatusInternalServerError, body: `{"error":"failed to fetch Pix QR code"}`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := f.do(http.MethodGet, tt.path, nil, nil)
			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}

	rec := f.do(http.MethodGet, "/api/checkout/status/pay_missing", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, http.StatusOK, nil)

	rec := f.do(http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out HealthOut
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, config.EnvSandbox, out.Env)
	_, err := time.Parse(time.RFC3339, out.Timestamp)
	assert.NoError(t, err)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRateLimitAppliesToAPIOnly(t *testing.T) {
	f := newFixture(t, http.StatusOK, func(d *Deps) {
		d.RateLimitMax = 2
		d.RateLimitWindow = time.Hour
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/health", nil, nil).Code)
	}
	rec := f.do(http.MethodGet, "/api/health", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Too many attempts. Try again in a few minutes."}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/webhook/asaas", "{", map[string]string{webhook.TokenHeader: webhookSecret})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
