package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/example/checkout-gateway/internal/config"
)

// Client talks to the payment gateway REST API. It never retries.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func NewClient(cfg config.Gateway, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    http.DefaultClient,
		logger:  logger.Named("gateway"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	// the gateway documents this header in lower case
	req.Header["access_token"] = []string{c.apiKey}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("gateway_request", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	responseByte, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	c.logger.Info("gateway_request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newUpstreamError(resp.StatusCode, responseByte)
	}
	if out == nil || len(responseByte) == 0 {
		return nil
	}
	if err := json.Unmarshal(responseByte, out); err != nil {
		c.logger.Error("can not unmarshal response", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

func (c *Client) FindCustomers(ctx context.Context, query url.Values) ([]Customer, error) {
	var list CustomerList
	if err := c.Get(ctx, "/customers", query, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

func (c *Client) CreateCustomer(ctx context.Context, in Customer) (*Customer, error) {
	var out Customer
	if err := c.Post(ctx, "/customers", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var out Customer
	if err := c.Get(ctx, "/customers/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCharge(ctx context.Context, in Charge) (*Charge, error) {
	var out Charge
	if err := c.Post(ctx, "/payments", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCharge(ctx context.Context, id string) (*Charge, error) {
	var out Charge
	if err := c.Get(ctx, "/payments/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PayWithCreditCard(ctx context.Context, chargeID string, in CardPayment) (*Charge, error) {
	var out Charge
	if err := c.Post(ctx, "/payments/"+url.PathEscape(chargeID)+"/payWithCreditCard", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PixQRCode(ctx context.Context, chargeID string) (*PixQRCode, error) {
	var out PixQRCode
	if err := c.Get(ctx, "/payments/"+url.PathEscape(chargeID)+"/pixQrCode", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
