// services/api-gateway/handlers/types.go
package handlers

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/example/checkout-gateway/internal/checkout"
)

// CheckoutIn accepts both the current field names and the ones the first
// storefront release posts (cpf, billingType, installments).
type CheckoutIn struct {
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	TaxID            string  `json:"taxId"`
	Cpf              string  `json:"cpf"`
	Phone            string  `json:"phone"`
	BillingMethod    string  `json:"billingMethod"`
	BillingType      string  `json:"billingType"`
	Card             *CardIn `json:"card"`
	InstallmentCount any     `json:"installmentCount"`
	Installments     any     `json:"installments"`
}

type CardIn struct {
	HolderName    string `json:"holderName"`
	Number        string `json:"number"`
	Expiry        string `json:"expiry"` // MM/YY
	CVV           string `json:"cvv"`
	PostalCode    string `json:"postalCode"`
	AddressNumber string `json:"addressNumber"`
}

func (in CheckoutIn) ToRequest() checkout.Request {
	req := checkout.Request{
		Name:          in.Name,
		Email:         in.Email,
		TaxID:         firstNonEmpty(in.TaxID, in.Cpf),
		Phone:         in.Phone,
		BillingMethod: firstNonEmpty(in.BillingMethod, in.BillingType),
	}
	count := in.InstallmentCount
	if count == nil {
		count = in.Installments
	}
	req.InstallmentCount = installmentCount(count)
	if req.InstallmentCount < 1 {
		req.InstallmentCount = 1
	}
	if in.Card != nil {
		req.Card = &checkout.Card{
			HolderName:    in.Card.HolderName,
			Number:        in.Card.Number,
			Expiry:        in.Card.Expiry,
			CVV:           in.Card.CVV,
			PostalCode:    in.Card.PostalCode,
			AddressNumber: in.Card.AddressNumber,
		}
	}
	return req
}

type ErrorOut struct {
	Error string `json:"error"`
}

type StatusOut struct {
	ID            string  `json:"id,omitempty"`
	Status        string  `json:"status"`
	Value         float64 `json:"value"`
	BillingType   string  `json:"billingType"`
	ConfirmedDate *string `json:"confirmedDate"`
}

type PixQRCodeOut struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}

type HealthOut struct {
	Status    string `json:"status"`
	Env       string `json:"env"`
	Timestamp string `json:"timestamp"`
}

// installmentCount reads the leading base-10 integer of a string ("010" is
// 10, "2x" is 2) and truncates numbers (3.7 is 3). Unparsable input is 0.
func installmentCount(v any) int {
	s, ok := v.(string)
	if !ok {
		f, err := cast.ToFloat64E(v)
		if err != nil || f < 1 || f > math.MaxInt32 {
			return 0
		}
		return int(f)
	}

	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	digits := strings.TrimLeft(s[:end], "0")
	if digits == "" || len(digits) > 9 {
		return 0
	}
	return cast.ToInt(digits)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
