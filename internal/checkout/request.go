package checkout

import (
	"strings"
	"unicode"

	"github.com/example/checkout-gateway/internal/gateway"
	apperr "github.com/example/checkout-gateway/pkg/errors"
)

type BillingMethod string

const (
	CreditCard BillingMethod = gateway.BillingCreditCard
	Pix        BillingMethod = gateway.BillingPix
)

// ParseBillingMethod accepts the gateway names and the storefront aliases.
func ParseBillingMethod(s string) (BillingMethod, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CREDIT_CARD", "CARD":
		return CreditCard, true
	case "PIX", "INSTANT_TRANSFER":
		return Pix, true
	}
	return "", false
}

type Card struct {
	HolderName    string
	Number        string
	Expiry        string // MM/YY
	CVV           string
	PostalCode    string
	AddressNumber string
}

type Request struct {
	Name             string
	Email            string
	TaxID            string
	Phone            string
	BillingMethod    string
	Card             *Card
	InstallmentCount int
}

// Result is what the storefront receives on success.
type Result struct {
	Success        bool   `json:"success"`
	PaymentID      string `json:"paymentId"`
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
	QRCode         string `json:"qrCode,omitempty"`
	PixPayload     string `json:"pixPayload,omitempty"`
	ExpirationDate string `json:"expirationDate,omitempty"`
}

const (
	msgMissingFields = "missing required fields"
	msgInvalidMethod = "invalid billing method"
	msgMissingCard   = "card data not provided"
	msgInvalidExpiry = "invalid card expiry"
)

// validated carries the normalised input into the gateway steps.
type validated struct {
	Request
	method      BillingMethod
	taxID       string
	phone       string
	expiryMonth string
	expiryYear  string
}

func validate(req Request) (*validated, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	v := &validated{
		Request: req,
		taxID:   digitsOnly(req.TaxID),
		phone:   digitsOnly(req.Phone),
	}
	if req.Name == "" || req.Email == "" || v.taxID == "" || v.phone == "" || strings.TrimSpace(req.BillingMethod) == "" {
		return nil, apperr.Validation(msgMissingFields)
	}

	method, ok := ParseBillingMethod(req.BillingMethod)
	if !ok {
		return nil, apperr.Validation(msgInvalidMethod)
	}
	v.method = method

	if method == CreditCard {
		if req.Card == nil {
			return nil, apperr.Validation(msgMissingCard)
		}
		month, year, ok := splitExpiry(req.Card.Expiry)
		if !ok {
			return nil, apperr.Validation(msgInvalidExpiry)
		}
		v.expiryMonth, v.expiryYear = month, year
	}
	return v, nil
}

// splitExpiry turns "03/27" into "03", "2027".
func splitExpiry(expiry string) (month, year string, ok bool) {
	parts := strings.Split(strings.TrimSpace(expiry), "/")
	if len(parts) != 2 {
		return "", "", false
	}
	month, year = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if month == "" || len(month) > 2 || digitsOnly(month) != month {
		return "", "", false
	}
	if len(month) == 1 {
		month = "0" + month
	}
	if digitsOnly(year) != year {
		return "", "", false
	}
	switch len(year) {
	case 2:
		year = "20" + year
	case 4:
	default:
		return "", "", false
	}
	return month, year, true
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// customerName falls back to the card holder and then the e-mail local part.
func customerName(req Request) string {
	if req.Name != "" {
		return req.Name
	}
	if req.Card != nil && req.Card.HolderName != "" {
		return req.Card.HolderName
	}
	local, _, _ := strings.Cut(req.Email, "@")
	return local
}

func orDefault(v, d string) string {
	if strings.TrimSpace(v) == "" {
		return d
	}
	return v
}
