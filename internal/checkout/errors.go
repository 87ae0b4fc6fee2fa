package checkout

import (
	"errors"

	"github.com/example/checkout-gateway/internal/gateway"
	apperr "github.com/example/checkout-gateway/pkg/errors"
)

const unknownError = "unknown error"

// ErrorMessage is the client-facing text for a failed checkout: a coded
// application message, else the gateway's structured descriptions, else the
// raw error text.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e apperr.E
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	var ue *gateway.UpstreamError
	if errors.As(err, &ue) {
		if d := ue.Description(); d != "" {
			return d
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return unknownError
}

// IsValidation reports whether err was caused by the client's input.
func IsValidation(err error) bool {
	var e apperr.E
	return errors.As(err, &e) && e.Code == apperr.CodeValidation
}
