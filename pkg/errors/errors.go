// checkout-gateway/pkg/errors/errors.go
package errors

import "fmt"

const (
	CodeValidation         = "VALIDATION"
	CodeCustomerResolution = "CUSTOMER_RESOLUTION"
)

type E struct {
	Code    string
	Message string
	Err     error
}

func (e E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e E) Unwrap() error { return e.Err }

func New(code, msg string) error {
	return E{Code: code, Message: msg}
}

func Wrap(code, msg string, err error) error {
	return E{Code: code, Message: msg, Err: err}
}

// Validation is shorthand for a client-caused input error.
func Validation(msg string) error {
	return New(CodeValidation, msg)
}
