package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestE(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "plain", err: New(CodeValidation, "missing required fields"), wantMsg: "VALIDATION: missing required fields"},
		{name: "wrapped", err: Wrap(CodeCustomerResolution, "lookup failed", cause), wantMsg: "CUSTOMER_RESOLUTION: lookup failed (boom)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}

	var e E
	err := Wrap(CodeCustomerResolution, "lookup failed", cause)
	assert.True(t, stderrors.As(err, &e))
	assert.Equal(t, "lookup failed", e.Message)
	assert.ErrorIs(t, err, cause)
}
