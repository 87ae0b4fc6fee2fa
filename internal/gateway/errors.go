package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ErrorDetail struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// UpstreamError is any non-2xx answer from the gateway, decoded once.
type UpstreamError struct {
	StatusCode int
	Errors     []ErrorDetail
	Message    string
	Body       []byte
}

func newUpstreamError(status int, body []byte) *UpstreamError {
	ue := &UpstreamError{StatusCode: status, Body: body}
	var shape struct {
		Errors  []ErrorDetail `json:"errors"`
		Message string        `json:"message"`
	}
	if json.Unmarshal(body, &shape) == nil {
		ue.Errors = shape.Errors
		ue.Message = shape.Message
	}
	return ue
}

func (e *UpstreamError) Error() string {
	if d := e.Description(); d != "" {
		return fmt.Sprintf("gateway status %d: %s", e.StatusCode, d)
	}
	return fmt.Sprintf("gateway status %d", e.StatusCode)
}

// Description joins all structured descriptions, falling back to the message.
func (e *UpstreamError) Description() string {
	var parts []string
	for _, d := range e.Errors {
		if d.Description != "" {
			parts = append(parts, d.Description)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	return e.Message
}

func (e *UpstreamError) FirstCode() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Code
}

func (e *UpstreamError) FirstDescription() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Description
}
