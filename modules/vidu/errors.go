package vidu

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// ErrorKind tags every failure the proxy can report.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindUpstream      ErrorKind = "upstream"
	KindNetwork       ErrorKind = "network"
	KindServer        ErrorKind = "server"
	KindValidation    ErrorKind = "validation"
)

// Envelope titles, part of the public response contract.
const (
	TitleConfiguration = "API key not configured"
	TitleUpstream      = "Vidu API Error"
	TitleNetwork       = "Network Error"
	TitleServer        = "Server Error"
	TitleValidation    = "Validation Error"
)

// ErrorEnvelope is the JSON body of every failed response.
type ErrorEnvelope struct {
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// ProxyError is a failure already classified for the HTTP boundary.
type ProxyError struct {
	Kind    ErrorKind
	Status  int
	Title   string
	Message string
	// Details is the upstream error body, only for KindUpstream.
	Details json.RawMessage
	Err     error
}

func (e *ProxyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ProxyError) Unwrap() error {
	return e.Err
}

// Envelope renders the error body.
func (e *ProxyError) Envelope() ErrorEnvelope {
	return ErrorEnvelope{
		Error:   e.Title,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewConfigurationError - the API key is missing.
func NewConfigurationError() *ProxyError {
	return &ProxyError{
		Kind:    KindConfiguration,
		Status:  http.StatusInternalServerError,
		Title:   TitleConfiguration,
		Message: "VITE_VIDU_API_KEY environment variable is not set",
	}
}

// NewUpstreamError builds the error for a non-200 Vidu response. The status
// is mirrored. message comes from the body's "message" string when there is
// one, otherwise "HTTP {code}: {reason}". A body that is not a JSON object
// becomes empty details.
func NewUpstreamError(status int, reason string, body []byte) *ProxyError {
	details := json.RawMessage(`{}`)
	message := fmt.Sprintf("HTTP %d: %s", status, reason)

	if gjson.ValidBytes(body) {
		parsed := gjson.ParseBytes(body)
		if parsed.IsObject() {
			details = json.RawMessage(parsed.Raw)
			if m := parsed.Get("message"); m.Type == gjson.String {
				message = m.String()
			}
		}
	}

	return &ProxyError{
		Kind:    KindUpstream,
		Status:  status,
		Title:   TitleUpstream,
		Message: message,
		Details: details,
	}
}

// NewNetworkError - the request to Vidu could not be completed.
func NewNetworkError(err error) *ProxyError {
	return &ProxyError{
		Kind:    KindNetwork,
		Status:  http.StatusInternalServerError,
		Title:   TitleNetwork,
		Message: fmt.Sprintf("Failed to connect to Vidu API: %v", err),
		Err:     err,
	}
}

// NewServerError - anything else.
func NewServerError(err error) *ProxyError {
	return &ProxyError{
		Kind:    KindServer,
		Status:  http.StatusInternalServerError,
		Title:   TitleServer,
		Message: fmt.Sprintf("An unexpected error occurred: %v", err),
		Err:     err,
	}
}

// NewValidationError - the inbound body could not be used.
func NewValidationError(msg string) *ProxyError {
	return &ProxyError{
		Kind:    KindValidation,
		Status:  http.StatusUnprocessableEntity,
		Title:   TitleValidation,
		Message: msg,
	}
}

// AsProxyError returns err as a *ProxyError, classifying unknown errors as
// server errors.
func AsProxyError(err error) *ProxyError {
	var perr *ProxyError
	if errors.As(err, &perr) {
		return perr
	}
	return NewServerError(err)
}
