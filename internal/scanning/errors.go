package scanning

import (
	"errors"
	"fmt"
)

// ValidationError reports a request that was rejected before any upstream call
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UpstreamError reports a failed, rejected or timed out call to a provider
type UpstreamError struct {
	Provider   string
	StatusCode int    // zero when no response was received
	Message    string // provider's own message, if it sent one
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = "request failed"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, msg)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ParseError reports a model reply that could not be read as an extraction
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse receipt data: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	// errNoJSONObject is returned when a reply holds no recoverable object
	errNoJSONObject = errors.New("no JSON object found in response")

	// errNotAnObject is returned when a reply's JSON is not an object
	errNotAnObject = errors.New("receipt data is not a JSON object")
)
