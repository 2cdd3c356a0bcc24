package services

import (
	"errors"
	"fmt"
)

// RequestError is returned for every failed backend call: transport failure,
// non-2xx status or an undecodable body.
type RequestError struct {
	Endpoint string
	Status   int    // 0 when no response arrived
	Message  string // backend-provided message, if any
	Cause    error
}

func (e *RequestError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("request to %s failed with status %d: %s", e.Endpoint, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("request to %s failed with status %d", e.Endpoint, e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Cause)
	default:
		return fmt.Sprintf("request to %s failed", e.Endpoint)
	}
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// ValidationError is a locally rejected input. No request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RenderError is a chart or image export failure
type RenderError struct {
	Target string
	Cause  error
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return "failed to render " + e.Target
	}
	return fmt.Sprintf("failed to render %s: %v", e.Target, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

var (
	ErrNothingPending = errors.New("no action awaiting confirmation")
	ErrUnknownAction  = errors.New("unknown device action")
	ErrUnknownDevice  = errors.New("device not found")
)
