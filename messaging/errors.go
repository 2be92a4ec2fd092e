// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Method     string
	Path       string

	// Message is the backend's human-readable error, when present.
	Message string

	// ValidationFailures lists rejected request parameters (400).
	ValidationFailures []ValidationFailure

	// ETag is the current entity tag on 412 responses.
	ETag string

	// Body is the raw response body.
	Body string
}

// ValidationFailure names one rejected request parameter.
type ValidationFailure struct {
	Param   string `json:"paramName"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "messaging: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Message != "" {
		builder.WriteString(": ")
		builder.WriteString(e.Message)
	}
	for _, failure := range e.ValidationFailures {
		fmt.Fprintf(&builder, "; %s: %s", failure.Param, failure.Message)
	}
	return builder.String()
}

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("messaging: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError means a 2xx response body could not be decoded.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("messaging: malformed %s response: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, statusCode int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == statusCode
}

// IsUnauthorized reports whether the backend rejected the access
// token.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}
