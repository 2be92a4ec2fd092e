// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is the REST transport to the messaging backend:
// session endpoints, conversations, messages, profiles, content and
// events. Every authenticated call takes the access token explicitly;
// the session package decides which token to use and when to renew it.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/bureau-foundation/courier/lib/netutil"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the backend REST root, e.g. "https://api.comapi.com".
	BaseURL string

	// APISpace scopes every request path.
	APISpace string

	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client talks to one API space.
type Client struct {
	baseURL    string
	apiSpace   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("messaging: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("messaging: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if config.APISpace == "" {
		return nil, fmt.Errorf("messaging: APISpace is required")
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiSpace:   config.APISpace,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// APISpace returns the API space the client is scoped to.
func (c *Client) APISpace() string { return c.apiSpace }

// Result is a decoded 2xx response.
type Result[T any] struct {
	Value      T
	StatusCode int

	// ETag is the entity tag for optimistic concurrency. Pass it back
	// as the eTag argument of update and delete calls.
	ETag string
}

type request struct {
	method string
	path   string
	token  string
	query  url.Values

	// body is JSON-encoded unless raw is set.
	body        any
	raw         io.Reader
	contentType string

	// ifMatch sends If-Match for conditional updates.
	ifMatch string

	// absolute marks path as a full URL outside the API space.
	absolute bool
}

type response struct {
	statusCode int
	body       []byte
	etag       string
}

// spacePath joins escaped segments under the API space root.
func (c *Client) spacePath(segments ...string) string {
	var builder strings.Builder
	builder.WriteString("/apispaces/")
	builder.WriteString(url.PathEscape(c.apiSpace))
	for _, segment := range segments {
		builder.WriteByte('/')
		builder.WriteString(url.PathEscape(segment))
	}
	return builder.String()
}

func (c *Client) do(ctx context.Context, req request) (*response, error) {
	requestURL := req.path
	if !req.absolute {
		requestURL = c.baseURL + req.path
	}
	if len(req.query) > 0 {
		requestURL += "?" + req.query.Encode()
	}

	bodyReader := req.raw
	contentType := req.contentType
	if bodyReader == nil && req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("messaging: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	httpRequest, err := http.NewRequestWithContext(ctx, req.method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to create request: %w", err)
	}
	httpRequest.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpRequest.Header.Set("Content-Type", contentType)
	}
	if req.token != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.ifMatch != "" {
		httpRequest.Header.Set("If-Match", req.ifMatch)
	}

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, &TransportError{Method: req.method, Path: req.path, Err: err}
	}
	defer httpResponse.Body.Close()

	body, err := netutil.ReadResponse(httpResponse.Body)
	if err != nil {
		return nil, &TransportError{Method: req.method, Path: req.path, Err: fmt.Errorf("reading response body: %w", err)}
	}

	etag := httpResponse.Header.Get("ETag")
	if httpResponse.StatusCode >= 200 && httpResponse.StatusCode < 300 {
		return &response{statusCode: httpResponse.StatusCode, body: body, etag: etag}, nil
	}

	apiErr := &APIError{
		StatusCode: httpResponse.StatusCode,
		Method:     req.method,
		Path:       req.path,
		ETag:       etag,
		Body:       string(body),
	}
	var errorBody struct {
		Message            string              `json:"message"`
		ValidationFailures []ValidationFailure `json:"validationFailures"`
	}
	if json.Unmarshal(body, &errorBody) == nil {
		apiErr.Message = errorBody.Message
		apiErr.ValidationFailures = errorBody.ValidationFailures
	}
	c.logger.Debug("backend rejected request",
		"method", req.method,
		"path", req.path,
		"status", httpResponse.StatusCode,
	)
	return nil, apiErr
}

// call performs req and decodes a JSON body into a Result. An empty
// body leaves Value at its zero value.
func call[T any](ctx context.Context, c *Client, op string, req request) (*Result[T], error) {
	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	result := &Result[T]{StatusCode: resp.statusCode, ETag: resp.etag}
	if _, empty := any(result.Value).(Empty); empty {
		return result, nil
	}
	if len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(resp.body, &result.Value); err != nil {
			return nil, &ProtocolError{Op: op, Err: err}
		}
	}
	return result, nil
}

// Empty is the Value of calls whose response carries no payload.
type Empty struct{}
