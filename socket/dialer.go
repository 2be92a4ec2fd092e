// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package socket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/courier/lib/netutil"
)

// MaxFrameSize bounds one inbound frame.
const MaxFrameSize = 1 << 20

// Conn is an established socket.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	Close() error
}

// Dialer opens sockets.
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// HandshakeError reports a socket upgrade the server refused with an
// HTTP status.
type HandshakeError struct {
	StatusCode int
	Err        error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("socket: handshake refused with HTTP %d: %v", e.StatusCode, e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is a handshake refused with 401.
func IsUnauthorized(err error) bool {
	var handshake *HandshakeError
	return errors.As(err, &handshake) && handshake.StatusCode == http.StatusUnauthorized
}

// WebsocketDialer dials with gorilla/websocket, optionally through an
// HTTP(S) or SOCKS5 proxy.
type WebsocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebsocketDialer returns a dialer. A nil proxyURL dials directly.
func NewWebsocketDialer(proxyURL *url.URL, handshakeTimeout time.Duration) (*WebsocketDialer, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	if proxyURL != nil {
		switch proxyURL.Scheme {
		case "http", "https":
			dialer.Proxy = http.ProxyURL(proxyURL)
		case "socks5", "socks5h":
			dial, err := netutil.SOCKSDialer(proxyURL)
			if err != nil {
				return nil, fmt.Errorf("socket: %w", err)
			}
			dialer.NetDialContext = dial
		default:
			return nil, fmt.Errorf("socket: unsupported proxy scheme %q", proxyURL.Scheme)
		}
	}
	return &WebsocketDialer{dialer: dialer}, nil
}

func (d *WebsocketDialer) Dial(ctx context.Context, target string, header http.Header) (Conn, error) {
	conn, response, err := d.dialer.DialContext(ctx, target, header)
	if err != nil {
		if response != nil {
			return nil, &HandshakeError{StatusCode: response.StatusCode, Err: err}
		}
		return nil, fmt.Errorf("socket: dialing: %w", err)
	}
	conn.SetReadLimit(MaxFrameSize)
	return conn, nil
}
