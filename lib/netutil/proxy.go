// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"golang.org/x/net/proxy"
)

// DialContextFunc matches net.Dialer.DialContext.
type DialContextFunc func(ctx context.Context, network, address string) (net.Conn, error)

// IsSOCKS reports whether proxyURL names a SOCKS5 proxy.
func IsSOCKS(proxyURL *url.URL) bool {
	return proxyURL.Scheme == "socks5" || proxyURL.Scheme == "socks5h"
}

// SOCKSDialer returns a dial function that connects through the SOCKS5
// proxy at proxyURL. Credentials in the URL are used for the proxy
// handshake.
func SOCKSDialer(proxyURL *url.URL) (DialContextFunc, error) {
	dialer, err := proxy.FromURL(proxyURL, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("configuring SOCKS proxy %s: %w", proxyURL.Redacted(), err)
	}
	contextDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS dialer for %s does not support contexts", proxyURL.Redacted())
	}
	return contextDialer.DialContext, nil
}

// ProxyTransport returns a clone of http.DefaultTransport routed
// through proxyURL. A nil proxyURL disables environment proxies too.
func ProxyTransport(proxyURL *url.URL) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	switch {
	case proxyURL == nil:
		transport.Proxy = nil
	case proxyURL.Scheme == "http" || proxyURL.Scheme == "https":
		transport.Proxy = http.ProxyURL(proxyURL)
	case IsSOCKS(proxyURL):
		dial, err := SOCKSDialer(proxyURL)
		if err != nil {
			return nil, err
		}
		transport.Proxy = nil
		transport.DialContext = dial
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", proxyURL.Scheme)
	}
	return transport, nil
}
