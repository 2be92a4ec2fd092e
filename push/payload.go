// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package push interprets push notification payloads and keeps the
// device's push token registered with the backend.
package push

import (
	"encoding/json"
	"fmt"
)

// Keys of the push data map.
const (
	KeyDeepLink     = "deepLink"
	KeyData         = "data"
	KeyNotification = "dotdigital"
)

// Details is what a push payload asks the application to do: open URL,
// or hand Data to the application. At most one of the two is set.
type Details struct {
	URL         string
	TrackingURL string
	Data        map[string]any

	// Notification is the displayable part, when present.
	Notification *Notification
}

// Notification is the displayable content of a push message.
type Notification struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	Link          string `json:"link"`
	CorrelationID string `json:"correlationId"`
	ActionID      string `json:"actionId"`
}

type deepLink struct {
	URL         string `json:"url"`
	TrackingURL string `json:"trackingUrl"`
}

// ParsePayload extracts the deep link or data object from a push data
// map. A deep link without a url yields empty Details.
func ParsePayload(data map[string]string) (Details, error) {
	var details Details
	if raw, ok := data[KeyNotification]; ok {
		var notification Notification
		if err := json.Unmarshal([]byte(raw), &notification); err != nil {
			return Details{}, fmt.Errorf("push: decoding %s: %w", KeyNotification, err)
		}
		details.Notification = &notification
	}

	if raw, ok := data[KeyDeepLink]; ok {
		var link deepLink
		if err := json.Unmarshal([]byte(raw), &link); err != nil {
			return Details{}, fmt.Errorf("push: decoding %s: %w", KeyDeepLink, err)
		}
		if link.URL != "" {
			details.URL = link.URL
			details.TrackingURL = link.TrackingURL
		}
		return details, nil
	}

	if raw, ok := data[KeyData]; ok {
		var object map[string]any
		if err := json.Unmarshal([]byte(raw), &object); err != nil {
			return Details{}, fmt.Errorf("push: decoding %s: %w", KeyData, err)
		}
		details.Data = object
	}
	return details, nil
}
