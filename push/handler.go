// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package push

import (
	"context"
	"log/slog"
)

// ClickTracker records that a push message was opened.
type ClickTracker interface {
	SendClickData(ctx context.Context, trackingURL string) error
}

// ClickTrackerFunc adapts a function to ClickTracker.
type ClickTrackerFunc func(ctx context.Context, trackingURL string) error

func (f ClickTrackerFunc) SendClickData(ctx context.Context, trackingURL string) error {
	return f(ctx, trackingURL)
}

// Navigator opens a deep link on the platform.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// HandleResult reports what Handle did with a payload.
type HandleResult struct {
	Details

	// ResolvedURL is the deep link that was resolved, if any.
	ResolvedURL string

	IsTrackingRecorded    bool
	IsNavigationPerformed bool
}

// Handler acts on opened push notifications.
type Handler struct {
	tracker   ClickTracker
	navigator Navigator
	logger    *slog.Logger
}

// NewHandler returns a Handler. navigator may be nil when the host
// navigates itself.
func NewHandler(tracker ClickTracker, navigator Navigator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{tracker: tracker, navigator: navigator, logger: logger}
}

// Handle parses data and, for a deep link, navigates to it when
// navigate is set and records the click when a tracking URL is
// present. Navigation and tracking failures are logged and reported
// through the result flags; only a malformed payload is an error.
func (h *Handler) Handle(ctx context.Context, data map[string]string, navigate bool) (HandleResult, error) {
	details, err := ParsePayload(data)
	if err != nil {
		h.logger.Error("push payload rejected", "error", err)
		return HandleResult{}, err
	}
	result := HandleResult{Details: details, ResolvedURL: details.URL}
	if details.URL == "" {
		return result, nil
	}

	if navigate && h.navigator != nil {
		if err := h.navigator.Navigate(ctx, details.URL); err != nil {
			h.logger.Warn("push deep link navigation failed", "url", details.URL, "error", err)
		} else {
			result.IsNavigationPerformed = true
		}
	}
	if details.TrackingURL != "" && h.tracker != nil {
		if err := h.tracker.SendClickData(ctx, details.TrackingURL); err != nil {
			h.logger.Warn("push click tracking failed", "error", err)
		} else {
			result.IsTrackingRecorded = true
		}
	}
	return result, nil
}
