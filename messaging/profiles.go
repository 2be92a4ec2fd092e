// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"net/http"
	"net/url"
)

// GetProfile fetches one profile.
func (c *Client) GetProfile(ctx context.Context, token, profileID string) (*Result[Profile], error) {
	return call[Profile](ctx, c, "get profile", request{
		method: http.MethodGet,
		path:   c.spacePath("profiles", profileID),
		token:  token,
	})
}

// QueryProfiles lists profiles matching query.
func (c *Client) QueryProfiles(ctx context.Context, token string, query url.Values) (*Result[[]Profile], error) {
	return call[[]Profile](ctx, c, "query profiles", request{
		method: http.MethodGet,
		path:   c.spacePath("profiles"),
		token:  token,
		query:  query,
	})
}

// UpdateProfile replaces a profile. A non-empty eTag makes the update
// conditional.
func (c *Client) UpdateProfile(ctx context.Context, token, profileID string, profile Profile, eTag string) (*Result[Profile], error) {
	return call[Profile](ctx, c, "update profile", request{
		method:  http.MethodPut,
		path:    c.spacePath("profiles", profileID),
		token:   token,
		body:    profile,
		ifMatch: eTag,
	})
}

// PatchProfile merges fields into a profile. A non-empty eTag makes
// the patch conditional.
func (c *Client) PatchProfile(ctx context.Context, token, profileID string, profile Profile, eTag string) (*Result[Profile], error) {
	return call[Profile](ctx, c, "patch profile", request{
		method:  http.MethodPatch,
		path:    c.spacePath("profiles", profileID),
		token:   token,
		body:    profile,
		ifMatch: eTag,
	})
}
