// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import "fmt"

// MisuseError reports an SDK call made in the wrong lifecycle state.
type MisuseError struct {
	Operation string
	Reason    string
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("client: %s: %s", e.Operation, e.Reason)
}
