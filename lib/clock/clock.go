// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source for code that waits or stamps records.
// Production code uses Real; tests use Fake.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the time once d has
	// elapsed. If d <= 0 the channel is ready immediately.
	After(d time.Duration) <-chan time.Time
}
