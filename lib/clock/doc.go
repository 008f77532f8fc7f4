// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the injectable time source behind Notion retry
// backoff, Discord rate-limit waits, the interaction defer budget,
// session expiry, and the API rate limiter.
//
// Types that read or wait on time take a Clock in their Config and
// default to Real. Tests pass Fake and drive it explicitly:
//
//	fake := clock.Fake(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC))
//	go client.GetTasks(ctx, nil) // hits a 429 and waits
//	fake.WaitForTimers(1)
//	fake.Advance(time.Second)
package clock
