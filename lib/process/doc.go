// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for notionbot
// binaries. It covers the one legitimate raw I/O pattern that exists
// before the structured logger: reporting a fatal error from run() to
// stderr and exiting.
//
// Every main follows the same shape:
//
//	func main() {
//	    if err := run(); err != nil {
//	        process.Fatal(err)
//	    }
//	}
package process
