// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"os"
	"strings"
)

// Fatal writes "error: err" to stderr and exits with code 1. Use it in
// main() for errors from run(), where the structured logger may not be
// initialized. Joined errors (config validation) print one per line.
func Fatal(err error) {
	message := strings.ReplaceAll(err.Error(), "\n", "\n  ")
	fmt.Fprintf(os.Stderr, "error: %s\n", message)
	os.Exit(1)
}
