// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrUsage marks errors caused by bad command-line usage. Fatal exits
// with status 2 for them.
var ErrUsage = errors.New("usage error")

// Fatal writes "error: err" to stderr and exits with code 1 (2 for
// usage errors). Use it in main() for errors from run().
func Fatal(err error) {
	os.Exit(report(os.Stderr, err))
}

func report(output io.Writer, err error) int {
	fmt.Fprintf(output, "error: %v\n", err)
	if errors.Is(err, ErrUsage) {
		return 2
	}
	return 1
}
