// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies network errors. IsExpectedCloseError tells
// an orderly or abrupt peer disconnect apart from a failure worth
// logging.
package netutil
