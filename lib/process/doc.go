// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helper the remotedesk binaries
// share: reporting a fatal error from run() to stderr, where the
// structured logger may not exist yet, and exiting.
package process
