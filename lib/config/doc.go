// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the remote
// desktop host.
//
// Configuration is loaded from a single file specified by either the
// REMOTEDESK_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks and no automatic file search.
//
// The file may contain environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Production defaults to JSON logs.
//
// Path fields (host.authorized_keys, host.signaling_dir and the executor
// object paths) go through ${VAR} and ${VAR:-default} expansion after
// loading. ${HOST_ID} expands to host.id. No other environment variables
// override config values.
//
// This package depends on no other remotedesk packages.
package config
