// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// remotedesk-client connects to a remotedesk host, authenticates with an
// OpenSSH ed25519 private key, replays a YAML event script and prints
// the clipboard values the host sends back.
//
// A script is a list of steps, each with exactly one action:
//
//	steps:
//	  - dimensions: {width: 1280, height: 720}
//	  - mouse: {x: 100, y: 200}
//	  - mouse: {button: left, down: true}
//	  - mouse: {button: left, down: false}
//	  - key: {usb: 0x070004, pressed: true}
//	  - key: {usb: 0x070004, pressed: false}
//	  - wheel: {dy: -120}
//	  - clipboard: "copied text"
//	  - video: false
//	  - sequence: 42
//	  - sleep: 250ms
//
// After the script the client keeps listening for --linger, printing
// each clipboard value the host sends, then disconnects.
package main
