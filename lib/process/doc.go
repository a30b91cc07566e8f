// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers. These centralize
// the raw I/O that legitimately happens before or after the structured
// logger exists:
//
//   - Fatal error reporting to stderr when the logger may not be
//     initialized (pre-logger).
//   - Process exit after an unrecoverable error in main().
//
// Everything else the daemon prints about itself goes through the
// structured logger; the monitored stream never passes through this
// package at all.
package process
