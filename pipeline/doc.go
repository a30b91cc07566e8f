// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline contains the read loop at the heart of the daemon:
// a single goroutine that pulls raw bytes from the monitored stream,
// splits them into lines, and dispatches each line to the configured
// sinks in a fixed order.
//
// The pipeline is deliberately single-threaded. Lines must reach every
// sink in input order, rotation must not interleave with writes to the
// same file, and the splitter's carry buffer has exactly one owner.
// Backpressure is the flow control: while a sink write or a rotation
// is in progress, the pipeline stops reading and the kernel pipe
// buffer absorbs the upstream.
//
// Lifecycle: Idle until Run is called, Running while the stream is
// open, Draining once the stream ends or a fatal error occurs, and
// Terminated after the remainder is flushed and the sinks are closed.
package pipeline
