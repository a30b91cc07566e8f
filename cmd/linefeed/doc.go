// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

// linefeed is a per-task log-piping daemon. A container platform
// launches one linefeed per monitored output stream, with the task's
// stdout or stderr piped to linefeed's stdin:
//
//	executor → task ─(pipe)→ linefeed → journald and/or rotating file
//
// linefeed splits the stream into lines, attaches a fixed set of
// labels (task identity, environment) to each line, and forwards every
// line to the configured destinations: the systemd journal as one
// structured record per line, a logrotate-managed file as byte-exact
// appends, or both.
//
// Rotation of the on-disk file is delegated to an external logrotate
// binary: linefeed generates a configuration block next to the leading
// file at startup and invokes the tool synchronously each time the
// bytes written exceed --max-size.
//
// Signal policy: once the pipeline starts, SIGTERM and SIGINT are
// ignored. The platform tears the task down with signals to the whole
// process group; linefeed must outlive the task and keep draining
// until the upstream closes the pipe, or the task's final output would
// be lost. End of stream (or a fatal sink error) is the only way out.
//
// Exit status: 0 after a clean end-of-stream drain; 1 for invalid
// configuration or a fatal pipeline error.
package main
