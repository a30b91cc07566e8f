// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

// Package sink implements the two destinations a line can be forwarded
// to: the systemd journal and a rotating file.
//
// The journal sink sends one structured record per line over the
// native journald protocol, attaching the daemon's label set as
// journal fields. Its failures are recoverable: the journal going away
// must not kill the task whose output is being piped.
//
// The file sink appends lines to a leading file and hands retention to
// an external rotation tool (logrotate), invoked synchronously when
// the bytes written since the last rotation exceed the configured
// threshold. The tool owns renaming, compression, and deleting old
// archives; the sink owns the leading file descriptor and is careful
// to close it before the tool runs and reopen it after. File sink
// failures are fatal: losing the on-disk copy silently would defeat
// the point of configuring one.
package sink
