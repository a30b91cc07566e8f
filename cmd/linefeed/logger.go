// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// newLogger creates the daemon's own diagnostic logger on stderr,
// distinct from the piped payload. When stderr is a terminal (an
// operator running linefeed by hand), it uses slog.TextHandler for
// human-readable output. When stderr is piped or redirected (the
// normal case: the platform captures it), it uses slog.JSONHandler
// for machine-parseable output. Setting LINEFEED_DEBUG enables debug
// level.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LINEFEED_DEBUG") != "" {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}
