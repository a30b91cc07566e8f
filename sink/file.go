// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"fmt"
	"log/slog"
	"os"
)

// fileRotator writes the rotation tool's configuration and performs
// rotations of the leading file. Implemented by Rotator; tests
// substitute a recorder.
type fileRotator interface {
	WriteConfig() error
	Rotate() error
}

// File appends lines to the leading log file and triggers a rotation
// whenever the bytes written since the last rotation exceed the
// threshold. The output is byte-exact: terminated lines get their
// newline back, forced chunks and a flushed remainder do not, so the
// file reproduces the input stream.
//
// Not safe for concurrent use; the pipeline goroutine is the sole
// caller.
type File struct {
	path    string
	maxSize uint64
	rotator fileRotator
	logger  *slog.Logger

	file         *os.File
	bytesWritten uint64
	rotations    uint64
	scratch      []byte
}

// NewFile returns a file sink for the leading file at path. Nothing is
// opened until Open is called.
func NewFile(path string, maxSize uint64, rotator fileRotator, logger *slog.Logger) *File {
	return &File{
		path:    path,
		maxSize: maxSize,
		rotator: rotator,
		logger:  logger,
	}
}

// Open writes the rotation tool's configuration and opens (creating
// if needed) the leading file for appending. Appending rather than
// truncating keeps output from a restarted daemon after whatever a
// previous incarnation wrote.
func (f *File) Open() error {
	if err := f.rotator.WriteConfig(); err != nil {
		return err
	}
	return f.open()
}

// open opens the leading file without rewriting the rotation config.
// Used for the initial open and for the reopen after each rotation.
func (f *File) open() error {
	file, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.path, err)
	}
	f.file = file
	return nil
}

// Write appends one line to the leading file, adding the trailing
// newline only when the input contained one. The data and its newline
// go down in a single write call. If the write pushes the running
// byte count over the threshold, the file is rotated before Write
// returns; the next line starts the new leading file.
func (f *File) Write(data []byte, terminated bool) error {
	if f.file == nil {
		return fmt.Errorf("file sink for %s is not open", f.path)
	}

	payload := data
	if terminated {
		f.scratch = append(f.scratch[:0], data...)
		f.scratch = append(f.scratch, '\n')
		payload = f.scratch
	}

	n, err := f.file.Write(payload)
	f.bytesWritten += uint64(n)
	if err != nil {
		return fmt.Errorf("writing %s: %w", f.path, err)
	}

	if f.bytesWritten > f.maxSize {
		return f.rotate()
	}
	return nil
}

// rotate closes the leading file, runs the rotation tool, and reopens
// the path. The descriptor must be closed first: the tool renames the
// leading file, and holding the old descriptor open would keep writes
// flowing into the renamed archive.
func (f *File) rotate() error {
	if err := f.file.Close(); err != nil {
		f.file = nil
		return fmt.Errorf("closing %s before rotation: %w", f.path, err)
	}
	f.file = nil

	if err := f.rotator.Rotate(); err != nil {
		return err
	}

	f.bytesWritten = 0
	f.rotations++
	f.logger.Debug("rotated leading file", "path", f.path, "rotations", f.rotations)

	return f.open()
}

// Rotations reports how many rotations have completed.
func (f *File) Rotations() uint64 {
	return f.rotations
}

// Close closes the leading file. Safe to call twice; the drain path
// closes on every exit route.
func (f *File) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	if err != nil {
		return fmt.Errorf("closing %s: %w", f.path, err)
	}
	return nil
}
