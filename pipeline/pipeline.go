// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// State is the pipeline lifecycle phase.
type State string

const (
	// StateIdle means Run has not been called.
	StateIdle State = "idle"

	// StateRunning means the stream is open and lines are flowing.
	StateRunning State = "running"

	// StateDraining means the stream has ended (or failed) and the
	// pipeline is flushing the remainder and closing sinks.
	StateDraining State = "draining"

	// StateTerminated means Run has finished. Terminal.
	StateTerminated State = "terminated"
)

// StructuredSink receives one record per line. Implemented by
// sink.Journal. Write failures are recoverable: the pipeline logs
// them, counts them, and keeps going.
type StructuredSink interface {
	Check() error
	Write(line []byte) error
}

// FileSink receives the raw line bytes together with the terminated
// flag so the on-disk copy can reproduce the input exactly.
// Implemented by sink.File. Any failure is fatal to the pipeline.
type FileSink interface {
	Open() error
	Write(data []byte, terminated bool) error
	Close() error
	Rotations() uint64
}

// Options configures a Pipeline.
type Options struct {
	// Source is the monitored byte stream, normally stdin.
	Source io.Reader

	// Journal receives structured records. Nil disables the journal
	// destination.
	Journal StructuredSink

	// File receives raw bytes. Nil disables the file destination.
	File FileSink

	// MaxLineBytes caps a single line before the splitter force-emits
	// chunks. Values < 1 select DefaultMaxLineBytes.
	MaxLineBytes int

	// ReadBufferBytes sizes the read buffer. Values < 1 select the
	// system page size.
	ReadBufferBytes int

	// Logger receives the daemon's own diagnostics, never line
	// payload.
	Logger *slog.Logger
}

// Pipeline owns the read loop: one goroutine pulling from the source,
// splitting into lines, and dispatching each line to the journal sink
// and then the file sink. Everything the loop touches (the splitter's
// carry buffer, the file sink, the counters) is confined to the
// goroutine that calls Run.
type Pipeline struct {
	source     io.Reader
	journal    StructuredSink
	file       FileSink
	splitter   *Splitter
	readBuffer []byte
	logger     *slog.Logger
	state      State

	bytesRead      uint64
	linesForwarded uint64
	journalErrors  uint64
}

// New builds a Pipeline. At least one sink must be set; that is
// enforced by configuration validation before anything is built.
func New(options Options) *Pipeline {
	readBufferBytes := options.ReadBufferBytes
	if readBufferBytes < 1 {
		readBufferBytes = os.Getpagesize()
	}
	return &Pipeline{
		source:     options.Source,
		journal:    options.Journal,
		file:       options.File,
		splitter:   NewSplitter(options.MaxLineBytes),
		readBuffer: make([]byte, readBufferBytes),
		logger:     options.Logger,
		state:      StateIdle,
	}
}

// State reports the current lifecycle phase.
func (p *Pipeline) State() State {
	return p.state
}

// Run consumes the source until it ends, dispatching every line.
// Returns nil after a clean end-of-stream drain. Returns the first
// fatal error otherwise; the file sink is closed on every path. Run
// can be called once.
func (p *Pipeline) Run() error {
	if p.state != StateIdle {
		return fmt.Errorf("pipeline already ran (state %s)", p.state)
	}

	if err := p.start(); err != nil {
		p.state = StateTerminated
		return err
	}
	p.state = StateRunning
	p.logger.Info("pipeline running",
		"journal", p.journal != nil,
		"file", p.file != nil,
		"read_buffer_bytes", len(p.readBuffer),
	)

	fatal := p.readLoop()

	p.state = StateDraining
	if fatal == nil {
		p.logger.Info("input stream closed, draining")
	}
	fatal = p.drain(fatal)

	p.state = StateTerminated
	var rotations uint64
	if p.file != nil {
		rotations = p.file.Rotations()
	}
	p.logger.Info("pipeline terminated",
		"bytes_read", p.bytesRead,
		"lines_forwarded", p.linesForwarded,
		"journal_errors", p.journalErrors,
		"rotations", rotations,
	)
	return fatal
}

// start brings up the sinks before the first read. The journal check
// is a pure reachability probe; the file open creates the leading
// file and its rotation config.
func (p *Pipeline) start() error {
	if p.journal != nil {
		if err := p.journal.Check(); err != nil {
			return fmt.Errorf("journal sink: %w", err)
		}
	}
	if p.file != nil {
		if err := p.file.Open(); err != nil {
			return fmt.Errorf("file sink: %w", err)
		}
	}
	return nil
}

// readLoop pulls from the source until end-of-stream (returns nil) or
// a fatal error (returns it). Bytes delivered alongside an EOF are
// dispatched before the EOF is honored.
func (p *Pipeline) readLoop() error {
	for {
		n, err := p.source.Read(p.readBuffer)
		if n > 0 {
			p.bytesRead += uint64(n)
			for _, line := range p.splitter.Feed(p.readBuffer[:n]) {
				if fatal := p.dispatch(line); fatal != nil {
					return fatal
				}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input stream: %w", err)
		}
	}
}

// dispatch forwards one line: journal first, then file. A journal
// failure is logged and counted; a file failure aborts.
func (p *Pipeline) dispatch(line Line) error {
	if p.journal != nil {
		if err := p.journal.Write(line.Data); err != nil {
			p.journalErrors++
			p.logger.Warn("journal write failed, line not journaled", "error", err)
		}
	}
	if p.file != nil {
		if err := p.file.Write(line.Data, line.Terminated); err != nil {
			return err
		}
	}
	p.linesForwarded++
	return nil
}

// drain finishes the stream: flush the splitter's remainder as a
// final unterminated line (skipped after a fatal error, whose input
// position is unknown) and close the file sink. The first error wins.
func (p *Pipeline) drain(fatal error) error {
	if fatal == nil {
		if line, ok := p.splitter.FlushRemainder(); ok {
			fatal = p.dispatch(line)
		}
	}
	if p.file != nil {
		if err := p.file.Close(); err != nil && fatal == nil {
			fatal = err
		}
	}
	return fatal
}
