// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import "bytes"

// DefaultMaxLineBytes is the default cap on a single line. A process
// that emits a gigabyte with no newline must not grow the carry buffer
// without bound; once the buffer reaches the cap the accumulated bytes
// are emitted as an unterminated chunk and accumulation restarts.
const DefaultMaxLineBytes = 1024 * 1024

// Line is one unit of dispatch: the bytes of a line without its
// trailing newline, plus whether the input actually contained that
// newline. Terminated is false for forced chunks of an over-long line
// and for the remainder flushed when the stream ends.
//
// Data may alias the slice passed to Feed or memory owned by the
// Splitter. It is valid only until the next Splitter call; sinks must
// finish with it (or copy it) before the pipeline reads again.
type Line struct {
	Data       []byte
	Terminated bool
}

// Splitter converts an arbitrarily-partitioned byte stream into Lines.
// Bytes after the last newline of a Feed call are carried over and
// prepended to the next call's data, so line boundaries are
// independent of read boundaries. Not safe for concurrent use; the
// pipeline goroutine is the sole caller.
type Splitter struct {
	max  int
	tail []byte
}

// NewSplitter returns a Splitter that force-emits unterminated chunks
// once a line reaches maxLineBytes. Values < 1 select
// DefaultMaxLineBytes.
func NewSplitter(maxLineBytes int) *Splitter {
	if maxLineBytes < 1 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return &Splitter{max: maxLineBytes}
}

// Feed consumes one read's worth of bytes and returns the lines it
// completes, in input order. A line whose newline has not arrived yet
// is retained, not returned. Feeding an empty slice returns nothing.
//
// No byte is dropped or duplicated: concatenating the Data of every
// returned Line (plus a newline for each terminated one) over the life
// of the Splitter reproduces the input exactly.
func (s *Splitter) Feed(data []byte) []Line {
	var lines []Line
	for len(data) > 0 {
		end := bytes.IndexByte(data, '\n')
		if end < 0 {
			lines = s.consume(lines, data, false)
			break
		}
		lines = s.consume(lines, data[:end], true)
		data = data[end+1:]
	}
	return lines
}

// FlushRemainder returns the bytes accumulated since the last newline
// as a final unterminated Line. Call once, after the stream has ended;
// returns false when the stream ended on a line boundary.
func (s *Splitter) FlushRemainder() (Line, bool) {
	if len(s.tail) == 0 {
		return Line{}, false
	}
	line := Line{Data: s.tail}
	s.tail = nil
	return line, true
}

// consume merges one newline-free segment into the carry buffer,
// force-emitting max-sized chunks on overflow. A terminated segment
// completes the pending line and empties the buffer; an unterminated
// one leaves the remainder (always shorter than max) buffered.
func (s *Splitter) consume(lines []Line, segment []byte, terminated bool) []Line {
	for len(s.tail)+len(segment) > s.max {
		take := s.max - len(s.tail)
		chunk := segment[:take]
		if len(s.tail) > 0 {
			chunk = append(s.tail, chunk...)
			s.tail = nil
		}
		segment = segment[take:]
		lines = append(lines, Line{Data: chunk})
	}

	switch {
	case terminated:
		data := segment
		if len(s.tail) > 0 {
			data = append(s.tail, segment...)
			s.tail = nil
		}
		lines = append(lines, Line{Data: data, Terminated: true})
	case len(s.tail)+len(segment) == s.max:
		chunk := segment
		if len(s.tail) > 0 {
			chunk = append(s.tail, segment...)
			s.tail = nil
		}
		lines = append(lines, Line{Data: chunk})
	case len(segment) > 0:
		s.tail = append(s.tail, segment...)
	}
	return lines
}
