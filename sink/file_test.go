// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRotator stands in for the external rotation tool: it renames the
// leading file to a numbered archive, the way logrotate would.
type fakeRotator struct {
	leadingPath  string
	err          error
	calls        int
	configWrites int
}

func (f *fakeRotator) WriteConfig() error {
	f.configWrites++
	return nil
}

func (f *fakeRotator) Rotate() error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	archive := fmt.Sprintf("%s.%d", f.leadingPath, f.calls)
	if err := os.Rename(f.leadingPath, archive); err != nil {
		return err
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFile(t *testing.T, maxSize uint64) (*File, *fakeRotator, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stdout")
	rotator := &fakeRotator{leadingPath: path}
	f := NewFile(path, maxSize, rotator, testLogger())
	if err := f.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f, rotator, path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestFileWriteNewlineHandling(t *testing.T) {
	t.Parallel()

	f, _, path := newTestFile(t, 1<<20)

	// An over-long line arrives as unterminated chunks followed by a
	// terminated remainder; only the real newline lands on disk.
	if err := f.Write([]byte("chu"), false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Write([]byte("nk"), false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Write([]byte("done"), true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Write([]byte(""), true); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got, want := readFile(t, path), "chunkdone\n\n"; got != want {
		t.Errorf("file contents = %q, want %q", got, want)
	}
}

func TestFileAppendsToExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stdout")
	if err := os.WriteFile(path, []byte("earlier run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFile(path, 1<<20, &fakeRotator{leadingPath: path}, testLogger())
	if err := f.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	if err := f.Write([]byte("this run"), true); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if got, want := readFile(t, path), "earlier run\nthis run\n"; got != want {
		t.Errorf("file contents = %q, want %q", got, want)
	}
}

func TestFileRotationThreshold(t *testing.T) {
	t.Parallel()

	// Threshold 100: two 60-byte lines. The first lands without
	// rotation, the second pushes the count to 120 and rotates.
	f, rotator, path := newTestFile(t, 100)

	lineA := strings.Repeat("a", 59)
	lineB := strings.Repeat("b", 59)

	if err := f.Write([]byte(lineA), true); err != nil {
		t.Fatalf("Write A: %v", err)
	}
	if rotator.calls != 0 {
		t.Fatalf("rotated after %d bytes, threshold is 100", 60)
	}

	if err := f.Write([]byte(lineB), true); err != nil {
		t.Fatalf("Write B: %v", err)
	}
	if rotator.calls != 1 {
		t.Fatalf("rotator calls = %d, want 1", rotator.calls)
	}
	if f.Rotations() != 1 {
		t.Errorf("Rotations() = %d, want 1", f.Rotations())
	}
	if rotator.configWrites != 1 {
		t.Errorf("config written %d times, want once at Open", rotator.configWrites)
	}

	// Both lines were written before the tool ran, so the archive
	// holds both and the reopened leading file is empty.
	if got, want := readFile(t, path+".1"), lineA+"\n"+lineB+"\n"; got != want {
		t.Errorf("archive contents = %q, want %q", got, want)
	}
	if got := readFile(t, path); got != "" {
		t.Errorf("leading file = %q, want empty after rotation", got)
	}

	// The sink keeps writing into the fresh leading file.
	if err := f.Write([]byte("after"), true); err != nil {
		t.Fatalf("Write after rotation: %v", err)
	}
	if got, want := readFile(t, path), "after\n"; got != want {
		t.Errorf("leading file = %q, want %q", got, want)
	}
}

func TestFileRotationStrictlyGreater(t *testing.T) {
	t.Parallel()

	// Exactly the threshold does not rotate; one more byte does.
	f, rotator, _ := newTestFile(t, 100)

	if err := f.Write([]byte(strings.Repeat("x", 99)), true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if rotator.calls != 0 {
		t.Fatalf("rotated at exactly the threshold")
	}

	if err := f.Write([]byte(""), true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if rotator.calls != 1 {
		t.Fatalf("rotator calls = %d, want 1", rotator.calls)
	}
}

func TestFileRotationResetsCount(t *testing.T) {
	t.Parallel()

	f, rotator, _ := newTestFile(t, 100)

	if err := f.Write([]byte(strings.Repeat("x", 150)), true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if rotator.calls != 1 {
		t.Fatalf("rotator calls = %d, want 1", rotator.calls)
	}

	// 50 bytes into the fresh file stays under the threshold: the
	// counter tracks the current leading file only.
	if err := f.Write([]byte(strings.Repeat("y", 49)), true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if rotator.calls != 1 {
		t.Errorf("rotator calls = %d, want still 1", rotator.calls)
	}
}

func TestFileRotationError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stdout")
	rotateErr := errors.New("tool exploded")
	f := NewFile(path, 10, &fakeRotator{leadingPath: path, err: rotateErr}, testLogger())
	if err := f.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	err := f.Write([]byte(strings.Repeat("x", 20)), true)
	if err == nil {
		t.Fatal("Write over threshold with failing rotator returned nil")
	}
	if !errors.Is(err, rotateErr) {
		t.Errorf("error %v does not wrap the rotator error", err)
	}
}

func TestFileWriteBeforeOpen(t *testing.T) {
	t.Parallel()

	f := NewFile(filepath.Join(t.TempDir(), "stdout"), 100, &fakeRotator{}, testLogger())
	if err := f.Write([]byte("x"), true); err == nil {
		t.Fatal("Write before Open returned nil")
	}
}

func TestFileCloseIdempotent(t *testing.T) {
	t.Parallel()

	f, _, _ := newTestFile(t, 100)
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
