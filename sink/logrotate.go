// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Suffixes appended to the leading file path for the generated
// rotation configuration and the rotation tool's state file. Keeping
// them next to the leading file means everything about one stream
// lives (and is garbage-collected) together.
const (
	configSuffix = ".logrotate.conf"
	stateSuffix  = ".logrotate.state"
)

// CommandRunner runs an external command to completion. The production
// implementation shells out via os/exec; tests substitute a recorder
// so rotation behavior is testable without a logrotate binary.
type CommandRunner interface {
	Run(name string, arguments []string) error
}

// ExecRunner is the os/exec-backed CommandRunner. Command output is
// folded into the error on failure; on success it is discarded.
type ExecRunner struct{}

// Run executes the command and waits for it.
func (ExecRunner) Run(name string, arguments []string) error {
	output, err := exec.Command(name, arguments...).CombinedOutput()
	if err != nil {
		trimmed := bytes.TrimSpace(output)
		if len(trimmed) > 0 {
			return fmt.Errorf("%s %s: %w: %s", name, strings.Join(arguments, " "), err, trimmed)
		}
		return fmt.Errorf("%s %s: %w", name, strings.Join(arguments, " "), err)
	}
	return nil
}

// RotatorOptions configures a Rotator.
type RotatorOptions struct {
	// LeadingPath is the leading log file; the config and state file
	// paths are derived from it.
	LeadingPath string

	// ToolPath is the rotation tool binary, resolved via PATH when
	// not absolute.
	ToolPath string

	// ExtraDirectives are verbatim lines copied into the generated
	// configuration block, one directive per line.
	ExtraDirectives string

	// MaxFiles is the retention count written as the rotate
	// directive.
	MaxFiles int

	// MaxSize is the threshold in bytes written as the size
	// directive.
	MaxSize uint64

	// Runner executes the rotation tool. Nil selects ExecRunner.
	Runner CommandRunner
}

// Rotator drives the external rotation tool for one leading file. It
// writes the tool's configuration once at startup and invokes the tool
// each time the file sink crosses the size threshold. The tool is
// trusted to rename the leading file and prune old archives; the
// Rotator never touches the leading file itself.
type Rotator struct {
	leadingPath     string
	toolPath        string
	extraDirectives string
	maxFiles        int
	maxSize         uint64
	runner          CommandRunner
}

// NewRotator builds a Rotator from options.
func NewRotator(options RotatorOptions) *Rotator {
	runner := options.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Rotator{
		leadingPath:     options.LeadingPath,
		toolPath:        options.ToolPath,
		extraDirectives: options.ExtraDirectives,
		maxFiles:        options.MaxFiles,
		maxSize:         options.MaxSize,
		runner:          runner,
	}
}

// ConfigPath returns where the generated rotation configuration lives.
func (r *Rotator) ConfigPath() string {
	return r.leadingPath + configSuffix
}

// StatePath returns where the rotation tool keeps its state.
func (r *Rotator) StatePath() string {
	return r.leadingPath + stateSuffix
}

// CheckTool probes the rotation tool with --help. Run at startup so a
// missing or broken tool is a configuration error, not a mid-stream
// surprise at the first rotation.
func (r *Rotator) CheckTool() error {
	if err := r.runner.Run(r.toolPath, []string{"--help"}); err != nil {
		return fmt.Errorf("rotation tool %q is not usable: %w", r.toolPath, err)
	}
	return nil
}

// WriteConfig generates the rotation configuration next to the leading
// file. Written atomically (temp file + rename) so the tool never
// parses a partial config. Operator directives come first; the
// computed rotate and size directives follow them, and the tool lets
// the last occurrence of a directive win.
func (r *Rotator) WriteConfig() error {
	configPath := r.ConfigPath()
	temporaryPath := configPath + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating temporary rotation config: %w", err)
	}

	if _, err := file.Write(r.configContents()); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary rotation config: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary rotation config: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary rotation config: %w", err)
	}

	if err := os.Rename(temporaryPath, configPath); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming rotation config into place: %w", err)
	}
	return nil
}

// configContents renders the configuration block for the leading file.
func (r *Rotator) configContents() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s {\n", r.leadingPath)
	for _, directive := range strings.Split(r.extraDirectives, "\n") {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}
		fmt.Fprintf(&b, "  %s\n", directive)
	}
	fmt.Fprintf(&b, "  rotate %d\n", r.maxFiles)
	fmt.Fprintf(&b, "  size %d\n", r.maxSize)
	b.WriteString("}\n")
	return []byte(b.String())
}

// Rotate invokes the rotation tool once, synchronously. The caller
// must have closed the leading file first and must reopen it after.
// There is no timeout: the pipeline is deliberately stalled while the
// tool runs, and a tool that hangs forever takes the stream with it.
func (r *Rotator) Rotate() error {
	arguments := []string{"--state", r.StatePath(), r.ConfigPath()}
	if err := r.runner.Run(r.toolPath, arguments); err != nil {
		return fmt.Errorf("rotating %s: %w", r.leadingPath, err)
	}
	return nil
}
