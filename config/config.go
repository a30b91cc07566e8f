// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

// Package config assembles and validates the daemon's configuration.
//
// Configuration comes from command-line flags, optionally backed by a
// single YAML file (--config flag or the LINEFEED_CONFIG environment
// variable). There is no automatic discovery and no other override
// channel: flags explicitly set on the command line win over file
// values, file values win over defaults.
//
// All validation happens in New, before a single byte of input is
// consumed. A non-nil Config is immutable and safe to share.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/linefeed-io/linefeed/label"
)

// Destination selects which sinks receive forwarded lines.
type Destination string

const (
	// DestinationJournal forwards every line to the systemd journal
	// only. No files are written and no rotation tooling is required.
	DestinationJournal Destination = "journal"

	// DestinationFile appends every line to the configured leading
	// file, rotating through the external rotation tool.
	DestinationFile Destination = "file"

	// DestinationBoth forwards each line to the journal and appends
	// it to the leading file.
	DestinationBoth Destination = "both"
)

// Validate checks that the destination names a supported sink
// combination.
func (d Destination) Validate() error {
	switch d {
	case DestinationJournal, DestinationFile, DestinationBoth:
		return nil
	case "":
		return fmt.Errorf("destination is required")
	default:
		return fmt.Errorf("unsupported destination %q (want journal, file, or both)", string(d))
	}
}

// IncludesJournal reports whether lines go to the journal sink.
func (d Destination) IncludesJournal() bool {
	return d == DestinationJournal || d == DestinationBoth
}

// IncludesFile reports whether lines go to the file sink.
func (d Destination) IncludesFile() bool {
	return d == DestinationFile || d == DestinationBoth
}

// Defaults for the tunable options. DefaultMaxSize matches the
// rotation threshold the platform has always shipped with; the real
// floor is the filesystem page size, enforced in New.
const (
	DefaultDestination   = DestinationJournal
	DefaultMaxSize       = "10M"
	DefaultMaxFiles      = 10
	DefaultLogrotatePath = "logrotate"
)

// Options carries the raw, unvalidated inputs exactly as they appear
// on the command line or in the config file. The zero value means
// "unset" for every field.
type Options struct {
	// Destination is the sink selection: journal, file, or both.
	Destination string `yaml:"destination"`

	// Labels is the JSON label document (see package label). Empty
	// means no labels.
	Labels string `yaml:"labels"`

	// MaxSize is the rotation threshold as a human-readable size:
	// a byte count with an optional K, M, G, or T suffix.
	MaxSize string `yaml:"max_size"`

	// MaxFiles is the number of rotated files the rotation tool
	// retains before deleting the oldest.
	MaxFiles int `yaml:"max_files"`

	// RotationOptions are extra directives copied verbatim into the
	// generated rotation configuration.
	RotationOptions string `yaml:"rotation_options"`

	// FilePath is the absolute path of the leading log file.
	// Required when the destination includes the file sink.
	FilePath string `yaml:"file_path"`

	// LogrotatePath is the rotation tool binary, resolved via PATH
	// when not absolute.
	LogrotatePath string `yaml:"logrotate_path"`

	// User is an optional system user to run as. When set, the
	// daemon drops privileges before opening any sink.
	User string `yaml:"user"`
}

// Defaults returns the Options base layer that file values and flags
// are merged over.
func Defaults() Options {
	return Options{
		Destination:   string(DefaultDestination),
		MaxSize:       DefaultMaxSize,
		MaxFiles:      DefaultMaxFiles,
		LogrotatePath: DefaultLogrotatePath,
	}
}

// LoadFile reads raw options from a YAML config file. Unknown keys
// are rejected so typos fail loudly instead of silently falling back
// to defaults.
func LoadFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var opts Options
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&opts); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return &opts, nil
}

// Config is the validated, immutable runtime configuration.
type Config struct {
	// Destination selects the active sinks.
	Destination Destination

	// Labels is the normalized label set attached to every journal
	// record. Never nil; may be empty.
	Labels *label.Set

	// MaxSize is the rotation threshold in bytes. Rotation triggers
	// when the bytes written to the leading file exceed it.
	MaxSize uint64

	// MaxFiles is the rotated-file retention count.
	MaxFiles int

	// RotationOptions are verbatim extra rotation directives.
	RotationOptions string

	// FilePath is the leading log file. Empty unless Destination
	// includes the file sink.
	FilePath string

	// LogrotatePath is the rotation tool binary.
	LogrotatePath string

	// User is the optional system user to run as.
	User string
}

// New validates opts and builds the runtime configuration. All
// problems are reported together rather than one at a time.
func New(opts Options) (*Config, error) {
	var errs []error

	destination := Destination(opts.Destination)
	if err := destination.Validate(); err != nil {
		errs = append(errs, err)
	}

	labels, err := parseLabels(opts.Labels)
	if err != nil {
		errs = append(errs, err)
	}

	maxSize, err := ParseSize(opts.MaxSize)
	if err != nil {
		errs = append(errs, fmt.Errorf("max size: %w", err))
	} else if pageSize := uint64(os.Getpagesize()); maxSize < pageSize {
		errs = append(errs, fmt.Errorf("max size %d is below the system page size %d", maxSize, pageSize))
	}

	if opts.MaxFiles < 1 {
		errs = append(errs, fmt.Errorf("max files must be >= 1, got %d", opts.MaxFiles))
	}

	if destination.IncludesFile() {
		switch {
		case opts.FilePath == "":
			errs = append(errs, fmt.Errorf("file path is required for destination %q", opts.Destination))
		case !filepath.IsAbs(opts.FilePath):
			errs = append(errs, fmt.Errorf("file path %q must be absolute", opts.FilePath))
		}
		if opts.LogrotatePath == "" {
			errs = append(errs, fmt.Errorf("logrotate path is required for destination %q", opts.Destination))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Config{
		Destination:     destination,
		Labels:          labels,
		MaxSize:         maxSize,
		MaxFiles:        opts.MaxFiles,
		RotationOptions: opts.RotationOptions,
		FilePath:        opts.FilePath,
		LogrotatePath:   opts.LogrotatePath,
		User:            opts.User,
	}, nil
}

func parseLabels(raw string) (*label.Set, error) {
	if raw == "" {
		return label.NewSet(nil)
	}
	return label.Parse([]byte(raw))
}

// ParseSize parses a human-readable size (e.g. "4096", "64K", "10M",
// "1G") into bytes.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("size is required")
	}

	var multiplier uint64 = 1
	numStr := s

	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
		numStr = s[:len(s)-1]
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		numStr = s[:len(s)-1]
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		numStr = s[:len(s)-1]
	case strings.HasSuffix(s, "T"):
		multiplier = 1024 * 1024 * 1024 * 1024
		numStr = s[:len(s)-1]
	}

	// ParseUint consumes the whole string: trailing bytes after the
	// digits ("5000MB", "8192xyz") are an error, not ignored.
	value, err := strconv.ParseUint(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}

	return value * multiplier, nil
}
