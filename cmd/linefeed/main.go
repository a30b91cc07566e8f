// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/linefeed-io/linefeed/config"
	"github.com/linefeed-io/linefeed/lib/process"
	"github.com/linefeed-io/linefeed/lib/version"
	"github.com/linefeed-io/linefeed/pipeline"
	"github.com/linefeed-io/linefeed/sink"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

// invocation is the parsed command line. The flag set is kept so the
// config-file merge can tell explicitly-set flags from defaults.
type invocation struct {
	flags       *pflag.FlagSet
	opts        config.Options
	configPath  string
	showVersion bool
}

// parseFlags parses argv into an invocation. Flag defaults come from
// config.Defaults so the command line, the config file, and the
// validation layer agree on them.
func parseFlags(argv []string) (*invocation, error) {
	inv := &invocation{
		flags: pflag.NewFlagSet("linefeed", pflag.ContinueOnError),
		opts:  config.Defaults(),
	}

	inv.flags.StringVar(&inv.opts.Destination, "destination", inv.opts.Destination,
		"where lines go: journal, file, or both")
	inv.flags.StringVar(&inv.opts.Labels, "labels", inv.opts.Labels,
		`JSON document of labels attached to every journal record, `+
			`e.g. {"labels":[{"key":"TASK_ID","value":"web.47"}]}`)
	inv.flags.StringVar(&inv.opts.MaxSize, "max-size", inv.opts.MaxSize,
		"rotation threshold as a byte count with optional K/M/G/T suffix")
	inv.flags.IntVar(&inv.opts.MaxFiles, "max-files", inv.opts.MaxFiles,
		"rotated files retained before the oldest is deleted")
	inv.flags.StringVar(&inv.opts.RotationOptions, "rotation-options", inv.opts.RotationOptions,
		"extra logrotate directives copied verbatim into the generated config")
	inv.flags.StringVar(&inv.opts.FilePath, "file-path", inv.opts.FilePath,
		"absolute path of the leading log file (required for file destinations)")
	inv.flags.StringVar(&inv.opts.LogrotatePath, "logrotate-path", inv.opts.LogrotatePath,
		"logrotate binary to invoke for rotations")
	inv.flags.StringVar(&inv.opts.User, "user", inv.opts.User,
		"system user to run as; privileges are dropped before any file is opened")
	inv.flags.StringVar(&inv.configPath, "config", "",
		"path to an optional YAML config file (also via LINEFEED_CONFIG)")
	inv.flags.BoolVar(&inv.showVersion, "version", false,
		"print version and exit")

	if err := inv.flags.Parse(argv); err != nil {
		return nil, err
	}
	if args := inv.flags.Args(); len(args) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v (input arrives on stdin)", args)
	}
	return inv, nil
}

// applyFile fills in options the command line left untouched from the
// config file. Explicit flags always win; unset file fields never
// clobber defaults.
func applyFile(flags *pflag.FlagSet, opts *config.Options, file *config.Options) {
	if !flags.Changed("destination") && file.Destination != "" {
		opts.Destination = file.Destination
	}
	if !flags.Changed("labels") && file.Labels != "" {
		opts.Labels = file.Labels
	}
	if !flags.Changed("max-size") && file.MaxSize != "" {
		opts.MaxSize = file.MaxSize
	}
	if !flags.Changed("max-files") && file.MaxFiles != 0 {
		opts.MaxFiles = file.MaxFiles
	}
	if !flags.Changed("rotation-options") && file.RotationOptions != "" {
		opts.RotationOptions = file.RotationOptions
	}
	if !flags.Changed("file-path") && file.FilePath != "" {
		opts.FilePath = file.FilePath
	}
	if !flags.Changed("logrotate-path") && file.LogrotatePath != "" {
		opts.LogrotatePath = file.LogrotatePath
	}
	if !flags.Changed("user") && file.User != "" {
		opts.User = file.User
	}
}

func run(argv []string) error {
	inv, err := parseFlags(argv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if inv.showVersion {
		fmt.Printf("linefeed %s\n", version.Info())
		return nil
	}

	opts := inv.opts
	configPath := inv.configPath
	if configPath == "" {
		configPath = os.Getenv("LINEFEED_CONFIG")
	}
	if configPath != "" {
		fileOpts, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		applyFile(inv.flags, &opts, fileOpts)
	}

	cfg, err := config.New(opts)
	if err != nil {
		return err
	}

	logger := newLogger()

	if cfg.User != "" {
		if err := dropPrivileges(cfg.User, logger); err != nil {
			return err
		}
	}

	var journal pipeline.StructuredSink
	if cfg.Destination.IncludesJournal() {
		journal = sink.NewJournal(cfg.Labels)
	}

	var file pipeline.FileSink
	if cfg.Destination.IncludesFile() {
		rotator := sink.NewRotator(sink.RotatorOptions{
			LeadingPath:     cfg.FilePath,
			ToolPath:        cfg.LogrotatePath,
			ExtraDirectives: cfg.RotationOptions,
			MaxFiles:        cfg.MaxFiles,
			MaxSize:         cfg.MaxSize,
		})
		if err := rotator.CheckTool(); err != nil {
			return err
		}
		file = sink.NewFile(cfg.FilePath, cfg.MaxSize, rotator, logger)
	}

	// The platform tears the task down with SIGTERM to the whole
	// process group. The upstream closing stdin is the real end of
	// stream; honoring the signal would drop output still in flight.
	signal.Ignore(syscall.SIGTERM, syscall.SIGINT)

	logger.Info("linefeed starting",
		"version", version.Info(),
		"destination", string(cfg.Destination),
		"labels", cfg.Labels.Len(),
		"file_path", cfg.FilePath,
		"max_size", cfg.MaxSize,
		"max_files", cfg.MaxFiles,
	)

	p := pipeline.New(pipeline.Options{
		Source:  os.Stdin,
		Journal: journal,
		File:    file,
		Logger:  logger,
	})
	return p.Run()
}
