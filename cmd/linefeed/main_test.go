// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"

	"github.com/linefeed-io/linefeed/config"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		argv        []string
		want        config.Options
		wantVersion bool
		wantConfig  string
		wantErr     bool
	}{
		{
			name: "no arguments yields defaults",
			argv: nil,
			want: config.Options{
				Destination:   "journal",
				MaxSize:       "10M",
				MaxFiles:      10,
				LogrotatePath: "logrotate",
			},
		},
		{
			name: "full flag surface",
			argv: []string{
				"--destination=both",
				`--labels={"labels":[{"key":"env","value":"prod"}]}`,
				"--max-size=64K",
				"--max-files=5",
				"--rotation-options=compress",
				"--file-path=/var/log/task/stdout",
				"--logrotate-path=/usr/sbin/logrotate",
				"--user=nobody",
			},
			want: config.Options{
				Destination:     "both",
				Labels:          `{"labels":[{"key":"env","value":"prod"}]}`,
				MaxSize:         "64K",
				MaxFiles:        5,
				RotationOptions: "compress",
				FilePath:        "/var/log/task/stdout",
				LogrotatePath:   "/usr/sbin/logrotate",
				User:            "nobody",
			},
		},
		{
			name:       "config path captured",
			argv:       []string{"--config=/etc/linefeed.yaml"},
			wantConfig: "/etc/linefeed.yaml",
			want: config.Options{
				Destination:   "journal",
				MaxSize:       "10M",
				MaxFiles:      10,
				LogrotatePath: "logrotate",
			},
		},
		{
			name:        "version flag",
			argv:        []string{"--version"},
			wantVersion: true,
			want: config.Options{
				Destination:   "journal",
				MaxSize:       "10M",
				MaxFiles:      10,
				LogrotatePath: "logrotate",
			},
		},
		{
			name:    "unknown flag",
			argv:    []string{"--destinatoin=journal"},
			wantErr: true,
		},
		{
			name:    "positional arguments rejected",
			argv:    []string{"stdout.log"},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			inv, err := parseFlags(test.argv)
			if test.wantErr {
				if err == nil {
					t.Fatalf("parseFlags(%v) succeeded, want error", test.argv)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFlags(%v): %v", test.argv, err)
			}
			if inv.opts != test.want {
				t.Errorf("opts = %+v, want %+v", inv.opts, test.want)
			}
			if inv.showVersion != test.wantVersion {
				t.Errorf("showVersion = %v, want %v", inv.showVersion, test.wantVersion)
			}
			if inv.configPath != test.wantConfig {
				t.Errorf("configPath = %q, want %q", inv.configPath, test.wantConfig)
			}
		})
	}
}

func TestApplyFileFillsUnsetFlags(t *testing.T) {
	inv, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	file := &config.Options{
		Destination: "both",
		Labels:      `{"labels":[{"key":"env","value":"prod"}]}`,
		MaxSize:     "64K",
		MaxFiles:    5,
		FilePath:    "/var/log/task/stdout",
		User:        "nobody",
	}
	applyFile(inv.flags, &inv.opts, file)

	if inv.opts.Destination != "both" {
		t.Errorf("Destination = %q, want file value", inv.opts.Destination)
	}
	if inv.opts.MaxSize != "64K" {
		t.Errorf("MaxSize = %q, want file value", inv.opts.MaxSize)
	}
	if inv.opts.MaxFiles != 5 {
		t.Errorf("MaxFiles = %d, want file value", inv.opts.MaxFiles)
	}
	if inv.opts.User != "nobody" {
		t.Errorf("User = %q, want file value", inv.opts.User)
	}
	// Fields the file leaves unset keep their defaults.
	if inv.opts.LogrotatePath != "logrotate" {
		t.Errorf("LogrotatePath = %q, want default", inv.opts.LogrotatePath)
	}
}

func TestApplyFileRespectsExplicitFlags(t *testing.T) {
	inv, err := parseFlags([]string{"--destination=file", "--max-files=20"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}

	file := &config.Options{
		Destination: "both",
		MaxFiles:    5,
		MaxSize:     "64K",
	}
	applyFile(inv.flags, &inv.opts, file)

	if inv.opts.Destination != "file" {
		t.Errorf("Destination = %q, explicit flag must win over the file", inv.opts.Destination)
	}
	if inv.opts.MaxFiles != 20 {
		t.Errorf("MaxFiles = %d, explicit flag must win over the file", inv.opts.MaxFiles)
	}
	if inv.opts.MaxSize != "64K" {
		t.Errorf("MaxSize = %q, want file value for the untouched flag", inv.opts.MaxSize)
	}
}
