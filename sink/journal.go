// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

package sink

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/journal"

	"github.com/linefeed-io/linefeed/label"
)

// journalClient is the slice of the journald protocol the sink needs.
// The production implementation talks to the local journald socket;
// tests substitute a recorder.
type journalClient interface {
	Enabled() bool
	Send(message string, priority journal.Priority, vars map[string]string) error
}

// systemdJournal adapts the free functions of the go-systemd journal
// package to journalClient.
type systemdJournal struct{}

func (systemdJournal) Enabled() bool {
	return journal.Enabled()
}

func (systemdJournal) Send(message string, priority journal.Priority, vars map[string]string) error {
	return journal.Send(message, priority, vars)
}

// Journal forwards lines to systemd-journald, one record per line.
// Every record carries the same label fields, built once at
// construction and shared read-only across sends.
type Journal struct {
	client journalClient
	fields map[string]string
}

// NewJournal returns a journal sink annotating every record with the
// given labels.
func NewJournal(labels *label.Set) *Journal {
	return &Journal{
		client: systemdJournal{},
		fields: labels.Fields(),
	}
}

// Check verifies the journald socket is reachable. Called once at
// startup so a misconfigured host fails before any input is consumed.
func (j *Journal) Check() error {
	if !j.client.Enabled() {
		return fmt.Errorf("journald socket is not reachable")
	}
	return nil
}

// Write sends one line as a journal record at informational priority.
// The line bytes are copied into the record; the caller may reuse the
// slice immediately.
func (j *Journal) Write(line []byte) error {
	if err := j.client.Send(string(line), journal.PriInfo, j.fields); err != nil {
		return fmt.Errorf("journal send: %w", err)
	}
	return nil
}
