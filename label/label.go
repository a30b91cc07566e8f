// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

// Package label defines the static metadata attached to every line the
// daemon forwards. Labels arrive as a JSON document on the command
// line (authored by the platform that launches the daemon, so comments
// and trailing commas are tolerated), are normalized once at startup,
// and never change for the lifetime of the process.
//
// Each label becomes a journal field on every forwarded record, so key
// validation follows the journal field grammar: uppercase ASCII
// letters, digits, and underscores, starting with a letter, at most 64
// bytes. Keys are uppercased during normalization; collisions created
// by that folding are rejected rather than silently merged.
package label

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
)

// MaxKeyLength is the longest field name the journal accepts.
const MaxKeyLength = 64

// Field names the journal assigns itself on every record. Labels may
// not shadow them.
const (
	fieldMessage  = "MESSAGE"
	fieldPriority = "PRIORITY"
)

// Label is a single key/value annotation. The wire shape matches the
// document passed via --labels:
//
//	{"labels": [{"key": "env", "value": "prod"}]}
type Label struct {
	// Key is the journal field name. Normalized to uppercase during
	// Set construction; the pre-normalization value may use any case.
	Key string `json:"key"`

	// Value is forwarded verbatim. Empty values are allowed.
	Value string `json:"value"`
}

// document is the top-level shape of the --labels JSON.
type document struct {
	Labels []Label `json:"labels"`
}

// Set is an immutable collection of normalized labels. Construct with
// Parse or NewSet; a zero Set is valid and empty.
type Set struct {
	labels []Label
	fields map[string]string
}

// Parse strips JSONC comments and trailing commas from data,
// unmarshals the label document, and normalizes it into a Set.
func Parse(data []byte) (*Set, error) {
	stripped := jsonc.ToJSON(data)

	var doc document
	if err := json.Unmarshal(stripped, &doc); err != nil {
		return nil, fmt.Errorf("parsing labels: %w", err)
	}

	return NewSet(doc.Labels)
}

// NewSet uppercases every key, validates it against the journal field
// grammar, and rejects duplicates. Input order is preserved.
func NewSet(labels []Label) (*Set, error) {
	set := &Set{
		labels: make([]Label, 0, len(labels)),
		fields: make(map[string]string, len(labels)),
	}
	for index, l := range labels {
		key := strings.ToUpper(l.Key)
		if err := validateKey(key); err != nil {
			return nil, fmt.Errorf("label %d (%q): %w", index, l.Key, err)
		}
		if _, exists := set.fields[key]; exists {
			return nil, fmt.Errorf("label %d (%q): duplicate key %q after uppercasing", index, l.Key, key)
		}
		set.labels = append(set.labels, Label{Key: key, Value: l.Value})
		set.fields[key] = l.Value
	}
	return set, nil
}

// Len reports the number of labels in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labels)
}

// Labels returns the normalized labels in input order. The returned
// slice is a copy; callers may modify it freely.
func (s *Set) Labels() []Label {
	if s == nil {
		return nil
	}
	out := make([]Label, len(s.labels))
	copy(out, s.labels)
	return out
}

// Fields returns the labels as a journal variable map. The map is
// shared across calls and across every forwarded record; callers must
// treat it as read-only.
func (s *Set) Fields() map[string]string {
	if s == nil {
		return nil
	}
	return s.fields
}

// validateKey checks a key already folded to uppercase against the
// journal field grammar.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("key exceeds %d bytes", MaxKeyLength)
	}
	if key[0] < 'A' || key[0] > 'Z' {
		return fmt.Errorf("key must start with a letter")
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') || c == '_' {
			continue
		}
		return fmt.Errorf("key contains invalid character %q", key[i])
	}
	if key == fieldMessage || key == fieldPriority {
		return fmt.Errorf("key %s is reserved by the journal", key)
	}
	return nil
}
