// Copyright 2026 The Linefeed Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

// dropPrivileges switches the process to the given system user before
// any sink is opened, so the leading file and its rotation config are
// created as that user. Supplementary groups are set first, then the
// gid, then the uid: once the uid drops, the other two calls would no
// longer be permitted.
func dropPrivileges(username string, logger *slog.Logger) error {
	info, err := user.Lookup(username)
	if err != nil {
		return fmt.Errorf("looking up user %q: %w", username, err)
	}

	uid, err := strconv.Atoi(info.Uid)
	if err != nil {
		return fmt.Errorf("parsing uid %q for %q: %w", info.Uid, username, err)
	}
	gid, err := strconv.Atoi(info.Gid)
	if err != nil {
		return fmt.Errorf("parsing gid %q for %q: %w", info.Gid, username, err)
	}

	groupIDs, err := info.GroupIds()
	if err != nil {
		return fmt.Errorf("listing groups for %q: %w", username, err)
	}
	groups := make([]int, 0, len(groupIDs))
	for _, id := range groupIDs {
		n, err := strconv.Atoi(id)
		if err != nil {
			return fmt.Errorf("parsing group id %q for %q: %w", id, username, err)
		}
		groups = append(groups, n)
	}

	if err := unix.Setgroups(groups); err != nil {
		return fmt.Errorf("setting groups for %q: %w", username, err)
	}
	if err := unix.Setgid(gid); err != nil {
		return fmt.Errorf("setting gid %d: %w", gid, err)
	}
	if err := unix.Setuid(uid); err != nil {
		return fmt.Errorf("setting uid %d: %w", uid, err)
	}

	logger.Info("dropped privileges", "user", username, "uid", uid, "gid", gid)
	return nil
}
