// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package access decides which users are administrators.
//
// Subjects use prefixed string format:
//   - "user:01ABC" for a user
//   - "plugin:media-button" for a plugin
//   - "system" for host-internal operations
package access

import (
	"context"
	"strings"
)

// Subject prefix constants identify the type of entity making a request.
const (
	SubjectUser   = "user:"
	SubjectPlugin = "plugin:"
	SubjectSystem = "system"
)

// AdminChecker reports whether a user is an administrator.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// UserSubject returns the subject string for a user ID.
func UserSubject(userID string) string {
	return SubjectUser + userID
}

// ParseSubject splits a subject string into prefix and ID.
// Returns ("system", "") for "system".
// Returns ("", subject) if no colon separator found.
func ParseSubject(subject string) (prefix, id string) {
	if subject == "" {
		return "", ""
	}
	if subject == SubjectSystem {
		return SubjectSystem, ""
	}
	prefix, id, found := strings.Cut(subject, ":")
	if !found {
		return "", subject
	}
	return prefix, id
}
