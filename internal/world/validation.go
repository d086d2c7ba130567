// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length limits for object fields. IDs share the limit with component IDs
// because both end up in URLs (/v1/objects/{id}) and hook capabilities.
const (
	MaxNameLength = 100
	MaxIDLength   = 128
)

// ValidationError reports the object field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateName checks a display name: non-empty UTF-8, bounded, and free
// of control characters. Spaces are allowed.
func ValidateName(name string) error {
	switch {
	case name == "":
		return invalid("name", "cannot be empty")
	case !utf8.ValidString(name):
		return invalid("name", "must be valid UTF-8")
	case len(name) > MaxNameLength:
		return invalid("name", "exceeds maximum length of %d", MaxNameLength)
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return invalid("name", "cannot contain control characters")
	}
	return nil
}

// ValidateID checks an object or component identifier: non-empty, bounded,
// and free of whitespace and control characters.
func ValidateID(field, id string) error {
	switch {
	case id == "":
		return invalid(field, "cannot be empty")
	case len(id) > MaxIDLength:
		return invalid(field, "exceeds maximum length of %d", MaxIDLength)
	case strings.IndexFunc(id, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsControl(r) }) >= 0:
		return invalid(field, "cannot contain whitespace")
	}
	return nil
}
