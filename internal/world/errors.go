// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import "errors"

// Error codes attached to store errors.
const (
	CodeObjectNotFound = "OBJECT_NOT_FOUND"
	CodeAlreadyExists  = "ALREADY_EXISTS"
)

var (
	// ErrNotFound is returned when an object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrAlreadyExists is returned when creating an object whose ID is taken.
	ErrAlreadyExists = errors.New("object already exists")
)
