// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mediabutton

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Error codes for failed activations.
const (
	CodeResolutionFailed     = "RESOLUTION_FAILED"
	CodeMissingConfiguration = "MISSING_CONFIGURATION"
)

// User-facing alert messages.
const (
	MissingConfigurationMessage = "No media source URL or media player ID was found for this button."
	ResolutionFailedMessage     = "Could not look for a nearby media player. Please try again."
)

var (
	// ErrResolutionFailed marks activations aborted by a failed object lookup.
	ErrResolutionFailed = errors.New("media player resolution failed")
	// ErrMissingConfiguration marks activations with no target or no source URL.
	ErrMissingConfiguration = errors.New("no media source URL or media player ID")
)

func resolutionFailed(step string, cause error) error {
	return oops.In("mediabutton").
		Code(CodeResolutionFailed).
		With("step", step).
		Wrap(fmt.Errorf("%w: %w", ErrResolutionFailed, cause))
}

func missingConfiguration(hasTarget, hasSource bool) error {
	return oops.In("mediabutton").
		Code(CodeMissingConfiguration).
		With("has_target", hasTarget).
		With("has_source", hasSource).
		Wrap(ErrMissingConfiguration)
}

// IsActivationError reports whether err came from a failed activation.
func IsActivationError(err error) bool {
	return errors.Is(err, ErrResolutionFailed) || errors.Is(err, ErrMissingConfiguration)
}
