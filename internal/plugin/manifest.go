// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package plugin discovers and loads binary component plugins.
package plugin

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// CodeInvalidManifest marks manifest parse and validation errors.
const CodeInvalidManifest = "INVALID_MANIFEST"

// CodeIncompatible marks plugins whose requires constraint rejects the host.
const CodeIncompatible = "PLUGIN_INCOMPATIBLE"

// Manifest represents a plugin.yaml file.
type Manifest struct {
	Name         string        `yaml:"name" jsonschema:"pattern=^[a-z]([a-z0-9-]*[a-z0-9])?$,maxLength=64"`
	Version      string        `yaml:"version" jsonschema:"description=Semantic version of the plugin"`
	Description  string        `yaml:"description,omitempty"`
	Requires     string        `yaml:"requires,omitempty" jsonschema:"description=Semver constraint on the host version"`
	Components   []string      `yaml:"components" jsonschema:"minItems=1"`
	Capabilities []string      `yaml:"capabilities,omitempty"`
	BinaryPlugin *BinaryConfig `yaml:"binary-plugin"`
}

// BinaryConfig holds binary plugin configuration.
type BinaryConfig struct {
	Executable string `yaml:"executable" jsonschema:"minLength=1"`
}

// maxNameLength is the maximum allowed length for plugin names.
const maxNameLength = 64

// namePattern validates plugin names: must start with lowercase letter,
// followed by lowercase letters, digits, or hyphens.
// Cannot end with a hyphen. Single character names are allowed.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ParseManifest parses and validates a plugin.yaml file.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, oops.Code(CodeInvalidManifest).Errorf("manifest data is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, oops.Code(CodeInvalidManifest).Wrapf(err, "invalid YAML")
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	invalid := oops.Code(CodeInvalidManifest).With("plugin", m.Name)

	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return invalid.Errorf("name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", m.Name)
	}
	if len(m.Name) > maxNameLength {
		return invalid.Errorf("name must be %d characters or less, got %d", maxNameLength, len(m.Name))
	}

	if m.Version == "" {
		return invalid.Errorf("version is required")
	}
	if _, err := semver.StrictNewVersion(m.Version); err != nil {
		return invalid.With("version", m.Version).Wrapf(err, "version must be a semantic version")
	}
	if m.Requires != "" {
		if _, err := semver.NewConstraint(m.Requires); err != nil {
			return invalid.With("requires", m.Requires).Wrapf(err, "requires must be a semver constraint")
		}
	}

	if len(m.Components) == 0 {
		return invalid.Errorf("at least one component is required")
	}
	seen := make(map[string]bool, len(m.Components))
	for _, c := range m.Components {
		if c == "" {
			return invalid.Errorf("component IDs cannot be empty")
		}
		if seen[c] {
			return invalid.With("component", c).Errorf("component %q listed twice", c)
		}
		seen[c] = true
	}

	if m.BinaryPlugin == nil {
		return invalid.Errorf("binary-plugin is required")
	}
	if m.BinaryPlugin.Executable == "" {
		return invalid.Errorf("binary-plugin.executable is required")
	}
	return nil
}

// CheckCompatible verifies the requires constraint accepts hostVersion.
// Manifests without a constraint accept every host, as do non-semver
// development builds.
func (m *Manifest) CheckCompatible(hostVersion string) error {
	if m.Requires == "" {
		return nil
	}
	v, err := semver.NewVersion(hostVersion)
	if err != nil {
		return nil //nolint:nilerr // development builds are not versioned
	}
	c, err := semver.NewConstraint(m.Requires)
	if err != nil {
		return oops.Code(CodeInvalidManifest).With("requires", m.Requires).Wrap(err)
	}
	if ok, reasons := c.Validate(v); !ok {
		return oops.Code(CodeIncompatible).
			With("plugin", m.Name).
			With("requires", m.Requires).
			With("host_version", hostVersion).
			Errorf("plugin %s requires host %s: %v", m.Name, m.Requires, reasons)
	}
	return nil
}

// DeclaresComponent reports whether the manifest lists component id.
func (m *Manifest) DeclaresComponent(id string) bool {
	for _, c := range m.Components {
		if c == id {
			return true
		}
	}
	return false
}
