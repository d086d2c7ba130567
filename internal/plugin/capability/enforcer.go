// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package capability gates the host API calls binary plugins make.
//
// Pattern matching uses gobwas/glob with '.' as the segment separator:
//   - '*' matches a single segment (does not cross '.')
//   - '**' matches zero or more segments (crosses '.')
//
// Examples:
//   - "objects.*" matches "objects.read"
//   - "hooks.trigger.**" matches "hooks.trigger.media.presenter.setObjectProperties"
//   - "**" matches any capability
package capability

import (
	"errors"
	"sort"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Capabilities checked by the host API.
const (
	ObjectsRead = "objects.read"
	UsersRead   = "users.read"
	MenusAlert  = "menus.alert"
	hookPrefix  = "hooks.trigger."
)

// Error codes.
const (
	CodeDenied         = "CAPABILITY_DENIED"
	CodeInvalidPattern = "INVALID_CAPABILITY"
)

// ErrDenied is wrapped by Require when a plugin lacks a capability.
var ErrDenied = errors.New("capability denied")

// Hook returns the capability needed to trigger the named hook.
func Hook(name string) string {
	return hookPrefix + name
}

type compiledGrant struct {
	pattern string
	glob    glob.Glob
}

// Enforcer checks plugin capabilities at runtime. It is safe for
// concurrent use; the zero value denies everything.
type Enforcer struct {
	grants map[string][]compiledGrant
	mu     sync.RWMutex
}

// NewEnforcer creates a capability enforcer.
func NewEnforcer() *Enforcer {
	return &Enforcer{grants: make(map[string][]compiledGrant)}
}

// SetGrants replaces the capabilities of a plugin. Nothing changes when
// any pattern is invalid.
func (e *Enforcer) SetGrants(plugin string, capabilities []string) error {
	if plugin == "" {
		return oops.Code(CodeInvalidPattern).Errorf("plugin name cannot be empty")
	}

	compiled := make([]compiledGrant, len(capabilities))
	for i, pattern := range capabilities {
		if pattern == "" {
			return oops.Code(CodeInvalidPattern).With("plugin", plugin).With("index", i).
				Errorf("empty capability pattern")
		}
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return oops.Code(CodeInvalidPattern).With("plugin", plugin).With("pattern", pattern).Wrap(err)
		}
		compiled[i] = compiledGrant{pattern: pattern, glob: g}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.grants == nil {
		e.grants = make(map[string][]compiledGrant)
	}
	e.grants[plugin] = compiled
	return nil
}

// RemoveGrants unregisters a plugin. Unknown plugins are ignored.
func (e *Enforcer) RemoveGrants(plugin string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.grants, plugin)
}

// Grants returns a copy of a plugin's patterns, or nil if it has none.
func (e *Enforcer) Grants(plugin string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	grants, ok := e.grants[plugin]
	if !ok {
		return nil
	}
	patterns := make([]string, len(grants))
	for i, g := range grants {
		patterns[i] = g.pattern
	}
	return patterns
}

// Plugins returns the registered plugin names, sorted.
func (e *Enforcer) Plugins() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.grants))
	for name := range e.grants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check reports whether the plugin holds the capability. Unknown plugins
// and empty capabilities are denied.
func (e *Enforcer) Check(plugin, capability string) bool {
	if capability == "" {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, grant := range e.grants[plugin] {
		if grant.glob.Match(capability) {
			return true
		}
	}
	return false
}

// Require is Check returning a CAPABILITY_DENIED error wrapping ErrDenied.
func (e *Enforcer) Require(plugin, capability string) error {
	if e.Check(plugin, capability) {
		return nil
	}
	return oops.Code(CodeDenied).
		With("plugin", plugin).
		With("capability", capability).
		Wrapf(ErrDenied, "plugin %q lacks %q", plugin, capability)
}
