// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package access

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Compile-time interface check.
var _ AdminChecker = (*AdminPolicy)(nil)

// compiledPattern holds an admin pattern and its compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// AdminPolicy grants admin status to users whose subject matches one of a
// set of glob patterns. Patterns use ':' as the separator, so
// "user:ops-*" matches "user:ops-alice" and "user:*" matches every user.
//
// AdminPolicy is safe for concurrent use.
type AdminPolicy struct {
	mu       sync.RWMutex
	patterns []compiledPattern
}

// NewAdminPolicy compiles patterns into a policy. Bare patterns without a
// prefix are treated as user patterns. Returns an error if any pattern is
// empty or has invalid glob syntax; no policy is built in that case.
func NewAdminPolicy(patterns []string) (*AdminPolicy, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		c, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}
	return &AdminPolicy{patterns: compiled}, nil
}

func compilePattern(p string) (compiledPattern, error) {
	if p == "" {
		return compiledPattern{}, oops.In("access").Code("INVALID_ADMIN_PATTERN").New("admin pattern cannot be empty")
	}
	if prefix, _ := ParseSubject(p); prefix == "" {
		p = UserSubject(p)
	}
	g, err := glob.Compile(p, ':')
	if err != nil {
		return compiledPattern{}, oops.In("access").
			Code("INVALID_ADMIN_PATTERN").
			With("pattern", p).
			Wrap(err)
	}
	return compiledPattern{pattern: p, glob: g}, nil
}

// Grant adds a pattern to the policy.
func (a *AdminPolicy) Grant(pattern string) error {
	c, err := compilePattern(pattern)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.patterns = append(a.patterns, c)
	a.mu.Unlock()
	return nil
}

// Patterns returns the normalized patterns in grant order.
func (a *AdminPolicy) Patterns() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.patterns))
	for i, p := range a.patterns {
		out[i] = p.pattern
	}
	return out
}

// IsAdmin implements AdminChecker. An operator context is always admin; an
// empty user ID never is.
func (a *AdminPolicy) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if IsOperator(ctx) {
		slog.DebugContext(ctx, "operator context treated as admin", "user_id", userID)
		return true, nil
	}
	if userID == "" {
		return false, nil
	}
	subject := UserSubject(userID)

	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, p := range a.patterns {
		if p.glob.Match(subject) {
			slog.DebugContext(ctx, "admin pattern matched", "user_id", userID, "pattern", p.pattern)
			return true, nil
		}
	}
	return false, nil
}
