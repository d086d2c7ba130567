// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

import (
	"fmt"
	"strconv"
	"strings"
)

// Fields holds a component's configured setting values keyed by field ID.
// Values arrive from JSON or YAML, so accessors are lenient about types.
type Fields map[string]any

// String returns the field as a trimmed string. Missing or nil fields are "".
func (f Fields) String(id string) string {
	v, ok := f[id]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// Bool returns the field as a boolean. Strings "true", "1", "yes" and "on"
// (any case) count as true; everything else is false.
func (f Fields) Bool(id string) bool {
	v, ok := f[id]
	if !ok || v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes", "on":
			return true
		}
		return false
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		b, err := strconv.ParseBool(fmt.Sprint(val))
		return err == nil && b
	}
}

// Clone returns a shallow copy of the fields.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
