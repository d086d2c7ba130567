// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package plugin

// FieldType identifies how an editor renders a setting.
type FieldType string

// Setting field types understood by the editor.
const (
	FieldLabel      FieldType = "label"
	FieldCheckbox   FieldType = "checkbox"
	FieldInput      FieldType = "input"
	FieldSelect     FieldType = "select"
	FieldSelectItem FieldType = "select-item"
)

// SettingField describes one entry of a component's settings panel.
type SettingField struct {
	ID      string    `json:"id"`
	Name    string    `json:"name,omitempty"`
	Type    FieldType `json:"type"`
	Value   string    `json:"value,omitempty"`
	Default string    `json:"default,omitempty"`
	Values  []string  `json:"values,omitempty"`
	Help    string    `json:"help,omitempty"`
}
