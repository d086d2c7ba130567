// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mediabutton

import (
	"github.com/holomush/mediabutton/pkg/plugin"
)

// ComponentID is the registered ID of the media button component.
const ComponentID = "media-button"

const nearestHelp = "Leaving this blank will default the button to the nearest media player (within 20 metres)."

// ComputeVisibleFields returns the settings panel for a button with the
// given config. The player field shown depends on SelectByName.
func ComputeVisibleFields(cfg Config) []plugin.SettingField {
	fields := []plugin.SettingField{
		{ID: FieldInfo, Type: plugin.FieldLabel, Value: "Settings"},
		{
			ID:   FieldSelectByName,
			Name: "Select Via Name",
			Type: plugin.FieldCheckbox,
			Help: "Allows for selection of media player via its name rather than ID.",
		},
	}

	if cfg.SelectByName {
		fields = append(fields, plugin.SettingField{
			ID:   FieldMediaPlayerName,
			Name: "Media Player Name",
			Type: plugin.FieldSelectItem,
			Help: "Name of the media player object. " + nearestHelp,
		})
	} else {
		fields = append(fields, plugin.SettingField{
			ID:   FieldMediaPlayerID,
			Name: "Media Player ID",
			Type: plugin.FieldInput,
			Help: "ID of the media player object. " + nearestHelp,
		})
	}

	return append(fields,
		plugin.SettingField{
			ID:   FieldMediaSourceURL,
			Name: "Media Source URL",
			Type: plugin.FieldInput,
			Help: "URL for the media source you wish to play with this button.",
		},
		plugin.SettingField{
			ID:      FieldWhoCanClick,
			Name:    "Who Can Press?",
			Type:    plugin.FieldSelect,
			Default: policyEveryone,
			Values:  []string{policyEveryone, policyAdminOnly},
			Help:    "Type of user who is allowed to click on the media button. Default is Everyone.",
		},
		plugin.SettingField{
			ID:   FieldEventName,
			Name: "Event Name",
			Type: plugin.FieldInput,
			Help: "Hook that receives the play command. Leave blank for " + SetObjectPropertiesHook + ".",
		},
	)
}

// Descriptor returns the component registration for the media button.
func Descriptor() plugin.ComponentDescriptor {
	return plugin.ComponentDescriptor{
		ID:          ComponentID,
		Name:        "Media Button",
		Description: "Converts this object into a button that plays a URL on a media player",
		Settings: func(current plugin.Fields) []plugin.SettingField {
			return ComputeVisibleFields(ParseConfig(current))
		},
	}
}
