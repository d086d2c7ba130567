// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mediabutton

import "github.com/holomush/mediabutton/pkg/plugin"

// Setting field IDs stored on the media-button component.
const (
	FieldInfo            = "info"
	FieldSelectByName    = "select-name"
	FieldMediaPlayerName = "media-player-name"
	FieldMediaPlayerID   = "media-player-id"
	FieldMediaSourceURL  = "media-source-id"
	FieldWhoCanClick     = "who-can-click"
	FieldEventName       = "event-name"
)

// AccessPolicy controls who may activate a button.
type AccessPolicy int

// Access policies.
const (
	Everyone AccessPolicy = iota
	AdminOnly
)

// Wire values for the who-can-click field.
const (
	policyEveryone  = "Everyone"
	policyAdminOnly = "Admin Only"
)

// ParseAccessPolicy maps a who-can-click value to a policy. Only the exact
// select value "Admin Only" restricts the button; anything else means Everyone.
func ParseAccessPolicy(s string) AccessPolicy {
	if s == policyAdminOnly {
		return AdminOnly
	}
	return Everyone
}

// String returns the who-can-click wire value.
func (p AccessPolicy) String() string {
	if p == AdminOnly {
		return policyAdminOnly
	}
	return policyEveryone
}

// Permits reports whether a user with the given admin status may activate.
func (p AccessPolicy) Permits(isAdmin bool) bool {
	return p != AdminOnly || isAdmin
}

// Config is a button's settings, read once per activation.
type Config struct {
	SelectByName    bool
	MediaPlayerID   string
	MediaPlayerName string
	MediaSourceURL  string
	AccessPolicy    AccessPolicy
	// EventName overrides the hook that receives the playback command.
	EventName string
}

// ParseConfig builds a Config from the component's field values.
func ParseConfig(fields plugin.Fields) Config {
	return Config{
		SelectByName:    fields.Bool(FieldSelectByName),
		MediaPlayerID:   fields.String(FieldMediaPlayerID),
		MediaPlayerName: fields.String(FieldMediaPlayerName),
		MediaSourceURL:  fields.String(FieldMediaSourceURL),
		AccessPolicy:    ParseAccessPolicy(fields.String(FieldWhoCanClick)),
		EventName:       fields.String(FieldEventName),
	}
}

// Fields renders the config back into component field values.
func (c Config) Fields() plugin.Fields {
	f := plugin.Fields{
		FieldSelectByName:   c.SelectByName,
		FieldMediaSourceURL: c.MediaSourceURL,
		FieldWhoCanClick:    c.AccessPolicy.String(),
	}
	if c.SelectByName {
		f[FieldMediaPlayerName] = c.MediaPlayerName
	} else {
		f[FieldMediaPlayerID] = c.MediaPlayerID
	}
	if c.EventName != "" {
		f[FieldEventName] = c.EventName
	}
	return f
}
