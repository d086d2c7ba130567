// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mediabutton

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Platform identifiers the button depends on.
const (
	// MediaSourceComponentID tags objects that can play media.
	MediaSourceComponentID = "media-playback:media-source"
	// SourceProperty is the object property holding the media source URL.
	SourceProperty = "component:" + MediaSourceComponentID + ":src"
	// SetObjectPropertiesHook is the hook that applies property changes.
	SetObjectPropertiesHook = "media.presenter.setObjectProperties"
)

// SyncActionPlay is the only sync action a button issues.
const SyncActionPlay = "play"

// Sync envelope property keys, stored under the object's "public" properties.
const (
	PublicProperty = "public"
	SyncActionKey  = "media_source_sync_action"
	SyncTimeKey    = "media_source_sync_time"
	SyncNonceKey   = "media_source_sync_nonce"
	SyncSeekKey    = "media_source_sync_seek"
)

// SyncEnvelope tells every viewer of a media player to act on a command.
// Receivers ignore envelopes whose nonce they have already seen.
type SyncEnvelope struct {
	Action    string
	Timestamp int64 // Unix milliseconds
	Nonce     string
	Seek      float64
}

// PlaybackCommand instructs a media player to play a source from the start.
type PlaybackCommand struct {
	TargetID  string
	SourceURL string
	// EventName is the hook the command is sent through.
	EventName string
	Sync      SyncEnvelope
}

// SetObjectPropertiesPayload is the hook payload carrying a command.
type SetObjectPropertiesPayload struct {
	ObjectID string         `json:"objectID"`
	Changes  map[string]any `json:"changes"`
}

// Payload renders the command as a property-change hook payload.
func (c PlaybackCommand) Payload() SetObjectPropertiesPayload {
	return SetObjectPropertiesPayload{
		ObjectID: c.TargetID,
		Changes: map[string]any{
			SourceProperty: c.SourceURL,
			PublicProperty: map[string]any{
				SyncActionKey: c.Sync.Action,
				SyncTimeKey:   c.Sync.Timestamp,
				SyncNonceKey:  c.Sync.Nonce,
				SyncSeekKey:   c.Sync.Seek,
			},
		},
	}
}

// EnvelopeSource issues sync envelopes whose timestamps strictly increase
// and whose nonces never repeat within the process. It is safe for
// concurrent use.
type EnvelopeSource struct {
	mu      sync.Mutex
	now     func() time.Time
	last    int64
	entropy *ulid.MonotonicEntropy
}

// NewEnvelopeSource creates a source reading the wall clock from now.
// A nil now uses time.Now.
func NewEnvelopeSource(now func() time.Time) *EnvelopeSource {
	if now == nil {
		now = time.Now
	}
	return &EnvelopeSource{
		now:     now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Next returns a fresh play envelope. The timestamp is the current wall
// clock in milliseconds, bumped past the previous envelope when the clock
// has not advanced.
func (s *EnvelopeSource) Next() SyncEnvelope {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UnixMilli()
	if ts < 0 {
		ts = 0
	}
	if ts <= s.last {
		ts = s.last + 1
	}
	s.last = ts

	return SyncEnvelope{
		Action:    SyncActionPlay,
		Timestamp: ts,
		Nonce:     ulid.MustNew(uint64(ts), s.entropy).String(),
		Seek:      0,
	}
}

// Command builds a playback command with a fresh envelope.
func (s *EnvelopeSource) Command(targetID, sourceURL, eventName string) PlaybackCommand {
	if eventName == "" {
		eventName = SetObjectPropertiesHook
	}
	return PlaybackCommand{
		TargetID:  targetID,
		SourceURL: sourceURL,
		EventName: eventName,
		Sync:      s.Next(),
	}
}
