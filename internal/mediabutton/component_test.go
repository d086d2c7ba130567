// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mediabutton

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/mediabutton/pkg/errutil"
	"github.com/holomush/mediabutton/pkg/plugin"
)

func fixedClock() func() time.Time {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time { return t }
}

func newTestComponent() *Component {
	return NewComponent(NewResolver(WithEnvelopeSource(NewEnvelopeSource(fixedClock()))))
}

func click(fields plugin.Fields) plugin.Click {
	return plugin.Click{ObjectID: "btn", UserID: "user-1", Fields: fields}
}

func TestOnClick_NearestPlayerReceivesPlay(t *testing.T) {
	host := &fakeHost{objects: []plugin.Object{
		button("btn", 0, 0),
		player("far", 10, 0),
		player("near", 3, 4),
	}}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldMediaSourceURL: "https://example.com/a.mp4",
	}))
	require.NoError(t, err)

	payloads := host.payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "near", payloads[0].ObjectID)
	assert.Equal(t, "https://example.com/a.mp4", payloads[0].Changes[SourceProperty])
	public, ok := payloads[0].Changes[PublicProperty].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, SyncActionPlay, public[SyncActionKey])
	assert.Equal(t, int64(1_700_000_000_000), public[SyncTimeKey])
	assert.NotEmpty(t, public[SyncNonceKey])
	assert.Equal(t, 0.0, public[SyncSeekKey])

	assert.Equal(t, SetObjectPropertiesHook, host.hooks[0].Name)
	assert.Empty(t, host.alerts)
	assert.Equal(t, 0.0, host.lastFetch.X)
	assert.Equal(t, DefaultSearchRadius, host.lastFetch.Radius)
}

func TestOnClick_ExplicitIDSkipsSpatialQuery(t *testing.T) {
	host := &fakeHost{objects: []plugin.Object{button("btn", 0, 0), player("p1", 1, 1)}}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldMediaPlayerID:  "explicit-player",
		FieldMediaSourceURL: "https://example.com/b.mp4",
	}))
	require.NoError(t, err)

	assert.Equal(t, 0, host.fetchCalls)
	assert.Equal(t, 0, host.findCalls)
	payloads := host.payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "explicit-player", payloads[0].ObjectID)
}

func TestOnClick_SelectByNameResolvesPlayer(t *testing.T) {
	host := &fakeHost{objects: []plugin.Object{
		button("btn", 0, 0),
		{ID: "stage-id", Name: "Stage Screen", Position: plugin.Position{X: 500}, Components: []string{MediaSourceComponentID}},
	}}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldSelectByName:    true,
		FieldMediaPlayerName: "Stage Screen",
		FieldMediaSourceURL:  "https://example.com/c.mp4",
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, host.findCalls)
	assert.Equal(t, 0, host.fetchCalls)
	payloads := host.payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "stage-id", payloads[0].ObjectID)
}

func TestOnClick_UnmatchedNameFallsBackToNearest(t *testing.T) {
	host := &fakeHost{objects: []plugin.Object{button("btn", 0, 0), player("p1", 2, 2)}}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldSelectByName:    "true",
		FieldMediaPlayerName: "Nobody Home",
		FieldMediaSourceURL:  "https://example.com/d.mp4",
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, host.findCalls)
	assert.Equal(t, 1, host.fetchCalls)
	payloads := host.payloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, "p1", payloads[0].ObjectID)
}

func TestOnClick_AdminOnlyDeniesNonAdminSilently(t *testing.T) {
	host := &fakeHost{objects: []plugin.Object{button("btn", 0, 0), player("p1", 1, 1)}}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldWhoCanClick:    "Admin Only",
		FieldMediaPlayerID:  "p1",
		FieldMediaSourceURL: "https://example.com/e.mp4",
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, host.adminCalls)
	assert.Empty(t, host.hooks)
	assert.Empty(t, host.alerts)
	assert.Equal(t, 0, host.fetchCalls)
}

func TestOnClick_AdminOnlyAllowsAdmin(t *testing.T) {
	host := &fakeHost{admin: true, objects: []plugin.Object{button("btn", 0, 0), player("p1", 1, 1)}}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldWhoCanClick:    "Admin Only",
		FieldMediaSourceURL: "https://example.com/f.mp4",
	}))
	require.NoError(t, err)
	assert.Len(t, host.payloads(), 1)
}

func TestOnClick_AdminCheckErrorFailsClosed(t *testing.T) {
	host := &fakeHost{
		admin:    true,
		adminErr: errors.New("directory offline"),
		objects:  []plugin.Object{button("btn", 0, 0), player("p1", 1, 1)},
	}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldWhoCanClick:    "Admin Only",
		FieldMediaSourceURL: "https://example.com/g.mp4",
	}))
	require.NoError(t, err)
	assert.Empty(t, host.hooks)
	assert.Empty(t, host.alerts)
}

func TestOnClick_EveryoneNeverAsksForAdmin(t *testing.T) {
	host := &fakeHost{objects: []plugin.Object{button("btn", 0, 0), player("p1", 1, 1)}}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldMediaSourceURL: "https://example.com/h.mp4",
	}))
	require.NoError(t, err)
	assert.Equal(t, 0, host.adminCalls)
}

func TestOnClick_MissingSourceAlertsOnce(t *testing.T) {
	host := &fakeHost{objects: []plugin.Object{button("btn", 0, 0), player("p1", 1, 1)}}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{}))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeMissingConfiguration)
	assert.ErrorIs(t, err, ErrMissingConfiguration)

	assert.Empty(t, host.hooks)
	require.Len(t, host.alerts, 1)
	assert.Equal(t, MissingConfigurationMessage, host.alerts[0].Message)
	assert.Equal(t, plugin.SeverityWarning, host.alerts[0].Severity)
}

func TestOnClick_NoPlayerInRangeAlertsOnce(t *testing.T) {
	host := &fakeHost{objects: []plugin.Object{button("btn", 0, 0), player("p1", 100, 100)}}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldMediaSourceURL: "https://example.com/i.mp4",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingConfiguration)
	assert.Empty(t, host.hooks)
	require.Len(t, host.alerts, 1)
	assert.Equal(t, MissingConfigurationMessage, host.alerts[0].Message)
}

func TestOnClick_SpatialQueryFailureAlertsOnce(t *testing.T) {
	host := &fakeHost{
		objects:  []plugin.Object{button("btn", 0, 0)},
		fetchErr: errors.New("index unavailable"),
	}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldMediaSourceURL: "https://example.com/j.mp4",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.True(t, IsActivationError(err))
	assert.Empty(t, host.hooks)
	require.Len(t, host.alerts, 1)
	assert.Equal(t, ResolutionFailedMessage, host.alerts[0].Message)
	assert.Equal(t, plugin.SeverityError, host.alerts[0].Severity)
}

func TestOnClick_NameLookupFailureAlertsOnce(t *testing.T) {
	host := &fakeHost{
		objects: []plugin.Object{button("btn", 0, 0), player("p1", 1, 1)},
		findErr: errors.New("search offline"),
	}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldSelectByName:    true,
		FieldMediaPlayerName: "Screen",
		FieldMediaSourceURL:  "https://example.com/k.mp4",
	}))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeResolutionFailed)
	assert.Equal(t, 0, host.fetchCalls)
	assert.Empty(t, host.hooks)
	assert.Len(t, host.alerts, 1)
}

func TestOnClick_ButtonLookupFailureAlertsOnce(t *testing.T) {
	host := &fakeHost{getErr: errors.New("store down")}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldMediaSourceURL: "https://example.com/l.mp4",
	}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.Empty(t, host.hooks)
	assert.Len(t, host.alerts, 1)
}

func TestOnClick_DispatchErrorIsNotSurfaced(t *testing.T) {
	host := &fakeHost{
		objects: []plugin.Object{button("btn", 0, 0), player("p1", 1, 1)},
		hookErr: errors.New("presenter offline"),
	}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldMediaSourceURL: "https://example.com/m.mp4",
	}))
	require.NoError(t, err)
	assert.Len(t, host.hooks, 1)
	assert.Empty(t, host.alerts)
}

func TestOnClick_CustomEventName(t *testing.T) {
	host := &fakeHost{objects: []plugin.Object{button("btn", 0, 0), player("p1", 1, 1)}}

	err := newTestComponent().OnClick(context.Background(), host, click(plugin.Fields{
		FieldMediaSourceURL: "https://example.com/n.mp4",
		FieldEventName:      "media.lobby.setObjectProperties",
	}))
	require.NoError(t, err)
	require.Len(t, host.hooks, 1)
	assert.Equal(t, "media.lobby.setObjectProperties", host.hooks[0].Name)
}

func TestOnClick_RepeatedClicksAreDistinctCommands(t *testing.T) {
	host := &fakeHost{objects: []plugin.Object{button("btn", 0, 0), player("p1", 1, 1)}}
	c := newTestComponent()
	fields := plugin.Fields{FieldMediaSourceURL: "https://example.com/o.mp4"}

	require.NoError(t, c.OnClick(context.Background(), host, click(fields)))
	require.NoError(t, c.OnClick(context.Background(), host, click(fields)))

	payloads := host.payloads()
	require.Len(t, payloads, 2)
	first := payloads[0].Changes[PublicProperty].(map[string]any)
	second := payloads[1].Changes[PublicProperty].(map[string]any)
	assert.NotEqual(t, first[SyncNonceKey], second[SyncNonceKey])
	assert.Greater(t, second[SyncTimeKey].(int64), first[SyncTimeKey].(int64))
}

func TestNewComponent_NilResolverUsesDefaults(t *testing.T) {
	c := NewComponent(nil)
	require.NotNil(t, c.resolver)
	assert.Equal(t, DefaultSearchRadius, c.resolver.SearchRadius())
}
