// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package hooks routes named platform hooks to registered handlers.
//
// Hook names are dot-separated. Handlers register with gobwas/glob patterns
// using '.' as the separator, so "media.*.setObjectProperties" matches any
// single presenter segment and "media.**" matches everything under media.
package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Error codes returned by the bus.
const (
	CodeNoHandler      = "NO_HANDLER"
	CodeHookFailed     = "HOOK_FAILED"
	CodeInvalidPattern = "INVALID_HOOK_PATTERN"
	CodeInvalidPayload = "INVALID_HOOK_PAYLOAD"
)

// Defaults for handler retries.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 50 * time.Millisecond
)

// Event is one hook invocation as seen by a handler.
type Event struct {
	Name    string
	Payload json.RawMessage
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return oops.Code(CodeInvalidPayload).With("hook", e.Name).Wrap(err)
	}
	return nil
}

// Handler handles hook events. Wrap an error with Retryable to have the bus
// call the handler again after a backoff.
type Handler func(ctx context.Context, ev Event) error

// Retryable marks err as transient.
func Retryable(err error) error {
	return retry.RetryableError(err) //nolint:wrapcheck // marker wrapper
}

type subscription struct {
	pattern string
	glob    glob.Glob
	handler Handler
}

// Bus dispatches hooks to handlers. It is safe for concurrent use.
type Bus struct {
	mu         sync.RWMutex
	subs       []subscription
	maxRetries uint64
	baseDelay  time.Duration
}

// Option configures a Bus.
type Option func(*Bus)

// WithMaxRetries sets how many times a retryable handler error is retried.
func WithMaxRetries(n uint64) Option {
	return func(b *Bus) { b.maxRetries = n }
}

// WithBaseDelay sets the first backoff delay. Later delays double.
func WithBaseDelay(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.baseDelay = d
		}
	}
}

// NewBus creates an empty Bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds a handler for hooks matching pattern.
func (b *Bus) Register(pattern string, h Handler) error {
	if pattern == "" {
		return oops.Code(CodeInvalidPattern).Errorf("hook pattern cannot be empty")
	}
	if h == nil {
		return oops.Code(CodeInvalidPattern).With("pattern", pattern).Errorf("handler cannot be nil")
	}
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return oops.Code(CodeInvalidPattern).With("pattern", pattern).Wrap(err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{pattern: pattern, glob: g, handler: h})
	return nil
}

// Patterns returns the registered patterns in registration order.
func (b *Bus) Patterns() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.subs))
	for i, s := range b.subs {
		out[i] = s.pattern
	}
	return out
}

// Trigger encodes payload as JSON and invokes every handler whose pattern
// matches name, in registration order. Every matching handler runs even
// when an earlier one fails; failures are joined into one HOOK_FAILED error.
func (b *Bus) Trigger(ctx context.Context, name string, payload any) error {
	start := time.Now()
	status := StatusSuccess
	defer func() { recordTrigger(name, status, time.Since(start)) }()

	raw, err := encodePayload(payload)
	if err != nil {
		status = StatusError
		return oops.Code(CodeInvalidPayload).With("hook", name).Wrap(err)
	}

	handlers := b.match(name)
	if len(handlers) == 0 {
		status = StatusNoHandler
		return oops.Code(CodeNoHandler).With("hook", name).Errorf("no handler registered for hook %q", name)
	}

	ev := Event{Name: name, Payload: raw}
	var errs []error
	for _, sub := range handlers {
		if herr := b.call(ctx, sub, ev); herr != nil {
			errs = append(errs, oops.With("pattern", sub.pattern).Wrap(herr))
		}
	}
	if len(errs) > 0 {
		status = StatusError
		return oops.Code(CodeHookFailed).With("hook", name).With("failed", len(errs)).Wrap(errors.Join(errs...))
	}

	slog.DebugContext(ctx, "hook triggered", "hook", name, "handlers", len(handlers))
	return nil
}

func (b *Bus) call(ctx context.Context, sub subscription, ev Event) error {
	attempt := 0
	backoff := retry.WithMaxRetries(b.maxRetries, retry.NewExponential(b.baseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error { //nolint:wrapcheck // caller wraps with pattern
		attempt++
		if attempt > 1 {
			HookRetries.WithLabelValues(ev.Name).Inc()
		}
		err := sub.handler(ctx, ev)
		if err != nil {
			slog.DebugContext(ctx, "hook handler failed",
				"hook", ev.Name, "pattern", sub.pattern, "attempt", attempt, "error", err)
		}
		return err
	})
}

func (b *Bus) match(name string) []subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []subscription
	for _, s := range b.subs {
		if s.glob.Match(name) {
			out = append(out, s)
		}
	}
	return out
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case json.RawMessage:
		if !json.Valid(p) {
			return nil, errors.New("payload is not valid JSON")
		}
		return p, nil
	case []byte:
		if !json.Valid(p) {
			return nil, errors.New("payload is not valid JSON")
		}
		return json.RawMessage(p), nil
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err //nolint:wrapcheck // caller wraps with hook context
		}
		return data, nil
	}
}
