// Package hooks implements the extension pipeline: a small event bus with
// a closed set of named hook points. Handlers run in registration order,
// each one completing before the next, and the first handler error aborts
// the whole run.
package hooks

import (
	"context"
	"fmt"
	"sync"
)

// Name identifies a hook point
type Name string

const (
	// FeedItem runs after a feed item is assembled and before it is
	// inserted into the document. Handlers receive the item as the value
	// and the source post as the first extra argument.
	FeedItem Name = "feed.item"

	// FeedDocument runs after all items are inserted and before the
	// document is serialized. Handlers receive the whole document.
	FeedDocument Name = "feed.document"
)

// Handler observes or mutates the value passed through a hook point.
// Returning a non-nil value replaces the value for subsequent handlers;
// returning nil keeps the current one.
type Handler func(ctx context.Context, value any, args ...any) (any, error)

// Registry holds registered handlers per hook point
type Registry struct {
	mu       sync.RWMutex
	handlers map[Name][]Handler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[Name][]Handler),
	}
}

// Register appends a handler to the given hook point
func (r *Registry) Register(name Name, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = append(r.handlers[name], handler)
}

// Run invokes the handlers registered for name in order, threading the
// value through each one. A nil registry or an empty hook point returns
// the value unchanged.
func (r *Registry) Run(ctx context.Context, name Name, value any, args ...any) (any, error) {
	if r == nil {
		return value, nil
	}

	r.mu.RLock()
	handlers := make([]Handler, len(r.handlers[name]))
	copy(handlers, r.handlers[name])
	r.mu.RUnlock()

	for _, handler := range handlers {
		out, err := handler(ctx, value, args...)
		if err != nil {
			return nil, fmt.Errorf("hook %s: %w", name, err)
		}
		if out != nil {
			value = out
		}
	}

	return value, nil
}
