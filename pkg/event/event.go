// Package event provides a small in-process event dispatcher.
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/retromusic/storefront/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload interface{}) error

// Bus dispatches named events to registered listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

func New() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

// Listen registers a handler for the given event name.
func (b *Bus) Listen(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

func (b *Bus) listeners(event string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[event]...)
}

// Fire dispatches an event synchronously and returns the first listener error.
// A panicking listener is reported as an error.
func (b *Bus) Fire(ctx context.Context, event string, payload interface{}) error {
	for _, h := range b.listeners(event) {
		if err := call(ctx, h, payload); err != nil {
			return fmt.Errorf("event %s: %w", event, err)
		}
	}
	return nil
}

// FireAsync dispatches the event to every listener on its own goroutine and
// returns immediately. Listener errors are logged. The context is detached
// from the caller's cancellation.
func (b *Bus) FireAsync(ctx context.Context, event string, payload interface{}) {
	ctx = context.WithoutCancel(ctx)
	for _, h := range b.listeners(event) {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			if err := call(ctx, h, payload); err != nil {
				logger.WithCtx(ctx).Error("event listener failed", "event", event, "error", err)
			}
		}(h)
	}
}

// Wait blocks until every FireAsync listener has returned.
func (b *Bus) Wait() {
	b.wg.Wait()
}

func call(ctx context.Context, h Handler, payload interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return h(ctx, payload)
}
