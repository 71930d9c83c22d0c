package mediator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrNoHandler means a command or query was sent with no registered handler.
// This is a wiring mistake, not a request failure.
var ErrNoHandler = errors.New("mediator: no handler registered for request type")

// Void is the result type of commands that return nothing.
type Void = struct{}

type handlerFunc func(ctx context.Context, req any) (any, error)

type subscriberFunc func(ctx context.Context, event any) error

// Mediator routes a request value to exactly one handler by its runtime
// type, and fans an event out to zero-or-more subscribers in registration
// order. All registration happens explicitly at startup.
type Mediator struct {
	mu          sync.RWMutex
	handlers    map[reflect.Type]handlerFunc
	subscribers map[reflect.Type][]subscriberFunc
}

func New() *Mediator {
	return &Mediator{
		handlers:    make(map[reflect.Type]handlerFunc),
		subscribers: make(map[reflect.Type][]subscriberFunc),
	}
}

// Register binds the handler for request type Req. Registering a second
// handler for the same type panics: requests route to exactly one handler.
func Register[Req any, Res any](m *Mediator, handle func(context.Context, Req) (Res, error)) {
	reqType := reflect.TypeOf((*Req)(nil)).Elem()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.handlers[reqType]; exists {
		panic(fmt.Sprintf("mediator: duplicate handler for %s", reqType))
	}
	m.handlers[reqType] = func(ctx context.Context, req any) (any, error) {
		return handle(ctx, req.(Req))
	}
}

// Subscribe appends an event subscriber for event type E.
func Subscribe[E any](m *Mediator, handle func(context.Context, E) error) {
	eventType := reflect.TypeOf((*E)(nil)).Elem()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[eventType] = append(m.subscribers[eventType], func(ctx context.Context, event any) error {
		return handle(ctx, event.(E))
	})
}

// Send routes req to its handler and returns the typed result.
func Send[Res any](ctx context.Context, m *Mediator, req any) (Res, error) {
	var zero Res
	m.mu.RLock()
	handle, ok := m.handlers[reflect.TypeOf(req)]
	m.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrNoHandler, req)
	}
	res, err := handle(ctx, req)
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	return res.(Res), nil
}

// Publish invokes every subscriber for the event's type in registration
// order. Zero subscribers is a valid no-op. All subscribers run even when an
// earlier one fails; the first error is returned. Cancellation is checked
// between subscribers so a caller is never blocked past its deadline.
func (m *Mediator) Publish(ctx context.Context, event any) error {
	m.mu.RLock()
	subs := m.subscribers[reflect.TypeOf(event)]
	m.mu.RUnlock()

	var firstErr error
	for _, subscribe := range subs {
		if err := ctx.Err(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			break
		}
		if err := subscribe(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
