package testsupport

import (
	"context"
	"fmt"
	"sync"

	"gridauto/internal/simauto"
)

// EndpointCall records one invocation against the fake endpoint.
type EndpointCall struct {
	Function string
	Params   []any
}

// FakeEndpoint is a scripted automation endpoint for tests. Register
// per-function handlers or canned replies; unregistered functions
// succeed with an empty payload, which matches how the real server
// answers property sets and case operations.
type FakeEndpoint struct {
	mu       sync.Mutex
	calls    []EndpointCall
	handlers map[string]func(params []any) simauto.Reply
	closed   bool
}

// NewEndpoint constructs an empty fake endpoint.
func NewEndpoint() *FakeEndpoint {
	return &FakeEndpoint{handlers: make(map[string]func(params []any) simauto.Reply)}
}

// Handle installs a handler for a function.
func (f *FakeEndpoint) Handle(function string, handler func(params []any) simauto.Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[function] = handler
}

// Respond makes a function answer with the given payload.
func (f *FakeEndpoint) Respond(function string, payload ...any) {
	f.Handle(function, func([]any) simauto.Reply {
		return simauto.Reply{Payload: payload}
	})
}

// Fail makes a function report the given server error.
func (f *FakeEndpoint) Fail(function, message string) {
	f.Handle(function, func([]any) simauto.Reply {
		return simauto.Reply{ErrorFlag: message, ErrorMessage: message}
	})
}

// Invoke implements simauto.Endpoint.
func (f *FakeEndpoint) Invoke(_ context.Context, function string, params []any) (simauto.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return simauto.Reply{}, fmt.Errorf("endpoint closed")
	}

	recorded := make([]any, len(params))
	copy(recorded, params)
	f.calls = append(f.calls, EndpointCall{Function: function, Params: recorded})

	if handler, ok := f.handlers[function]; ok {
		return handler(params), nil
	}
	return simauto.Reply{}, nil
}

// Close implements simauto.Endpoint.
func (f *FakeEndpoint) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Calls returns every recorded invocation in order.
func (f *FakeEndpoint) Calls() []EndpointCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]EndpointCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many times a function was invoked.
func (f *FakeEndpoint) CallCount(function string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call.Function == function {
			count++
		}
	}
	return count
}
