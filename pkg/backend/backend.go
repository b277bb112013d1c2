// Package backend talks to the remote text-generation service. It provides
// the Backend interface, an HTTP implementation, a retry executor with linear
// backoff, and extraction of a JSON object from free-form response text.
package backend

import "context"

// Backend sends one request payload and returns the response text.
type Backend interface {
	Invoke(ctx context.Context, payload string) (string, error)
}

// Func adapts a plain function to the Backend interface.
type Func func(ctx context.Context, payload string) (string, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, payload string) (string, error) {
	return f(ctx, payload)
}
