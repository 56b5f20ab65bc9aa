// Package middleware wraps session stores and summary sinks with privacy behaviour:
// encryption at rest for sessions and masking of sensitive fields in call summaries.
package middleware

import "github.com/aretw0/ivrflow/pkg/ports"

// Middleware allows wrapping a SessionStore to add behavior.
type Middleware func(ports.SessionStore) ports.SessionStore

// Chain applies mws to store; the first one is the outermost.
func Chain(store ports.SessionStore, mws ...Middleware) ports.SessionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
