package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrBadRequest      = errors.New("bad request")
	// ErrProvider marks a speaker-recognition provider fault. It is distinct from
	// ErrUnauthenticated: a provider outage says nothing about who the caller is.
	ErrProvider = errors.New("provider unavailable")
	// ErrStorage marks a durable-store failure. A request that hits this never
	// returns a partial result.
	ErrStorage = errors.New("storage unavailable")
)
