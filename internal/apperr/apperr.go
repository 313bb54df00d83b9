/**
 * @description
 * Application error taxonomy.
 * The API layer maps each kind to an HTTP status; services wrap underlying
 * causes so callers can branch with errors.As.
 */

package apperr

import "fmt"

// ResolutionError means the supplied input could not be mapped to a wallet
// address. User-correctable.
type ResolutionError struct {
	Input string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve %q to a valid wallet address", e.Input)
}

// UpstreamFetchError means a refresh against an upstream source failed.
// Transient: previously cached data is still served when present.
type UpstreamFetchError struct {
	Source string // "data-api", "orders-subgraph", "activity-subgraph"
	Err    error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("upstream fetch from %s failed: %v", e.Source, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// PersistenceError means the local store is unavailable or rejected an
// operation. Fatal to the request.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
