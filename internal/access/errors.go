package access

import "errors"

var (
	// ErrOutOfScopeSelection rejects a location selection whose identifier is
	// not in the actor's freshly resolved effective scope. The previous
	// selection stays untouched.
	ErrOutOfScopeSelection = errors.New("access: selection not available in effective scope")
	// ErrEmptySelection rejects a selection request that names no identifier.
	ErrEmptySelection = errors.New("access: empty selection")
	// ErrUnknownModule rejects references to modules outside the closed set.
	ErrUnknownModule = errors.New("access: unknown module")
	// ErrUnknownAction rejects actions outside the closed set.
	ErrUnknownAction = errors.New("access: unknown action")
)
