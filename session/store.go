package session

import (
	"context"
	"errors"
)

// ErrStoreUnavailable wraps backend I/O failures (redis down, sqlite locked).
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrNoCredential is returned when the biometric credential slot is empty.
var ErrNoCredential = errors.New("no cached credential")

// Store is the durable key/value persistence consumed by the engine. All
// methods are safe for sequential use from a single login flow; the engine
// serializes writers.
type Store interface {
	// SaveSession persists the token and then the serialized user object,
	// superseding any prior stored session. The token write is awaited
	// before the user write begins.
	SaveSession(ctx context.Context, token string, user []byte) error

	// LoadSession returns the stored token and user payload. Missing values
	// come back as zero values with a nil error; partial state is the
	// caller's concern.
	LoadSession(ctx context.Context) (token string, user []byte, err error)

	// SaveUser overwrites only the stored user object, leaving the token
	// untouched. Used by profile updates and company switches.
	SaveUser(ctx context.Context, user []byte) error

	// Clear removes both the token and user keys.
	Clear(ctx context.Context) error

	// PutCredential overwrites the single sealed credential slot.
	PutCredential(ctx context.Context, sealed []byte) error

	// GetCredential returns the sealed credential slot or [ErrNoCredential].
	GetCredential(ctx context.Context) ([]byte, error)

	// DeleteCredential empties the credential slot. Deleting an empty slot
	// is not an error.
	DeleteCredential(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
