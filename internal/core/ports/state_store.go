package ports

import "context"

// Keys of the persisted session entries.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// StateStore is string-keyed persistent local state. Only the session
// service writes to it.
type StateStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}
