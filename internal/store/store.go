// Package store provides the durable local key-value storage that keeps the
// session credential across client restarts. Two keys are in use: "user"
// (JSON projection of the authenticated user) and "token" (raw bearer
// string). No schema versioning.
package store

import "errors"

// Keys persisted by the session manager.
const (
	KeyUser  = "user"
	KeyToken = "token"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// KV describes the local storage operations required by the client.
type KV interface {
	// Get returns the stored value and whether the key was present.
	Get(key string) (string, bool, error)
	// Set stores the value, replacing any previous one.
	Set(key, value string) error
	// Delete removes the key; deleting an absent key is not an error.
	Delete(key string) error
	Close() error
}
