package kstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrKeyNotFound = errors.New("store: key not found")
	ErrInvalidKey  = errors.New("store: invalid key")
)

// Backend is the byte-oriented key-value store the plan catalog persists to.
// Keys are slash separated paths such as "plans/orders".
type Backend interface {
	// Name identifies the backend kind, e.g. "file" or "redis".
	Name() string

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// ValidateKey rejects keys that backends cannot map to a path or object name.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
