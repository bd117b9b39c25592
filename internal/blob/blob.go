// Package blob is the opaque key-value store the task list is mirrored
// into. Values are written wholesale; there are no partial updates.
package blob

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyKey = errors.New("blob key is required")

type Store interface {
	// Get returns ok=false when the key has never been written.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put replaces the whole value stored under key.
	Put(ctx context.Context, key string, value []byte) error
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	return key, nil
}
