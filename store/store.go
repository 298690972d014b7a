// Package store provides the places a finished bag can be sent to. A store
// is a flat, write-once key-value space whose values are streams, so large
// tar files never need to be held in memory.
//
// The S3 store is the one used in production. The FileSystem and Memory
// stores are for dry runs and testing.
package store

import (
	"io"

	"github.com/pkg/errors"
)

// Lister is the read-only piece of a Store. It is all that is needed to
// check whether an upload has landed.
type Lister interface {
	// ListPrefix returns the keys in the store beginning with prefix.
	ListPrefix(prefix string) ([]string, error)
}

// Store is a Lister that can also accept new content. Put reads r to the
// end and saves it under key.
//
// Keys are used as file names by the FileSystem store, so they should not
// contain a forward slash.
type Store interface {
	Lister
	Put(key string, r io.Reader) error
}

var (
	// ErrKeyExists indicates an attempt to create a key which already exists
	ErrKeyExists = errors.New("key already exists")

	// ErrInvalidKey means the key is empty or contains a character the
	// store does not allow.
	ErrInvalidKey = errors.New("invalid key")
)
