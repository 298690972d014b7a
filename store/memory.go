package store

import (
	"io"
	"sort"
	"strings"
	"sync"
)

// Memory implements a simple in-memory version of a store. It is intended
// mainly for testing and dry runs.
type Memory struct {
	m     sync.RWMutex
	store map[string][]byte
}

var (
	// ensure Memory satisfies the Store interface
	_ Store = &Memory{}
)

// NewMemory returns a new, empty memory store.
func NewMemory() *Memory {
	return &Memory{store: make(map[string][]byte)}
}

// ListPrefix returns all the key entries which begin with the given prefix,
// in sorted order.
func (ms *Memory) ListPrefix(prefix string) ([]string, error) {
	var result []string
	ms.m.RLock()
	for k := range ms.store {
		if strings.HasPrefix(k, prefix) {
			result = append(result, k)
		}
	}
	ms.m.RUnlock()
	sort.Strings(result)
	return result, nil
}

// Put reads r and saves it under key. It is an error if key already exists.
// Nothing is saved if reading r fails.
func (ms *Memory) Put(key string, r io.Reader) error {
	if key == "" {
		return ErrInvalidKey
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	ms.m.Lock()
	defer ms.m.Unlock()
	if _, ok := ms.store[key]; ok {
		return ErrKeyExists
	}
	ms.store[key] = data
	return nil
}

// Get returns the content saved under key.
func (ms *Memory) Get(key string) ([]byte, bool) {
	ms.m.RLock()
	defer ms.m.RUnlock()
	v, ok := ms.store[key]
	return v, ok
}
