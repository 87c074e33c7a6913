// internal/catalog/store.go
package catalog

import (
	"fmt"
	"sync/atomic"
)

// Store holds the current catalog snapshot and supports atomic hot swaps.
// Requests that already took a snapshot keep computing against it; a swap
// only affects requests that start afterwards.
type Store struct {
	current atomic.Pointer[Catalog]
}

// NewStore creates a store seeded with an initial snapshot.
func NewStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

// Snapshot returns the catalog visible to a request starting now.
func (s *Store) Snapshot() *Catalog {
	return s.current.Load()
}

// Swap replaces the active snapshot after the replacement passes integrity
// checks. A malformed replacement leaves the active snapshot untouched.
func (s *Store) Swap(replacement *Catalog) error {
	if replacement == nil {
		return fmt.Errorf("catalog swap: nil replacement")
	}
	if err := replacement.Validate(); err != nil {
		return err
	}
	s.current.Store(replacement)
	return nil
}

// SwapFromFile loads a catalog document and swaps it in if valid.
func (s *Store) SwapFromFile(path string) error {
	c, err := Load(path)
	if err != nil {
		return err
	}
	s.current.Store(c)
	return nil
}
