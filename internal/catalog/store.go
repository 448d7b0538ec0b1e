package catalog

import (
	"sync/atomic"
	"time"
)

// Store holds the fetched product list. The list is published as an immutable
// snapshot; readers never mutate it.
type Store struct {
	snap   atomic.Pointer[snapshot]
	failed atomic.Bool
}

type snapshot struct {
	products []Product
	loadedAt time.Time
}

// NewStore returns an empty store. Snapshot returns nil until Replace is called.
func NewStore() *Store {
	return &Store{}
}

// Replace publishes a new product list.
func (s *Store) Replace(products []Product) {
	cp := make([]Product, len(products))
	copy(cp, products)
	s.snap.Store(&snapshot{products: cp, loadedAt: time.Now().UTC()})
	s.failed.Store(false)
}

// MarkFailed records that the load gave up. A later Replace clears it.
func (s *Store) MarkFailed() {
	if s.snap.Load() == nil {
		s.failed.Store(true)
	}
}

// Failed reports a load that ended without publishing a list.
func (s *Store) Failed() bool {
	return s != nil && s.failed.Load()
}

// Snapshot returns the current product list. Callers must treat it as read-only.
func (s *Store) Snapshot() []Product {
	if s == nil {
		return nil
	}
	if sn := s.snap.Load(); sn != nil {
		return sn.products
	}
	return nil
}

// Loaded reports whether a load has completed and when.
func (s *Store) Loaded() (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	sn := s.snap.Load()
	if sn == nil {
		return time.Time{}, false
	}
	return sn.loadedAt, true
}

// Find returns the product with the given id.
func (s *Store) Find(id string) (Product, bool) {
	for _, p := range s.Snapshot() {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
