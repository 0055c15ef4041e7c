// Package store holds loaded datasets as immutable, position-addressed
// collections. A Store is never written after New returns, so any number of
// goroutines may read it without locking.
package store

import (
	"iter"
	"slices"
	"strconv"
)

// Store is a read-only ordered collection. A record's identifier is its
// position.
type Store[T any] struct {
	items []T
}

// New builds a store over a private copy of items.
func New[T any](items []T) *Store[T] {
	return &Store[T]{items: slices.Clone(items)}
}

// Empty returns a store with no records.
func Empty[T any]() *Store[T] {
	return &Store[T]{}
}

// Len reports the number of records.
func (s *Store[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Get returns the record at id. Out-of-range ids report false.
func (s *Store[T]) Get(id int) (T, bool) {
	var zero T
	if s == nil || id < 0 || id >= len(s.items) {
		return zero, false
	}
	return s.items[id], true
}

// GetRaw resolves a textual identifier. Text that is not a base-10 integer
// is not found.
func (s *Store[T]) GetRaw(raw string) (T, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		var zero T
		return zero, false
	}
	return s.Get(id)
}

// All yields records in load order.
func (s *Store[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if s == nil {
			return
		}
		for _, item := range s.items {
			if !yield(item) {
				return
			}
		}
	}
}

// At yields the records at the given positions, in the order given.
func (s *Store[T]) At(ids []int) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, id := range ids {
			item, ok := s.Get(id)
			if !ok {
				continue
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Index groups record positions by a derived key. Positions within a group
// and the order of keys both follow load order.
type Index[K comparable] struct {
	groups map[K][]int
	keys   []K
}

// BuildIndex scans s once and groups positions by key.
func BuildIndex[T any, K comparable](s *Store[T], key func(T) K) *Index[K] {
	idx := &Index[K]{groups: make(map[K][]int)}
	if s == nil {
		return idx
	}
	for id, item := range s.items {
		k := key(item)
		if _, seen := idx.groups[k]; !seen {
			idx.keys = append(idx.keys, k)
		}
		idx.groups[k] = append(idx.groups[k], id)
	}
	return idx
}

// Lookup returns the positions stored under k.
func (i *Index[K]) Lookup(k K) []int {
	return i.groups[k]
}

// Keys yields every key in order of first occurrence.
func (i *Index[K]) Keys() iter.Seq[K] {
	return slices.Values(i.keys)
}

// Len reports the number of distinct keys.
func (i *Index[K]) Len() int {
	return len(i.keys)
}
