// Package query provides the filter, search and pagination primitives the
// catalog services are built from. Every function is pure and preserves the
// input order.
package query

import (
	"iter"
	"slices"
	"strings"
)

// Predicate reports whether a record matches.
type Predicate[T any] func(T) bool

// And combines predicates by logical AND. Nil predicates are ignored, so an
// empty combination matches everything.
func And[T any](preds ...Predicate[T]) Predicate[T] {
	active := make([]Predicate[T], 0, len(preds))
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	return func(item T) bool {
		for _, p := range active {
			if !p(item) {
				return false
			}
		}
		return true
	}
}

// Filter collects the records of seq that match pred. A nil pred matches
// everything. The result is never nil.
func Filter[T any](seq iter.Seq[T], pred Predicate[T]) []T {
	out := []T{}
	for item := range seq {
		if pred == nil || pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Needle is a lowercased search term for case-insensitive containment.
type Needle struct {
	lower string
}

// NewNeedle prepares q for matching.
func NewNeedle(q string) Needle {
	return Needle{lower: strings.ToLower(q)}
}

// Empty reports whether the needle matches everything.
func (n Needle) Empty() bool {
	return n.lower == ""
}

// In reports whether the needle occurs in s, ignoring case.
func (n Needle) In(s string) bool {
	if n.lower == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), n.lower)
}

// InAny reports whether the needle occurs in at least one element.
func (n Needle) InAny(elems []string) bool {
	if n.lower == "" {
		return true
	}
	for _, e := range elems {
		if strings.Contains(strings.ToLower(e), n.lower) {
			return true
		}
	}
	return false
}

// InRange reports whether v lies in [min, max]. Unset bounds are open. With no
// bound set every value matches, including an absent one; otherwise an absent
// value never matches.
func InRange(v, min, max *float64) bool {
	if min == nil && max == nil {
		return true
	}
	if v == nil {
		return false
	}
	if min != nil && *v < *min {
		return false
	}
	if max != nil && *v > *max {
		return false
	}
	return true
}

// Distinct returns the union of all list elements, deduplicated, without
// empty strings, in lexicographic order.
func Distinct(lists iter.Seq[[]string]) []string {
	seen := make(map[string]struct{})
	for list := range lists {
		for _, e := range list {
			if e != "" {
				seen[e] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}

// Map projects each record of seq.
func Map[T, U any](seq iter.Seq[T], fn func(T) U) iter.Seq[U] {
	return func(yield func(U) bool) {
		for item := range seq {
			if !yield(fn(item)) {
				return
			}
		}
	}
}
