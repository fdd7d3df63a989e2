package nuxt

import (
	"encoding/json"
	"iter"
	"reflect"
	"slices"
)

// Set is an insertion-ordered collection of unique hydrated values, the
// native counterpart of a serialized JavaScript Set.
//
// Uniqueness is enforced for members whose dynamic type is comparable.
// Members that Go cannot compare (slices, plain objects) are kept in
// insertion order without deduplication; in the source graph two such members
// are distinct cells anyway.
type Set struct {
	members []any
	index   map[any]struct{}
}

// NewSet builds a set from the given members, preserving first-seen order.
func NewSet(members ...any) *Set {
	s := &Set{index: map[any]struct{}{}}
	for _, m := range members {
		s.Add(m)
	}
	return s
}

// Add inserts v and reports whether the set grew.
func (s *Set) Add(v any) bool {
	if comparableValue(v) {
		if _, ok := s.index[v]; ok {
			return false
		}
		s.index[v] = struct{}{}
	}
	s.members = append(s.members, v)
	return true
}

// Contains reports whether v is a member. Only comparable values can be
// looked up; for anything else Contains returns false.
func (s *Set) Contains(v any) bool {
	if !comparableValue(v) {
		return false
	}
	_, ok := s.index[v]
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int {
	return len(s.members)
}

// Values returns the members as a fresh slice in insertion order.
func (s *Set) Values() []any {
	return slices.Clone(s.members)
}

// All iterates the members in insertion order.
func (s *Set) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, m := range s.members {
			if !yield(m) {
				return
			}
		}
	}
}

// MarshalJSON renders the set as a JSON array in insertion order.
func (s *Set) MarshalJSON() ([]byte, error) {
	if s.members == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.members)
}

// comparableValue reports whether v can be used as a map key without
// panicking.
func comparableValue(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}
