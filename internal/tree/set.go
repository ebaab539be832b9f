package tree

// Set is an immutable, insertion-ordered set of strings. The nil *Set is a
// valid empty set.
type Set struct {
	order []string
	index map[string]struct{}
}

// NewSet builds a set from values, dropping duplicates.
func NewSet(values ...string) *Set {
	s := &Set{
		order: make([]string, 0, len(values)),
		index: make(map[string]struct{}, len(values)),
	}
	for _, v := range values {
		if _, dup := s.index[v]; dup {
			continue
		}
		s.index[v] = struct{}{}
		s.order = append(s.order, v)
	}
	return s
}

// Has reports membership.
func (s *Set) Has(v string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[v]
	return ok
}

// Len returns the number of elements.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Values returns the elements in insertion order. The slice is a copy.
func (s *Set) Values() []string {
	if s == nil {
		return nil
	}
	dup := make([]string, len(s.order))
	copy(dup, s.order)
	return dup
}

// Clone returns a new set with the same elements.
func (s *Set) Clone() *Set {
	return NewSet(s.Values()...)
}

// With returns a new set that additionally holds v.
func (s *Set) With(v string) *Set {
	return NewSet(append(s.Values(), v)...)
}

// Without returns a new set that does not hold v.
func (s *Set) Without(v string) *Set {
	values := s.Values()
	out := values[:0]
	for _, existing := range values {
		if existing != v {
			out = append(out, existing)
		}
	}
	return NewSet(out...)
}
