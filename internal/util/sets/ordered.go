package sets

// Ordered is an insertion-ordered set for comparable keys. Page subpage
// lists and symbol name lists are display-ordered, so plain maps are not
// enough: iteration must reproduce insertion order exactly.
type Ordered[T comparable] struct {
	index map[T]int
	items []T
}

// NewOrdered creates an ordered set pre-populated with the provided values.
func NewOrdered[T comparable](vals ...T) *Ordered[T] {
	s := &Ordered[T]{index: make(map[T]int, len(vals))}
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

// Add appends v if absent. A value already present keeps its position.
func (s *Ordered[T]) Add(v T) {
	if _, ok := s.index[v]; ok {
		return
	}
	s.index[v] = len(s.items)
	s.items = append(s.items, v)
}

// Has returns true if v is present.
func (s *Ordered[T]) Has(v T) bool {
	_, ok := s.index[v]
	return ok
}

// Delete removes v if present, preserving the order of the remaining items.
func (s *Ordered[T]) Delete(v T) {
	pos, ok := s.index[v]
	if !ok {
		return
	}
	s.items = append(s.items[:pos], s.items[pos+1:]...)
	delete(s.index, v)
	for i := pos; i < len(s.items); i++ {
		s.index[s.items[i]] = i
	}
}

// Len returns the number of members.
func (s *Ordered[T]) Len() int { return len(s.items) }

// Values returns the members in insertion order. The returned slice is a
// copy; mutating it does not affect the set.
func (s *Ordered[T]) Values() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Clone returns an independent copy preserving order.
func (s *Ordered[T]) Clone() *Ordered[T] {
	return NewOrdered(s.items...)
}
