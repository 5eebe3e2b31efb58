package reactive

// orderedSet is a set that remembers insertion order.
// Adding an existing member is a no-op and keeps its original position.
type orderedSet[K comparable] struct {
	items []K
	index map[K]int
}

func newOrderedSet[K comparable]() *orderedSet[K] {
	return &orderedSet[K]{index: make(map[K]int)}
}

func (s *orderedSet[K]) add(k K) bool {
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.items)
	s.items = append(s.items, k)
	return true
}

func (s *orderedSet[K]) remove(k K) bool {
	i, ok := s.index[k]
	if !ok {
		return false
	}
	delete(s.index, k)
	copy(s.items[i:], s.items[i+1:])
	var zero K
	s.items[len(s.items)-1] = zero
	s.items = s.items[:len(s.items)-1]
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

func (s *orderedSet[K]) has(k K) bool {
	_, ok := s.index[k]
	return ok
}

func (s *orderedSet[K]) len() int {
	return len(s.items)
}

// snapshot returns a copy of the members in insertion order.
func (s *orderedSet[K]) snapshot() []K {
	out := make([]K, len(s.items))
	copy(out, s.items)
	return out
}
