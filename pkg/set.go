package fuzzratio

// Define a set type using a map with empty struct values
type set map[string]struct{}

func newSet(values ...string) set {
	s := make(set, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add an element to the set
func (s set) Add(value string) {
	s[value] = struct{}{}
}

// Check if the set contains an element
func (s set) Contains(value string) bool {
	_, exists := s[value]
	return exists
}

func (s set) Size() int {
	return len(s)
}
