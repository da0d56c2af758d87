package rle

// IDs is an append-only ordered set of tile ids. Existing ids keep their
// position and an id is only ever added once.
type IDs struct {
	list     []string
	position map[string]int
	existing int
}

// NewIDs returns a set seeded with the ids already in a map. An empty
// string holds a position without being matchable; duplicates resolve to
// their first position.
func NewIDs(existing []string) *IDs {
	s := &IDs{
		list:     append([]string(nil), existing...),
		position: make(map[string]int, len(existing)),
		existing: len(existing),
	}
	for i, id := range existing {
		if id == "" {
			continue
		}
		if _, ok := s.position[id]; !ok {
			s.position[id] = i
		}
	}
	return s
}

// Add returns the position of id, appending it if it's new
func (s *IDs) Add(id string) int {
	if i, ok := s.position[id]; ok {
		return i
	}
	s.list = append(s.list, id)
	s.position[id] = len(s.list) - 1
	return len(s.list) - 1
}

// Index returns the position of id
func (s *IDs) Index(id string) (int, bool) {
	i, ok := s.position[id]
	return i, ok
}

// Len returns the number of positions
func (s *IDs) Len() int {
	return len(s.list)
}

// Slice returns a copy of all ids in order
func (s *IDs) Slice() []string {
	return append([]string(nil), s.list...)
}

// Added returns the ids appended since the set was created
func (s *IDs) Added() []string {
	return append([]string(nil), s.list[s.existing:]...)
}
