package friends

// FriendSet is the friends list of the signed-in identity. It is kept
// in memory only and starts empty for every session.
type FriendSet struct {
	order []string
	index map[string]struct{}
}

func NewFriendSet() *FriendSet {
	return &FriendSet{index: make(map[string]struct{})}
}

// Add reports whether userID was newly added
func (s *FriendSet) Add(userID string) bool {
	if _, ok := s.index[userID]; ok {
		return false
	}
	s.index[userID] = struct{}{}
	s.order = append(s.order, userID)
	return true
}

// Remove reports whether userID was present
func (s *FriendSet) Remove(userID string) bool {
	if _, ok := s.index[userID]; !ok {
		return false
	}
	delete(s.index, userID)
	for i, id := range s.order {
		if id == userID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *FriendSet) Contains(userID string) bool {
	_, ok := s.index[userID]
	return ok
}

// List returns the friends in the order they were added
func (s *FriendSet) List() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *FriendSet) Clear() {
	s.order = nil
	s.index = make(map[string]struct{})
}
