package feed

import "github.com/snapgram/cli/pkg/api"

// postSet is an ordered list of posts with an id index. It is not safe
// for concurrent use; callers hold their own lock.
type postSet struct {
	posts []api.Post
	index map[int64]int
}

func (s *postSet) reset() {
	s.posts = nil
	s.index = nil
}

// appendUnseen appends posts whose id is not already held, in arrival
// order, and returns how many were added.
func (s *postSet) appendUnseen(posts []api.Post) int {
	if s.index == nil {
		s.index = make(map[int64]int, len(posts))
	}
	added := 0
	for _, p := range posts {
		if _, ok := s.index[p.ID]; ok {
			continue
		}
		s.index[p.ID] = len(s.posts)
		s.posts = append(s.posts, p)
		added++
	}
	return added
}

func (s *postSet) replace(p api.Post) bool {
	i, ok := s.index[p.ID]
	if !ok {
		return false
	}
	s.posts[i] = p
	return true
}

func (s *postSet) remove(id int64) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.posts); j++ {
		s.index[s.posts[j].ID] = j
	}
	return true
}

func (s *postSet) get(id int64) (api.Post, bool) {
	i, ok := s.index[id]
	if !ok {
		return api.Post{}, false
	}
	return s.posts[i], true
}

func (s *postSet) snapshot() []api.Post {
	out := make([]api.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

func (s *postSet) len() int {
	return len(s.posts)
}
