// Package feed keeps the client-side copy of the paginated home feed.
//
// Pages are appended in the order they arrive. A post already held is
// never added twice, and held posts never move; live edits replace a post
// in place and deletions remove it.
package feed

import (
	"context"
	"sync"

	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/logger"
	"github.com/snapgram/cli/pkg/observe"
)

const defaultPageSize = 10

// Fetcher loads one feed page. *api.API satisfies it.
type Fetcher interface {
	GetFeed(ctx context.Context, page, size int) (*api.FeedPage, error)
}

// Snapshot is the state delivered to subscribers.
type Snapshot struct {
	Posts   []api.Post
	HasMore bool
	Cursor  int
}

// Synchronizer merges feed pages and live events into one list.
type Synchronizer struct {
	fetcher  Fetcher
	pageSize int

	mu         sync.Mutex
	set        postSet
	cursor     int
	hasMore    bool
	loaded     bool
	generation uint64
	seq        uint64

	hub observe.Hub[Snapshot]
}

// New creates an empty synchronizer. A pageSize <= 0 uses the default.
func New(fetcher Fetcher, pageSize int) *Synchronizer {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Synchronizer{
		fetcher:  fetcher,
		pageSize: pageSize,
		hasMore:  true,
	}
}

// LoadNextPage fetches the page at the cursor and appends the posts not
// already held. It returns how many posts were added, which can be zero
// even when the cursor advances: a page made entirely of posts already
// seen still counts as consumed. The cursor only moves forward; when
// loads overlap, the furthest page answered decides the cursor and
// HasMore. On error nothing changes.
func (s *Synchronizer) LoadNextPage(ctx context.Context) (int, error) {
	s.mu.Lock()
	page := s.cursor
	gen := s.generation
	s.mu.Unlock()

	resp, err := s.fetcher.GetFeed(ctx, page, s.pageSize)
	if err != nil {
		logger.Debug("Feed page failed", "page", page, "error", err)
		return 0, err
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		logger.Debug("Dropping feed page from before reload", "page", page)
		return 0, nil
	}
	added := s.set.appendUnseen(resp.Content)
	// a slower response for an earlier page never rewinds the cursor
	if page+1 > s.cursor {
		s.cursor = page + 1
		s.hasMore = resp.HasNext
	}
	s.loaded = true
	snap, seq := s.snapshotLocked()
	s.mu.Unlock()

	logger.Debug("Feed page merged",
		"page", page,
		"received", len(resp.Content),
		"added", added,
		"has_next", resp.HasNext,
	)
	s.hub.PublishSeq(seq, snap)
	return added, nil
}

// Reload clears the list, rewinds the cursor to the first page and loads
// it. Responses to loads started before the reload are discarded.
func (s *Synchronizer) Reload(ctx context.Context) (int, error) {
	s.mu.Lock()
	s.generation++
	s.set.reset()
	s.cursor = 0
	s.hasMore = true
	s.loaded = false
	snap, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.hub.PublishSeq(seq, snap)
	return s.LoadNextPage(ctx)
}

// ApplyUpdate replaces the held post with the same id. Unknown ids are
// ignored.
func (s *Synchronizer) ApplyUpdate(post api.Post) bool {
	s.mu.Lock()
	ok := s.set.replace(post)
	snap, seq := s.snapshotLocked()
	s.mu.Unlock()

	if ok {
		s.hub.PublishSeq(seq, snap)
	}
	return ok
}

// ApplyDelete removes the held post with id. Unknown ids are ignored.
func (s *Synchronizer) ApplyDelete(id int64) bool {
	s.mu.Lock()
	ok := s.set.remove(id)
	snap, seq := s.snapshotLocked()
	s.mu.Unlock()

	if ok {
		s.hub.PublishSeq(seq, snap)
	}
	return ok
}

// Posts returns a copy of the held posts in display order.
func (s *Synchronizer) Posts() []api.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.snapshot()
}

// Get returns the held post with id.
func (s *Synchronizer) Get(id int64) (api.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.get(id)
}

// HasMore reports whether the last page said more pages exist. It is true
// before the first load.
func (s *Synchronizer) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Loaded reports whether at least one page has been merged since the last
// reload.
func (s *Synchronizer) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Cursor returns the index of the next page to request.
func (s *Synchronizer) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Len returns the number of held posts.
func (s *Synchronizer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.len()
}

// Subscribe registers fn for every change to the list.
func (s *Synchronizer) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}

// snapshotLocked copies the state and stamps it with the next sequence
// number. Callers hold s.mu.
func (s *Synchronizer) snapshotLocked() (Snapshot, uint64) {
	s.seq++
	return Snapshot{
		Posts:   s.set.snapshot(),
		HasMore: s.hasMore,
		Cursor:  s.cursor,
	}, s.seq
}
