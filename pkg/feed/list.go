package feed

import (
	"context"
	"sync"

	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/observe"
)

// Lister loads every post at once. *api.API satisfies it.
type Lister interface {
	GetPosts(ctx context.Context) ([]api.Post, error)
}

// List holds the unpaginated all-posts listing with the same update and
// delete merge as the feed.
type List struct {
	lister Lister

	mu  sync.Mutex
	set postSet
	seq uint64

	hub observe.Hub[[]api.Post]
}

// NewList creates an empty listing.
func NewList(lister Lister) *List {
	return &List{lister: lister}
}

// Load replaces the held posts with a fresh listing. On error the
// previous listing is kept.
func (l *List) Load(ctx context.Context) error {
	posts, err := l.lister.GetPosts(ctx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.set.reset()
	l.set.appendUnseen(posts)
	snap, seq := l.snapshotLocked()
	l.mu.Unlock()

	l.hub.PublishSeq(seq, snap)
	return nil
}

// ApplyUpdate replaces the held post with the same id. Unknown ids are
// ignored.
func (l *List) ApplyUpdate(post api.Post) bool {
	l.mu.Lock()
	ok := l.set.replace(post)
	snap, seq := l.snapshotLocked()
	l.mu.Unlock()

	if ok {
		l.hub.PublishSeq(seq, snap)
	}
	return ok
}

// ApplyDelete removes the held post with id.
func (l *List) ApplyDelete(id int64) bool {
	l.mu.Lock()
	ok := l.set.remove(id)
	snap, seq := l.snapshotLocked()
	l.mu.Unlock()

	if ok {
		l.hub.PublishSeq(seq, snap)
	}
	return ok
}

// Posts returns a copy of the held posts.
func (l *List) Posts() []api.Post {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.set.snapshot()
}

// Subscribe registers fn for every change to the listing.
func (l *List) Subscribe(fn func([]api.Post)) (unsubscribe func()) {
	return l.hub.Subscribe(fn)
}

func (l *List) snapshotLocked() ([]api.Post, uint64) {
	l.seq++
	return l.set.snapshot(), l.seq
}
