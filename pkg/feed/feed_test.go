package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/snapgram/cli/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[int]*api.FeedPage
	err   error
	calls []int
	// gate blocks GetFeed for a page until its channel is closed.
	gate map[int]chan struct{}
	// callGate does the same for the n-th call, counting from zero.
	callGate map[int]chan struct{}
}

func (f *fakeFetcher) GetFeed(ctx context.Context, page, size int) (*api.FeedPage, error) {
	f.mu.Lock()
	ch := f.gate[page]
	if c, ok := f.callGate[len(f.calls)]; ok {
		ch = c
	}
	f.calls = append(f.calls, page)
	f.mu.Unlock()

	if ch != nil {
		<-ch
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.pages[page]; ok {
		return p, nil
	}
	return &api.FeedPage{}, nil
}

func posts(ids ...int64) []api.Post {
	out := make([]api.Post, len(ids))
	for i, id := range ids {
		out[i] = api.Post{ID: id, Content: "post"}
	}
	return out
}

func ids(ps []api.Post) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestOverlappingPagesAreDeduplicated(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*api.FeedPage{
		0: {Content: posts(1, 2), HasNext: true},
		1: {Content: posts(2, 3), HasNext: false},
	}}
	s := New(f, 2)

	added, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	added, err = s.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	assert.Equal(t, []int64{1, 2, 3}, ids(s.Posts()))
	assert.False(t, s.HasMore())
	assert.Equal(t, 2, s.Cursor())
}

func TestEachIDOnceInFirstAppearanceOrder(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*api.FeedPage{
		0: {Content: posts(5, 3, 5), HasNext: true},
		1: {Content: posts(3, 9, 1), HasNext: true},
		2: {Content: posts(1, 5, 7, 9), HasNext: true},
		3: {Content: posts(2), HasNext: false},
	}}
	s := New(f, 4)

	for i := 0; i < 4; i++ {
		_, err := s.LoadNextPage(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []int64{5, 3, 9, 1, 7, 2}, ids(s.Posts()))
}

func TestAllDuplicatePageStillAdvancesCursor(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*api.FeedPage{
		0: {Content: posts(1, 2), HasNext: true},
		1: {Content: posts(1, 2), HasNext: true},
	}}
	s := New(f, 2)

	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)
	added, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, added)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 2, s.Cursor())
	assert.True(t, s.HasMore())
}

func TestFailedLoadLeavesStateUnchanged(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*api.FeedPage{
		0: {Content: posts(1, 2), HasNext: true},
	}}
	s := New(f, 2)
	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)

	notified := 0
	s.Subscribe(func(Snapshot) { notified++ })

	f.err = errors.New("network down")
	_, err = s.LoadNextPage(context.Background())
	require.Error(t, err)

	assert.Equal(t, []int64{1, 2}, ids(s.Posts()))
	assert.Equal(t, 1, s.Cursor())
	assert.True(t, s.HasMore())
	assert.Equal(t, 0, notified)
	assert.Equal(t, []int{0, 1}, f.calls)
}

func TestHasMoreBeforeFirstLoad(t *testing.T) {
	s := New(&fakeFetcher{}, 0)
	assert.True(t, s.HasMore())
	assert.False(t, s.Loaded())
	assert.Equal(t, 0, s.Cursor())
	assert.Equal(t, defaultPageSize, s.pageSize)
}

func TestApplyUpdateIsIdempotent(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*api.FeedPage{0: {Content: posts(1, 2, 3)}}}
	s := New(f, 3)
	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)

	updated := api.Post{ID: 2, Content: "edited", LikeCount: 4}
	assert.True(t, s.ApplyUpdate(updated))
	once := s.Posts()
	assert.True(t, s.ApplyUpdate(updated))

	assert.Equal(t, once, s.Posts())
	assert.Equal(t, []int64{1, 2, 3}, ids(once))
	assert.Equal(t, "edited", once[1].Content)
}

func TestApplyUpdateUnknownIDIsNoop(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*api.FeedPage{0: {Content: posts(1)}}}
	s := New(f, 1)
	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)

	assert.False(t, s.ApplyUpdate(api.Post{ID: 99}))
	assert.Equal(t, []int64{1}, ids(s.Posts()))
}

func TestApplyDelete(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*api.FeedPage{
		0: {Content: posts(1, 2, 3), HasNext: true},
		1: {Content: posts(2, 4)},
	}}
	s := New(f, 3)
	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)

	before := s.Posts()
	assert.False(t, s.ApplyDelete(42))
	assert.Equal(t, before, s.Posts())

	assert.True(t, s.ApplyDelete(2))
	assert.Equal(t, []int64{1, 3}, ids(s.Posts()))

	// index must follow the shift
	assert.True(t, s.ApplyUpdate(api.Post{ID: 3, Content: "moved"}))
	p, ok := s.Get(3)
	require.True(t, ok)
	assert.Equal(t, "moved", p.Content)

	// a deleted post seen again on a later page comes back at the end
	_, err = s.LoadNextPage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 2, 4}, ids(s.Posts()))
}

func TestSubscribersSeeEachMerge(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*api.FeedPage{0: {Content: posts(1, 2), HasNext: true}}}
	s := New(f, 2)

	var snaps []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) { snaps = append(snaps, snap) })

	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)
	s.ApplyDelete(1)
	unsubscribe()
	s.ApplyDelete(2)

	require.Len(t, snaps, 2)
	assert.Equal(t, []int64{1, 2}, ids(snaps[0].Posts))
	assert.Equal(t, 1, snaps[0].Cursor)
	assert.Equal(t, []int64{2}, ids(snaps[1].Posts))
}

func TestReloadResetsAndDropsStalePages(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{
		pages: map[int]*api.FeedPage{
			0: {Content: posts(10, 11), HasNext: true},
			1: {Content: posts(12), HasNext: true},
		},
	}
	s := New(f, 2)
	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)

	f.mu.Lock()
	f.gate = map[int]chan struct{}{1: release}
	f.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		added, err := s.LoadNextPage(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 0, added)
	}()

	// wait until the page-1 request is in flight
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.calls) == 2
	}, time.Second, time.Millisecond)

	_, err = s.Reload(context.Background())
	require.NoError(t, err)
	close(release)
	<-done

	assert.Equal(t, []int64{10, 11}, ids(s.Posts()))
	assert.Equal(t, 1, s.Cursor())
}

func TestLateResponseNeverRewindsCursor(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{
		pages: map[int]*api.FeedPage{
			0: {Content: posts(1, 2), HasNext: true},
			1: {Content: posts(3), HasNext: false},
		},
		callGate: map[int]chan struct{}{0: release},
	}
	s := New(f, 2)

	var cursors []int
	s.Subscribe(func(snap Snapshot) { cursors = append(cursors, snap.Cursor) })

	slow := make(chan int)
	go func() {
		added, err := s.LoadNextPage(context.Background())
		assert.NoError(t, err)
		slow <- added
	}()
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.calls) == 1
	}, time.Second, time.Millisecond)

	// page 0 again, then page 1, both answered before the first request
	_, err := s.LoadNextPage(context.Background())
	require.NoError(t, err)
	_, err = s.LoadNextPage(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, s.Cursor())
	require.False(t, s.HasMore())

	close(release)
	assert.Equal(t, 0, <-slow)

	assert.Equal(t, []int{0, 0, 1}, f.calls)
	assert.Equal(t, 2, s.Cursor())
	assert.False(t, s.HasMore())
	assert.Equal(t, []int64{1, 2, 3}, ids(s.Posts()))
	assert.Equal(t, []int{1, 2, 2}, cursors)
}

func TestLastDeliveredSnapshotIsCurrent(t *testing.T) {
	f := &fakeFetcher{pages: map[int]*api.FeedPage{}}
	for i := 0; i < 20; i++ {
		f.pages[i] = &api.FeedPage{Content: posts(int64(2*i+1), int64(2*i+2)), HasNext: true}
	}
	s := New(f, 2)

	var mu sync.Mutex
	var last Snapshot
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		last = snap
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.LoadNextPage(context.Background())
			assert.NoError(t, err)
		}()
		go func(id int64) {
			defer wg.Done()
			s.ApplyUpdate(api.Post{ID: id, Content: "edited"})
		}(int64(i + 1))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, s.Posts(), last.Posts)
	assert.Equal(t, s.Cursor(), last.Cursor)
}
