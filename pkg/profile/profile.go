// Package profile keeps the client-side copy of one user's profile page and
// applies follow toggles and edits to it once the server has accepted them.
package profile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/logger"
	"github.com/snapgram/cli/pkg/observe"
)

var (
	ErrNoProfile      = errors.New("no profile loaded")
	ErrNotSignedIn    = errors.New("sign in to follow users")
	ErrOwnProfile     = errors.New("cannot follow yourself")
	ErrNotOwnProfile  = errors.New("only your own profile can be edited")
	ErrToggleInFlight = errors.New("a follow request is already in progress")
)

// API is the subset of the backend the synchronizer talks to.
type API interface {
	GetProfile(ctx context.Context, username string) (*api.Profile, error)
	GetUserPosts(ctx context.Context, username string) ([]api.Post, error)
	GetFollowers(ctx context.Context, username string) ([]api.UserSummary, error)
	GetFollowing(ctx context.Context, username string) ([]api.UserSummary, error)
	Follow(ctx context.Context, username string) error
	Unfollow(ctx context.Context, username string) error
	UpdateProfile(ctx context.Context, username string, req api.UpdateProfileRequest) (*api.Profile, error)
}

// Viewer reports who is looking. *session.Session satisfies it.
type Viewer interface {
	User() *api.Profile
}

// Snapshot is the state delivered to subscribers.
type Snapshot struct {
	Profile *api.Profile
	Posts   []api.Post
}

type Synchronizer struct {
	api    API
	viewer Viewer

	mu      sync.Mutex
	profile *api.Profile
	posts   []api.Post
	seq     uint64

	toggling atomic.Bool

	hub observe.Hub[Snapshot]
}

func New(a API, viewer Viewer) *Synchronizer {
	return &Synchronizer{api: a, viewer: viewer}
}

// Load fetches username's profile and posts. A failed profile fetch leaves
// the held state as it was. A failed posts fetch is logged and shows an
// empty grid.
func (s *Synchronizer) Load(ctx context.Context, username string) error {
	p, err := s.api.GetProfile(ctx, username)
	if err != nil {
		return err
	}

	posts, err := s.api.GetUserPosts(ctx, username)
	if err != nil {
		logger.Warn("Failed to load user posts", "username", username, "error", err)
		posts = nil
	}

	s.mu.Lock()
	s.profile = p
	s.posts = posts
	snap, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.hub.PublishSeq(seq, snap)
	return nil
}

// ToggleFollow follows or unfollows the loaded user depending on the
// current following flag. The flag and follower count change together and
// only after the server confirms. While one toggle is pending, further
// calls return ErrToggleInFlight without sending anything.
func (s *Synchronizer) ToggleFollow(ctx context.Context) (following bool, err error) {
	viewer := s.viewer.User()
	if viewer == nil {
		return false, ErrNotSignedIn
	}

	if !s.toggling.CompareAndSwap(false, true) {
		return false, ErrToggleInFlight
	}
	defer s.toggling.Store(false)

	s.mu.Lock()
	if s.profile == nil {
		s.mu.Unlock()
		return false, ErrNoProfile
	}
	username := s.profile.Username
	wasFollowing := s.profile.Following
	s.mu.Unlock()

	if username == viewer.Username {
		return wasFollowing, ErrOwnProfile
	}

	if wasFollowing {
		err = s.api.Unfollow(ctx, username)
	} else {
		err = s.api.Follow(ctx, username)
	}
	if err != nil {
		logger.Debug("Follow toggle failed", "username", username, "error", err)
		return wasFollowing, err
	}

	s.mu.Lock()
	if s.profile == nil || s.profile.Username != username {
		s.mu.Unlock()
		logger.Debug("Profile changed during follow toggle", "username", username)
		return !wasFollowing, nil
	}
	p := *s.profile
	if wasFollowing {
		p.Following = false
		p.FollowerCount--
	} else {
		p.Following = true
		p.FollowerCount++
	}
	s.profile = &p
	snap, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.hub.PublishSeq(seq, snap)
	return p.Following, nil
}

// Toggling reports whether a follow toggle is pending.
func (s *Synchronizer) Toggling() bool {
	return s.toggling.Load()
}

// Profile returns a copy of the loaded profile, or nil.
func (s *Synchronizer) Profile() *api.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Posts returns a copy of the loaded user's posts.
func (s *Synchronizer) Posts() []api.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// IsOwn reports whether the loaded profile belongs to the viewer.
func (s *Synchronizer) IsOwn() bool {
	viewer := s.viewer.User()
	if viewer == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile != nil && s.profile.Username == viewer.Username
}

// Followers lists who follows the loaded user.
func (s *Synchronizer) Followers(ctx context.Context) ([]api.UserSummary, error) {
	username, err := s.loadedUsername()
	if err != nil {
		return nil, err
	}
	return s.api.GetFollowers(ctx, username)
}

// Following lists who the loaded user follows.
func (s *Synchronizer) Following(ctx context.Context) ([]api.UserSummary, error) {
	username, err := s.loadedUsername()
	if err != nil {
		return nil, err
	}
	return s.api.GetFollowing(ctx, username)
}

// Subscribe registers fn for every change to the profile or its posts.
func (s *Synchronizer) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}

func (s *Synchronizer) loadedUsername() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return "", ErrNoProfile
	}
	return s.profile.Username, nil
}

func (s *Synchronizer) snapshotLocked() (Snapshot, uint64) {
	s.seq++
	var snap Snapshot
	if s.profile != nil {
		p := *s.profile
		snap.Profile = &p
	}
	snap.Posts = make([]api.Post, len(s.posts))
	copy(snap.Posts, s.posts)
	return snap, s.seq
}
