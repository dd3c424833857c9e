package mockapi

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrPostNotFound  = errors.New("post not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrBadPassword   = errors.New("invalid username or password")
)

type User struct {
	ID              int64
	Username        string
	Name            string
	Bio             string
	ProfileImageURL string
	PasswordHash    []byte
	CreatedAt       time.Time
}

type Post struct {
	ID           int64
	AuthorID     int64
	Content      string
	ImageURL     string
	LikeCount    int
	CommentCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type storedFile struct {
	data []byte
	mime string
}

// Store is the in-memory database behind the mock server.
type Store struct {
	mu sync.RWMutex

	nextUserID int64
	nextPostID int64

	users  map[int64]*User
	byName map[string]int64
	posts  map[int64]*Post
	// following[a][b] means a follows b
	following map[int64]map[int64]bool
	files     map[string]storedFile
}

func NewStore() *Store {
	return &Store{
		users:     make(map[int64]*User),
		byName:    make(map[string]int64),
		posts:     make(map[int64]*Post),
		following: make(map[int64]map[int64]bool),
		files:     make(map[string]storedFile),
	}
}

// CreateUser adds a user. An empty password creates an account that can
// only sign in through Kakao.
func (s *Store) CreateUser(username, name, password string) (*User, error) {
	var hash []byte
	if password != "" {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(username)
	if _, ok := s.byName[key]; ok {
		return nil, ErrUsernameTaken
	}
	s.nextUserID++
	u := &User{
		ID:           s.nextUserID,
		Username:     username,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	s.users[u.ID] = u
	s.byName[key] = u.ID
	return u, nil
}

// Authenticate checks a username and password.
func (s *Store) Authenticate(username, password string) (*User, error) {
	u, err := s.UserByName(username)
	if err != nil || u.PasswordHash == nil {
		return nil, ErrBadPassword
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, ErrBadPassword
	}
	return u, nil
}

func (s *Store) UserByName(username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[strings.ToLower(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := *s.users[id]
	return &u, nil
}

func (s *Store) UserByID(id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// UpdateProfile replaces the editable fields of a user.
func (s *Store) UpdateProfile(id int64, name, bio, imageURL string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Name = name
	u.Bio = bio
	u.ProfileImageURL = imageURL
	cp := *u
	return &cp, nil
}

func (s *Store) CreatePost(authorID int64, content, imageURL string, at time.Time) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[authorID]; !ok {
		return nil, ErrUserNotFound
	}
	s.nextPostID++
	p := &Post{
		ID:        s.nextPostID,
		AuthorID:  authorID,
		Content:   content,
		ImageURL:  imageURL,
		CreatedAt: at,
		UpdatedAt: at,
	}
	s.posts[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *Store) Post(id int64) (*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

// UpdatePost changes a post's content and image.
func (s *Store) UpdatePost(id int64, content, imageURL string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	p.Content = content
	p.ImageURL = imageURL
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

func (s *Store) DeletePost(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return ErrPostNotFound
	}
	delete(s.posts, id)
	return nil
}

// AllPosts returns every post newest first.
func (s *Store) AllPosts() []Post {
	return s.filterPosts(func(*Post) bool { return true })
}

func (s *Store) PostsBy(authorID int64) []Post {
	return s.filterPosts(func(p *Post) bool { return p.AuthorID == authorID })
}

// Feed returns one page of posts by viewerID and the users they follow,
// newest first, and whether another page exists.
func (s *Store) Feed(viewerID int64, page, size int) ([]Post, bool) {
	s.mu.RLock()
	followed := make(map[int64]bool, len(s.following[viewerID])+1)
	for id, ok := range s.following[viewerID] {
		followed[id] = ok
	}
	s.mu.RUnlock()
	followed[viewerID] = true

	all := s.filterPosts(func(p *Post) bool { return followed[p.AuthorID] })

	start := page * size
	if start >= len(all) {
		return []Post{}, false
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], end < len(all)
}

func (s *Store) filterPosts(keep func(*Post) bool) []Post {
	s.mu.RLock()
	out := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, *p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Follow makes follower follow followee. Following twice is a no-op.
func (s *Store) Follow(followerID, followeeID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.following[followerID] == nil {
		s.following[followerID] = make(map[int64]bool)
	}
	s.following[followerID][followeeID] = true
}

func (s *Store) Unfollow(followerID, followeeID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.following[followerID], followeeID)
}

func (s *Store) IsFollowing(followerID, followeeID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.following[followerID][followeeID]
}

// Followers returns the users following id, ordered by id.
func (s *Store) Followers(id int64) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []User
	for follower, set := range s.following {
		if set[id] {
			out = append(out, *s.users[follower])
		}
	}
	sortUsers(out)
	return out
}

// Following returns the users id follows, ordered by id.
func (s *Store) Following(id int64) []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []User
	for followee := range s.following[id] {
		out = append(out, *s.users[followee])
	}
	sortUsers(out)
	return out
}

// Counts returns post, follower and following counts for id.
func (s *Store) Counts(id int64) (posts, followers, following int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.AuthorID == id {
			posts++
		}
	}
	for _, set := range s.following {
		if set[id] {
			followers++
		}
	}
	return posts, followers, len(s.following[id])
}

func (s *Store) PutFile(name string, data []byte, mime string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = storedFile{data: data, mime: mime}
}

func (s *Store) File(name string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[name]
	return f.data, f.mime, ok
}

func sortUsers(users []User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}
