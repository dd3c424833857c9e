package mockapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/client"
	"github.com/snapgram/cli/pkg/feed"
	"github.com/snapgram/cli/pkg/live"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type fixture struct {
	srv  *Server
	http *httptest.Server
	api  *api.API
}

func newFixture(t *testing.T, seedUsers int) *fixture {
	t.Helper()
	srv, err := New(Options{JWTSecret: "test-secret", SeedUsers: seedUsers, Seed: 42})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Hub().Close()
		ts.Close()
	})

	return &fixture{
		srv:  srv,
		http: ts,
		api:  api.New(client.New(client.Options{BaseURL: ts.URL, Timeout: 5 * time.Second})),
	}
}

// signIn logs in through the API and installs the token on the client.
func (f *fixture) signIn(t *testing.T, username, password string) string {
	t.Helper()
	token, err := f.api.Login(context.Background(), username, password)
	require.NoError(t, err)
	f.api.Client().SetAuthToken(token.AccessToken)
	return token.AccessToken
}

func (f *fixture) user(t *testing.T, username string) *User {
	t.Helper()
	u, err := f.srv.Store().CreateUser(username, strings.ToUpper(username[:1])+username[1:], "secret")
	require.NoError(t, err)
	return u
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestLoginAndMe(t *testing.T) {
	f := newFixture(t, 3)
	f.signIn(t, DemoUsername, DemoPassword)

	me, err := f.api.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DemoUsername, me.Username)
	assert.Equal(t, 3, me.PostCount)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	f := newFixture(t, 0)
	f.user(t, "alice")

	_, err := f.api.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, api.IsUnauthorized(err))
}

func TestMeWithoutTokenIsUnauthorized(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.api.GetMe(context.Background())
	assert.True(t, api.IsUnauthorized(err))
}

func TestExpiredTokenIsRejected(t *testing.T) {
	f := newFixture(t, 0)
	u := f.user(t, "alice")

	old := NewTokens("test-secret", time.Hour)
	old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := old.Issue(u)
	require.NoError(t, err)

	f.api.Client().SetAuthToken(token)
	_, err = f.api.GetMe(context.Background())
	assert.True(t, api.IsUnauthorized(err))
}

func TestTokenCarriesSubjectAndUsername(t *testing.T) {
	tokens := NewTokens("s", time.Hour)
	token, err := tokens.Issue(&User{ID: 7, Username: "alice"})
	require.NoError(t, err)

	id, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = NewTokens("other", time.Hour).Validate(token)
	assert.Error(t, err)
}

func TestKakaoCodeSignsInAndCreatesAccount(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	token, err := f.api.KakaoLogin(ctx, KakaoCodePrefix+"newbie")
	require.NoError(t, err)
	f.api.Client().SetAuthToken(token.AccessToken)

	me, err := f.api.GetMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, "newbie", me.Username)

	// same code again resolves to the same account
	again, err := f.api.KakaoLogin(ctx, KakaoCodePrefix+"newbie")
	require.NoError(t, err)
	f.api.Client().SetAuthToken(again.AccessToken)
	me2, err := f.api.GetMe(ctx)
	require.NoError(t, err)
	assert.Equal(t, me.ID, me2.ID)

	_, err = f.api.KakaoLogin(ctx, "real-kakao-code")
	assert.True(t, api.IsUnauthorized(err))
}

func TestFeedPagesCoverFollowedPostsOnce(t *testing.T) {
	f := newFixture(t, 6)
	f.signIn(t, DemoUsername, DemoPassword)
	ctx := context.Background()

	demo, err := f.srv.Store().UserByName(DemoUsername)
	require.NoError(t, err)
	want, _ := f.srv.Store().Feed(demo.ID, 0, 1000)

	seen := map[int64]bool{}
	page := 0
	for {
		p, err := f.api.GetFeed(ctx, page, 3)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(p.Content), 3)
		for _, post := range p.Content {
			assert.False(t, seen[post.ID], "post %d repeated", post.ID)
			seen[post.ID] = true
			assert.NotEmpty(t, post.Author.Username)
		}
		if !p.HasNext {
			break
		}
		page++
	}
	assert.Len(t, seen, len(want))

	past, err := f.api.GetFeed(ctx, page+5, 3)
	require.NoError(t, err)
	assert.Empty(t, past.Content)
	assert.False(t, past.HasNext)
}

func TestFeedSynchronizerAgainstServer(t *testing.T) {
	f := newFixture(t, 6)
	f.signIn(t, DemoUsername, DemoPassword)
	ctx := context.Background()

	s := feed.New(f.api, 4)
	for s.HasMore() {
		_, err := s.LoadNextPage(ctx)
		require.NoError(t, err)
	}

	demo, _ := f.srv.Store().UserByName(DemoUsername)
	want, _ := f.srv.Store().Feed(demo.ID, 0, 1000)
	require.Equal(t, len(want), s.Len())
	for i, p := range s.Posts() {
		assert.Equal(t, want[i].ID, p.ID)
	}
}

func TestFollowAndUnfollow(t *testing.T) {
	f := newFixture(t, 0)
	f.user(t, "alice")
	f.user(t, "bob")
	f.signIn(t, "alice", "secret")
	ctx := context.Background()

	require.NoError(t, f.api.Follow(ctx, "bob"))
	bob, err := f.api.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, bob.Following)
	assert.Equal(t, 1, bob.FollowerCount)

	// following twice is harmless
	require.NoError(t, f.api.Follow(ctx, "bob"))
	followers, err := f.api.GetFollowers(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)

	following, err := f.api.GetFollowing(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "bob", following[0].Username)

	require.NoError(t, f.api.Unfollow(ctx, "bob"))
	bob, err = f.api.GetProfile(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, bob.Following)
	assert.Equal(t, 0, bob.FollowerCount)
}

func TestFollowRules(t *testing.T) {
	f := newFixture(t, 0)
	f.user(t, "alice")
	ctx := context.Background()

	err := f.api.Follow(ctx, "alice")
	assert.True(t, api.IsUnauthorized(err), "anonymous follow")

	f.signIn(t, "alice", "secret")
	err = f.api.Follow(ctx, "alice")
	assert.True(t, api.IsValidation(err), "self follow")

	err = f.api.Follow(ctx, "nobody")
	assert.True(t, api.IsNotFound(err))
}

func TestAnonymousProfileIsNotFollowing(t *testing.T) {
	f := newFixture(t, 0)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	f.srv.Store().Follow(alice.ID, bob.ID)

	p, err := f.api.GetProfile(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, p.Following)
	assert.Equal(t, 1, p.FollowerCount)
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t, 0)
	f.user(t, "alice")
	f.user(t, "bob")
	f.signIn(t, "alice", "secret")
	ctx := context.Background()

	p, err := f.api.UpdateProfile(ctx, "alice", api.UpdateProfileRequest{Name: "Alice A", Bio: "hi", ProfileImageURL: "/files/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "Alice A", p.Name)
	assert.Equal(t, "hi", p.Bio)
	assert.Equal(t, "/files/a.png", p.ProfileImageURL)

	_, err = f.api.UpdateProfile(ctx, "bob", api.UpdateProfileRequest{Name: "x"})
	assert.True(t, api.IsForbidden(err))

	_, err = f.api.UpdateProfile(ctx, "alice", api.UpdateProfileRequest{Bio: strings.Repeat("b", 501)})
	assert.True(t, api.IsValidation(err))
}

func TestUploadAndServeImage(t *testing.T) {
	f := newFixture(t, 0)
	f.user(t, "alice")
	f.signIn(t, "alice", "secret")

	up, err := f.api.UploadFile(context.Background(), "avatar.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(up.URL, "/files/"))
	assert.True(t, strings.HasSuffix(up.URL, ".png"))

	resp, err := http.Get(f.http.URL + up.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, pngHeader, body)
}

func TestUploadRejectsNonImage(t *testing.T) {
	f := newFixture(t, 0)
	f.user(t, "alice")
	f.signIn(t, "alice", "secret")

	_, err := f.api.UploadFile(context.Background(), "notes.txt", strings.NewReader("just text"))
	assert.True(t, api.IsValidation(err))
}

func TestOnlyAuthorChangesPost(t *testing.T) {
	f := newFixture(t, 0)
	alice := f.user(t, "alice")
	f.user(t, "bob")
	post, err := f.srv.Store().CreatePost(alice.ID, "mine", "", time.Now())
	require.NoError(t, err)

	f.signIn(t, "bob", "secret")
	resp, err := f.api.Client().R(context.Background()).
		SetBody(map[string]string{"content": "hijacked"}).
		Put("/api/posts/" + itoa(post.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode())

	got, err := f.api.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Content)
}

func TestLiveEventsReachFeed(t *testing.T) {
	f := newFixture(t, 0)
	alice := f.user(t, "alice")
	post, err := f.srv.Store().CreatePost(alice.ID, "first draft", "", time.Now())
	require.NoError(t, err)
	token := f.signIn(t, "alice", "secret")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := feed.New(f.api, 10)
	_, err = s.LoadNextPage(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())

	cfg := live.DefaultConfig("ws"+strings.TrimPrefix(f.http.URL, "http")+"/ws", token)
	cfg.ReconnectBaseDelay = 10 * time.Millisecond
	c := live.NewClient(cfg)
	unbind := live.Bind(c, s)
	defer unbind()

	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()
	require.Eventually(t, func() bool { return f.srv.Hub().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := f.api.Client().R(ctx).
		SetBody(map[string]string{"content": "final cut"}).
		Put("/api/posts/" + itoa(post.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	require.Eventually(t, func() bool {
		p, ok := s.Get(post.ID)
		return ok && p.Content == "final cut"
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = f.api.Client().R(ctx).Delete("/api/posts/" + itoa(post.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())

	require.Eventually(t, func() bool { return s.Len() == 0 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("live client did not stop")
	}
}

func TestWebSocketRequiresToken(t *testing.T) {
	f := newFixture(t, 0)

	cfg := live.DefaultConfig("ws"+strings.TrimPrefix(f.http.URL, "http")+"/ws", "")
	cfg.MaxReconnectAttempts = 0
	err := live.NewClient(cfg).Run(context.Background())
	assert.ErrorIs(t, err, live.ErrReconnectLimit)
	assert.Equal(t, 0, f.srv.Hub().Len())
}

func TestSeedIsDeterministic(t *testing.T) {
	a, b := NewStore(), NewStore()
	require.NoError(t, Seed(a, 4, 7))
	require.NoError(t, Seed(b, 4, 7))

	require.Equal(t, len(a.AllPosts()), len(b.AllPosts()))
	for id := int64(1); id <= int64(len(a.AllPosts())); id++ {
		pa, err := a.Post(id)
		require.NoError(t, err)
		pb, err := b.Post(id)
		require.NoError(t, err)
		assert.Equal(t, pa.Content, pb.Content)
		assert.Equal(t, pa.AuthorID, pb.AuthorID)
	}

	_, err := a.Authenticate(DemoUsername, DemoPassword)
	assert.NoError(t, err)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
