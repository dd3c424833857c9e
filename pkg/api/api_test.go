package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/snapgram/cli/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, h http.HandlerFunc) *API {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(client.New(client.Options{BaseURL: srv.URL}))
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
}

func TestGetFeedSendsPageAndSize(t *testing.T) {
	a := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/feed", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("size"))
		writeData(w, http.StatusOK, map[string]interface{}{
			"content": []map[string]interface{}{
				{"id": 21, "content": "hello", "author": map[string]interface{}{"id": 1, "username": "alice"}},
			},
			"hasNext": true,
		})
	})

	page, err := a.GetFeed(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, int64(21), page.Content[0].ID)
	assert.Equal(t, "alice", page.Content[0].Author.Username)
	assert.True(t, page.HasNext)
}

func TestGetProfileUsesUsernamePath(t *testing.T) {
	a := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/bob", r.URL.Path)
		writeData(w, http.StatusOK, map[string]interface{}{
			"id": 2, "username": "bob", "followerCount": 10, "following": false,
		})
	})

	p, err := a.GetProfile(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", p.Username)
	assert.Equal(t, 10, p.FollowerCount)
	assert.False(t, p.Following)
}

func TestFollowAndUnfollowMethods(t *testing.T) {
	var methods []string
	a := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/bob/follow", r.URL.Path)
		methods = append(methods, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, a.Follow(context.Background(), "bob"))
	require.NoError(t, a.Unfollow(context.Background(), "bob"))
	assert.Equal(t, []string{http.MethodPost, http.MethodDelete}, methods)
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	a := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"success":false,"error":{"code":"USER_NOT_FOUND","message":"no such user"}}`)
	})

	_, err := a.GetProfile(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "USER_NOT_FOUND", apiErr.Code)
	assert.Equal(t, "no such user", apiErr.Message)
}

func TestErrorWithPlainBody(t *testing.T) {
	a := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := a.Follow(context.Background(), "bob")
	require.Error(t, err)
	assert.True(t, IsServerError(err))
	assert.Contains(t, err.Error(), "boom")
	assert.False(t, IsUnauthorized(err))
}

func TestUnauthorizedWithoutBody(t *testing.T) {
	a := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := a.GetMe(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "UNAUTHORIZED")
}

func TestLoginPostsCredentials(t *testing.T) {
	a := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body.Username)
		assert.Equal(t, "secret", body.Password)
		writeData(w, http.StatusOK, map[string]string{"accessToken": "tok"})
	})

	tok, err := a.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok.AccessToken)
}

func TestUpdateProfileSendsFields(t *testing.T) {
	a := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/users/alice", r.URL.Path)
		var body UpdateProfileRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeData(w, http.StatusOK, map[string]interface{}{
			"username": "alice", "name": body.Name, "bio": body.Bio, "profileImageUrl": body.ProfileImageURL,
		})
	})

	p, err := a.UpdateProfile(context.Background(), "alice", UpdateProfileRequest{
		Name: "Alice", Bio: "hi", ProfileImageURL: "/files/a.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", p.Bio)
	assert.Equal(t, "/files/a.png", p.ProfileImageURL)
}

func TestUploadFileIsMultipart(t *testing.T) {
	a := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/files", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "avatar.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(data))
		writeData(w, http.StatusCreated, map[string]string{"url": "/files/abc.png"})
	})

	up, err := a.UploadFile(context.Background(), "avatar.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "/files/abc.png", up.URL)
}

func TestFollowListsDecode(t *testing.T) {
	a := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, []map[string]interface{}{
			{"id": 1, "username": "alice"},
			{"id": 3, "username": "carol"},
		})
	})

	users, err := a.GetFollowers(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "carol", users[1].Username)
}
