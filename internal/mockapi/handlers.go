package mockapi

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/live"
	"github.com/snapgram/cli/pkg/logger"
	"github.com/snapgram/cli/pkg/profile"
)

const (
	defaultPageSize = 10
	maxPageSize     = 50
	maxUploadSize   = 10 << 20
)

type postRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`
}

// Auth

func (s *Server) login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		respondBadRequest(c, "username and password are required")
		return
	}
	u, err := s.store.Authenticate(req.Username, req.Password)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error())
		return
	}
	s.issueToken(c, u)
}

// kakaoLogin accepts "mock-<username>" codes in place of a real exchange
// with Kakao.
func (s *Server) kakaoLogin(c *gin.Context) {
	var req api.KakaoLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		respondBadRequest(c, "code is required")
		return
	}
	username, ok := strings.CutPrefix(req.Code, KakaoCodePrefix)
	if !ok || username == "" {
		respondError(c, http.StatusUnauthorized, "INVALID_CODE", "authorization code rejected")
		return
	}

	u, err := s.store.UserByName(username)
	if errors.Is(err, ErrUserNotFound) {
		u, err = s.store.CreateUser(username, username, "")
	}
	if err != nil {
		respondInternalError(c, "failed to resolve kakao account")
		return
	}
	s.issueToken(c, u)
}

func (s *Server) issueToken(c *gin.Context, u *User) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		respondInternalError(c, "failed to issue token")
		return
	}
	logger.Debug("Issued token", "user_id", u.ID, "username", u.Username)
	respondData(c, http.StatusOK, api.TokenResponse{AccessToken: token})
}

func (s *Server) me(c *gin.Context) {
	u, err := s.store.UserByID(viewerID(c))
	if err != nil {
		respondNotFound(c, "user")
		return
	}
	respondData(c, http.StatusOK, s.profileOf(u, viewerID(c)))
}

// Posts

func (s *Server) feed(c *gin.Context) {
	page := queryInt(c, "page", 0)
	size := queryInt(c, "size", defaultPageSize)
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}

	posts, hasNext := s.store.Feed(viewerID(c), page, size)
	respondData(c, http.StatusOK, api.FeedPage{Content: s.postsOf(posts), HasNext: hasNext})
}

func (s *Server) listPosts(c *gin.Context) {
	respondData(c, http.StatusOK, s.postsOf(s.store.AllPosts()))
}

func (s *Server) getPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	p, err := s.store.Post(id)
	if err != nil {
		respondNotFound(c, "post")
		return
	}
	respondData(c, http.StatusOK, s.postOf(p))
}

func (s *Server) createPost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		respondBadRequest(c, "content is required")
		return
	}
	p, err := s.store.CreatePost(viewerID(c), req.Content, req.ImageURL, time.Now())
	if err != nil {
		respondInternalError(c, "failed to create post")
		return
	}
	respondData(c, http.StatusCreated, s.postOf(p))
}

// updatePost edits a post and pushes post_updated to live clients.
func (s *Server) updatePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if !s.ownsPost(c, id) {
		return
	}

	p, err := s.store.UpdatePost(id, req.Content, req.ImageURL)
	if err != nil {
		respondNotFound(c, "post")
		return
	}
	out := s.postOf(p)
	if err := s.hub.Broadcast(live.MessageTypePostUpdated, out); err != nil {
		logger.Warn("Failed to broadcast post update", "post_id", id, "error", err)
	}
	respondData(c, http.StatusOK, out)
}

// deletePost removes a post and pushes post_deleted to live clients.
func (s *Server) deletePost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if !s.ownsPost(c, id) {
		return
	}
	if err := s.store.DeletePost(id); err != nil {
		respondNotFound(c, "post")
		return
	}
	if err := s.hub.Broadcast(live.MessageTypePostDeleted, live.PostDeleted{ID: id}); err != nil {
		logger.Warn("Failed to broadcast post delete", "post_id", id, "error", err)
	}
	respondData(c, http.StatusOK, live.PostDeleted{ID: id})
}

func (s *Server) ownsPost(c *gin.Context, id int64) bool {
	p, err := s.store.Post(id)
	if err != nil {
		respondNotFound(c, "post")
		return false
	}
	if p.AuthorID != viewerID(c) {
		respondForbidden(c, "only the author can change this post")
		return false
	}
	return true
}

// Users

func (s *Server) getProfile(c *gin.Context) {
	u, ok := s.userParam(c)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, s.profileOf(u, viewerID(c)))
}

func (s *Server) userPosts(c *gin.Context) {
	u, ok := s.userParam(c)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, s.postsOf(s.store.PostsBy(u.ID)))
}

func (s *Server) followers(c *gin.Context) {
	u, ok := s.userParam(c)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, summariesOf(s.store.Followers(u.ID)))
}

func (s *Server) following(c *gin.Context) {
	u, ok := s.userParam(c)
	if !ok {
		return
	}
	respondData(c, http.StatusOK, summariesOf(s.store.Following(u.ID)))
}

func (s *Server) follow(c *gin.Context) {
	u, ok := s.userParam(c)
	if !ok {
		return
	}
	if u.ID == viewerID(c) {
		respondBadRequest(c, "you cannot follow yourself")
		return
	}
	s.store.Follow(viewerID(c), u.ID)
	respondData(c, http.StatusOK, s.profileOf(u, viewerID(c)))
}

func (s *Server) unfollow(c *gin.Context) {
	u, ok := s.userParam(c)
	if !ok {
		return
	}
	s.store.Unfollow(viewerID(c), u.ID)
	respondData(c, http.StatusOK, s.profileOf(u, viewerID(c)))
}

func (s *Server) updateProfile(c *gin.Context) {
	u, ok := s.userParam(c)
	if !ok {
		return
	}
	if u.ID != viewerID(c) {
		respondForbidden(c, "you can only edit your own profile")
		return
	}

	var req api.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if utf8.RuneCountInString(req.Name) > profile.MaxNameLength {
		respondBadRequest(c, "name is too long")
		return
	}
	if utf8.RuneCountInString(req.Bio) > profile.MaxBioLength {
		respondBadRequest(c, "bio is too long")
		return
	}

	updated, err := s.store.UpdateProfile(u.ID, req.Name, req.Bio, req.ProfileImageURL)
	if err != nil {
		respondNotFound(c, "user")
		return
	}
	respondData(c, http.StatusOK, s.profileOf(updated, viewerID(c)))
}

// Files

func (s *Server) uploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondBadRequest(c, "file is required")
		return
	}
	if fh.Size > maxUploadSize {
		respondBadRequest(c, "file is too large")
		return
	}

	src, err := fh.Open()
	if err != nil {
		respondInternalError(c, "failed to read upload")
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		respondInternalError(c, "failed to read upload")
		return
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		respondBadRequest(c, "only images can be uploaded")
		return
	}

	ext := filepath.Ext(fh.Filename)
	if ext == "" {
		ext = mtype.Extension()
	}
	name := uuid.New().String() + ext
	s.store.PutFile(name, data, mtype.String())
	logger.Debug("Stored upload", "name", name, "size", len(data), "mime", mtype.String())

	respondData(c, http.StatusCreated, api.UploadResponse{URL: "/files/" + name})
}

func (s *Server) serveFile(c *gin.Context) {
	data, mime, ok := s.store.File(c.Param("name"))
	if !ok {
		respondNotFound(c, "file")
		return
	}
	c.Data(http.StatusOK, mime, data)
}
