package mockapi

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/snapgram/cli/pkg/api"
)

// queryInt parses a query parameter, returning def if it is absent or bad.
func queryInt(c *gin.Context, key string, def int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return def
}

func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid post id")
		return 0, false
	}
	return id, true
}

func (s *Server) userParam(c *gin.Context) (*User, bool) {
	u, err := s.store.UserByName(c.Param("username"))
	if err != nil {
		respondNotFound(c, "user")
		return nil, false
	}
	return u, true
}

// profileOf renders u as seen by viewer. A zero viewer is anonymous.
func (s *Server) profileOf(u *User, viewer int64) api.Profile {
	posts, followers, following := s.store.Counts(u.ID)
	return api.Profile{
		ID:              u.ID,
		Username:        u.Username,
		Name:            u.Name,
		Bio:             u.Bio,
		ProfileImageURL: u.ProfileImageURL,
		PostCount:       posts,
		FollowerCount:   followers,
		FollowingCount:  following,
		Following:       viewer != 0 && s.store.IsFollowing(viewer, u.ID),
	}
}

func summaryOf(u *User) api.UserSummary {
	return api.UserSummary{
		ID:              u.ID,
		Username:        u.Username,
		Name:            u.Name,
		ProfileImageURL: u.ProfileImageURL,
	}
}

func summariesOf(users []User) []api.UserSummary {
	out := make([]api.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, summaryOf(&users[i]))
	}
	return out
}

func (s *Server) postOf(p *Post) api.Post {
	out := api.Post{
		ID:           p.ID,
		Content:      p.Content,
		ImageURL:     p.ImageURL,
		LikeCount:    p.LikeCount,
		CommentCount: p.CommentCount,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if author, err := s.store.UserByID(p.AuthorID); err == nil {
		out.Author = summaryOf(author)
	}
	return out
}

func (s *Server) postsOf(posts []Post) []api.Post {
	out := make([]api.Post, 0, len(posts))
	for i := range posts {
		out = append(out, s.postOf(&posts[i]))
	}
	return out
}
