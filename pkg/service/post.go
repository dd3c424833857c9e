package service

import (
	"context"
	"fmt"

	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/feed"
	"github.com/snapgram/cli/pkg/formatter"
	"github.com/snapgram/cli/pkg/logger"
	"github.com/snapgram/cli/pkg/output"
)

// PostAPI fetches individual posts.
type PostAPI interface {
	GetPost(ctx context.Context, id int64) (*api.Post, error)
}

// PostService provides post-related operations
type PostService struct {
	api  PostAPI
	list *feed.List
	out  *output.Printer
	fmt  *formatter.Formatter
}

func NewPostService(a PostAPI, list *feed.List, f *formatter.Formatter) *PostService {
	return &PostService{api: a, list: list, out: f.Out, fmt: f}
}

// ListAll shows every post, newest first.
func (ps *PostService) ListAll(ctx context.Context) error {
	logger.Debug("Listing all posts")

	if err := ps.list.Load(ctx); err != nil {
		return fmt.Errorf("failed to load posts: %w", err)
	}
	return ps.fmt.Posts(ps.list.Posts(), "No posts yet.")
}

// Show displays one post. A missing post is reported, not failed.
func (ps *PostService) Show(ctx context.Context, id int64) error {
	logger.Debug("Showing post", "post_id", id)

	post, err := ps.api.GetPost(ctx, id)
	if api.IsNotFound(err) {
		ps.out.Warning("Post %d not found", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load post: %w", err)
	}
	return ps.fmt.Post(post)
}
