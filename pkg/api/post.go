package api

import (
	"context"
	"strconv"

	"github.com/snapgram/cli/pkg/logger"
)

// GetFeed retrieves one page of the home feed. Pages start at 0.
func (a *API) GetFeed(ctx context.Context, page, size int) (*FeedPage, error) {
	logger.Debug("Fetching feed", "page", page, "size", size)

	resp, err := a.client.R(ctx).
		SetQueryParams(map[string]string{
			"page": strconv.Itoa(page),
			"size": strconv.Itoa(size),
		}).
		Get("/api/feed")

	feed, err := decode[FeedPage](resp, err)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

// GetPosts retrieves every post, newest first
func (a *API) GetPosts(ctx context.Context) ([]Post, error) {
	logger.Debug("Fetching all posts")

	resp, err := a.client.R(ctx).Get("/api/posts")
	return decode[[]Post](resp, err)
}

// GetPost retrieves a single post
func (a *API) GetPost(ctx context.Context, id int64) (*Post, error) {
	logger.Debug("Fetching post", "post_id", id)

	resp, err := a.client.R(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		Get("/api/posts/{id}")

	post, err := decode[Post](resp, err)
	if err != nil {
		return nil, err
	}
	return &post, nil
}
