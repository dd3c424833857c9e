package api

import (
	"context"
	"io"

	"github.com/snapgram/cli/pkg/logger"
)

// GetProfile gets a user's profile as seen by the current viewer
func (a *API) GetProfile(ctx context.Context, username string) (*Profile, error) {
	logger.Debug("Fetching user profile", "username", username)

	resp, err := a.client.R(ctx).
		SetPathParam("username", username).
		Get("/api/users/{username}")

	profile, err := decode[Profile](resp, err)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetUserPosts gets the posts authored by a user
func (a *API) GetUserPosts(ctx context.Context, username string) ([]Post, error) {
	logger.Debug("Fetching user posts", "username", username)

	resp, err := a.client.R(ctx).
		SetPathParam("username", username).
		Get("/api/users/{username}/posts")

	return decode[[]Post](resp, err)
}

// GetFollowers gets user's followers
func (a *API) GetFollowers(ctx context.Context, username string) ([]UserSummary, error) {
	logger.Debug("Fetching followers", "username", username)

	resp, err := a.client.R(ctx).
		SetPathParam("username", username).
		Get("/api/users/{username}/followers")

	return decode[[]UserSummary](resp, err)
}

// GetFollowing gets users that someone is following
func (a *API) GetFollowing(ctx context.Context, username string) ([]UserSummary, error) {
	logger.Debug("Fetching following", "username", username)

	resp, err := a.client.R(ctx).
		SetPathParam("username", username).
		Get("/api/users/{username}/following")

	return decode[[]UserSummary](resp, err)
}

// Follow follows a user
func (a *API) Follow(ctx context.Context, username string) error {
	logger.Debug("Following user", "username", username)

	resp, err := a.client.R(ctx).
		SetPathParam("username", username).
		Post("/api/users/{username}/follow")

	return CheckResponse(resp, err)
}

// Unfollow unfollows a user
func (a *API) Unfollow(ctx context.Context, username string) error {
	logger.Debug("Unfollowing user", "username", username)

	resp, err := a.client.R(ctx).
		SetPathParam("username", username).
		Delete("/api/users/{username}/follow")

	return CheckResponse(resp, err)
}

// UpdateProfile replaces the editable profile fields
func (a *API) UpdateProfile(ctx context.Context, username string, req UpdateProfileRequest) (*Profile, error) {
	logger.Debug("Updating user profile", "username", username)

	resp, err := a.client.R(ctx).
		SetPathParam("username", username).
		SetBody(req).
		Put("/api/users/{username}")

	profile, err := decode[Profile](resp, err)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UploadFile uploads a media file and returns its stored reference
func (a *API) UploadFile(ctx context.Context, filename string, r io.Reader) (*UploadResponse, error) {
	logger.Debug("Uploading file", "filename", filename)

	resp, err := a.client.R(ctx).
		SetFileReader("file", filename, r).
		Post("/api/files")

	upload, err := decode[UploadResponse](resp, err)
	if err != nil {
		return nil, err
	}
	return &upload, nil
}
