package api

import "time"

// Envelope wraps every backend response body.
type Envelope[T any] struct {
	Success bool       `json:"success"`
	Data    T          `json:"data"`
	Message string     `json:"message,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody is the error member of a failed envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Auth Request/Response Types
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type KakaoLoginRequest struct {
	Code string `json:"code"`
}

type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// UserSummary is the compact user shape embedded in posts and follow lists.
type UserSummary struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name,omitempty"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// Profile is a user as seen by the current viewer.
type Profile struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	Bio             string `json:"bio"`
	ProfileImageURL string `json:"profileImageUrl"`
	PostCount       int    `json:"postCount"`
	FollowerCount   int    `json:"followerCount"`
	FollowingCount  int    `json:"followingCount"`
	Following       bool   `json:"following"`
}

type UpdateProfileRequest struct {
	Name            string `json:"name"`
	Bio             string `json:"bio"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// Post Response Types
type Post struct {
	ID           int64       `json:"id"`
	Author       UserSummary `json:"author"`
	Content      string      `json:"content"`
	ImageURL     string      `json:"imageUrl,omitempty"`
	LikeCount    int         `json:"likeCount"`
	CommentCount int         `json:"commentCount"`
	Liked        bool        `json:"liked"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// FeedPage is one page of the home feed.
type FeedPage struct {
	Content []Post `json:"content"`
	HasNext bool   `json:"hasNext"`
}

type UploadResponse struct {
	URL string `json:"url"`
}
