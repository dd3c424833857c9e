package api

import (
	"context"

	"github.com/snapgram/cli/pkg/logger"
)

// Login authenticates with username and password
func (a *API) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	logger.Debug("Attempting login", "username", username)

	resp, err := a.client.R(ctx).
		SetBody(LoginRequest{Username: username, Password: password}).
		Post("/api/auth/login")

	token, err := decode[TokenResponse](resp, err)
	if err != nil {
		return nil, err
	}

	logger.Debug("Login successful", "username", username)
	return &token, nil
}

// KakaoLogin exchanges a Kakao authorization code for a backend token
func (a *API) KakaoLogin(ctx context.Context, code string) (*TokenResponse, error) {
	logger.Debug("Exchanging Kakao authorization code")

	resp, err := a.client.R(ctx).
		SetBody(KakaoLoginRequest{Code: code}).
		Post("/api/auth/kakao")

	token, err := decode[TokenResponse](resp, err)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// GetMe gets the current authenticated user
func (a *API) GetMe(ctx context.Context) (*Profile, error) {
	logger.Debug("Fetching current user")

	resp, err := a.client.R(ctx).Get("/api/auth/me")

	me, err := decode[Profile](resp, err)
	if err != nil {
		return nil, err
	}

	logger.Debug("Current user fetched", "username", me.Username)
	return &me, nil
}
