package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/formatter"
	"github.com/snapgram/cli/pkg/logger"
	"github.com/snapgram/cli/pkg/oauth"
	"github.com/snapgram/cli/pkg/output"
	"github.com/snapgram/cli/pkg/prompter"
	"github.com/snapgram/cli/pkg/session"
)

// AuthAPI is the login surface of the backend.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*api.TokenResponse, error)
	KakaoLogin(ctx context.Context, code string) (*api.TokenResponse, error)
}

// KakaoSettings are the registered Kakao application values.
type KakaoSettings struct {
	ClientID    string
	RedirectURI string
}

type AuthService struct {
	api     AuthAPI
	session *session.Session
	kakao   KakaoSettings
	out     *output.Printer
	fmt     *formatter.Formatter
	prompt  *prompter.Prompter
}

func NewAuthService(a AuthAPI, s *session.Session, kakao KakaoSettings, f *formatter.Formatter, p *prompter.Prompter) *AuthService {
	return &AuthService{api: a, session: s, kakao: kakao, out: f.Out, fmt: f, prompt: p}
}

// Login signs in with a username and password, prompting for whichever is
// missing.
func (s *AuthService) Login(ctx context.Context, username, password string) error {
	if u := s.session.User(); u != nil {
		s.out.Warning("Already logged in as %s", u.Username)
		confirm, err := s.prompt.Confirm("Continue with new login?")
		if err != nil {
			return err
		}
		if !confirm {
			return nil
		}
	}

	var err error
	if username == "" {
		if username, err = s.prompt.String("Username: "); err != nil {
			return err
		}
	}
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if password == "" {
		if password, err = s.prompt.Password("Password: "); err != nil {
			return err
		}
	}
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	s.out.Info("Authenticating...")
	token, err := s.api.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return s.adopt(ctx, token.AccessToken)
}

// KakaoLogin runs the browser flow: print the authorize URL, wait for the
// redirect on the loopback listener, then exchange the code.
func (s *AuthService) KakaoLogin(ctx context.Context) error {
	flow, err := oauth.NewFlow(s.kakao.ClientID, s.kakao.RedirectURI)
	if err != nil {
		return err
	}

	listener, err := oauth.Listen(flow)
	if err != nil {
		return err
	}

	s.out.Info("Open this URL in your browser to sign in with Kakao:")
	s.out.Line("  %s", flow.AuthorizeURL())
	s.out.Info("Waiting for Kakao to redirect to %s ...", flow.RedirectURL())

	code, err := listener.Wait(ctx)
	if errors.Is(err, oauth.ErrCancelled) {
		logger.Debug("Kakao login cancelled", "error", err)
		s.out.Warning("Kakao login cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	return s.LoginWithKakaoCode(ctx, code)
}

// LoginWithKakaoCode exchanges an authorization code obtained elsewhere.
func (s *AuthService) LoginWithKakaoCode(ctx context.Context, code string) error {
	token, err := s.api.KakaoLogin(ctx, code)
	if err != nil {
		return fmt.Errorf("kakao login failed: %w", err)
	}
	return s.adopt(ctx, token.AccessToken)
}

func (s *AuthService) adopt(ctx context.Context, token string) error {
	user, err := s.session.Login(ctx, token)
	if err != nil {
		return err
	}
	s.out.Success("Logged in as %s", formatter.Bold.Sprint(user.Username))
	return nil
}

// Logout signs out and removes the stored token.
func (s *AuthService) Logout() error {
	if !s.session.SignedIn() && s.session.Token() == "" {
		s.out.Warning("Not logged in")
		return nil
	}
	if err := s.session.Logout(); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	s.out.Success("Logged out")
	return nil
}

// Me shows the signed-in user.
func (s *AuthService) Me() error {
	user, err := s.session.RequireUser()
	if err != nil {
		return err
	}
	return s.fmt.Profile(user, nil, true, true)
}
