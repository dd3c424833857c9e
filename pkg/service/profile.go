package service

import (
	"context"
	"fmt"

	"github.com/snapgram/cli/pkg/formatter"
	"github.com/snapgram/cli/pkg/logger"
	"github.com/snapgram/cli/pkg/output"
	"github.com/snapgram/cli/pkg/profile"
	"github.com/snapgram/cli/pkg/prompter"
	"github.com/snapgram/cli/pkg/session"
)

// ProfileService provides profile-related operations
type ProfileService struct {
	profile  *profile.Synchronizer
	session  *session.Session
	uploader profile.Uploader
	out      *output.Printer
	fmt      *formatter.Formatter
	prompt   *prompter.Prompter
}

func NewProfileService(p *profile.Synchronizer, s *session.Session, up profile.Uploader, f *formatter.Formatter, pr *prompter.Prompter) *ProfileService {
	return &ProfileService{profile: p, session: s, uploader: up, out: f.Out, fmt: f, prompt: pr}
}

// resolve defaults an empty username to the signed-in user.
func (ps *ProfileService) resolve(username string) (string, error) {
	if username != "" {
		return username, nil
	}
	user, err := ps.session.RequireUser()
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

func (ps *ProfileService) load(ctx context.Context, username string) error {
	username, err := ps.resolve(username)
	if err != nil {
		return err
	}
	if err := ps.profile.Load(ctx, username); err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	return nil
}

// View shows a profile and its posts.
func (ps *ProfileService) View(ctx context.Context, username string) error {
	logger.Debug("Viewing profile", "username", username)

	if err := ps.load(ctx, username); err != nil {
		return err
	}
	return ps.fmt.Profile(ps.profile.Profile(), ps.profile.Posts(), ps.profile.IsOwn(), ps.session.SignedIn())
}

// ToggleFollow follows username, or unfollows if already following.
func (ps *ProfileService) ToggleFollow(ctx context.Context, username string) error {
	if err := ps.load(ctx, username); err != nil {
		return err
	}

	following, err := ps.profile.ToggleFollow(ctx)
	if err != nil {
		return err
	}

	p := ps.profile.Profile()
	if following {
		ps.out.Success("Now following @%s (%d followers)", p.Username, p.FollowerCount)
	} else {
		ps.out.Success("Unfollowed @%s (%d followers)", p.Username, p.FollowerCount)
	}
	return nil
}

// EditOptions are the flags given to profile edit. Nil fields are
// prompted for when Interactive is set and otherwise left unchanged.
type EditOptions struct {
	Name        *string
	Bio         *string
	ImagePath   string
	Interactive bool
}

// Edit updates the signed-in user's profile.
func (ps *ProfileService) Edit(ctx context.Context, opts EditOptions) error {
	if err := ps.load(ctx, ""); err != nil {
		return err
	}

	form, err := ps.profile.NewEditForm()
	if err != nil {
		return err
	}

	if opts.ImagePath != "" {
		ps.out.Info("Uploading %s...", opts.ImagePath)
		if err := form.AttachImage(ctx, ps.uploader, opts.ImagePath); err != nil {
			ps.out.Error("%v", err)
			ps.out.Warning("Keeping your current profile image")
		}
	}

	switch {
	case opts.Name != nil:
		form.Name = *opts.Name
	case opts.Interactive:
		if form.Name, err = ps.prompt.Default("Name", form.Name); err != nil {
			return err
		}
	}
	switch {
	case opts.Bio != nil:
		form.Bio = *opts.Bio
	case opts.Interactive:
		if form.Bio, err = ps.prompt.Default("Bio", form.Bio); err != nil {
			return err
		}
	}

	updated, err := ps.profile.SubmitEdit(ctx, form)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if _, err := ps.session.Refresh(ctx); err != nil {
		logger.Debug("Failed to refresh current user", "error", err)
	}

	logger.Debug("Profile edit saved", "username", updated.Username)
	ps.out.Success("Profile updated")
	return ps.fmt.Profile(ps.profile.Profile(), ps.profile.Posts(), true, true)
}

// Followers lists who follows username.
func (ps *ProfileService) Followers(ctx context.Context, username string) error {
	if err := ps.load(ctx, username); err != nil {
		return err
	}
	users, err := ps.profile.Followers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load followers: %w", err)
	}
	return ps.fmt.Users(users, "No followers yet.")
}

// Following lists who username follows.
func (ps *ProfileService) Following(ctx context.Context, username string) error {
	if err := ps.load(ctx, username); err != nil {
		return err
	}
	users, err := ps.profile.Following(ctx)
	if err != nil {
		return fmt.Errorf("failed to load following: %w", err)
	}
	return ps.fmt.Users(users, "Not following anyone yet.")
}
