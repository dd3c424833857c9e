package profile

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/logger"
)

const (
	MaxNameLength = 100
	MaxBioLength  = 500
)

var ErrInvalidEdit = errors.New("invalid profile edit")

// Patch names the editable fields to change. Nil fields are left alone.
type Patch struct {
	Name            *string
	Bio             *string
	ProfileImageURL *string
}

// ApplyProfileEdit merges the fields present in patch into the loaded
// profile. It reports false when no profile is loaded.
func (s *Synchronizer) ApplyProfileEdit(patch Patch) bool {
	s.mu.Lock()
	if s.profile == nil {
		s.mu.Unlock()
		return false
	}
	p := *s.profile
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.ProfileImageURL != nil {
		p.ProfileImageURL = *patch.ProfileImageURL
	}
	s.profile = &p
	snap, seq := s.snapshotLocked()
	s.mu.Unlock()

	s.hub.PublishSeq(seq, snap)
	return true
}

// Uploader stores an image file and returns its reference.
type Uploader interface {
	UploadImage(ctx context.Context, path string) (string, error)
}

// EditForm is a pending edit of the viewer's own profile, seeded from the
// loaded profile.
type EditForm struct {
	Username        string
	Name            string
	Bio             string
	ProfileImageURL string
}

// NewEditForm starts an edit of the loaded profile, which must be the
// viewer's own.
func (s *Synchronizer) NewEditForm() (*EditForm, error) {
	if !s.IsOwn() {
		if s.Profile() == nil {
			return nil, ErrNoProfile
		}
		return nil, ErrNotOwnProfile
	}
	p := s.Profile()
	return &EditForm{
		Username:        p.Username,
		Name:            p.Name,
		Bio:             p.Bio,
		ProfileImageURL: p.ProfileImageURL,
	}, nil
}

// AttachImage uploads path and points the form at the stored image. If the
// upload fails the form keeps its previous image.
func (f *EditForm) AttachImage(ctx context.Context, up Uploader, path string) error {
	ref, err := up.UploadImage(ctx, path)
	if err != nil {
		return fmt.Errorf("image upload failed: %w", err)
	}
	f.ProfileImageURL = ref
	return nil
}

// Validate checks the field lengths the server accepts.
func (f *EditForm) Validate() error {
	if n := utf8.RuneCountInString(f.Name); n > MaxNameLength {
		return fmt.Errorf("%w: name is %d characters, max %d", ErrInvalidEdit, n, MaxNameLength)
	}
	if n := utf8.RuneCountInString(f.Bio); n > MaxBioLength {
		return fmt.Errorf("%w: bio is %d characters, max %d", ErrInvalidEdit, n, MaxBioLength)
	}
	return nil
}

// SubmitEdit sends the form and, once the server accepts it, merges the
// returned name, bio and image into the loaded profile.
func (s *Synchronizer) SubmitEdit(ctx context.Context, f *EditForm) (*api.Profile, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.api.UpdateProfile(ctx, f.Username, api.UpdateProfileRequest{
		Name:            f.Name,
		Bio:             f.Bio,
		ProfileImageURL: f.ProfileImageURL,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Profile updated", "username", f.Username)
	s.ApplyProfileEdit(Patch{
		Name:            &updated.Name,
		Bio:             &updated.Bio,
		ProfileImageURL: &updated.ProfileImageURL,
	})
	return updated, nil
}
