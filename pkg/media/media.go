// Package media resolves stored image references and uploads new images.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/logger"
)

// MaxUploadSize is the largest file the upload endpoint accepts.
const MaxUploadSize = 10 << 20

// ImageURL turns a stored reference into a fetchable URL. Absolute URLs
// are returned unchanged, relative references are joined onto base and an
// empty reference stays empty.
func ImageURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}

// Initial is the placeholder shown instead of a missing avatar.
func Initial(username string) string {
	r, _ := utf8.DecodeRuneInString(username)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// FileUploader is the upload endpoint. *api.API satisfies it.
type FileUploader interface {
	UploadFile(ctx context.Context, filename string, r io.Reader) (*api.UploadResponse, error)
}

// Uploader sends local image files to the backend.
type Uploader struct {
	files FileUploader
}

func NewUploader(files FileUploader) *Uploader {
	return &Uploader{files: files}
}

// UploadImage checks that path holds an image no larger than
// MaxUploadSize, uploads it and returns the stored reference.
func (u *Uploader) UploadImage(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.Size() > MaxUploadSize {
		return "", fmt.Errorf("%s is %.1f MB, max %d MB", path, float64(info.Size())/(1<<20), MaxUploadSize>>20)
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("%s is %s, not an image", path, mtype.String())
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	logger.Debug("Uploading image", "path", path, "mime", mtype.String(), "size", info.Size())
	resp, err := u.files.UploadFile(ctx, filepath.Base(path), f)
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}
