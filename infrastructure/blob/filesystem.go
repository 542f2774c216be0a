package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"edusync/domain/shared"

	"github.com/spf13/afero"
)

// FilesystemStore keeps blobs as files under one directory.
type FilesystemStore struct {
	fs      afero.Fs
	baseURL string
}

// NewFilesystemStore roots the store at baseDir on fsys. Returned URLs are
// baseURL joined with the escaped blob name.
func NewFilesystemStore(fsys afero.Fs, baseDir, baseURL string) (*FilesystemStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("blob base directory is required")
	}
	if err := fsys.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &FilesystemStore{
		fs:      afero.NewBasePathFs(fsys, baseDir),
		baseURL: baseURL,
	}, nil
}

// Upload overwrites any existing blob with the same name.
func (s *FilesystemStore) Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}

	f, err := s.fs.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open blob %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		s.fs.Remove(name)
		return "", fmt.Errorf("write blob %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close blob %s: %w", name, err)
	}
	return s.baseURL + url.PathEscape(name), nil
}

func (s *FilesystemStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", name, err)
	}
	return nil
}

// Exists reports whether name is stored.
func (s *FilesystemStore) Exists(name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	return afero.Exists(s.fs, name)
}

var _ shared.BlobStore = (*FilesystemStore)(nil)
