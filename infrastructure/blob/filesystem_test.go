package blob

import (
	"context"
	"errors"
	"strings"
	"testing"

	appconfig "edusync/config"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemStore(t *testing.T) (*FilesystemStore, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	s, err := NewFilesystemStore(mem, "/var/media", "http://localhost:8080/media")
	require.NoError(t, err)
	return s, mem
}

func TestFilesystemUploadAndDelete(t *testing.T) {
	s, mem := newMemStore(t)
	ctx := context.Background()

	url, err := s.Upload(ctx, "intro video.mp4", "video/mp4", strings.NewReader("frames"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/intro%20video.mp4", url)

	data, err := afero.ReadFile(mem, "/var/media/intro video.mp4")
	require.NoError(t, err)
	assert.Equal(t, "frames", string(data))

	_, err = s.Upload(ctx, "intro video.mp4", "video/mp4", strings.NewReader("v2"))
	require.NoError(t, err)
	data, _ = afero.ReadFile(mem, "/var/media/intro video.mp4")
	assert.Equal(t, "v2", string(data), "upload overwrites")

	require.NoError(t, s.Delete(ctx, "intro video.mp4"))
	ok, err := s.Exists("intro video.mp4")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilesystemDeleteIsIdempotent(t *testing.T) {
	s, _ := newMemStore(t)
	assert.NoError(t, s.Delete(context.Background(), "never-uploaded.pdf"))
}

func TestFilesystemRejectsInvalidNames(t *testing.T) {
	s, _ := newMemStore(t)
	ctx := context.Background()

	for _, name := range []string{"", "  ", "../etc/passwd", "a/b.mp4", `a\b.mp4`, ".."} {
		_, err := s.Upload(ctx, name, "", strings.NewReader("x"))
		assert.True(t, errors.Is(err, ErrInvalidName), "upload %q", name)
		assert.True(t, errors.Is(s.Delete(ctx, name), ErrInvalidName), "delete %q", name)
	}
}

func TestFilesystemHonoursCancelledContext(t *testing.T) {
	s, _ := newMemStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Delete(ctx, "a.mp4"), context.Canceled)
	_, err := s.Upload(ctx, "a.mp4", "", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := NewFilesystemStore(afero.NewMemMapFs(), "", "")
	assert.Error(t, err)
}

func TestNewSelectsProvider(t *testing.T) {
	_, err := New(appconfig.BlobConfig{Provider: "s3"})
	assert.Error(t, err)

	_, err = New(appconfig.BlobConfig{Provider: ProviderAzure, Container: "media"})
	assert.Error(t, err, "azure needs a connection string")

	store, err := New(appconfig.BlobConfig{Provider: ProviderFilesystem, BaseDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FilesystemStore{}, store)
}
