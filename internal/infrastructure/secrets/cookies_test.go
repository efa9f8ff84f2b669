package secrets

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

func TestFileSourceResolve(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cookies.txt")

	src := NewFileSource(path)
	got, err := src.Resolve(context.Background())
	require.NoError(t, err)
	require.Empty(t, got, "missing file means no cookies")

	require.NoError(t, os.WriteFile(path, []byte("# Netscape HTTP Cookie File\n"), 0o600))
	got, err = src.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, path, got)
}

func TestEnvSourceMaterializesBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cookies.txt")
	t.Setenv("TEST_COOKIES_BLOB", "# Netscape HTTP Cookie File\n.youtube.com\tTRUE\t/\t...")

	src := NewEnvSource("TEST_COOKIES_BLOB", path, log.NewStdLogger(io.Discard))
	got, err := src.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, path, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEnvSourceFallsBackToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	t.Setenv("TEST_COOKIES_BLOB", "")

	src := NewEnvSource("TEST_COOKIES_BLOB", path, log.NewStdLogger(io.Discard))
	got, err := src.Resolve(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, os.WriteFile(path, []byte("existing"), 0o600))
	got, err = src.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, path, got)
}

func TestNewSourceSelection(t *testing.T) {
	t.Parallel()

	logger := log.NewStdLogger(io.Discard)

	src, err := newSource(config.Cookies{Source: "none"}, logger)
	require.NoError(t, err)
	got, err := src.Resolve(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = newSource(config.Cookies{Source: "vault"}, logger)
	require.Error(t, err)
}
