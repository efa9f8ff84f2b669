package ytdlp

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/services"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

// fakeBinary writes an executable shell script standing in for yt-dlp.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yt-dlp-fake")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func testableClient(t *testing.T, binary string) *Client {
	t.Helper()
	cfg := config.Extractor{
		Binary:            binary,
		ProbeTimeout:      5 * time.Second,
		SocketTimeout:     5 * time.Second,
		TransientPatterns: config.DefaultTransientPatterns(),
		PermanentPatterns: config.DefaultPermanentPatterns(),
	}
	return NewClient(cfg, config.Cookies{}, log.NewStdLogger(io.Discard))
}

func TestDownloadToleratesOversizedOutputLine(t *testing.T) {
	t.Parallel()

	// One 2 MiB line with no newline overflows the progress scanner's
	// buffer. The pipe still has to be drained so Wait returns promptly.
	client := testableClient(t, fakeBinary(t, `head -c 2097152 /dev/zero | tr '\0' 'x'`))

	destDir := t.TempDir()
	artifact := filepath.Join(destDir, "vid1.mkv")
	require.NoError(t, os.WriteFile(artifact, []byte("media"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	got, err := client.Download(ctx, services.DownloadInput{
		VideoID:  "vid1",
		VideoURL: "https://example.com/vid1",
		DestDir:  destDir,
	})
	require.NoError(t, err)
	require.Equal(t, artifact, got)
	require.NoError(t, ctx.Err(), "download must finish well before the timeout")
}

func TestDownloadMissingArtifactIsPermanent(t *testing.T) {
	t.Parallel()

	client := testableClient(t, fakeBinary(t, `exit 0`))

	_, err := client.Download(context.Background(), services.DownloadInput{
		VideoID:  "vid1",
		VideoURL: "https://example.com/vid1",
		DestDir:  t.TempDir(),
	})
	var xe *services.ExtractError
	require.ErrorAs(t, err, &xe)
	require.Equal(t, "artifact_missing", xe.Reason)
	require.Equal(t, services.FailurePermanent, xe.Class)
}

func TestDownloadClassifiesStderr(t *testing.T) {
	t.Parallel()

	client := testableClient(t, fakeBinary(t, `echo "ERROR: HTTP Error 429: Too Many Requests" >&2; exit 1`))

	_, err := client.Download(context.Background(), services.DownloadInput{
		VideoID:  "vid1",
		VideoURL: "https://example.com/vid1",
		DestDir:  t.TempDir(),
	})
	var xe *services.ExtractError
	require.ErrorAs(t, err, &xe)
	require.Equal(t, "rate_limited", xe.Reason)
	require.Equal(t, services.FailureTransient, xe.Class)
}
