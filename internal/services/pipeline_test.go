package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/models"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	download    func(ctx context.Context, in DownloadInput) (string, error)
	checkLive   func(ctx context.Context, handle string) (*models.LiveStatus, error)
	channelInfo func(ctx context.Context, handle string) (*models.ChannelInfo, error)
}

func (s *stubExtractor) Download(ctx context.Context, in DownloadInput) (string, error) {
	return s.download(ctx, in)
}

func (s *stubExtractor) CheckLive(ctx context.Context, handle string) (*models.LiveStatus, error) {
	if s.checkLive == nil {
		return nil, errors.New("unexpected CheckLive call")
	}
	return s.checkLive(ctx, handle)
}

func (s *stubExtractor) ChannelInfo(ctx context.Context, handle string) (*models.ChannelInfo, error) {
	if s.channelInfo == nil {
		return nil, errors.New("unexpected ChannelInfo call")
	}
	return s.channelInfo(ctx, handle)
}

type stubBlobStore struct {
	key  string
	body []byte
	err  error
}

func (s *stubBlobStore) Upload(_ context.Context, key string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.key = key
	s.body = body
	return "gs://test-bucket/" + key, nil
}

type stubCookies struct {
	path string
	err  error
}

func (s *stubCookies) Resolve(context.Context) (string, error) { return s.path, s.err }

type progressRecorder struct {
	uploading []string
}

func (p *progressRecorder) MarkUploading(id string) { p.uploading = append(p.uploading, id) }

func writeArtifact(t *testing.T, in DownloadInput, name string, body []byte) string {
	t.Helper()
	path := filepath.Join(in.DestDir, name)
	require.NoError(t, os.WriteFile(path, body, 0o644))
	return path
}

func testablePipeline(t *testing.T, extractor Extractor, blobs BlobStore, cookies CookieSource, mutate func(*config.Jobs)) *PipelineService {
	t.Helper()
	cfg := config.Jobs{
		ScratchDir:      t.TempDir(),
		ScratchQuota:    1 << 20,
		DownloadTimeout: 5 * time.Second,
		UploadTimeout:   5 * time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := NewPipelineService(extractor, blobs, cookies, cfg, log.NewStdLogger(io.Discard))
	require.NoError(t, err)
	return svc
}

func TestPipelineExecuteStoresArtifact(t *testing.T) {
	t.Parallel()

	body := []byte("media bytes")
	extractor := &stubExtractor{
		download: func(_ context.Context, in DownloadInput) (string, error) {
			require.Equal(t, "/tmp/cookies.txt", in.CookiesFile)
			return writeArtifact(t, in, "vid1.mkv", body), nil
		},
	}
	blobs := &stubBlobStore{}
	pipeline := testablePipeline(t, extractor, blobs, &stubCookies{path: "/tmp/cookies.txt"}, nil)

	job := &models.Job{ID: "vid1-abcd1234", VideoID: "vid1", VideoURL: "https://example.com/vid1"}
	progress := &progressRecorder{}

	uri, err := pipeline.Execute(context.Background(), job, progress)
	require.NoError(t, err)
	require.Equal(t, "gs://test-bucket/vid1/vid1.mkv", uri)
	require.Equal(t, "vid1/vid1.mkv", blobs.key)
	require.Equal(t, body, blobs.body)
	require.Equal(t, []string{"vid1-abcd1234"}, progress.uploading)

	// Scratch space is reclaimed on success.
	_, statErr := os.Stat(filepath.Join(pipeline.cfg.ScratchDir, job.ID))
	require.True(t, os.IsNotExist(statErr))
}

func TestPipelineScratchCleanupOnFailure(t *testing.T) {
	t.Parallel()

	extractor := &stubExtractor{
		download: func(_ context.Context, in DownloadInput) (string, error) {
			writeArtifact(t, in, "partial.mkv.part", []byte("partial"))
			return "", &ExtractError{Reason: "rate_limited", Class: FailureTransient, Err: errors.New("429")}
		},
	}
	pipeline := testablePipeline(t, extractor, &stubBlobStore{}, &stubCookies{}, nil)

	job := &models.Job{ID: "vid2-zz", VideoID: "vid2"}
	_, err := pipeline.Execute(context.Background(), job, &progressRecorder{})

	var xe *ExtractError
	require.ErrorAs(t, err, &xe)
	require.Equal(t, FailureTransient, ClassifyFailure(err))

	_, statErr := os.Stat(filepath.Join(pipeline.cfg.ScratchDir, job.ID))
	require.True(t, os.IsNotExist(statErr))
}

func TestPipelineOversizedArtifactIsPermanent(t *testing.T) {
	t.Parallel()

	extractor := &stubExtractor{
		download: func(_ context.Context, in DownloadInput) (string, error) {
			return writeArtifact(t, in, "big.mkv", make([]byte, 64)), nil
		},
	}
	pipeline := testablePipeline(t, extractor, &stubBlobStore{}, &stubCookies{}, func(cfg *config.Jobs) {
		cfg.ScratchQuota = 16
	})

	job := &models.Job{ID: "vid3-zz", VideoID: "vid3"}
	_, err := pipeline.Execute(context.Background(), job, &progressRecorder{})

	var se *StorageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, FailurePermanent, se.Class)
}

func TestPipelineUploadFailureIsTransient(t *testing.T) {
	t.Parallel()

	extractor := &stubExtractor{
		download: func(_ context.Context, in DownloadInput) (string, error) {
			return writeArtifact(t, in, "vid4.mkv", []byte("x")), nil
		},
	}
	pipeline := testablePipeline(t, extractor, &stubBlobStore{err: errors.New("bucket unreachable")}, &stubCookies{}, nil)

	job := &models.Job{ID: "vid4-zz", VideoID: "vid4"}
	_, err := pipeline.Execute(context.Background(), job, &progressRecorder{})

	var se *StorageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, FailureTransient, se.Class)
}

func TestPipelineAdmissionPrecedesDownload(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	unblock := make(chan struct{})
	var downloads atomic.Int32
	extractor := &stubExtractor{
		download: func(_ context.Context, in DownloadInput) (string, error) {
			if downloads.Add(1) == 1 {
				close(started)
				<-unblock
			}
			return writeArtifact(t, in, in.VideoID+".mkv", []byte("x")), nil
		},
	}
	pipeline := testablePipeline(t, extractor, &stubBlobStore{}, &stubCookies{}, nil)

	first := make(chan error, 1)
	go func() {
		_, err := pipeline.Execute(context.Background(), &models.Job{ID: "vid6-zz", VideoID: "vid6"}, &progressRecorder{})
		first <- err
	}()
	<-started

	// While the first download holds its reservation, the second job is
	// turned away before any of its bytes can hit disk.
	_, err := pipeline.Execute(context.Background(), &models.Job{ID: "vid7-zz", VideoID: "vid7"}, &progressRecorder{})
	var se *StorageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, FailureTransient, se.Class)
	require.EqualValues(t, 1, downloads.Load())

	close(unblock)
	require.NoError(t, <-first)
}

func TestPipelineDegradesWithoutCookies(t *testing.T) {
	t.Parallel()

	var seenCookies string
	extractor := &stubExtractor{
		download: func(_ context.Context, in DownloadInput) (string, error) {
			seenCookies = in.CookiesFile
			return writeArtifact(t, in, "vid5.mkv", []byte("x")), nil
		},
	}
	pipeline := testablePipeline(t, extractor, &stubBlobStore{}, &stubCookies{err: errors.New("secret backend down")}, nil)

	job := &models.Job{ID: "vid5-zz", VideoID: "vid5"}
	_, err := pipeline.Execute(context.Background(), job, &progressRecorder{})
	require.NoError(t, err)
	require.Empty(t, seenCookies)
}

func TestClassifyFailure(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"extract transient", &ExtractError{Reason: "rate_limited", Class: FailureTransient}, FailureTransient},
		{"extract permanent", &ExtractError{Reason: "members_only_no_access", Class: FailurePermanent}, FailurePermanent},
		{"wrapped extract", errors.Join(errors.New("outer"), &ExtractError{Class: FailurePermanent}), FailurePermanent},
		{"storage permanent", &StorageError{Class: FailurePermanent, Err: errors.New("too big")}, FailurePermanent},
		{"deadline", context.DeadlineExceeded, FailureTransient},
		{"unknown", errors.New("mystery"), FailureTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ClassifyFailure(tc.err))
		})
	}
}
