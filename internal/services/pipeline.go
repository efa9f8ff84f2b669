package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/models"

	"github.com/go-kratos/kratos/v2/log"
)

// JobProgress receives intermediate state transitions from the pipeline.
// *JobService satisfies it.
type JobProgress interface {
	MarkUploading(id string)
}

// PipelineService executes one owned job: resolve cookies, download into
// bounded scratch storage, stream the artifact to the durable store, clean
// up scratch on every exit.
type PipelineService struct {
	extractor Extractor
	blobs     BlobStore
	cookies   CookieSource
	cfg       config.Jobs
	scratch   *scratchTracker
	log       *log.Helper
}

// NewPipelineService builds the pipeline.
func NewPipelineService(extractor Extractor, blobs BlobStore, cookies CookieSource, cfg config.Jobs, logger log.Logger) (*PipelineService, error) {
	switch {
	case extractor == nil:
		return nil, errors.New("pipeline: extractor is required")
	case blobs == nil:
		return nil, errors.New("pipeline: blob store is required")
	case cookies == nil:
		return nil, errors.New("pipeline: cookie source is required")
	case cfg.ScratchQuota <= 0:
		return nil, errors.New("pipeline: scratch quota must be positive")
	}
	return &PipelineService{
		extractor: extractor,
		blobs:     blobs,
		cookies:   cookies,
		cfg:       cfg,
		scratch:   &scratchTracker{quota: cfg.ScratchQuota},
		log:       log.NewHelper(logger),
	}, nil
}

// Execute runs the full pipeline for an owned job and returns the durable
// storage URI. Errors carry a transient/permanent classification through
// ClassifyFailure.
func (p *PipelineService) Execute(ctx context.Context, job *models.Job, progress JobProgress) (string, error) {
	// Admission control happens before any bytes hit disk: each job reserves
	// its worker share of the quota up front, then the reservation is resized
	// to the artifact's actual size once the download lands. N workers can
	// never materialize more than the quota between them.
	estimate := p.jobShare()
	if err := p.scratch.reserve(estimate); err != nil {
		return "", err
	}
	reserved := estimate
	defer func() { p.scratch.release(reserved) }()

	// Cookies are resolved per invocation and never cached here. A missing
	// secret degrades to running without authentication.
	cookiesPath, err := p.cookies.Resolve(ctx)
	if err != nil {
		p.log.WithContext(ctx).Warnf("cookie resolve failed, continuing without auth: job=%s error=%v", job.ID, err)
		cookiesPath = ""
	}

	dir := filepath.Join(p.cfg.ScratchDir, job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &StorageError{Class: FailureTransient, Err: fmt.Errorf("create scratch dir: %w", err)}
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			p.log.Warnf("scratch cleanup failed: job=%s dir=%s error=%v", job.ID, dir, err)
		}
	}()

	dctx, cancel := context.WithTimeout(ctx, p.cfg.DownloadTimeout)
	defer cancel()
	artifact, err := p.extractor.Download(dctx, DownloadInput{
		VideoID:     job.VideoID,
		VideoURL:    job.VideoURL,
		DestDir:     dir,
		CookiesFile: cookiesPath,
	})
	if err != nil {
		return "", fmt.Errorf("download %s: %w", job.VideoID, err)
	}

	info, err := os.Stat(artifact)
	if err != nil {
		return "", &StorageError{Class: FailureTransient, Err: fmt.Errorf("stat artifact: %w", err)}
	}
	if err := p.scratch.resize(reserved, info.Size()); err != nil {
		return "", err
	}
	reserved = info.Size()

	progress.MarkUploading(job.ID)

	f, err := os.Open(artifact)
	if err != nil {
		return "", &StorageError{Class: FailureTransient, Err: fmt.Errorf("open artifact: %w", err)}
	}
	defer f.Close()

	uctx, cancel := context.WithTimeout(ctx, p.cfg.UploadTimeout)
	defer cancel()
	key := storageKey(job.VideoID, artifact)
	uri, err := p.blobs.Upload(uctx, key, f)
	if err != nil {
		return "", &StorageError{Class: FailureTransient, Err: fmt.Errorf("upload %s: %w", key, err)}
	}

	p.log.Infof("artifact stored: job=%s key=%s bytes=%d", job.ID, key, info.Size())
	return uri, nil
}

// storageKey derives the deterministic object key for a video artifact.
func storageKey(videoID, artifact string) string {
	return videoID + "/" + filepath.Base(artifact)
}

// jobShare is the scratch reservation charged before a download starts:
// the quota split across worker slots, so full occupancy stays within it.
func (p *PipelineService) jobShare() int64 {
	if p.cfg.Workers > 1 {
		return p.cfg.ScratchQuota / int64(p.cfg.Workers)
	}
	return p.cfg.ScratchQuota
}

// scratchTracker accounts scratch disk across concurrent jobs. An artifact
// bigger than the whole quota is a permanent failure; a quota momentarily
// consumed by other jobs is transient.
type scratchTracker struct {
	mu    sync.Mutex
	used  int64
	quota int64
}

func (t *scratchTracker) reserve(size int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if size > t.quota {
		return &StorageError{
			Class: FailurePermanent,
			Err:   fmt.Errorf("artifact size %d exceeds scratch quota %d", size, t.quota),
		}
	}
	if t.used+size > t.quota {
		return &StorageError{
			Class: FailureTransient,
			Err:   fmt.Errorf("scratch quota exhausted: used=%d size=%d quota=%d", t.used, size, t.quota),
		}
	}
	t.used += size
	return nil
}

// resize adjusts an existing reservation to the artifact's measured size.
// The old reservation stays held on failure; the caller's deferred release
// covers it.
func (t *scratchTracker) resize(old, size int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if size > t.quota {
		return &StorageError{
			Class: FailurePermanent,
			Err:   fmt.Errorf("artifact size %d exceeds scratch quota %d", size, t.quota),
		}
	}
	if t.used-old+size > t.quota {
		return &StorageError{
			Class: FailureTransient,
			Err:   fmt.Errorf("scratch quota exhausted: used=%d size=%d quota=%d", t.used-old, size, t.quota),
		}
	}
	t.used += size - old
	return nil
}

func (t *scratchTracker) release(size int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.used -= size
	if t.used < 0 {
		t.used = 0
	}
}
