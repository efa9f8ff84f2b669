// Package secrets resolves the extractor's authentication cookies from the
// configured source and materializes them to the cookies file.
package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"

	"github.com/go-kratos/kratos/v2/log"
)

// FileSource serves an operator-provisioned cookies file as-is.
type FileSource struct {
	path string
}

// NewFileSource builds a source over the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Resolve returns the cookies path when the file exists; a missing file
// means no cookies, not an error.
func (s *FileSource) Resolve(context.Context) (string, error) {
	if s.path == "" {
		return "", nil
	}
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("stat cookies file: %w", err)
	}
	return s.path, nil
}

// EnvSource materializes a cookie blob held in an environment variable into
// the cookies file. The blob is re-read on every resolve so a restarted
// sidecar refreshing the variable takes effect without caching.
type EnvSource struct {
	envVar string
	path   string
	log    *log.Helper
}

// NewEnvSource builds a source writing to path.
func NewEnvSource(envVar, path string, logger log.Logger) *EnvSource {
	return &EnvSource{envVar: envVar, path: path, log: log.NewHelper(logger)}
}

// Resolve writes the blob to the cookies file and returns its path. When
// the variable is unset it degrades to an existing on-disk file, if any.
func (s *EnvSource) Resolve(ctx context.Context) (string, error) {
	blob := os.Getenv(s.envVar)
	if blob == "" {
		s.log.WithContext(ctx).Warnf("cookie secret %s not set, trying existing file", s.envVar)
		if _, err := os.Stat(s.path); err == nil {
			return s.path, nil
		}
		return "", nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return "", fmt.Errorf("create cookies dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(blob), 0o600); err != nil {
		return "", fmt.Errorf("write cookies file: %w", err)
	}
	return s.path, nil
}

// NoneSource always resolves to no cookies.
type NoneSource struct{}

// Resolve implements the cookie source contract.
func (NoneSource) Resolve(context.Context) (string, error) { return "", nil }

// newSource builds the source selected by configuration.
func newSource(cfg config.Cookies, logger log.Logger) (interface {
	Resolve(context.Context) (string, error)
}, error) {
	switch cfg.Source {
	case "file":
		return NewFileSource(cfg.File), nil
	case "env":
		return NewEnvSource(cfg.EnvVar, cfg.File, logger), nil
	case "none":
		return NoneSource{}, nil
	default:
		return nil, fmt.Errorf("unknown cookie source %q", cfg.Source)
	}
}
