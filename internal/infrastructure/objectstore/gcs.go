// Package objectstore implements the durable blob-storage contract on
// Google Cloud Storage, with a local filesystem driver for development.
package objectstore

import (
	"context"
	"fmt"
	"hash/crc32"
	"io"

	"cloud.google.com/go/storage"
	"github.com/go-kratos/kratos/v2/log"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// GCSStore streams artifacts into a bucket and verifies each write against
// the server-side CRC32C before reporting success.
type GCSStore struct {
	bucket *storage.BucketHandle
	name   string
	log    *log.Helper
}

// NewGCSStore builds the store over an existing client.
func NewGCSStore(client *storage.Client, bucket string, logger log.Logger) *GCSStore {
	return &GCSStore{
		bucket: client.Bucket(bucket),
		name:   bucket,
		log:    log.NewHelper(logger),
	}
}

// Upload writes the object and confirms the stored checksum matches the
// bytes read locally. A mismatched object is deleted before the error is
// returned, so a verified-complete URI is the only success signal.
func (s *GCSStore) Upload(ctx context.Context, key string, r io.Reader) (string, error) {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ChunkSize = 16 << 20

	sum := crc32.New(castagnoli)
	if _, err := io.Copy(w, io.TeeReader(r, sum)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", s.name, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize gs://%s/%s: %w", s.name, key, err)
	}

	attrs := w.Attrs()
	if attrs == nil || attrs.CRC32C != sum.Sum32() {
		_ = s.bucket.Object(key).Delete(context.WithoutCancel(ctx))
		return "", fmt.Errorf("integrity check failed for gs://%s/%s", s.name, key)
	}

	uri := fmt.Sprintf("gs://%s/%s", s.name, key)
	s.log.Infof("object stored: uri=%s bytes=%d", uri, attrs.Size)
	return uri, nil
}
