package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"docgen/internal/render"
)

// UploadResult describes one successfully uploaded artifact. The render
// metadata passes through unchanged so the caller can persist it alongside
// the storage fields.
type UploadResult struct {
	StoragePath         string
	FileSize            int64
	SHA256Checksum      string
	Format              string
	ContentType         string
	FileName            string
	RenderingDurationMs int32
	PageCount           *int32
}

// ObjectStore uploads rendered documents to a GCS bucket and hands out
// short-lived download links. Safe for concurrent use.
type ObjectStore struct {
	client    *gcs.Client
	bucket    string
	urlExpiry time.Duration
	logger    zerolog.Logger
}

// NewObjectStore initialises the GCS client with ambient credentials.
func NewObjectStore(ctx context.Context, bucket string, urlExpiry time.Duration, logger zerolog.Logger) (*ObjectStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &ObjectStore{client: client, bucket: bucket, urlExpiry: urlExpiry, logger: logger}, nil
}

// Close releases the underlying client.
func (s *ObjectStore) Close() error {
	return s.client.Close()
}

// ObjectPath builds the deterministic object path
// `{tenant}/documents/{project}/{document}/{file}`.
func ObjectPath(tenantID uuid.UUID, projectID, documentID int64, fileName string) string {
	return fmt.Sprintf("%s/documents/%d/%d/%s", tenantID, projectID, documentID, fileName)
}

// Checksum returns the hex-encoded SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Upload writes one rendered file to the bucket. The checksum is computed
// over the exact bytes handed to storage, never recomputed from storage.
func (s *ObjectStore) Upload(ctx context.Context, tenantID uuid.UUID, projectID, documentID int64, file render.File) (UploadResult, error) {
	path := ObjectPath(tenantID, projectID, documentID, file.FileName)
	checksum := Checksum(file.Data)

	w := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	w.ContentType = file.ContentType
	if _, err := w.Write(file.Data); err != nil {
		_ = w.Close()
		return UploadResult{}, fmt.Errorf("upload %s to %s: %w", file.FileName, path, err)
	}
	if err := w.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("finalize upload of %s: %w", file.FileName, err)
	}

	s.logger.Info().
		Str("storage_path", path).
		Int("file_size", len(file.Data)).
		Str("sha256", checksum).
		Msg("storage: uploaded document artifact")

	return UploadResult{
		StoragePath:         path,
		FileSize:            int64(len(file.Data)),
		SHA256Checksum:      checksum,
		Format:              file.Format,
		ContentType:         file.ContentType,
		FileName:            file.FileName,
		RenderingDurationMs: file.RenderingDurationMs,
		PageCount:           file.PageCount,
	}, nil
}

// UploadAll uploads every rendered format for a document. The first failure
// aborts the remaining uploads.
func (s *ObjectStore) UploadAll(ctx context.Context, tenantID uuid.UUID, projectID, documentID int64, files []render.File) ([]UploadResult, error) {
	results := make([]UploadResult, 0, len(files))
	for _, file := range files {
		result, err := s.Upload(ctx, tenantID, projectID, documentID, file)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// SignedDownloadURL produces a time-limited GET link that forces an
// attachment download under the given file name.
func (s *ObjectStore) SignedDownloadURL(path, fileName string) (string, error) {
	opts := &gcs.SignedURLOptions{
		Scheme:  gcs.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(s.urlExpiry),
		QueryParameters: url.Values{
			"response-content-disposition": []string{fmt.Sprintf("attachment; filename=%q", fileName)},
		},
	}
	signed, err := s.client.Bucket(s.bucket).SignedURL(path, opts)
	if err != nil {
		return "", fmt.Errorf("sign url for %s: %w", path, err)
	}
	return signed, nil
}

// Delete removes a single object.
func (s *ObjectStore) Delete(ctx context.Context, path string) error {
	if err := s.client.Bucket(s.bucket).Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %s: %w", path, err)
	}
	s.logger.Info().Str("storage_path", path).Msg("storage: deleted object")
	return nil
}

// DeleteAll removes the given objects best-effort. A failure on one object
// is logged and does not abort the rest; orphaned storage is recoverable by
// reconciliation, a stuck deletion loop is not.
func (s *ObjectStore) DeleteAll(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := s.Delete(ctx, path); err != nil {
			s.logger.Warn().Err(err).Str("storage_path", path).Msg("storage: delete failed, continuing")
		}
	}
}
