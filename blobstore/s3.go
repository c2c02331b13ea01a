// Package blobstore is the key-addressed binary storage behind photo
// uploads. Blobs are written under type-specific prefixes and resolve to
// publicly fetchable URLs.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"go.uber.org/zap"

	"github.com/gef-festival/photo-mixer/log"
)

// ProgressFunc receives byte-level progress for one upload. Reports are
// cumulative and non-decreasing; the final report equals the total.
type ProgressFunc func(transferred, total int64)

// Store is the object-storage surface the upload pipeline depends on.
type Store interface {
	Upload(ctx context.Context, key, contentType string, body []byte, progress ProgressFunc) (string, error)
	PublicURL(key string) string
}

type S3Store struct {
	uploader *s3manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3Store builds a store over the given session. baseURL overrides
// the public URL prefix (CDN in front of the bucket); when empty the
// virtual-hosted bucket URL is used.
func NewS3Store(sess *session.Session, bucket, baseURL string) *S3Store {
	return &S3Store{
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// Upload writes the blob via the resumable multipart uploader and
// returns its public URL. Progress callbacks fire as parts are read.
func (s *S3Store) Upload(ctx context.Context, key, contentType string, body []byte, progress ProgressFunc) (string, error) {
	total := int64(len(body))
	if progress != nil {
		progress(0, total)
	}

	reader := &progressReader{
		r:        bytes.NewReader(body),
		total:    total,
		progress: progress,
	}

	if _, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Body:        reader,
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	}); err != nil {
		return "", fmt.Errorf("couldn't upload object with key %s: %w", key, err)
	}

	if progress != nil {
		progress(total, total)
	}

	publicURL := s.PublicURL(key)
	log.Debug("blob uploaded", zap.String("key", key), zap.Int64("size", total), log.SourceBlobStore)

	return publicURL, nil
}

// PublicURL resolves the fetchable URL for a stored key.
func (s *S3Store) PublicURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, escaped)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, escaped)
}

// progressReader counts bytes handed to the uploader. The body is a
// plain reader, not a ReaderAt, so the uploader consumes it
// sequentially and the count never regresses.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	progress ProgressFunc
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.read += int64(n)
		if r.progress != nil {
			r.progress(r.read, r.total)
		}
	}
	return n, err
}
