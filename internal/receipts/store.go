// Package receipts stores uploaded payment receipts in S3.
package receipts

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/usamabutt6800/mindwell-backend/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

// Store writes receipt files to an S3 bucket. The object key doubles as the
// handle handed back to callers for later deletion.
type Store struct {
	bucket   string
	baseURL  string
	s3Client S3API
	logger   *logging.Logger
}

// NewStore creates a receipt Store. baseURL overrides the public URL prefix,
// for CDN fronting or localstack; empty means the standard S3 URL form.
func NewStore(s3Client S3API, bucket, baseURL string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		bucket:   bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
		s3Client: s3Client,
		logger:   logger,
	}
}

// Enabled returns true if receipt storage is configured (bucket is set).
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// Upload writes data to the bucket under a fresh key and returns its public
// URL plus the key as a deletion handle.
func (s *Store) Upload(ctx context.Context, data []byte, contentType, folder string) (string, string, error) {
	if !s.Enabled() {
		return "", "", fmt.Errorf("receipts: store not configured")
	}
	ext, ok := extensions[contentType]
	if !ok {
		return "", "", fmt.Errorf("receipts: unsupported content type %q", contentType)
	}

	key := fmt.Sprintf("%s/%s%s", strings.Trim(folder, "/"), uuid.NewString(), ext)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("receipts: s3 put %s: %w", key, err)
	}

	s.logger.Info("stored receipt", "s3_key", key, "bytes", len(data), "content_type", contentType)
	return s.publicURL(key), key, nil
}

// Delete removes a previously uploaded receipt by its handle.
func (s *Store) Delete(ctx context.Context, handle string) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(handle),
	})
	if err != nil {
		return fmt.Errorf("receipts: s3 delete %s: %w", handle, err)
	}
	return nil
}

func (s *Store) publicURL(key string) string {
	if s.baseURL != "" {
		return s.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
}
