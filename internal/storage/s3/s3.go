package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/littleleg198602/MELODY4U/internal/storage"
)

// r2Domain is the native virtual-hosted domain for Cloudflare R2 endpoints.
const r2Domain = ".r2.cloudflarestorage.com"

// Config holds everything needed to talk to an S3-compatible store.
type Config struct {
	// Endpoint is the store endpoint, with or without scheme
	// (e.g. "https://<account>.r2.cloudflarestorage.com" or "minio.local:9000").
	Endpoint        string
	AccountID       string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
}

// Validate reports all missing fields at once so a misconfigured deployment
// fails with a single aggregated error instead of one field per restart.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Endpoint) == "" {
		errs = append(errs, errors.New("s3: endpoint is required"))
	}
	if strings.TrimSpace(c.Bucket) == "" {
		errs = append(errs, errors.New("s3: bucket is required"))
	}
	if strings.TrimSpace(c.AccessKeyID) == "" {
		errs = append(errs, errors.New("s3: access key id is required"))
	}
	if strings.TrimSpace(c.SecretAccessKey) == "" {
		errs = append(errs, errors.New("s3: secret access key is required"))
	}
	return errors.Join(errs...)
}

// Storage implements storage.Storage against an S3-compatible object store.
type Storage struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// New creates a new S3 storage client. The public URL base is derived once
// here; PublicURL stays a pure string concatenation afterwards.
func New(cfg Config) (*Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	host, secure := splitEndpoint(cfg.Endpoint, cfg.UseSSL)

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &Storage{
		client:     client,
		bucket:     cfg.Bucket,
		publicBase: derivePublicBase(host, secure, cfg.Bucket),
	}, nil
}

// splitEndpoint separates an optional scheme from the endpoint host and
// decides whether to use TLS.
func splitEndpoint(endpoint string, useSSL bool) (host string, secure bool) {
	endpoint = strings.TrimSpace(endpoint)
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	default:
		return strings.TrimSuffix(endpoint, "/"), useSSL
	}
}

// derivePublicBase composes the stable read URL base for the bucket. For an
// R2-native endpoint ("{account}.r2.cloudflarestorage.com") the bucket is
// addressed virtual-hosted as "{bucket}.{account}.r2.cloudflarestorage.com".
// Any other endpoint shape is used as-is, which keeps unrecognized but
// working proxies and CDN fronts functional.
func derivePublicBase(host string, secure bool, bucket string) string {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	if strings.HasSuffix(host, r2Domain) {
		return fmt.Sprintf("https://%s.%s", bucket, host)
	}
	return fmt.Sprintf("%s://%s", scheme, host)
}

// Upload writes the object under the given key.
func (s *Storage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	opts := minio.PutObjectOptions{ContentType: input.ContentType}
	if _, err := s.client.PutObject(ctx, s.bucket, input.Key, input.Data, input.Size, opts); err != nil {
		return nil, fmt.Errorf("put object %q: %w", input.Key, err)
	}
	return &storage.UploadResult{
		Key: input.Key,
		URL: s.PublicURL(input.Key),
	}, nil
}

// PresignGet issues a presigned GET URL valid for ttl, scoped to one key.
func (s *Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get %q: %w", key, err)
	}
	return u.String(), nil
}

// PublicURL returns the stable URL for a key. Pure function of the
// configuration captured at construction time; no network I/O.
func (s *Storage) PublicURL(key string) string {
	return s.publicBase + "/" + strings.TrimPrefix(key, "/")
}

// Delete removes the object under the given key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

// Ping verifies the bucket is reachable with the configured credentials.
func (s *Storage) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

var _ storage.Storage = (*Storage)(nil)
