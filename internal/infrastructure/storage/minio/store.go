// Package minio archives generated MOL blocks and depictions in an
// S3-compatible bucket.
package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/ToxInsight/internal/config"
	"github.com/turtacn/ToxInsight/internal/domain/molecule"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ToxInsight/pkg/errors"
)

const connectTimeout = 10 * time.Second

var ErrStoreClosed = errors.New(errors.ErrCodeServiceUnavailable, "artifact store is closed")

// MinIOAPI is the subset of *minio.Client the store needs.
type MinIOAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// Store implements molecule.ArtifactStore on a single bucket.
type Store struct {
	client  MinIOAPI
	cfg     config.StorageConfig
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	closed  atomic.Bool
}

var _ molecule.ArtifactStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithMetrics records upload failures.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore connects to the endpoint and creates the bucket if needed.
func NewStore(cfg config.StorageConfig, log logging.Logger, opts ...Option) (*Store, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.InvalidParam("storage endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	s, err := newStore(ctx, client, cfg, log, opts...)
	if err != nil {
		return nil, err
	}
	s.logger.Info("MinIO artifact store connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return s, nil
}

func newStore(ctx context.Context, client MinIOAPI, cfg config.StorageConfig, log logging.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	s := &Store{client: client, cfg: cfg, logger: log.Named("minio")}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureBucket creates the configured bucket when it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create bucket "+s.cfg.Bucket)
	}
	s.logger.Info("created bucket", logging.String("bucket", s.cfg.Bucket))
	return nil
}

// Put uploads data under key.
func (s *Store) Put(ctx context.Context, key, contentType string, data []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if key == "" {
		return errors.InvalidParam("object key is required")
	}
	start := time.Now()
	info, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		prometheus.RecordError(s.metrics, "minio", errors.ErrCodeExternalService.String())
		return errors.Wrap(err, errors.ErrCodeExternalService, "artifact upload failed").WithDetail(key)
	}
	s.logger.WithContext(ctx).Debug("artifact stored",
		logging.String("key", key),
		logging.Int64("size", info.Size),
		logging.Int64(logging.FieldDurationMS, time.Since(start).Milliseconds()))
	return nil
}

// PresignGet returns a time-limited download URL for key.
func (s *Store) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.cfg.PresignExpiry
	}
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, key, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "presign failed")
	}
	return u.String(), nil
}

// Name identifies the store in readiness reports.
func (s *Store) Name() string { return "storage" }

// Check verifies the endpoint answers and the bucket still exists.
func (s *Store) Check(ctx context.Context) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio unreachable")
	}
	if !exists {
		return errors.New(errors.ErrCodeServiceUnavailable, "bucket "+s.cfg.Bucket+" missing")
	}
	return nil
}

// Close marks the store closed. The minio client holds no persistent
// connections.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}

//Personal.AI order the ending
