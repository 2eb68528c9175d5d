package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mmaioli/projects/internal/config"
)

// minioStorage implements the Storage interface against an S3-compatible
// backend (MinIO, AWS S3, etc.). It is safe for concurrent use by multiple
// goroutines.
type minioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIO creates a new S3-compatible storage gateway backed by MinIO.
// It validates connectivity and ensures the bucket exists (creates it if
// missing). The client's HTTP transport is wrapped with otelhttp so every
// storage call carries a span.
func NewMinIO(cfg config.MinIOConfig) (Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ms := &minioStorage{client: cli, bucket: cfg.Bucket}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ensure bucket exists.
	exists, err := cli.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return ms, nil
}

// UploadFile pushes a staged local file to the bucket under the given key.
func (m *minioStorage) UploadFile(ctx context.Context, key, filePath string, opt UploadOptions) (ObjectInfo, error) {
	info, err := m.client.FPutObject(ctx, m.bucket, key, filePath, minio.PutObjectOptions{
		ContentType:  opt.ContentType,
		UserMetadata: opt.Metadata,
	})
	if err != nil {
		return ObjectInfo{}, classifyMinioErr(err)
	}
	return ObjectInfo{
		Key:          key,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  opt.ContentType,
		LastModified: time.Now(), // FPutObject's UploadInfo doesn't return LastModified
		Metadata:     opt.Metadata,
	}, nil
}

// GetStream opens an object's content as a ReadCloser along with basic info.
// The stat call happens before the reader is handed out so a missing key is
// reported as ErrObjectNotFound here rather than on the first read.
func (m *minioStorage) GetStream(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, classifyMinioErr(err)
	}
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, ObjectInfo{}, classifyMinioErr(err)
	}
	info := ObjectInfo{
		Key:          key,
		Size:         st.Size,
		ETag:         st.ETag,
		ContentType:  st.ContentType,
		LastModified: st.LastModified,
		Metadata:     st.UserMetadata,
	}
	return obj, info, nil
}

// ListFolder returns every object under the given key prefix, recursively.
func (m *minioStorage) ListFolder(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	objects := make([]ObjectInfo, 0)
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    normalizePrefix(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			ETag:         obj.ETag,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}
	return objects, nil
}

// RemoveFolder deletes every object under the given key prefix. The listing
// feeds RemoveObjects through a channel so deletion is batched server-side;
// an empty prefix completes without error.
//
// On the first removal error the derived context is cancelled so the listing
// producer stops, and both channels are drained to completion so neither the
// producer nor minio's result worker is left parked on a send.
func (m *minioStorage) RemoveFolder(ctx context.Context, prefix string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objectsCh := make(chan minio.ObjectInfo)
	listErrCh := make(chan error, 1)

	go func() {
		defer close(objectsCh)
		for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
			Prefix:    normalizePrefix(prefix),
			Recursive: true,
		}) {
			if obj.Err != nil {
				listErrCh <- obj.Err
				return
			}
			select {
			case objectsCh <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()

	var removeErr error
	for rmErr := range m.client.RemoveObjects(ctx, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rmErr.Err != nil && removeErr == nil {
			removeErr = fmt.Errorf("remove object %q: %w", rmErr.ObjectName, rmErr.Err)
			cancel()
		}
	}
	if removeErr != nil {
		return removeErr
	}

	select {
	case err := <-listErrCh:
		return fmt.Errorf("list objects for removal: %w", err)
	default:
		return nil
	}
}

// normalizePrefix ensures a non-empty prefix is slash-terminated so
// "components/abc" cannot match a sibling key like "components/abcdef/x".
func normalizePrefix(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

// classifyMinioErr maps the backend's missing-key responses onto
// ErrObjectNotFound while preserving the original error text.
func classifyMinioErr(err error) error {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.Code {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return fmt.Errorf("%w: %s", ErrObjectNotFound, resp.Code)
		}
	}
	return err
}
