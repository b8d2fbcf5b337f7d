package uploader

import (
	"bytes"
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/nsxbet/ddl-validator/pkg/config"
)

// GCSUploader uploads reports to Google Cloud Storage.
type GCSUploader struct {
	cfg    config.UploadConfig
	client *storage.Client
}

// NewGCS constructs an uploader from the upload configuration.
func NewGCS(ctx context.Context, cfg config.UploadConfig) (*GCSUploader, error) {
	opts := []option.ClientOption{}
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCS client")
	}
	return &GCSUploader{cfg: cfg, client: client}, nil
}

// Enabled reports whether GCS uploads are configured.
func (u *GCSUploader) Enabled() bool {
	return u.client != nil
}

// Upload stores document and returns its gs:// URL.
func (u *GCSUploader) Upload(ctx context.Context, id string, document []byte) (string, error) {
	if u.client == nil {
		return "", errors.New("gcs uploader is not initialized")
	}
	body, err := Encode(document, u.cfg.Compress)
	if err != nil {
		return "", err
	}
	key := ObjectKey(u.cfg.Prefix, id, u.cfg.Compress)

	writer := u.client.Bucket(u.cfg.Bucket).Object(key).NewWriter(ctx)
	writer.ContentType = "application/json"
	if u.cfg.Compress {
		writer.ContentEncoding = "zstd"
	}
	if _, err := io.Copy(writer, bytes.NewReader(body)); err != nil {
		_ = writer.Close()
		return "", errors.Wrapf(err, "failed to upload report to gs://%s/%s", u.cfg.Bucket, key)
	}
	if err := writer.Close(); err != nil {
		return "", errors.Wrapf(err, "failed to upload report to gs://%s/%s", u.cfg.Bucket, key)
	}
	return objectURL("gs", u.cfg.Bucket, key), nil
}

// Close releases the underlying client.
func (u *GCSUploader) Close() error {
	if u.client == nil {
		return nil
	}
	return u.client.Close()
}
