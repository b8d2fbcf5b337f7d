// Package uploader archives rendered reports to object storage.
package uploader

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/nsxbet/ddl-validator/pkg/config"
)

// Uploader stores one report document under a key derived from its ID.
type Uploader interface {
	Enabled() bool
	Upload(ctx context.Context, id string, document []byte) (string, error)
}

// NoopUploader is used when no provider is configured.
type NoopUploader struct{}

func (NoopUploader) Enabled() bool {
	return false
}

func (NoopUploader) Upload(context.Context, string, []byte) (string, error) {
	return "", nil
}

// New returns the uploader for cfg.Provider.
func New(ctx context.Context, cfg config.UploadConfig) (Uploader, error) {
	switch cfg.Provider {
	case "":
		return NoopUploader{}, nil
	case "s3":
		return NewS3(ctx, cfg)
	case "gcs":
		return NewGCS(ctx, cfg)
	default:
		return nil, errors.Errorf("unsupported upload provider: %s", cfg.Provider)
	}
}

// ObjectKey returns <prefix>/<id>.json, with a .zst suffix when compressed.
func ObjectKey(prefix, id string, compressed bool) string {
	key := id + ".json"
	if compressed {
		key += ".zst"
	}
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

// Encode compresses document with zstd when compress is set.
func Encode(document []byte, compress bool) ([]byte, error) {
	if !compress {
		return document, nil
	}
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create zstd writer")
	}
	if _, err := zw.Write(document); err != nil {
		_ = zw.Close()
		return nil, errors.Wrap(err, "failed to compress report")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to compress report")
	}
	return buf.Bytes(), nil
}

func objectURL(scheme, bucket, key string) string {
	return fmt.Sprintf("%s://%s/%s", scheme, bucket, key)
}
