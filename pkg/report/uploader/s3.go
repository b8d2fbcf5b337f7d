package uploader

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/nsxbet/ddl-validator/pkg/config"
)

// PutObjectAPI is the part of the S3 client the uploader uses.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader uploads reports to S3-compatible storage.
type S3Uploader struct {
	cfg    config.UploadConfig
	client PutObjectAPI
}

// NewS3 constructs an uploader from the upload configuration.
func NewS3(ctx context.Context, cfg config.UploadConfig) (*S3Uploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		opts = append(opts, awsconfig.WithCredentialsProvider(creds))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS configuration")
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{cfg: cfg, client: client}, nil
}

// NewS3WithClient constructs an uploader over an existing client.
func NewS3WithClient(cfg config.UploadConfig, client PutObjectAPI) *S3Uploader {
	return &S3Uploader{cfg: cfg, client: client}
}

// Enabled reports whether S3 uploads are configured.
func (u *S3Uploader) Enabled() bool {
	return u.client != nil
}

// Upload stores document and returns its s3:// URL.
func (u *S3Uploader) Upload(ctx context.Context, id string, document []byte) (string, error) {
	if u.client == nil {
		return "", errors.New("s3 uploader is not initialized")
	}
	body, err := Encode(document, u.cfg.Compress)
	if err != nil {
		return "", err
	}
	key := ObjectKey(u.cfg.Prefix, id, u.cfg.Compress)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String("application/json"),
	}
	if u.cfg.Compress {
		input.ContentEncoding = aws.String("zstd")
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", errors.Wrapf(err, "failed to upload report to s3://%s/%s", u.cfg.Bucket, key)
	}
	return objectURL("s3", u.cfg.Bucket, key), nil
}
