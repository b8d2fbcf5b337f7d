package uploader

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/ddl-validator/pkg/config"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, f.err
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix     string
		compressed bool
		want       string
	}{
		{"", false, "abc.json"},
		{"reports", false, "reports/abc.json"},
		{"/reports/ddl/", true, "reports/ddl/abc.json.zst"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ObjectKey(tt.prefix, "abc", tt.compressed))
		})
	}
}

func TestS3Upload(t *testing.T) {
	client := &fakeS3{}
	u := NewS3WithClient(config.UploadConfig{Provider: "s3", Bucket: "audits", Prefix: "ddl"}, client)
	require.True(t, u.Enabled())

	url, err := u.Upload(context.Background(), "0190-id", []byte(`{"overall_status":"PASS"}`))
	require.NoError(t, err)
	assert.Equal(t, "s3://audits/ddl/0190-id.json", url)
	assert.Equal(t, "ddl/0190-id.json", aws.ToString(client.input.Key))
	assert.Nil(t, client.input.ContentEncoding)
	assert.JSONEq(t, `{"overall_status":"PASS"}`, string(client.body))
}

func TestS3UploadCompressed(t *testing.T) {
	client := &fakeS3{}
	u := NewS3WithClient(config.UploadConfig{Bucket: "audits", Compress: true}, client)

	url, err := u.Upload(context.Background(), "id", []byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "s3://audits/id.json.zst", url)
	assert.Equal(t, "zstd", aws.ToString(client.input.ContentEncoding))

	decoder, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer decoder.Close()
	plain, err := decoder.DecodeAll(client.body, nil)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(plain))
}

func TestS3UploadError(t *testing.T) {
	u := NewS3WithClient(config.UploadConfig{Bucket: "audits"}, &fakeS3{err: errors.New("access denied")})
	_, err := u.Upload(context.Background(), "id", []byte("{}"))
	assert.ErrorContains(t, err, "access denied")
}

func TestNew(t *testing.T) {
	u, err := New(context.Background(), config.UploadConfig{})
	require.NoError(t, err)
	assert.False(t, u.Enabled())
	url, err := u.Upload(context.Background(), "id", nil)
	require.NoError(t, err)
	assert.Empty(t, url)

	_, err = New(context.Background(), config.UploadConfig{Provider: "ftp"})
	assert.ErrorContains(t, err, "unsupported upload provider")
}
