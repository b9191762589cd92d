package objectstore

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	key  string
	body string
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, _ := io.ReadAll(in.Body)
	f.key = aws.ToString(in.Key)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func testConfig() *Config {
	return &Config{
		Region:          "eu-west-1",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Bucket:          "jobs-bucket",
		PresignTTL:      15 * time.Minute,
	}
}

func testStore() *S3Store {
	awsCfg := aws.Config{
		Region:      "eu-west-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}
	return NewS3StoreFromConfig(awsCfg, testConfig())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "uploads/7/report.pdf", Key(7, "report.pdf"))
	assert.Equal(t, "uploads/7/passwd", Key(7, "../../etc/passwd"))
}

func TestS3Store_URLFor(t *testing.T) {
	s := testStore()

	url, err := s.URLFor(context.Background(), "uploads/7/report.pdf")
	require.NoError(t, err)

	assert.Contains(t, url, "jobs-bucket")
	assert.Contains(t, url, "uploads/7/report.pdf")
	assert.Contains(t, url, "X-Amz-Signature=")
	assert.Contains(t, url, "X-Amz-Expires=900")
}

func TestS3Store_Put(t *testing.T) {
	s := testStore()
	fake := &fakePutter{}
	s.client = fake

	err := s.Put(context.Background(), "uploads/1/a.txt", strings.NewReader("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, "uploads/1/a.txt", fake.key)
	assert.Equal(t, "hello", fake.body)

	s.client = &fakePutter{err: errors.New("access denied")}
	err = s.Put(context.Background(), "uploads/1/a.txt", strings.NewReader("hello"), 5)
	assert.ErrorContains(t, err, "put s3://jobs-bucket/uploads/1/a.txt")
}

func TestLoadConfigFromEnv(t *testing.T) {
	original := envProcess
	defer func() { envProcess = original }()

	envProcess = func(ctx context.Context, v any, mus ...envconfig.Mutator) error {
		cfg := v.(*Config)
		*cfg = *testConfig()
		cfg.Bucket = ""
		cfg.SecretAccessKey = ""
		return nil
	}

	_, err := LoadConfigFromEnv(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(),
		"AWS_STORAGE_BUCKET_NAME is required; AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
}
