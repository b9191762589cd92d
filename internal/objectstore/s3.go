// Package objectstore puts uploaded files in S3 and hands out presigned
// download URLs for them.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Region          string        `env:"AWS_REGION,default=us-east-1"`
	AccessKeyID     string        `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"AWS_SECRET_ACCESS_KEY"`
	Bucket          string        `env:"AWS_STORAGE_BUCKET_NAME"`
	Endpoint        string        `env:"AWS_S3_ENDPOINT"`
	PathStyle       bool          `env:"AWS_S3_PATH_STYLE,default=false"`
	PresignTTL      time.Duration `env:"S3_PRESIGN_TTL,default=1h"`
}

// to help with testing
var envProcess = envconfig.Process

func LoadConfigFromEnv(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envProcess(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Region) == "" {
		errs = append(errs, "AWS_REGION is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		errs = append(errs, "AWS_STORAGE_BUCKET_NAME is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		errs = append(errs, "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}
	if cfg.PresignTTL <= 0 || cfg.PresignTTL > 7*24*time.Hour {
		errs = append(errs, "S3_PRESIGN_TTL must be between 0 and 7 days")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Key is the object key an upload_file job stores its file under.
func Key(jobID uint, fileName string) string {
	return fmt.Sprintf("uploads/%d/%s", jobID, path.Base(fileName))
}

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type S3Store struct {
	bucket  string
	ttl     time.Duration
	client  putter
	presign presigner
}

// NewS3Store builds a store from cfg. Static credentials are used when
// given; otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg *Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return NewS3StoreFromConfig(awsCfg, cfg), nil
}

func NewS3StoreFromConfig(awsCfg aws.Config, cfg *Config) *S3Store {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &S3Store{
		bucket:  cfg.Bucket,
		ttl:     cfg.PresignTTL,
		client:  client,
		presign: s3.NewPresignClient(client),
	}
}

func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return errors.Wrapf(err, "put s3://%s/%s", s.bucket, key)
	}
	return nil
}

// URLFor returns a presigned GET URL for key, valid for the configured TTL.
func (s *S3Store) URLFor(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", errors.Wrapf(err, "presign s3://%s/%s", s.bucket, key)
	}
	return req.URL, nil
}
