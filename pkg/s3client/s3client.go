package s3client

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cenkalti/backoff/v4"
)

const (
	_defaultConnAttempts  = 10
	_defaultConnTimeout   = time.Second
	_defaultRegion        = "auto"
	_defaultRetryAttempts = 3
)

// S3Client holds an *s3.Client that has already reached the store once.
type S3Client struct {
	connAttempts  int
	connTimeout   time.Duration
	retryAttempts int

	endpoint     string
	region       string
	accessKey    string
	secretKey    string
	bucket       string
	usePathStyle bool

	Client *s3.Client
}

func New(ctx context.Context, endpoint, accessKey, secretKey string, opts ...Option) (*S3Client, error) {
	s3c := &S3Client{
		connAttempts:  _defaultConnAttempts,
		connTimeout:   _defaultConnTimeout,
		retryAttempts: _defaultRetryAttempts,
		region:        _defaultRegion,
		endpoint:      endpoint,
		accessKey:     accessKey,
		secretKey:     secretKey,
		usePathStyle:  true,
	}

	for _, opt := range opts {
		opt(s3c)
	}

	attempts := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s3c.connTimeout), uint64(max(s3c.connAttempts-1, 0))),
		ctx,
	)

	err := backoff.RetryNotify(func() error {
		attempts++
		return s3c.connect(ctx)
	}, policy, func(err error, _ time.Duration) {
		log.Printf("S3 is trying to connect, attempts left: %d: %s", s3c.connAttempts-attempts, err)
	})
	if err != nil {
		return nil, fmt.Errorf("S3Client - New - after %d attempts: %w", attempts, err)
	}

	return s3c, nil
}

func (s *S3Client) connect(ctx context.Context) error {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(s.region),
		config.WithRetryMaxAttempts(s.retryAttempts),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.accessKey, s.secretKey, ""),
		),
	)
	if err != nil {
		return fmt.Errorf("S3Client - config.LoadDefaultConfig: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = s.usePathStyle
		if s.endpoint != "" {
			o.BaseEndpoint = aws.String(s.endpoint)
		}
	})

	// bucket check when one is configured, credentials check otherwise
	if s.bucket != "" {
		_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
		if err != nil {
			return fmt.Errorf("S3Client - client.HeadBucket %s: %w", s.bucket, err)
		}
	} else {
		_, err = client.ListBuckets(ctx, &s3.ListBucketsInput{})
		if err != nil {
			return fmt.Errorf("S3Client - client.ListBuckets: %w", err)
		}
	}

	s.Client = client

	return nil
}
