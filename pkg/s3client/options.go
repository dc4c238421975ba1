package s3client

import "time"

type Option func(c *S3Client)

func ConnAttempts(attempts int) Option {
	return func(c *S3Client) {
		if attempts > 0 {
			c.connAttempts = attempts
		}
	}
}

// ConnTimeout is the pause between connection attempts.
func ConnTimeout(timeout time.Duration) Option {
	return func(c *S3Client) {
		c.connTimeout = timeout
	}
}

// RetryAttempts caps SDK-level retries of a single request.
func RetryAttempts(attempts int) Option {
	return func(c *S3Client) {
		if attempts > 0 {
			c.retryAttempts = attempts
		}
	}
}

func Region(region string) Option {
	return func(c *S3Client) {
		if region != "" {
			c.region = region
		}
	}
}

func UsePathStyle(use bool) Option {
	return func(c *S3Client) {
		c.usePathStyle = use
	}
}

// Bucket makes the connection check verify that bucket is reachable.
func Bucket(bucket string) Option {
	return func(c *S3Client) {
		c.bucket = bucket
	}
}
