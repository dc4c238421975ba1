package persistent

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/pkg/types/errs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3API is the part of *s3.Client the frame repository needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type FrameRepo struct {
	client S3API
	bucket string
}

func NewFrameRepo(client S3API, bucket string) *FrameRepo {
	return &FrameRepo{client, bucket}
}

func (r *FrameRepo) Put(ctx context.Context, key string, data io.Reader, contentType string, size int64) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	_, err := r.client.PutObject(ctx, input)
	if err != nil {
		return fmt.Errorf("FrameRepo - Put - r.client.PutObject: %w", err)
	}

	return nil
}

func (r *FrameRepo) Get(ctx context.Context, key string) (*entity.FrameObject, error) {
	result, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("FrameRepo - Get: %w", errs.ErrFrameNotFound)
		}
		return nil, fmt.Errorf("FrameRepo - Get - r.client.GetObject: %w", err)
	}

	return &entity.FrameObject{
		Key:         key,
		ContentType: aws.ToString(result.ContentType),
		Size:        aws.ToInt64(result.ContentLength),
		Body:        result.Body,
	}, nil
}

// ListPrefixes returns the common prefixes directly under prefix.
func (r *FrameRepo) ListPrefixes(ctx context.Context, prefix, delimiter string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(r.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String(delimiter),
	})

	var prefixes []string

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("FrameRepo - ListPrefixes - paginator.NextPage: %w", err)
		}

		for _, cp := range page.CommonPrefixes {
			prefixes = append(prefixes, aws.ToString(cp.Prefix))
		}
	}

	return prefixes, nil
}

func (r *FrameRepo) List(ctx context.Context, prefix string) ([]entity.FrameInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(prefix),
	})

	frames := make([]entity.FrameInfo, 0)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("FrameRepo - List - paginator.NextPage: %w", err)
		}

		for _, obj := range page.Contents {
			frames = append(frames, entity.FrameInfo{
				Key:      aws.ToString(obj.Key),
				Size:     aws.ToInt64(obj.Size),
				Uploaded: aws.ToTime(obj.LastModified),
			})
		}
	}

	return frames, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	// some S3-compatible stores answer a missing key with a bare 404
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}

	return false
}
