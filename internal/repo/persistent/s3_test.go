package persistent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/pkg/types/errs"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	putInput *s3.PutObjectInput
	putBody  []byte
	putErr   error

	objects map[string]*s3.GetObjectOutput
	getErr  error

	pages     []*s3.ListObjectsV2Output
	listCalls []*s3.ListObjectsV2Input
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}

	f.putInput = in
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.putBody = body

	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}

	out, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}

	return out, nil
}

// ListObjectsV2 serves f.pages in order, chained by continuation tokens.
func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listCalls = append(f.listCalls, in)

	i := len(f.listCalls) - 1
	if i >= len(f.pages) {
		return &s3.ListObjectsV2Output{}, nil
	}

	page := *f.pages[i]
	if i < len(f.pages)-1 {
		page.IsTruncated = aws.Bool(true)
		page.NextContinuationToken = aws.String(string(rune('a' + i)))
	}

	return &page, nil
}

func TestFrameRepoPut(t *testing.T) {
	client := &fakeS3{}
	r := NewFrameRepo(client, "frames-bucket")

	err := r.Put(context.Background(), "frames/11_14_2023/1-a.jpg", bytes.NewReader([]byte("jpeg")), "image/jpeg", 4)
	require.NoError(t, err)

	require.Equal(t, "frames-bucket", aws.ToString(client.putInput.Bucket))
	require.Equal(t, "frames/11_14_2023/1-a.jpg", aws.ToString(client.putInput.Key))
	require.Equal(t, "image/jpeg", aws.ToString(client.putInput.ContentType))
	require.EqualValues(t, 4, aws.ToInt64(client.putInput.ContentLength))
	require.Equal(t, []byte("jpeg"), client.putBody)
}

func TestFrameRepoPutUnknownSize(t *testing.T) {
	client := &fakeS3{}

	err := NewFrameRepo(client, "b").Put(context.Background(), "k", bytes.NewReader(nil), "application/octet-stream", -1)
	require.NoError(t, err)
	require.Nil(t, client.putInput.ContentLength)
}

func TestFrameRepoPutError(t *testing.T) {
	boom := errors.New("access denied")

	err := NewFrameRepo(&fakeS3{putErr: boom}, "b").Put(context.Background(), "k", bytes.NewReader(nil), "", 0)
	require.ErrorIs(t, err, boom)
}

func TestFrameRepoGet(t *testing.T) {
	client := &fakeS3{objects: map[string]*s3.GetObjectOutput{
		"frames/11_14_2023/1-a.jpg": {
			Body:          io.NopCloser(bytes.NewReader([]byte("jpeg"))),
			ContentType:   aws.String("image/jpeg"),
			ContentLength: aws.Int64(4),
		},
	}}
	r := NewFrameRepo(client, "b")

	obj, err := r.Get(context.Background(), "frames/11_14_2023/1-a.jpg")
	require.NoError(t, err)
	defer obj.Body.Close()

	require.Equal(t, "image/jpeg", obj.ContentType)
	require.EqualValues(t, 4, obj.Size)

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg"), body)

	_, err = r.Get(context.Background(), "frames/11_14_2023/missing.jpg")
	require.ErrorIs(t, err, errs.ErrFrameNotFound)
}

func TestFrameRepoGetBareNotFound(t *testing.T) {
	client := &fakeS3{getErr: &smithy.GenericAPIError{Code: "NotFound", Message: "Not Found"}}

	_, err := NewFrameRepo(client, "b").Get(context.Background(), "k")
	require.ErrorIs(t, err, errs.ErrFrameNotFound)
}

func TestFrameRepoListPrefixesPaginates(t *testing.T) {
	client := &fakeS3{pages: []*s3.ListObjectsV2Output{
		{CommonPrefixes: []types.CommonPrefix{{Prefix: aws.String("frames/11_13_2023/")}}},
		{CommonPrefixes: []types.CommonPrefix{{Prefix: aws.String("frames/11_14_2023/")}}},
	}}

	prefixes, err := NewFrameRepo(client, "b").ListPrefixes(context.Background(), "frames/", "/")
	require.NoError(t, err)
	require.Equal(t, []string{"frames/11_13_2023/", "frames/11_14_2023/"}, prefixes)

	require.Len(t, client.listCalls, 2)
	require.Equal(t, "frames/", aws.ToString(client.listCalls[0].Prefix))
	require.Equal(t, "/", aws.ToString(client.listCalls[0].Delimiter))
	require.Equal(t, "a", aws.ToString(client.listCalls[1].ContinuationToken))
}

func TestFrameRepoList(t *testing.T) {
	modified := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	client := &fakeS3{pages: []*s3.ListObjectsV2Output{
		{Contents: []types.Object{{Key: aws.String("frames/11_14_2023/1-a.jpg"), Size: aws.Int64(10), LastModified: aws.Time(modified)}}},
		{Contents: []types.Object{{Key: aws.String("frames/11_14_2023/2-b.jpg"), Size: aws.Int64(20), LastModified: aws.Time(modified)}}},
	}}

	frames, err := NewFrameRepo(client, "b").List(context.Background(), "frames/11_14_2023/")
	require.NoError(t, err)
	require.Equal(t, []entity.FrameInfo{
		{Key: "frames/11_14_2023/1-a.jpg", Size: 10, Uploaded: modified},
		{Key: "frames/11_14_2023/2-b.jpg", Size: 20, Uploaded: modified},
	}, frames)
}

func TestFrameRepoListEmptyDay(t *testing.T) {
	frames, err := NewFrameRepo(&fakeS3{}, "b").List(context.Background(), "frames/01_01_2000/")
	require.NoError(t, err)
	require.NotNil(t, frames)
	require.Empty(t, frames)
}
