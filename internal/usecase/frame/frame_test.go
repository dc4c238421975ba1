package frame

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/dto"
	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure/metrics"
	"github.com/andreyxaxa/Frame-Ingest/pkg/framekey"
	"github.com/andreyxaxa/Frame-Ingest/pkg/logger"
	"github.com/andreyxaxa/Frame-Ingest/pkg/types/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2023-11-14T22:13:20Z is 17:13 on 11/14 in New York.
var fixedNow = time.UnixMilli(1700000000000)

type putCall struct {
	key         string
	data        []byte
	contentType string
	size        int64
}

type fakeFrameRepo struct {
	puts   []putCall
	putErr error

	prefixes []string
	frames   []entity.FrameInfo
	listed   []string
}

func (r *fakeFrameRepo) Put(_ context.Context, key string, data io.Reader, contentType string, size int64) error {
	if r.putErr != nil {
		return r.putErr
	}

	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	r.puts = append(r.puts, putCall{key, b, contentType, size})

	return nil
}

func (r *fakeFrameRepo) Get(_ context.Context, key string) (*entity.FrameObject, error) {
	for _, p := range r.puts {
		if p.key == key {
			return &entity.FrameObject{Key: key, ContentType: p.contentType, Body: io.NopCloser(bytes.NewReader(p.data))}, nil
		}
	}

	return nil, errs.ErrFrameNotFound
}

func (r *fakeFrameRepo) ListPrefixes(_ context.Context, prefix, delimiter string) ([]string, error) {
	r.listed = append(r.listed, prefix+"|"+delimiter)

	return r.prefixes, nil
}

func (r *fakeFrameRepo) List(_ context.Context, prefix string) ([]entity.FrameInfo, error) {
	r.listed = append(r.listed, prefix)

	if r.frames != nil {
		return r.frames, nil
	}

	frames := []entity.FrameInfo{}
	for _, p := range r.puts {
		if strings.HasPrefix(p.key, prefix) {
			frames = append(frames, entity.FrameInfo{Key: p.key, Size: p.size})
		}
	}

	return frames, nil
}

type fakePublisher struct {
	jobs   []entity.FrameJob
	result entity.PublishResult
}

func (p *fakePublisher) Publish(_ context.Context, job entity.FrameJob) entity.PublishResult {
	p.jobs = append(p.jobs, job)

	return p.result
}

func (p *fakePublisher) Close() error { return nil }

type fakeReconciler struct {
	jobs   []entity.FrameJob
	causes []error
	err    error
}

func (r *fakeReconciler) Record(_ context.Context, job entity.FrameJob, cause error) error {
	r.jobs = append(r.jobs, job)
	r.causes = append(r.causes, cause)

	return r.err
}

type fixture struct {
	uc         *FrameUseCase
	repo       *fakeFrameRepo
	publisher  *fakePublisher
	reconciler *fakeReconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	keys, err := framekey.New(framekey.ShortID(func() string { return "a1b2c3d4" }))
	require.NoError(t, err)

	f := &fixture{
		repo:       &fakeFrameRepo{},
		publisher:  &fakePublisher{},
		reconciler: &fakeReconciler{},
	}

	var m *metrics.Prometheus
	f.uc = New(f.repo, f.publisher, f.reconciler, keys, m, logger.Nop())
	f.uc.now = func() time.Time { return fixedNow }

	return f
}

func TestIngestMultipart(t *testing.T) {
	f := newFixture(t)

	up, err := f.uc.Ingest(context.Background(), dto.FrameUpload{
		Data:        bytes.NewReader([]byte("jpeg-bytes")),
		Size:        10,
		Filename:    "frame.jpg",
		ContentType: "image/jpeg",
		LotID:       "3",
		Multipart:   true,
	})
	require.NoError(t, err)

	const key = "frames/11_14_2023/1700000000000-frame.jpg"
	assert.Equal(t, key, up.Key)
	assert.True(t, up.Enqueued())

	require.Len(t, f.repo.puts, 1)
	assert.Equal(t, putCall{key, []byte("jpeg-bytes"), "image/jpeg", 10}, f.repo.puts[0])

	require.Len(t, f.publisher.jobs, 1)
	assert.Equal(t, entity.FrameJob{
		Key:         key,
		LotID:       "3",
		UploadedAt:  1700000000000,
		ContentType: "image/jpeg",
	}, f.publisher.jobs[0])

	assert.Empty(t, f.reconciler.jobs)
}

func TestIngestRawBodyDefaults(t *testing.T) {
	f := newFixture(t)

	up, err := f.uc.Ingest(context.Background(), dto.FrameUpload{
		Data:        bytes.NewReader([]byte{0xff, 0xd8}),
		Size:        2,
		ContentType: "application/octet-stream",
	})
	require.NoError(t, err)

	assert.Equal(t, "frames/11_14_2023/1700000000000-a1b2c3d4-frame-1700000000000", up.Key)
	assert.Equal(t, "application/octet-stream", up.ContentType)
	assert.Equal(t, entity.LotID("1"), f.publisher.jobs[0].LotID)
}

func TestIngestRawBodyInfersContentType(t *testing.T) {
	f := newFixture(t)

	up, err := f.uc.Ingest(context.Background(), dto.FrameUpload{
		Data:     bytes.NewReader([]byte{0x89, 'P', 'N', 'G'}),
		Size:     4,
		Filename: "cam7.PNG",
	})
	require.NoError(t, err)

	assert.Equal(t, "frames/11_14_2023/1700000000000-a1b2c3d4-cam7.PNG", up.Key)
	assert.Equal(t, "image/png", up.ContentType)
	assert.Equal(t, "image/png", f.publisher.jobs[0].ContentType)
}

func TestIngestEmptyFrame(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Ingest(context.Background(), dto.FrameUpload{Data: bytes.NewReader(nil)})
	require.ErrorIs(t, err, errs.ErrEmptyFrame)
	assert.Empty(t, f.repo.puts)
	assert.Empty(t, f.publisher.jobs)
}

func TestIngestStoreFailureSkipsPublish(t *testing.T) {
	f := newFixture(t)
	f.repo.putErr = errors.New("bucket unavailable")

	_, err := f.uc.Ingest(context.Background(), dto.FrameUpload{
		Data: bytes.NewReader([]byte("x")),
		Size: 1,
	})
	require.ErrorIs(t, err, f.repo.putErr)
	assert.Empty(t, f.publisher.jobs)
	assert.Empty(t, f.reconciler.jobs)
}

func TestIngestPublishFailureIsNotAnError(t *testing.T) {
	f := newFixture(t)
	cause := errors.New("dial tcp: connection refused")
	f.publisher.result = entity.PublishResult{Outcome: entity.TransportError, Err: cause}
	f.reconciler.err = errors.New("postgres down")

	up, err := f.uc.Ingest(context.Background(), dto.FrameUpload{
		Data:      bytes.NewReader([]byte("x")),
		Size:      1,
		Filename:  "a.jpg",
		Multipart: true,
	})
	require.NoError(t, err)
	assert.False(t, up.Enqueued())
	assert.Equal(t, entity.TransportError, up.Publish.Outcome)

	require.Len(t, f.repo.puts, 1)
	require.Len(t, f.reconciler.jobs, 1)
	assert.Equal(t, up.Key, f.reconciler.jobs[0].Key)
	assert.Equal(t, cause, f.reconciler.causes[0])
}

func TestGetFrame(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.GetFrame(context.Background(), "")
	require.ErrorIs(t, err, errs.ErrFrameNotFound)

	_, err = f.uc.GetFrame(context.Background(), "frames/11_14_2023/missing.jpg")
	require.ErrorIs(t, err, errs.ErrFrameNotFound)
}

func TestListDays(t *testing.T) {
	f := newFixture(t)
	f.repo.prefixes = []string{"frames/11_13_2023/", "frames/11_14_2023/"}

	days, err := f.uc.ListDays(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"11_13_2023", "11_14_2023"}, days)
	assert.Equal(t, []string{"frames/|/"}, f.repo.listed)
}

func TestListDaysEmpty(t *testing.T) {
	f := newFixture(t)

	days, err := f.uc.ListDays(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, days)
	assert.Empty(t, days)
}

func TestListFrames(t *testing.T) {
	f := newFixture(t)
	f.repo.frames = []entity.FrameInfo{{Key: "frames/11_14_2023/1700000000000-frame.jpg", Size: 10}}

	frames, err := f.uc.ListFrames(context.Background(), "11_14_2023")
	require.NoError(t, err)
	assert.Equal(t, f.repo.frames, frames)
	assert.Equal(t, []string{"frames/11_14_2023/"}, f.repo.listed)
}

func TestListFramesRejectsBadDay(t *testing.T) {
	f := newFixture(t)

	for _, day := range []string{"", "11_14_2023/extra", "../secrets"} {
		_, err := f.uc.ListFrames(context.Background(), day)
		require.ErrorIs(t, err, errs.ErrInvalidDay, day)
	}
	assert.Empty(t, f.repo.listed)
}

func TestIngestThenGetAndList(t *testing.T) {
	tests := []struct {
		name            string
		in              dto.FrameUpload
		wantContentType string
	}{
		{
			name: "multipart",
			in: dto.FrameUpload{
				Filename:    "frame.jpg",
				ContentType: "image/jpeg",
				Multipart:   true,
			},
			wantContentType: "image/jpeg",
		},
		{
			name:            "raw body",
			in:              dto.FrameUpload{Filename: "cam7.png"},
			wantContentType: "image/png",
		},
	}

	payload := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			in := tt.in
			in.Data = bytes.NewReader(payload)
			in.Size = int64(len(payload))

			up, err := f.uc.Ingest(ctx, in)
			require.NoError(t, err)

			obj, err := f.uc.GetFrame(ctx, up.Key)
			require.NoError(t, err)
			defer obj.Body.Close()

			got, err := io.ReadAll(obj.Body)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
			assert.Equal(t, tt.wantContentType, obj.ContentType)

			frames, err := f.uc.ListFrames(ctx, "11_14_2023")
			require.NoError(t, err)
			require.Len(t, frames, 1)
			assert.Equal(t, up.Key, frames[0].Key)
			assert.Equal(t, int64(len(payload)), frames[0].Size)
		})
	}
}
