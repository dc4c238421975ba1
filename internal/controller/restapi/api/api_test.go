package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/controller/restapi/middleware"
	"github.com/andreyxaxa/Frame-Ingest/internal/dto"
	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/pkg/logger"
	"github.com/andreyxaxa/Frame-Ingest/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const token = "s3cret"

type fakeFrames struct {
	ingested  *dto.FrameUpload
	data      []byte
	enqueued  bool
	ingestErr error

	objects map[string]string
	frames  []entity.FrameInfo
}

func (f *fakeFrames) Ingest(_ context.Context, in dto.FrameUpload) (*entity.Upload, error) {
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}

	data, err := io.ReadAll(in.Data)
	if err != nil {
		return nil, err
	}
	f.data = data
	f.ingested = &in

	res := entity.PublishResult{Outcome: entity.Published}
	if !f.enqueued {
		res = entity.PublishResult{Outcome: entity.TransportError, Err: errors.New("broker down")}
	}

	return &entity.Upload{
		Key:     "frames/11_14_2023/1700000000000-" + in.Filename,
		Publish: res,
	}, nil
}

func (f *fakeFrames) GetFrame(_ context.Context, key string) (*entity.FrameObject, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, errs.ErrFrameNotFound
	}

	return &entity.FrameObject{
		Key:         key,
		ContentType: "image/jpeg",
		Size:        int64(len(body)),
		Body:        io.NopCloser(strings.NewReader(body)),
	}, nil
}

func (f *fakeFrames) ListDays(context.Context) ([]string, error) {
	return []string{"11_13_2023", "11_14_2023"}, nil
}

func (f *fakeFrames) ListFrames(_ context.Context, day string) ([]entity.FrameInfo, error) {
	if day == "" || strings.Contains(day, "/") {
		return nil, errs.ErrInvalidDay
	}

	return f.frames, nil
}

type fakeParking struct{}

func (fakeParking) Lots(context.Context) ([]entity.Lot, error) {
	return []entity.Lot{{ID: "1", Name: "North"}}, nil
}

func (fakeParking) Spaces(context.Context) ([]entity.Space, error) {
	return []entity.Space{{ID: "A1", LotID: "1", Category: entity.CategoryBlue, Status: 1}}, nil
}

func (fakeParking) Spots(context.Context) ([]entity.ParkingSpot, error) {
	return nil, errors.New("db down")
}

type fakePassthrough struct {
	table   string
	id      string
	filters map[string]string
	limit   uint64
	values  map[string]any
	err     error
}

func (f *fakePassthrough) Query(_ context.Context, sql string, _ []any) ([]map[string]any, error) {
	return []map[string]any{{"sql": sql}}, f.err
}

func (f *fakePassthrough) List(_ context.Context, table string, filters map[string]string, limit uint64) ([]map[string]any, error) {
	f.table, f.filters, f.limit = table, filters, limit

	return []map[string]any{{"id": "A1"}}, f.err
}

func (f *fakePassthrough) Get(_ context.Context, table, id string) (map[string]any, error) {
	f.table, f.id = table, id

	return map[string]any{"id": id}, f.err
}

func (f *fakePassthrough) Create(_ context.Context, table string, values map[string]any) (map[string]any, error) {
	f.table, f.values = table, values

	return values, f.err
}

func (f *fakePassthrough) Update(_ context.Context, table, id string, values map[string]any) (map[string]any, error) {
	f.table, f.id, f.values = table, id, values

	return values, f.err
}

func (f *fakePassthrough) Delete(_ context.Context, table, id string) error {
	f.table, f.id = table, id

	return f.err
}

type staticSecret string

func (s staticSecret) Secret(context.Context) (string, error) { return string(s), nil }

func newTestApp(frames *fakeFrames, pt *fakePassthrough) *fiber.App {
	app := fiber.New()
	l := logger.Nop()
	NewRoutes(app, frames, fakeParking{}, pt, middleware.Auth(staticSecret(token), l), l)

	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, []byte) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, body
}

func authed(req *http.Request) *http.Request {
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return req
}

func TestHealth(t *testing.T) {
	code, body := do(t, newTestApp(&fakeFrames{}, &fakePassthrough{}), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestParkingRoutesArePublic(t *testing.T) {
	app := newTestApp(&fakeFrames{}, &fakePassthrough{})

	code, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/lot", nil))
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `[{"lot_id":"1","lot_name":"North"}]`, string(body))

	code, body = do(t, app, httptest.NewRequest(http.MethodGet, "/api/space", nil))
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `[{"id":"A1","lot_id":"1","category":"blue","status":1}]`, string(body))

	code, body = do(t, app, httptest.NewRequest(http.MethodGet, "/api/spots", nil))
	require.Equal(t, http.StatusInternalServerError, code)
	require.JSONEq(t, `{"success":false,"error":"database problems"}`, string(body))
}

func TestUploadRequiresAuth(t *testing.T) {
	frames := &fakeFrames{}
	req := httptest.NewRequest(http.MethodPost, "/api/upload-frame", strings.NewReader("jpeg"))

	code, body := do(t, newTestApp(frames, &fakePassthrough{}), req)

	require.Equal(t, http.StatusUnauthorized, code)
	require.JSONEq(t, `{"error":"Unauthorized"}`, string(body))
	require.Nil(t, frames.ingested)
}

func TestUploadRawBody(t *testing.T) {
	frames := &fakeFrames{enqueued: true}
	req := authed(httptest.NewRequest(http.MethodPost, "/api/upload-frame?lot_id=7&filename=cam.jpg", strings.NewReader("jpeg-bytes")))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)

	code, body := do(t, newTestApp(frames, &fakePassthrough{}), req)

	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{
		"success":true,
		"key":"frames/11_14_2023/1700000000000-cam.jpg",
		"url":"/api/get-frame/frames/11_14_2023/1700000000000-cam.jpg",
		"enqueued":true
	}`, string(body))

	require.NotNil(t, frames.ingested)
	assert.Equal(t, "7", frames.ingested.LotID)
	assert.Equal(t, "cam.jpg", frames.ingested.Filename)
	assert.Equal(t, fiber.MIMEOctetStream, frames.ingested.ContentType)
	assert.EqualValues(t, len("jpeg-bytes"), frames.ingested.Size)
	assert.False(t, frames.ingested.Multipart)
	assert.Equal(t, "jpeg-bytes", string(frames.data))
}

func TestUploadEmptyRawBody(t *testing.T) {
	frames := &fakeFrames{}
	req := authed(httptest.NewRequest(http.MethodPost, "/api/upload-frame", nil))

	code, _ := do(t, newTestApp(frames, &fakePassthrough{}), req)

	require.Equal(t, http.StatusBadRequest, code)
	require.Nil(t, frames.ingested)
}

func multipartRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := authed(httptest.NewRequest(http.MethodPost, "/api/upload-frame", &buf))
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())

	return req
}

func TestUploadMultipart(t *testing.T) {
	frames := &fakeFrames{}
	req := multipartRequest(t, "file", "lot.png", "image/png", []byte("png-bytes"))

	code, body := do(t, newTestApp(frames, &fakePassthrough{}), req)

	require.Equal(t, http.StatusOK, code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, false, resp["enqueued"])
	assert.Equal(t, "frames/11_14_2023/1700000000000-lot.png", resp["key"])

	require.NotNil(t, frames.ingested)
	assert.True(t, frames.ingested.Multipart)
	assert.Equal(t, "lot.png", frames.ingested.Filename)
	assert.Equal(t, "image/png", frames.ingested.ContentType)
	assert.Equal(t, "png-bytes", string(frames.data))
}

func TestUploadMultipartWithoutFile(t *testing.T) {
	frames := &fakeFrames{}
	req := multipartRequest(t, "other", "lot.png", "image/png", []byte("png-bytes"))

	code, body := do(t, newTestApp(frames, &fakePassthrough{}), req)

	require.Equal(t, http.StatusBadRequest, code)
	require.JSONEq(t, `{"success":false,"error":"no file provided"}`, string(body))
	require.Nil(t, frames.ingested)
}

func TestUploadStoreFailure(t *testing.T) {
	frames := &fakeFrames{ingestErr: errors.New("s3 down")}
	req := authed(httptest.NewRequest(http.MethodPost, "/api/upload-frame", strings.NewReader("x")))

	code, body := do(t, newTestApp(frames, &fakePassthrough{}), req)

	require.Equal(t, http.StatusInternalServerError, code)
	require.JSONEq(t, `{"success":false,"error":"storage problems"}`, string(body))
}

func TestGetFrame(t *testing.T) {
	frames := &fakeFrames{objects: map[string]string{"frames/11_14_2023/1700000000000-a b.jpg": "jpeg"}}
	app := newTestApp(frames, &fakePassthrough{})

	req := authed(httptest.NewRequest(http.MethodGet, "/api/get-frame/frames%2F11_14_2023%2F1700000000000-a%20b.jpg", nil))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/jpeg", resp.Header.Get(fiber.HeaderContentType))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "jpeg", string(body))

	code, body := do(t, app, authed(httptest.NewRequest(http.MethodGet, "/api/get-frame/frames/missing.jpg", nil)))
	require.Equal(t, http.StatusNotFound, code)
	require.JSONEq(t, `{"error":"Not found"}`, string(body))
}

func TestListDaysAndFrames(t *testing.T) {
	uploaded := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)
	frames := &fakeFrames{frames: []entity.FrameInfo{
		{Key: "frames/11_14_2023/1700000000000-frame.jpg", Size: 4, Uploaded: uploaded},
	}}
	app := newTestApp(frames, &fakePassthrough{})

	code, body := do(t, app, authed(httptest.NewRequest(http.MethodGet, "/api/list-days", nil)))
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"success":true,"days":["11_13_2023","11_14_2023"]}`, string(body))

	code, body = do(t, app, authed(httptest.NewRequest(http.MethodGet, "/api/list-frames/11_14_2023", nil)))
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{
		"success":true,
		"day":"11_14_2023",
		"count":1,
		"frames":[{
			"key":"frames/11_14_2023/1700000000000-frame.jpg",
			"size":4,
			"uploaded":"2023-11-14T22:13:20Z",
			"url":"/api/get-frame/frames/11_14_2023/1700000000000-frame.jpg"
		}]
	}`, string(body))

	code, _ = do(t, app, authed(httptest.NewRequest(http.MethodGet, "/api/list-frames/11_14_2023%2Fx", nil)))
	require.Equal(t, http.StatusBadRequest, code)
}

func TestRestRoutes(t *testing.T) {
	pt := &fakePassthrough{}
	app := newTestApp(&fakeFrames{}, pt)

	code, body := do(t, app, authed(httptest.NewRequest(http.MethodGet, "/rest/space?lot_id=1&limit=5", nil)))
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"success":true,"results":[{"id":"A1"}]}`, string(body))
	assert.Equal(t, "space", pt.table)
	assert.Equal(t, map[string]string{"lot_id": "1"}, pt.filters)
	assert.EqualValues(t, 5, pt.limit)

	code, _ = do(t, app, authed(httptest.NewRequest(http.MethodGet, "/rest/space/A1", nil)))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "A1", pt.id)

	req := authed(httptest.NewRequest(http.MethodPost, "/rest/lot", strings.NewReader(`{"lot_id":"2","lot_name":"South"}`)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	code, _ = do(t, app, req)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, map[string]any{"lot_id": "2", "lot_name": "South"}, pt.values)

	code, body = do(t, app, authed(httptest.NewRequest(http.MethodDelete, "/rest/lot/2", nil)))
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"success":true}`, string(body))

	code, _ = do(t, app, authed(httptest.NewRequest(http.MethodPut, "/rest/lot", strings.NewReader(`{}`))))
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, app, authed(httptest.NewRequest(http.MethodGet, "/rest/a/b/c", nil)))
	require.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, app, authed(httptest.NewRequest(http.MethodGet, "/rest/space?limit=many", nil)))
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/rest/space", nil))
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestRestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{errs.ErrInvalidIdentifier, http.StatusBadRequest},
		{errs.ErrRecordNotFound, http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := newTestApp(&fakeFrames{}, &fakePassthrough{err: tt.err})

			code, _ := do(t, app, authed(httptest.NewRequest(http.MethodGet, "/rest/space/A1", nil)))
			require.Equal(t, tt.code, code)
		})
	}
}

func TestQuery(t *testing.T) {
	app := newTestApp(&fakeFrames{}, &fakePassthrough{})

	req := authed(httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"SELECT 1","params":[]}`)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	code, body := do(t, app, req)
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"success":true,"results":[{"sql":"SELECT 1"}]}`, string(body))

	req = authed(httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{}`)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	code, body = do(t, app, req)
	require.Equal(t, http.StatusBadRequest, code)
	require.JSONEq(t, `{"success":false,"error":"Query is required"}`, string(body))
}
