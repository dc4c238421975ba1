package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/andreyxaxa/Frame-Ingest/internal/controller/restapi/api/response"
	"github.com/andreyxaxa/Frame-Ingest/internal/dto"
	"github.com/andreyxaxa/Frame-Ingest/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

const getFramePath = "/api/get-frame/"

// @Summary  	Upload frame
// @Description Stores a frame under frames/<MM_DD_YYYY>/ and enqueues a processing job.
// @Description Accepts multipart/form-data with a "file" field or a raw body.
// @Tags 		frames
// @Accept 		mpfd,octet-stream,image/jpeg,image/png
// @Produce 	json
// @Security 	BearerAuth
// @Param 		lot_id 	 query 	  string false "Lot id" default(1)
// @Param 		filename query 	  string false "File name for raw uploads"
// @Param 		file 	 formData file 	 false "Frame (multipart)"
// @Success 	200 {object} response.Upload
// @Failure 	400 {object} response.Error "No file or empty body"
// @Failure 	401 {object} response.Failure
// @Failure 	500 {object} response.Error "Storage problems"
// @Router 		/api/upload-frame [post]
func (r *API) uploadFrame(ctx *fiber.Ctx) error {
	in := dto.FrameUpload{
		LotID: ctx.Query("lot_id"),
	}

	if isMultipart(ctx) {
		// 1. multipart: the file part carries name and type
		file, err := ctx.FormFile("file")
		if err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "no file provided")
		}

		f, err := file.Open()
		if err != nil {
			r.logger.Error(err, "restapi - api - uploadFrame - file.Open")

			return errorResponse(ctx, http.StatusInternalServerError, "problems with opening the file")
		}
		defer f.Close()

		in.Data = f
		in.Size = file.Size
		in.Filename = file.Filename
		in.ContentType = file.Header.Get(fiber.HeaderContentType)
		in.Multipart = true

		if in.Filename == "" {
			in.Filename = ctx.Query("filename")
		}
	} else {
		// 2. raw body
		body := ctx.Body()
		if len(body) == 0 {
			return errorResponse(ctx, http.StatusBadRequest, "empty body")
		}

		in.Data = bytes.NewReader(body)
		in.Size = int64(len(body))
		in.Filename = ctx.Query("filename")
		in.ContentType = ctx.Get(fiber.HeaderContentType)
	}

	up, err := r.frame.Ingest(ctx.UserContext(), in)
	if err != nil {
		if errors.Is(err, errs.ErrEmptyFrame) {
			return errorResponse(ctx, http.StatusBadRequest, "file is empty")
		}
		r.logger.Error(err, "restapi - api - uploadFrame")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.JSON(response.Upload{
		Success:  true,
		Key:      up.Key,
		URL:      getFramePath + up.Key,
		Enqueued: up.Enqueued(),
	})
}

// @Summary 	Get frame
// @Description Streams a stored frame. The key may be URL-encoded.
// @Tags 		frames
// @Produce 	image/jpeg,image/png,octet-stream
// @Security 	BearerAuth
// @Param 		key path string true "Frame key"
// @Success 	200 {file} 	 binary
// @Failure 	401 {object} response.Failure
// @Failure 	404 {object} response.Failure "Not found"
// @Failure 	500 {object} response.Error "Storage problems"
// @Router 		/api/get-frame/{key} [get]
func (r *API) getFrame(ctx *fiber.Ctx) error {
	key, err := url.PathUnescape(ctx.Params("*"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid key")
	}

	obj, err := r.frame.GetFrame(ctx.UserContext(), key)
	if err != nil {
		if errors.Is(err, errs.ErrFrameNotFound) {
			return ctx.Status(http.StatusNotFound).JSON(response.Failure{Error: "Not found"})
		}
		r.logger.Error(err, "restapi - api - getFrame")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	if obj.ContentType != "" {
		ctx.Set(fiber.HeaderContentType, obj.ContentType)
	}

	if obj.Size > 0 {
		return ctx.SendStream(obj.Body, int(obj.Size))
	}

	return ctx.SendStream(obj.Body)
}

// @Summary 	List days
// @Description Day buckets that hold at least one frame.
// @Tags 		frames
// @Produce 	json
// @Security 	BearerAuth
// @Success 	200 {object} response.Days
// @Failure 	401 {object} response.Failure
// @Failure 	500 {object} response.Error
// @Router 		/api/list-days [get]
func (r *API) listDays(ctx *fiber.Ctx) error {
	days, err := r.frame.ListDays(ctx.UserContext())
	if err != nil {
		r.logger.Error(err, "restapi - api - listDays")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	return ctx.JSON(response.Days{Success: true, Days: days})
}

// @Summary 	List frames
// @Description Frames stored under one day bucket.
// @Tags 		frames
// @Produce 	json
// @Security 	BearerAuth
// @Param 		day path string true "Day bucket, MM_DD_YYYY"
// @Success 	200 {object} response.Frames
// @Failure 	400 {object} response.Error "Invalid day"
// @Failure 	401 {object} response.Failure
// @Failure 	500 {object} response.Error
// @Router 		/api/list-frames/{day} [get]
func (r *API) listFrames(ctx *fiber.Ctx) error {
	day, err := url.PathUnescape(ctx.Params("day"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid day")
	}

	frames, err := r.frame.ListFrames(ctx.UserContext(), day)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidDay) {
			return errorResponse(ctx, http.StatusBadRequest, "invalid day")
		}
		r.logger.Error(err, "restapi - api - listFrames")

		return errorResponse(ctx, http.StatusInternalServerError, "storage problems")
	}

	resp := response.Frames{
		Success: true,
		Day:     day,
		Count:   len(frames),
		Frames:  make([]response.Frame, 0, len(frames)),
	}
	for _, f := range frames {
		resp.Frames = append(resp.Frames, response.Frame{
			Key:      f.Key,
			Size:     f.Size,
			Uploaded: f.Uploaded,
			URL:      getFramePath + f.Key,
		})
	}

	return ctx.JSON(resp)
}

func isMultipart(ctx *fiber.Ctx) bool {
	ct := strings.ToLower(string(ctx.Request().Header.ContentType()))

	return strings.HasPrefix(ct, fiber.MIMEMultipartForm)
}
