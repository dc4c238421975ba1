package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/andreyxaxa/Frame-Ingest/internal/controller/restapi/api/response"
	"github.com/andreyxaxa/Frame-Ingest/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

type queryRequest struct {
	Query  string `json:"query"`
	Params []any  `json:"params"`
}

// @Summary 	Raw table access
// @Description GET /rest/{table} lists rows (query params are equality filters, limit caps the result),
// @Description GET /rest/{table}/{id} fetches one row, POST creates, PUT/PATCH update and DELETE removes by id.
// @Tags 		passthrough
// @Accept 		json
// @Produce 	json
// @Security 	BearerAuth
// @Param 		table path string true  "Table"
// @Param 		id 	  path string false "Row id"
// @Success 	200 {object} response.Rows
// @Success 	201 {object} response.Row
// @Failure 	400 {object} response.Error
// @Failure 	401 {object} response.Failure
// @Failure 	404 {object} response.Error
// @Failure 	405 {object} response.Error
// @Failure 	500 {object} response.Error
// @Router 		/rest/{table}/{id} [get]
func (r *API) rest(ctx *fiber.Ctx) error {
	table, id, ok := splitRestPath(ctx.Params("*"))
	if !ok {
		return errorResponse(ctx, http.StatusNotFound, "not found")
	}

	switch ctx.Method() {
	case fiber.MethodGet:
		if id != "" {
			row, err := r.passthrough.Get(ctx.UserContext(), table, id)
			if err != nil {
				return r.passthroughError(ctx, err, "rest - get")
			}

			return ctx.JSON(response.Row{Success: true, Result: row})
		}

		filters, limit, err := listParams(ctx)
		if err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "invalid limit")
		}

		rows, err := r.passthrough.List(ctx.UserContext(), table, filters, limit)
		if err != nil {
			return r.passthroughError(ctx, err, "rest - list")
		}

		return ctx.JSON(response.Rows{Success: true, Results: rows})

	case fiber.MethodPost:
		values, err := bodyValues(ctx)
		if err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
		}

		row, err := r.passthrough.Create(ctx.UserContext(), table, values)
		if err != nil {
			return r.passthroughError(ctx, err, "rest - create")
		}

		return ctx.Status(http.StatusCreated).JSON(response.Row{Success: true, Result: row})

	case fiber.MethodPut, fiber.MethodPatch:
		if id == "" {
			return errorResponse(ctx, http.StatusBadRequest, "id is required")
		}

		values, err := bodyValues(ctx)
		if err != nil {
			return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
		}

		row, err := r.passthrough.Update(ctx.UserContext(), table, id, values)
		if err != nil {
			return r.passthroughError(ctx, err, "rest - update")
		}

		return ctx.JSON(response.Row{Success: true, Result: row})

	case fiber.MethodDelete:
		if id == "" {
			return errorResponse(ctx, http.StatusBadRequest, "id is required")
		}

		err := r.passthrough.Delete(ctx.UserContext(), table, id)
		if err != nil {
			return r.passthroughError(ctx, err, "rest - delete")
		}

		return ctx.JSON(response.Deleted{Success: true})

	default:
		return errorResponse(ctx, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// @Summary 	Run SQL
// @Description Executes a parameterised statement and returns its rows.
// @Tags 		passthrough
// @Accept 		json
// @Produce 	json
// @Security 	BearerAuth
// @Param 		request body queryRequest true "Statement and positional params"
// @Success 	200 {object} response.Rows
// @Failure 	400 {object} response.Error "Query is required"
// @Failure 	401 {object} response.Failure
// @Failure 	500 {object} response.Error
// @Router 		/query [post]
func (r *API) query(ctx *fiber.Ctx) error {
	var req queryRequest

	err := ctx.BodyParser(&req)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Query) == "" {
		return errorResponse(ctx, http.StatusBadRequest, "Query is required")
	}

	rows, err := r.passthrough.Query(ctx.UserContext(), req.Query, req.Params)
	if err != nil {
		return r.passthroughError(ctx, err, "query")
	}

	return ctx.JSON(response.Rows{Success: true, Results: rows})
}

func (r *API) passthroughError(ctx *fiber.Ctx, err error, op string) error {
	switch {
	case errors.Is(err, errs.ErrInvalidIdentifier),
		errors.Is(err, errs.ErrEmptyValues),
		errors.Is(err, errs.ErrEmptyQuery):
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrRecordNotFound):
		return errorResponse(ctx, http.StatusNotFound, "not found")
	}

	r.logger.Error(err, "restapi - api - "+op)

	return errorResponse(ctx, http.StatusInternalServerError, err.Error())
}

// splitRestPath reads "table" or "table/id".
func splitRestPath(p string) (table, id string, ok bool) {
	p = strings.Trim(p, "/")
	if p == "" {
		return "", "", false
	}

	parts := strings.Split(p, "/")
	switch len(parts) {
	case 1:
		return parts[0], "", true
	case 2:
		return parts[0], parts[1], true
	default:
		return "", "", false
	}
}

func listParams(ctx *fiber.Ctx) (map[string]string, uint64, error) {
	filters := ctx.Queries()

	var limit uint64
	if raw, ok := filters["limit"]; ok {
		delete(filters, "limit")

		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, 0, err
		}
		limit = n
	}

	return filters, limit, nil
}

func bodyValues(ctx *fiber.Ctx) (map[string]any, error) {
	values := make(map[string]any)

	err := ctx.BodyParser(&values)
	if err != nil {
		return nil, err
	}

	return values, nil
}
