package api

import (
	"github.com/andreyxaxa/Frame-Ingest/internal/controller/restapi/api/response"
	"github.com/gofiber/fiber/v2"
)

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Success: false, Error: msg})
}
