package api

import (
	"github.com/andreyxaxa/Frame-Ingest/internal/controller/restapi/api/response"
	"github.com/gofiber/fiber/v2"
)

// @Summary 	Health check
// @Tags 		service
// @Produce 	json
// @Success 	200 {object} response.Health
// @Router 		/api/health [get]
func (r *API) health(ctx *fiber.Ctx) error {
	return ctx.JSON(response.Health{Status: "ok"})
}
