package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// @Summary 	List lots
// @Tags 		parking
// @Produce 	json
// @Success 	200 {array}  entity.Lot
// @Failure 	500 {object} response.Error
// @Router 		/api/lot [get]
func (r *API) listLots(ctx *fiber.Ctx) error {
	lots, err := r.parking.Lots(ctx.UserContext())
	if err != nil {
		r.logger.Error(err, "restapi - api - listLots")

		return errorResponse(ctx, http.StatusInternalServerError, "database problems")
	}

	return ctx.JSON(lots)
}

// @Summary 	List spaces
// @Tags 		parking
// @Produce 	json
// @Success 	200 {array}  entity.Space
// @Failure 	500 {object} response.Error
// @Router 		/api/space [get]
func (r *API) listSpaces(ctx *fiber.Ctx) error {
	spaces, err := r.parking.Spaces(ctx.UserContext())
	if err != nil {
		r.logger.Error(err, "restapi - api - listSpaces")

		return errorResponse(ctx, http.StatusInternalServerError, "database problems")
	}

	return ctx.JSON(spaces)
}

// @Summary 	List spots
// @Description Spaces joined with their lot and mapped to a display status.
// @Tags 		parking
// @Produce 	json
// @Success 	200 {array}  entity.ParkingSpot
// @Failure 	500 {object} response.Error
// @Router 		/api/spots [get]
func (r *API) listSpots(ctx *fiber.Ctx) error {
	spots, err := r.parking.Spots(ctx.UserContext())
	if err != nil {
		r.logger.Error(err, "restapi - api - listSpots")

		return errorResponse(ctx, http.StatusInternalServerError, "database problems")
	}

	return ctx.JSON(spots)
}
