package api

import (
	"github.com/andreyxaxa/Frame-Ingest/internal/usecase"
	"github.com/andreyxaxa/Frame-Ingest/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

// NewRoutes registers the service routes on root. Handlers passed as auth
// guard every route that reads or writes frames or raw tables.
func NewRoutes(
	root fiber.Router,
	frame usecase.FrameUseCase,
	parking usecase.ParkingUseCase,
	passthrough usecase.PassthroughUseCase,
	auth fiber.Handler,
	l logger.Interface,
) {
	r := &API{frame: frame, parking: parking, passthrough: passthrough, logger: l}

	apiGroup := root.Group("/api")
	{
		// Public
		apiGroup.Get("/health", r.health)
		apiGroup.Get("/lot", r.listLots)
		apiGroup.Get("/space", r.listSpaces)
		apiGroup.Get("/spots", r.listSpots)

		// Frames
		apiGroup.Post("/upload-frame", auth, r.uploadFrame)
		apiGroup.Get("/get-frame/*", auth, r.getFrame)
		apiGroup.Get("/list-days", auth, r.listDays)
		apiGroup.Get("/list-frames/:day", auth, r.listFrames)
	}

	// Raw tables
	root.All("/rest/*", auth, r.rest)
	root.Post("/query", auth, r.query)
}
