package restapi

import (
	"github.com/andreyxaxa/Frame-Ingest/config"
	"github.com/andreyxaxa/Frame-Ingest/internal/controller/restapi/api"
	"github.com/andreyxaxa/Frame-Ingest/internal/controller/restapi/middleware"
	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure"
	"github.com/andreyxaxa/Frame-Ingest/internal/usecase"
	"github.com/andreyxaxa/Frame-Ingest/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// @title Frame ingest
// @version 1.0.0
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func NewRouter(
	app *fiber.App,
	cfg *config.Config,
	frame usecase.FrameUseCase,
	parking usecase.ParkingUseCase,
	passthrough usecase.PassthroughUseCase,
	secrets infrastructure.SecretProvider,
	gatherer prometheus.Gatherer,
	l logger.Interface,
) {
	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Metrics
	if cfg.Metrics.Enabled && gatherer != nil {
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// Routers
	api.NewRoutes(app, frame, parking, passthrough, middleware.Auth(secrets, l), l)
}
