package api

import (
	"github.com/andreyxaxa/Frame-Ingest/internal/usecase"
	"github.com/andreyxaxa/Frame-Ingest/pkg/logger"
)

type API struct {
	frame       usecase.FrameUseCase
	parking     usecase.ParkingUseCase
	passthrough usecase.PassthroughUseCase
	logger      logger.Interface
}
