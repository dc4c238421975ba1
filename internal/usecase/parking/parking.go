package parking

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/internal/repo"
)

type ParkingUseCase struct {
	lotRepo   repo.LotRepo
	spaceRepo repo.SpaceRepo

	now func() time.Time
}

func New(lotRepo repo.LotRepo, spaceRepo repo.SpaceRepo) *ParkingUseCase {
	return &ParkingUseCase{
		lotRepo:   lotRepo,
		spaceRepo: spaceRepo,
		now:       time.Now,
	}
}

func (uc *ParkingUseCase) Lots(ctx context.Context) ([]entity.Lot, error) {
	lots, err := uc.lotRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ParkingUseCase - Lots - uc.lotRepo.List: %w", err)
	}

	return lots, nil
}

func (uc *ParkingUseCase) Spaces(ctx context.Context) ([]entity.Space, error) {
	spaces, err := uc.spaceRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ParkingUseCase - Spaces - uc.spaceRepo.List: %w", err)
	}

	return spaces, nil
}

// Spots joins every space with its lot. A space whose lot is unknown shows
// the lot id in place of the name.
func (uc *ParkingUseCase) Spots(ctx context.Context) ([]entity.ParkingSpot, error) {
	lots, err := uc.lotRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ParkingUseCase - Spots - uc.lotRepo.List: %w", err)
	}

	spaces, err := uc.spaceRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ParkingUseCase - Spots - uc.spaceRepo.List: %w", err)
	}

	lotNames := make(map[string]string, len(lots))
	for _, l := range lots {
		lotNames[l.ID] = l.Name
	}

	now := uc.now()
	spots := make([]entity.ParkingSpot, 0, len(spaces))

	for _, s := range spaces {
		lotName, ok := lotNames[s.LotID]
		if !ok {
			lotName = s.LotID
		}

		spots = append(spots, entity.ParkingSpot{
			ID:          s.ID,
			Name:        s.ID,
			LotName:     lotName,
			Category:    s.Category,
			Status:      entity.SpotStatusFromDB(s.Status),
			LastUpdated: now,
		})
	}

	return spots, nil
}
