package entity

import (
	"fmt"
	"strings"
	"time"
)

type Lot struct {
	ID   string `json:"lot_id"`
	Name string `json:"lot_name"`
}

type SpaceCategory string

const (
	CategoryWhite SpaceCategory = "white"
	CategoryBlue  SpaceCategory = "blue"
	CategoryGreen SpaceCategory = "green"
)

type Space struct {
	ID       string        `json:"id"`
	LotID    string        `json:"lot_id"`
	Category SpaceCategory `json:"category"`
	Status   int           `json:"status"` // 1 occupied, 0 free
}

// SpotStatus is the display state of a parking space.
type SpotStatus string

const (
	SpotFree      SpotStatus = "free"
	SpotOccupied  SpotStatus = "occupied"
	SpotUncertain SpotStatus = "uncertain"
	// SpotOccluded is never derived from a stored status yet.
	SpotOccluded SpotStatus = "occluded"
)

var spotStatuses = []SpotStatus{SpotFree, SpotOccupied, SpotUncertain, SpotOccluded}

// SpotStatusFromDB maps the raw space status to its display state.
func SpotStatusFromDB(status int) SpotStatus {
	switch status {
	case 1:
		return SpotOccupied
	case 0:
		return SpotFree
	default:
		return SpotUncertain
	}
}

func SpotStatuses() []SpotStatus {
	out := make([]SpotStatus, len(spotStatuses))
	copy(out, spotStatuses)

	return out
}

func ParseSpotStatus(s string) (SpotStatus, error) {
	for _, st := range spotStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}

	return "", fmt.Errorf("unknown spot status %q", s)
}

// ParkingSpot is a space joined with its lot, as shown to operators.
type ParkingSpot struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	LotName     string        `json:"lot_name"`
	Category    SpaceCategory `json:"category"`
	Status      SpotStatus    `json:"status"`
	LastUpdated time.Time     `json:"last_updated"`
}
