package entity

import (
	"time"

	"gopkg.in/guregu/null.v3"
)

// Location is a named point of interest such as a shelter or a gauge.
type Location struct {
	ID             string     `json:"id"`
	Address        string     `json:"address"`
	Point          Point      `json:"point"`
	LocationType   string     `json:"location_type"`
	BaseElevation  null.Float `json:"base_elevation"`
	CreatedAt      time.Time  `json:"created_at"`
	DistanceMeters *float64   `json:"distance_m,omitempty"`
}

type LocationDraft struct {
	Address       string
	Point         Point
	LocationType  string
	BaseElevation null.Float
}

type LocationPatch struct {
	Address       Optional[string]  `json:"address"`
	Point         Optional[Point]   `json:"point"`
	LocationType  Optional[string]  `json:"location_type"`
	BaseElevation Optional[float64] `json:"base_elevation"`
}

func (p LocationPatch) Apply(l *Location) {
	if p.Address.Set {
		l.Address = p.Address.Value
	}
	if p.Point.Present() {
		l.Point = p.Point.Value
	}
	if p.LocationType.Set {
		l.LocationType = p.LocationType.Value
	}
	if p.BaseElevation.Set {
		l.BaseElevation = null.NewFloat(p.BaseElevation.Value, !p.BaseElevation.Null)
	}
}
