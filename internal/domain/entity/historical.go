package entity

import (
	"time"

	"gopkg.in/guregu/null.v3"
)

// Alert levels follow the national flood warning scale; 0 means no alert was
// issued.
const (
	MinAlertLevel = 0
	MaxAlertLevel = 3
)

// HistoricalData records the impact of a past flood season.
type HistoricalData struct {
	ID            string      `json:"id"`
	Year          int         `json:"year"`
	AlertLevel    int         `json:"alert_level"`
	ImpactSummary string      `json:"impact_summary"`
	Geometry      null.String `json:"reference_geom"`
	CreatedAt     time.Time   `json:"created_at"`
}

type HistoricalDraft struct {
	Year          int
	AlertLevel    int
	ImpactSummary string
	Geometry      GeometryInput
}

type HistoricalPatch struct {
	Year          Optional[int]           `json:"year"`
	AlertLevel    Optional[int]           `json:"alert_level"`
	ImpactSummary Optional[string]        `json:"impact_summary"`
	Geometry      Optional[GeometryInput] `json:"reference_geom"`
}

type HistoricalFilter struct {
	Year       int
	AlertLevel int
	FromYear   int
	ToYear     int
}
