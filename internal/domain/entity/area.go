package entity

import (
	"encoding/json"
	"time"

	"gopkg.in/guregu/null.v3"
)

const (
	MinRiskLevel = 1
	MaxRiskLevel = 5
)

// DamageArea is a polygon affected by an event.
type DamageArea struct {
	ID                  string    `json:"id"`
	EventID             string    `json:"event_id"`
	EventType           string    `json:"event_type,omitempty"`
	AreaName            string    `json:"area_name"`
	Geometry            string    `json:"geom"`
	RiskLevel           int       `json:"risk_level"`
	EstimatedHouseholds null.Int  `json:"estimated_households"`
	CreatedAt           time.Time `json:"created_at"`
	ReportsCount        int64     `json:"reports_count"`
}

// GeometryInput accepts a polygon either as WKT or as a GeoJSON geometry.
type GeometryInput struct {
	WKT     string          `json:"wkt,omitempty"`
	GeoJSON json.RawMessage `json:"geojson,omitempty"`
}

func (g GeometryInput) Empty() bool {
	return g.WKT == "" && len(g.GeoJSON) == 0
}

type AreaDraft struct {
	EventID             string
	AreaName            string
	Geometry            GeometryInput
	RiskLevel           int
	EstimatedHouseholds null.Int
}

type AreaPatch struct {
	AreaName            Optional[string]        `json:"area_name"`
	Geometry            Optional[GeometryInput] `json:"geometry"`
	RiskLevel           Optional[int]           `json:"risk_level"`
	EstimatedHouseholds Optional[int64]         `json:"estimated_households"`
}

type AreaFilter struct {
	EventID      string
	MinRiskLevel int
}
