package entity

import (
	"time"

	"gopkg.in/guregu/null.v3"
)

// DamageAsset is a damaged item attached to a report.
type DamageAsset struct {
	ID             string    `json:"id"`
	ReportID       string    `json:"report_id"`
	AssetType      string    `json:"asset_type"`
	AssetName      string    `json:"asset_name"`
	Quantity       int       `json:"quantity"`
	Unit           string    `json:"unit"`
	EstimatedValue null.Int  `json:"estimated_value"`
	CreatedAt      time.Time `json:"created_at"`
}

type AssetDraft struct {
	AssetType      string
	AssetName      string
	Quantity       int
	Unit           string
	EstimatedValue null.Int
}
