package repository

import (
	"context"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
)

// ReportRepository persists damage reports. GetByID returns nil, nil when the
// report does not exist; the write methods return ErrNotFound instead.
type ReportRepository interface {
	// Create inserts the report together with report.Assets in one transaction.
	Create(ctx context.Context, report *entity.Report) error
	GetByID(ctx context.Context, id string) (*entity.Report, error)
	List(ctx context.Context, filter entity.ReportFilter) ([]entity.Report, error)
	// UpdateFields writes the user-editable columns only: event_type,
	// description, image_url and damage_level.
	UpdateFields(ctx context.Context, report *entity.Report) error
	// UpdateVerification writes status, verified_by, verified_at and admin_note only.
	UpdateVerification(ctx context.Context, report *entity.Report) error
	// AssignArea places the report in areaID and its event.
	AssignArea(ctx context.Context, id, areaID, eventID string) error
	Delete(ctx context.Context, id string) error

	CountGroupedBy(ctx context.Context, field entity.GroupField) (map[string]int64, error)
	TotalEstimatedLossByEvent(ctx context.Context, eventID string) (int64, error)

	FindWithinRadius(ctx context.Context, center entity.Point, radiusMeters float64) ([]entity.Report, error)
	FindInBoundingBox(ctx context.Context, box entity.BoundingBox) ([]entity.Report, error)
	FindInArea(ctx context.Context, areaID string) ([]entity.Report, error)
	FindByCell(ctx context.Context, cell string) ([]entity.Report, error)
}

// AssetSummary aggregates assets of one type.
type AssetSummary struct {
	AssetType  string `json:"asset_type"`
	Count      int64  `json:"count"`
	TotalValue int64  `json:"total_value"`
}

type AssetRepository interface {
	Create(ctx context.Context, asset *entity.DamageAsset) error
	GetByID(ctx context.Context, id string) (*entity.DamageAsset, error)
	ListByReport(ctx context.Context, reportID string) ([]entity.DamageAsset, error)
	Delete(ctx context.Context, id string) error
	SummarizeByType(ctx context.Context) ([]AssetSummary, error)
}
