package repository

import (
	"context"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
)

// GeometryValidator asks the database whether a WKT geometry is usable.
type GeometryValidator interface {
	ValidatePolygon(ctx context.Context, wkt string) error
}

type AreaRepository interface {
	Create(ctx context.Context, area *entity.DamageArea) error
	GetByID(ctx context.Context, id string) (*entity.DamageArea, error)
	List(ctx context.Context, filter entity.AreaFilter) ([]entity.DamageArea, error)
	Update(ctx context.Context, area *entity.DamageArea) error
	Delete(ctx context.Context, id string) error

	// FindContaining returns the areas covering p, highest risk first.
	FindContaining(ctx context.Context, p entity.Point) ([]entity.DamageArea, error)
	FindIntersecting(ctx context.Context, box entity.BoundingBox) ([]entity.DamageArea, error)
}
