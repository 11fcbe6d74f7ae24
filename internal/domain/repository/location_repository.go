package repository

import (
	"context"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
)

type LocationRepository interface {
	Create(ctx context.Context, location *entity.Location) error
	GetByID(ctx context.Context, id string) (*entity.Location, error)
	List(ctx context.Context, locationType string) ([]entity.Location, error)
	Update(ctx context.Context, location *entity.Location) error
	Delete(ctx context.Context, id string) error

	FindWithinRadius(ctx context.Context, center entity.Point, radiusMeters float64) ([]entity.Location, error)
	FindInBoundingBox(ctx context.Context, box entity.BoundingBox) ([]entity.Location, error)
	FindNearest(ctx context.Context, p entity.Point, limit int) ([]entity.Location, error)
}

type HistoricalRepository interface {
	Create(ctx context.Context, data *entity.HistoricalData) error
	GetByID(ctx context.Context, id string) (*entity.HistoricalData, error)
	List(ctx context.Context, filter entity.HistoricalFilter) ([]entity.HistoricalData, error)
	Update(ctx context.Context, data *entity.HistoricalData) error
	Delete(ctx context.Context, id string) error

	FindContaining(ctx context.Context, p entity.Point) ([]entity.HistoricalData, error)
	FindIntersecting(ctx context.Context, box entity.BoundingBox) ([]entity.HistoricalData, error)
}
