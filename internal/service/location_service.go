package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/apperr"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/geo"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	DefaultNearestLimit = 5
	MaxNearestLimit     = 100
)

type LocationService interface {
	CreateLocation(ctx context.Context, draft entity.LocationDraft) (*entity.Location, error)
	GetLocation(ctx context.Context, id string) (*entity.Location, error)
	ListLocations(ctx context.Context, locationType string) ([]entity.Location, error)
	UpdateLocation(ctx context.Context, id string, patch entity.LocationPatch) (*entity.Location, error)
	DeleteLocation(ctx context.Context, id string) error
	FindWithinRadius(ctx context.Context, center entity.Point, radiusMeters float64) ([]entity.Location, error)
	FindInBoundingBox(ctx context.Context, box entity.BoundingBox) ([]entity.Location, error)
	FindNearest(ctx context.Context, p entity.Point, limit int) ([]entity.Location, error)
}

type locationService struct {
	locations repository.LocationRepository
	clock     clockwork.Clock
}

func NewLocationService(locations repository.LocationRepository, clock clockwork.Clock) LocationService {
	return &locationService{locations: locations, clock: clock}
}

func (s *locationService) CreateLocation(ctx context.Context, draft entity.LocationDraft) (*entity.Location, error) {
	draft.LocationType = strings.TrimSpace(draft.LocationType)
	if draft.LocationType == "" {
		return nil, apperr.InvalidArgument("location_type is required")
	}
	if err := geo.ValidatePoint(draft.Point); err != nil {
		return nil, apperr.InvalidArgument("%s", err.Error())
	}

	location := &entity.Location{
		ID:            uuid.New().String(),
		Address:       strings.TrimSpace(draft.Address),
		Point:         draft.Point,
		LocationType:  draft.LocationType,
		BaseElevation: draft.BaseElevation,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.locations.Create(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to save location: %w", err)
	}
	return location, nil
}

func (s *locationService) GetLocation(ctx context.Context, id string) (*entity.Location, error) {
	location, err := s.locations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load location: %w", err)
	}
	if location == nil {
		return nil, apperr.NotFound("Location", id)
	}
	return location, nil
}

func (s *locationService) ListLocations(ctx context.Context, locationType string) ([]entity.Location, error) {
	return s.locations.List(ctx, strings.TrimSpace(locationType))
}

func (s *locationService) UpdateLocation(ctx context.Context, id string, patch entity.LocationPatch) (*entity.Location, error) {
	location, err := s.GetLocation(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.LocationType.Set && (patch.LocationType.Null || strings.TrimSpace(patch.LocationType.Value) == "") {
		return nil, apperr.InvalidArgument("location_type cannot be empty")
	}
	if patch.Point.Set {
		if patch.Point.Null {
			return nil, apperr.InvalidArgument("point cannot be null")
		}
		if err := geo.ValidatePoint(patch.Point.Value); err != nil {
			return nil, apperr.InvalidArgument("%s", err.Error())
		}
	}

	patch.Apply(location)
	location.DistanceMeters = nil
	if err := s.locations.Update(ctx, location); err != nil {
		return nil, translateRepoErr(err, "Location", id, "update location")
	}
	return location, nil
}

func (s *locationService) DeleteLocation(ctx context.Context, id string) error {
	if err := s.locations.Delete(ctx, id); err != nil {
		return translateRepoErr(err, "Location", id, "delete location")
	}
	return nil
}

func (s *locationService) FindWithinRadius(ctx context.Context, center entity.Point, radiusMeters float64) ([]entity.Location, error) {
	if radiusMeters == 0 {
		radiusMeters = geo.DefaultRadiusMeters
	}
	if err := geo.ValidatePoint(center); err != nil {
		return nil, apperr.InvalidArgument("%s", err.Error())
	}
	if err := geo.ValidateRadius(radiusMeters); err != nil {
		return nil, apperr.InvalidArgument("%s", err.Error())
	}
	return s.locations.FindWithinRadius(ctx, center, radiusMeters)
}

func (s *locationService) FindInBoundingBox(ctx context.Context, box entity.BoundingBox) ([]entity.Location, error) {
	return s.locations.FindInBoundingBox(ctx, box)
}

// FindNearest returns up to limit locations ordered by distance to p.
func (s *locationService) FindNearest(ctx context.Context, p entity.Point, limit int) ([]entity.Location, error) {
	if limit == 0 {
		limit = DefaultNearestLimit
	}
	if limit < 0 || limit > MaxNearestLimit {
		return nil, apperr.InvalidArgument("limit must be between 1 and %d", MaxNearestLimit)
	}
	if err := geo.ValidatePoint(p); err != nil {
		return nil, apperr.InvalidArgument("%s", err.Error())
	}
	return s.locations.FindNearest(ctx, p, limit)
}
