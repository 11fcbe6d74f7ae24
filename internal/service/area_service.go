package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/apperr"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/geo"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/cache"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"
)

type AreaService interface {
	CreateArea(ctx context.Context, draft entity.AreaDraft) (*entity.DamageArea, error)
	GetArea(ctx context.Context, id string) (*entity.DamageArea, error)
	ListAreas(ctx context.Context, filter entity.AreaFilter) ([]entity.DamageArea, error)
	UpdateArea(ctx context.Context, id string, patch entity.AreaPatch) (*entity.DamageArea, error)
	DeleteArea(ctx context.Context, id string) error
	FindContaining(ctx context.Context, p entity.Point) ([]entity.DamageArea, error)
	FindIntersecting(ctx context.Context, box entity.BoundingBox) ([]entity.DamageArea, error)
}

type areaService struct {
	areas     repository.AreaRepository
	events    repository.EventRepository
	validator repository.GeometryValidator
	cache     cache.StatsCache
	clock     clockwork.Clock
	log       logrus.FieldLogger
}

func NewAreaService(areas repository.AreaRepository, events repository.EventRepository, validator repository.GeometryValidator, statsCache cache.StatsCache, clock clockwork.Clock, log logrus.FieldLogger) AreaService {
	if statsCache == nil {
		statsCache = cache.NoopStatsCache{}
	}
	return &areaService{areas: areas, events: events, validator: validator, cache: statsCache, clock: clock, log: log}
}

// polygon converts the input to WKT and lets the database judge validity.
func polygon(ctx context.Context, v repository.GeometryValidator, input entity.GeometryInput) (string, error) {
	wkt, err := geo.PolygonWKT(input)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInvalidArgument, "invalid geometry", err)
	}
	if err := v.ValidatePolygon(ctx, wkt); err != nil {
		return "", translateRepoErr(err, "Geometry", "", "validate geometry")
	}
	return wkt, nil
}

func validateRiskLevel(level int) error {
	if level < entity.MinRiskLevel || level > entity.MaxRiskLevel {
		return apperr.InvalidArgument("risk_level must be between %d and %d", entity.MinRiskLevel, entity.MaxRiskLevel)
	}
	return nil
}

func (s *areaService) CreateArea(ctx context.Context, draft entity.AreaDraft) (*entity.DamageArea, error) {
	draft.AreaName = strings.TrimSpace(draft.AreaName)
	if draft.AreaName == "" {
		return nil, apperr.InvalidArgument("area_name is required")
	}
	if err := validateRiskLevel(draft.RiskLevel); err != nil {
		return nil, err
	}
	if draft.EstimatedHouseholds.Valid && draft.EstimatedHouseholds.Int64 < 0 {
		return nil, apperr.InvalidArgument("estimated_households must not be negative")
	}
	if draft.Geometry.Empty() {
		return nil, apperr.InvalidArgument("geometry is required")
	}

	event, err := s.events.GetByID(ctx, draft.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound("DamageEvent", draft.EventID)
	}

	wkt, err := polygon(ctx, s.validator, draft.Geometry)
	if err != nil {
		return nil, err
	}

	area := &entity.DamageArea{
		ID:                  uuid.New().String(),
		EventID:             event.ID,
		EventType:           event.EventType,
		AreaName:            draft.AreaName,
		Geometry:            wkt,
		RiskLevel:           draft.RiskLevel,
		EstimatedHouseholds: draft.EstimatedHouseholds,
		CreatedAt:           s.clock.Now(),
	}
	if err := s.areas.Create(ctx, area); err != nil {
		return nil, translateRepoErr(err, "DamageArea", area.ID, "save area")
	}
	return area, nil
}

func (s *areaService) GetArea(ctx context.Context, id string) (*entity.DamageArea, error) {
	area, err := s.areas.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load area: %w", err)
	}
	if area == nil {
		return nil, apperr.NotFound("DamageArea", id)
	}
	return area, nil
}

func (s *areaService) ListAreas(ctx context.Context, filter entity.AreaFilter) ([]entity.DamageArea, error) {
	return s.areas.List(ctx, filter)
}

func (s *areaService) UpdateArea(ctx context.Context, id string, patch entity.AreaPatch) (*entity.DamageArea, error) {
	area, err := s.GetArea(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.AreaName.Set {
		if patch.AreaName.Null || strings.TrimSpace(patch.AreaName.Value) == "" {
			return nil, apperr.InvalidArgument("area_name cannot be empty")
		}
		area.AreaName = strings.TrimSpace(patch.AreaName.Value)
	}
	if patch.RiskLevel.Set {
		if patch.RiskLevel.Null {
			return nil, apperr.InvalidArgument("risk_level cannot be null")
		}
		if err := validateRiskLevel(patch.RiskLevel.Value); err != nil {
			return nil, err
		}
		area.RiskLevel = patch.RiskLevel.Value
	}
	if patch.EstimatedHouseholds.Set {
		if !patch.EstimatedHouseholds.Null && patch.EstimatedHouseholds.Value < 0 {
			return nil, apperr.InvalidArgument("estimated_households must not be negative")
		}
		area.EstimatedHouseholds = null.NewInt(patch.EstimatedHouseholds.Value, !patch.EstimatedHouseholds.Null)
	}
	if patch.Geometry.Set {
		if patch.Geometry.Null || patch.Geometry.Value.Empty() {
			return nil, apperr.InvalidArgument("geometry cannot be removed")
		}
		wkt, err := polygon(ctx, s.validator, patch.Geometry.Value)
		if err != nil {
			return nil, err
		}
		area.Geometry = wkt
	}

	if err := s.areas.Update(ctx, area); err != nil {
		return nil, translateRepoErr(err, "DamageArea", id, "update area")
	}
	return area, nil
}

func (s *areaService) DeleteArea(ctx context.Context, id string) error {
	if err := s.areas.Delete(ctx, id); err != nil {
		return translateRepoErr(err, "DamageArea", id, "delete area")
	}
	if err := s.cache.Invalidate(ctx, statsFields...); err != nil {
		s.log.WithError(err).Warn("stats cache invalidation failed")
	}
	return nil
}

func (s *areaService) FindContaining(ctx context.Context, p entity.Point) ([]entity.DamageArea, error) {
	if err := geo.ValidatePoint(p); err != nil {
		return nil, apperr.InvalidArgument("%s", err.Error())
	}
	return s.areas.FindContaining(ctx, p)
}

func (s *areaService) FindIntersecting(ctx context.Context, box entity.BoundingBox) ([]entity.DamageArea, error) {
	return s.areas.FindIntersecting(ctx, box)
}
