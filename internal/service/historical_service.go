package service

import (
	"context"
	"fmt"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/apperr"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/geo"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gopkg.in/guregu/null.v3"
)

const (
	minHistoricalYear = 1900
	maxHistoricalYear = 2100
)

type HistoricalService interface {
	CreateHistorical(ctx context.Context, draft entity.HistoricalDraft) (*entity.HistoricalData, error)
	GetHistorical(ctx context.Context, id string) (*entity.HistoricalData, error)
	ListHistorical(ctx context.Context, filter entity.HistoricalFilter) ([]entity.HistoricalData, error)
	UpdateHistorical(ctx context.Context, id string, patch entity.HistoricalPatch) (*entity.HistoricalData, error)
	DeleteHistorical(ctx context.Context, id string) error
	FindContaining(ctx context.Context, p entity.Point) ([]entity.HistoricalData, error)
	FindIntersecting(ctx context.Context, box entity.BoundingBox) ([]entity.HistoricalData, error)
}

type historicalService struct {
	records   repository.HistoricalRepository
	validator repository.GeometryValidator
	clock     clockwork.Clock
}

func NewHistoricalService(records repository.HistoricalRepository, validator repository.GeometryValidator, clock clockwork.Clock) HistoricalService {
	return &historicalService{records: records, validator: validator, clock: clock}
}

func validateYear(year int) error {
	if year < minHistoricalYear || year > maxHistoricalYear {
		return apperr.InvalidArgument("year must be between %d and %d", minHistoricalYear, maxHistoricalYear)
	}
	return nil
}

func validateAlertLevel(level int) error {
	if level < entity.MinAlertLevel || level > entity.MaxAlertLevel {
		return apperr.InvalidArgument("alert_level must be between %d and %d", entity.MinAlertLevel, entity.MaxAlertLevel)
	}
	return nil
}

func (s *historicalService) CreateHistorical(ctx context.Context, draft entity.HistoricalDraft) (*entity.HistoricalData, error) {
	if err := validateYear(draft.Year); err != nil {
		return nil, err
	}
	if err := validateAlertLevel(draft.AlertLevel); err != nil {
		return nil, err
	}

	data := &entity.HistoricalData{
		ID:            uuid.New().String(),
		Year:          draft.Year,
		AlertLevel:    draft.AlertLevel,
		ImpactSummary: draft.ImpactSummary,
		CreatedAt:     s.clock.Now(),
	}
	if !draft.Geometry.Empty() {
		wkt, err := polygon(ctx, s.validator, draft.Geometry)
		if err != nil {
			return nil, err
		}
		data.Geometry = null.StringFrom(wkt)
	}

	if err := s.records.Create(ctx, data); err != nil {
		return nil, translateRepoErr(err, "HistoricalData", data.ID, "save historical data")
	}
	return data, nil
}

func (s *historicalService) GetHistorical(ctx context.Context, id string) (*entity.HistoricalData, error) {
	data, err := s.records.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load historical data: %w", err)
	}
	if data == nil {
		return nil, apperr.NotFound("HistoricalData", id)
	}
	return data, nil
}

func (s *historicalService) ListHistorical(ctx context.Context, filter entity.HistoricalFilter) ([]entity.HistoricalData, error) {
	if filter.FromYear != 0 && filter.ToYear != 0 && filter.FromYear > filter.ToYear {
		return nil, apperr.InvalidArgument("from_year must not be after to_year")
	}
	return s.records.List(ctx, filter)
}

func (s *historicalService) UpdateHistorical(ctx context.Context, id string, patch entity.HistoricalPatch) (*entity.HistoricalData, error) {
	data, err := s.GetHistorical(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Year.Set {
		if patch.Year.Null {
			return nil, apperr.InvalidArgument("year cannot be null")
		}
		if err := validateYear(patch.Year.Value); err != nil {
			return nil, err
		}
		data.Year = patch.Year.Value
	}
	if patch.AlertLevel.Set {
		if patch.AlertLevel.Null {
			return nil, apperr.InvalidArgument("alert_level cannot be null")
		}
		if err := validateAlertLevel(patch.AlertLevel.Value); err != nil {
			return nil, err
		}
		data.AlertLevel = patch.AlertLevel.Value
	}
	if patch.ImpactSummary.Set {
		data.ImpactSummary = patch.ImpactSummary.Value
	}
	if patch.Geometry.Set {
		if patch.Geometry.Null || patch.Geometry.Value.Empty() {
			data.Geometry = null.String{}
		} else {
			wkt, err := polygon(ctx, s.validator, patch.Geometry.Value)
			if err != nil {
				return nil, err
			}
			data.Geometry = null.StringFrom(wkt)
		}
	}

	if err := s.records.Update(ctx, data); err != nil {
		return nil, translateRepoErr(err, "HistoricalData", id, "update historical data")
	}
	return data, nil
}

func (s *historicalService) DeleteHistorical(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return translateRepoErr(err, "HistoricalData", id, "delete historical data")
	}
	return nil
}

func (s *historicalService) FindContaining(ctx context.Context, p entity.Point) ([]entity.HistoricalData, error) {
	if err := geo.ValidatePoint(p); err != nil {
		return nil, apperr.InvalidArgument("%s", err.Error())
	}
	return s.records.FindContaining(ctx, p)
}

func (s *historicalService) FindIntersecting(ctx context.Context, box entity.BoundingBox) ([]entity.HistoricalData, error) {
	return s.records.FindIntersecting(ctx, box)
}
