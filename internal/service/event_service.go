package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/apperr"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/cache"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"
)

type EventService interface {
	CreateEvent(ctx context.Context, draft entity.EventDraft) (*entity.DamageEvent, error)
	GetEvent(ctx context.Context, id string) (*entity.DamageEvent, error)
	ListEvents(ctx context.Context, filter entity.EventFilter) ([]entity.DamageEvent, error)
	UpdateEvent(ctx context.Context, id string, patch entity.EventPatch) (*entity.DamageEvent, error)
	DeleteEvent(ctx context.Context, id string) error
}

type eventService struct {
	events repository.EventRepository
	cache  cache.StatsCache
	clock  clockwork.Clock
	log    logrus.FieldLogger
}

func NewEventService(events repository.EventRepository, statsCache cache.StatsCache, clock clockwork.Clock, log logrus.FieldLogger) EventService {
	if statsCache == nil {
		statsCache = cache.NoopStatsCache{}
	}
	return &eventService{events: events, cache: statsCache, clock: clock, log: log}
}

func validateSeverity(severity int) error {
	if severity < entity.MinSeverity || severity > entity.MaxSeverity {
		return apperr.InvalidArgument("severity must be between %d and %d", entity.MinSeverity, entity.MaxSeverity)
	}
	return nil
}

func validateEventWindow(e *entity.DamageEvent) error {
	if e.EndTime.Valid && e.EndTime.Time.Before(e.StartTime) {
		return apperr.InvalidArgument("end_time must not be before start_time")
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, draft entity.EventDraft) (*entity.DamageEvent, error) {
	draft.EventType = strings.TrimSpace(draft.EventType)
	if draft.EventType == "" {
		return nil, apperr.InvalidArgument("event_type is required")
	}
	if err := validateSeverity(draft.Severity); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	event := &entity.DamageEvent{
		ID:          uuid.New().String(),
		EventType:   draft.EventType,
		Description: draft.Description,
		StartTime:   now,
		Severity:    draft.Severity,
		CreatedAt:   now,
	}
	if draft.StartTime != nil {
		event.StartTime = *draft.StartTime
	}
	if draft.EndTime != nil {
		event.EndTime = null.TimeFrom(*draft.EndTime)
	}
	if err := validateEventWindow(event); err != nil {
		return nil, err
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to save event: %w", err)
	}
	s.log.WithFields(logrus.Fields{"event_id": event.ID, "event_type": event.EventType}).Info("damage event created")
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*entity.DamageEvent, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, apperr.NotFound("DamageEvent", id)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, filter entity.EventFilter) ([]entity.DamageEvent, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperr.InvalidArgument("from must not be after to")
	}
	return s.events.List(ctx, filter)
}

func (s *eventService) UpdateEvent(ctx context.Context, id string, patch entity.EventPatch) (*entity.DamageEvent, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.EventType.Set && (patch.EventType.Null || strings.TrimSpace(patch.EventType.Value) == "") {
		return nil, apperr.InvalidArgument("event_type cannot be empty")
	}
	if patch.StartTime.Set && patch.StartTime.Null {
		return nil, apperr.InvalidArgument("start_time cannot be null")
	}
	if patch.Severity.Set {
		if patch.Severity.Null {
			return nil, apperr.InvalidArgument("severity cannot be null")
		}
		if err := validateSeverity(patch.Severity.Value); err != nil {
			return nil, err
		}
	}

	patch.Apply(event)
	if err := validateEventWindow(event); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, event); err != nil {
		return nil, translateRepoErr(err, "DamageEvent", id, "update event")
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return translateRepoErr(err, "DamageEvent", id, "delete event")
	}
	// reports went with the event
	if err := s.cache.Invalidate(ctx, statsFields...); err != nil {
		s.log.WithError(err).Warn("stats cache invalidation failed")
	}
	return nil
}
