package repository

import (
	"context"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
)

type EventRepository interface {
	Create(ctx context.Context, event *entity.DamageEvent) error
	GetByID(ctx context.Context, id string) (*entity.DamageEvent, error)
	List(ctx context.Context, filter entity.EventFilter) ([]entity.DamageEvent, error)
	Update(ctx context.Context, event *entity.DamageEvent) error
	// Delete removes the event; its areas and reports go with it.
	Delete(ctx context.Context, id string) error
}
