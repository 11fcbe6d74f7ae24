package postgres

import (
	"context"
	"database/sql"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
)

const eventColumns = `e.id, e.event_type, e.description, e.start_time, e.end_time, e.severity, e.created_at,
	(SELECT COUNT(*) FROM damage_areas a WHERE a.event_id = e.id),
	(SELECT COUNT(*) FROM damage_reports r WHERE r.event_id = e.id)`

type eventRepo struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) repository.EventRepository {
	return &eventRepo{db: db}
}

func scanEvent(s rowScanner) (*entity.DamageEvent, error) {
	var e entity.DamageEvent
	err := s.Scan(&e.ID, &e.EventType, &e.Description, &e.StartTime, &e.EndTime, &e.Severity, &e.CreatedAt, &e.AreasCount, &e.ReportsCount)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *eventRepo) Create(ctx context.Context, event *entity.DamageEvent) error {
	query := `INSERT INTO damage_events (id, event_type, description, start_time, end_time, severity, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, event.ID, event.EventType, event.Description, event.StartTime, event.EndTime, event.Severity, event.CreatedAt)
	return err
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*entity.DamageEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM damage_events e WHERE e.id = $1`
	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return event, err
}

func (r *eventRepo) List(ctx context.Context, filter entity.EventFilter) ([]entity.DamageEvent, error) {
	var c conditions
	if filter.EventType != "" {
		c.add("e.event_type = $%d", filter.EventType)
	}
	if filter.MinSeverity > 0 {
		c.add("e.severity >= $%d", filter.MinSeverity)
	}
	if filter.ActiveOnly {
		c.addRaw("e.end_time IS NULL")
	}
	if filter.From != nil {
		c.add("e.start_time >= $%d", *filter.From)
	}
	if filter.To != nil {
		c.add("e.start_time <= $%d", *filter.To)
	}

	query := `SELECT ` + eventColumns + ` FROM damage_events e` + c.where() + ` ORDER BY e.start_time DESC`
	rows, err := r.db.QueryContext(ctx, query, c.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []entity.DamageEvent{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func (r *eventRepo) Update(ctx context.Context, event *entity.DamageEvent) error {
	query := `UPDATE damage_events SET event_type = $1, description = $2, start_time = $3, end_time = $4, severity = $5 WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query, event.EventType, event.Description, event.StartTime, event.EndTime, event.Severity, event.ID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *eventRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM damage_events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
