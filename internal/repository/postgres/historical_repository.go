package postgres

import (
	"context"
	"database/sql"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
)

const historicalColumns = `id, year, alert_level, impact_summary, ST_AsText(reference_geom), created_at`

type historicalRepo struct {
	db *sql.DB
}

func NewHistoricalRepository(db *sql.DB) repository.HistoricalRepository {
	return &historicalRepo{db: db}
}

func scanHistorical(s rowScanner) (*entity.HistoricalData, error) {
	var h entity.HistoricalData
	if err := s.Scan(&h.ID, &h.Year, &h.AlertLevel, &h.ImpactSummary, &h.Geometry, &h.CreatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *historicalRepo) queryHistorical(ctx context.Context, query string, args ...any) ([]entity.HistoricalData, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []entity.HistoricalData{}
	for rows.Next() {
		h, err := scanHistorical(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *h)
	}
	return records, rows.Err()
}

func (r *historicalRepo) Create(ctx context.Context, data *entity.HistoricalData) error {
	query := `INSERT INTO historical_data (id, year, alert_level, impact_summary, reference_geom, created_at)
	          VALUES ($1, $2, $3, $4, ST_GeomFromText($5, 4326), $6)`
	_, err := r.db.ExecContext(ctx, query, data.ID, data.Year, data.AlertLevel, data.ImpactSummary, data.Geometry, data.CreatedAt)
	return err
}

func (r *historicalRepo) GetByID(ctx context.Context, id string) (*entity.HistoricalData, error) {
	query := `SELECT ` + historicalColumns + ` FROM historical_data WHERE id = $1`
	h, err := scanHistorical(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return h, err
}

func (r *historicalRepo) List(ctx context.Context, filter entity.HistoricalFilter) ([]entity.HistoricalData, error) {
	var c conditions
	if filter.Year > 0 {
		c.add("year = $%d", filter.Year)
	}
	if filter.AlertLevel > 0 {
		c.add("alert_level = $%d", filter.AlertLevel)
	}
	if filter.FromYear > 0 {
		c.add("year >= $%d", filter.FromYear)
	}
	if filter.ToYear > 0 {
		c.add("year <= $%d", filter.ToYear)
	}
	query := `SELECT ` + historicalColumns + ` FROM historical_data` + c.where() + ` ORDER BY year DESC, created_at DESC`
	return r.queryHistorical(ctx, query, c.args...)
}

func (r *historicalRepo) Update(ctx context.Context, data *entity.HistoricalData) error {
	query := `UPDATE historical_data SET year = $1, alert_level = $2, impact_summary = $3, reference_geom = ST_GeomFromText($4, 4326) WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, data.Year, data.AlertLevel, data.ImpactSummary, data.Geometry, data.ID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *historicalRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM historical_data WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *historicalRepo) FindContaining(ctx context.Context, p entity.Point) ([]entity.HistoricalData, error) {
	query := `SELECT ` + historicalColumns + ` FROM historical_data
		WHERE reference_geom IS NOT NULL AND ST_Contains(reference_geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		ORDER BY year DESC`
	return r.queryHistorical(ctx, query, p.Longitude, p.Latitude)
}

func (r *historicalRepo) FindIntersecting(ctx context.Context, box entity.BoundingBox) ([]entity.HistoricalData, error) {
	query := `SELECT ` + historicalColumns + ` FROM historical_data
		WHERE ST_Intersects(reference_geom, ST_MakeEnvelope($1, $2, $3, $4, 4326))
		ORDER BY year DESC`
	return r.queryHistorical(ctx, query, box.MinLon, box.MinLat, box.MaxLon, box.MaxLat)
}
