package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
	"github.com/lib/pq"
)

const areaColumns = `a.id, a.event_id, e.event_type, a.area_name, ST_AsText(a.geom), a.risk_level, a.estimated_households, a.created_at,
	(SELECT COUNT(*) FROM damage_reports r WHERE r.area_id = a.id)`

const areaFrom = ` FROM damage_areas a JOIN damage_events e ON e.id = a.event_id`

type areaRepo struct {
	db *sql.DB
}

func NewAreaRepository(db *sql.DB) repository.AreaRepository {
	return &areaRepo{db: db}
}

func scanArea(s rowScanner) (*entity.DamageArea, error) {
	var a entity.DamageArea
	err := s.Scan(&a.ID, &a.EventID, &a.EventType, &a.AreaName, &a.Geometry, &a.RiskLevel, &a.EstimatedHouseholds, &a.CreatedAt, &a.ReportsCount)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *areaRepo) queryAreas(ctx context.Context, query string, args ...any) ([]entity.DamageArea, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	areas := []entity.DamageArea{}
	for rows.Next() {
		area, err := scanArea(rows)
		if err != nil {
			return nil, err
		}
		areas = append(areas, *area)
	}
	return areas, rows.Err()
}

func (r *areaRepo) Create(ctx context.Context, area *entity.DamageArea) error {
	query := `INSERT INTO damage_areas (id, event_id, area_name, geom, risk_level, estimated_households, created_at)
	          VALUES ($1, $2, $3, ST_GeomFromText($4, 4326), $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query, area.ID, area.EventID, area.AreaName, area.Geometry, area.RiskLevel, area.EstimatedHouseholds, area.CreatedAt)
	return err
}

func (r *areaRepo) GetByID(ctx context.Context, id string) (*entity.DamageArea, error) {
	query := `SELECT ` + areaColumns + areaFrom + ` WHERE a.id = $1`
	area, err := scanArea(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return area, err
}

func (r *areaRepo) List(ctx context.Context, filter entity.AreaFilter) ([]entity.DamageArea, error) {
	var c conditions
	if filter.EventID != "" {
		c.add("a.event_id = $%d", filter.EventID)
	}
	if filter.MinRiskLevel > 0 {
		c.add("a.risk_level >= $%d", filter.MinRiskLevel)
	}
	query := `SELECT ` + areaColumns + areaFrom + c.where() + ` ORDER BY a.created_at DESC`
	return r.queryAreas(ctx, query, c.args...)
}

func (r *areaRepo) Update(ctx context.Context, area *entity.DamageArea) error {
	query := `UPDATE damage_areas SET area_name = $1, geom = ST_GeomFromText($2, 4326), risk_level = $3, estimated_households = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, area.AreaName, area.Geometry, area.RiskLevel, area.EstimatedHouseholds, area.ID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *areaRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM damage_areas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *areaRepo) FindContaining(ctx context.Context, p entity.Point) ([]entity.DamageArea, error) {
	query := `SELECT ` + areaColumns + areaFrom + `
		WHERE ST_Contains(a.geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		ORDER BY a.risk_level DESC, a.created_at ASC`
	return r.queryAreas(ctx, query, p.Longitude, p.Latitude)
}

func (r *areaRepo) FindIntersecting(ctx context.Context, box entity.BoundingBox) ([]entity.DamageArea, error) {
	query := `SELECT ` + areaColumns + areaFrom + `
		WHERE ST_Intersects(a.geom, ST_MakeEnvelope($1, $2, $3, $4, 4326))
		ORDER BY a.risk_level DESC`
	return r.queryAreas(ctx, query, box.MinLon, box.MinLat, box.MaxLon, box.MaxLat)
}

type geometryValidator struct {
	db *sql.DB
}

// NewGeometryValidator checks WKT input with PostGIS before it is stored.
func NewGeometryValidator(db *sql.DB) repository.GeometryValidator {
	return &geometryValidator{db: db}
}

func (v *geometryValidator) ValidatePolygon(ctx context.Context, wkt string) error {
	query := `SELECT ST_IsValid(g), ST_IsValidReason(g), GeometryType(g) FROM (SELECT ST_GeomFromText($1, 4326) AS g) AS input`
	var valid bool
	var reason, geomType string
	err := v.db.QueryRowContext(ctx, query, wkt).Scan(&valid, &reason, &geomType)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			return fmt.Errorf("%w: %s", repository.ErrInvalidGeometry, pqErr.Message)
		}
		return err
	}
	if !strings.EqualFold(geomType, "POLYGON") {
		return fmt.Errorf("%w: expected POLYGON, got %s", repository.ErrInvalidGeometry, geomType)
	}
	if !valid {
		return fmt.Errorf("%w: %s", repository.ErrInvalidGeometry, reason)
	}
	return nil
}
