package postgres

import (
	"context"
	"database/sql"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
)

const locationColumns = `id, address, ST_X(point), ST_Y(point), location_type, base_elevation, created_at`

type locationRepo struct {
	db *sql.DB
}

func NewLocationRepository(db *sql.DB) repository.LocationRepository {
	return &locationRepo{db: db}
}

func (r *locationRepo) queryLocations(ctx context.Context, withDistance bool, query string, args ...any) ([]entity.Location, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := []entity.Location{}
	for rows.Next() {
		var l entity.Location
		dest := []any{&l.ID, &l.Address, &l.Point.Longitude, &l.Point.Latitude, &l.LocationType, &l.BaseElevation, &l.CreatedAt}
		var distance float64
		if withDistance {
			dest = append(dest, &distance)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if withDistance {
			l.DistanceMeters = &distance
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (r *locationRepo) Create(ctx context.Context, location *entity.Location) error {
	query := `INSERT INTO locations (id, address, point, location_type, base_elevation, created_at)
	          VALUES ($1, $2, ST_GeomFromText($3, 4326), $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, location.ID, location.Address, location.Point.WKT(), location.LocationType, location.BaseElevation, location.CreatedAt)
	return err
}

func (r *locationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	var l entity.Location
	err := r.db.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.Address, &l.Point.Longitude, &l.Point.Latitude, &l.LocationType, &l.BaseElevation, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *locationRepo) List(ctx context.Context, locationType string) ([]entity.Location, error) {
	var c conditions
	if locationType != "" {
		c.add("location_type = $%d", locationType)
	}
	query := `SELECT ` + locationColumns + ` FROM locations` + c.where() + ` ORDER BY created_at DESC`
	return r.queryLocations(ctx, false, query, c.args...)
}

func (r *locationRepo) Update(ctx context.Context, location *entity.Location) error {
	query := `UPDATE locations SET address = $1, point = ST_GeomFromText($2, 4326), location_type = $3, base_elevation = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, location.Address, location.Point.WKT(), location.LocationType, location.BaseElevation, location.ID)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *locationRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *locationRepo) FindWithinRadius(ctx context.Context, center entity.Point, radiusMeters float64) ([]entity.Location, error) {
	query := `SELECT ` + locationColumns + `, ST_Distance(point::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM locations
		WHERE ST_DWithin(point::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance`
	return r.queryLocations(ctx, true, query, center.Longitude, center.Latitude, radiusMeters)
}

func (r *locationRepo) FindInBoundingBox(ctx context.Context, box entity.BoundingBox) ([]entity.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE ST_Within(point, ST_MakeEnvelope($1, $2, $3, $4, 4326)) ORDER BY created_at DESC`
	return r.queryLocations(ctx, false, query, box.MinLon, box.MinLat, box.MaxLon, box.MaxLat)
}

func (r *locationRepo) FindNearest(ctx context.Context, p entity.Point, limit int) ([]entity.Location, error) {
	query := `SELECT ` + locationColumns + `, ST_Distance(point::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM locations
		ORDER BY point <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)
		LIMIT $3`
	return r.queryLocations(ctx, true, query, p.Longitude, p.Latitude, limit)
}
