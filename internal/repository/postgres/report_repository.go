package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
)

const reportColumns = `r.id, r.user_id, r.event_id, r.area_id, r.reporter_name, r.reporter_phone, r.event_type, r.damage_level, r.estimated_loss, r.description, r.image_url, ST_X(r.location), ST_Y(r.location), r.h3_index, r.status, r.verified_by, r.verified_at, r.admin_note, r.created_at`

// groupColumns whitelists the columns statistics may group by.
var groupColumns = map[entity.GroupField]string{
	entity.GroupByEventType: "event_type",
	entity.GroupByStatus:    "status",
}

type reportRepo struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) repository.ReportRepository {
	return &reportRepo{db: db}
}

func scanReport(s rowScanner) (*entity.Report, error) {
	var report entity.Report
	var lon, lat sql.NullFloat64
	err := s.Scan(
		&report.ID,
		&report.UserID,
		&report.EventID,
		&report.AreaID,
		&report.ReporterName,
		&report.ReporterPhone,
		&report.EventType,
		&report.DamageLevel,
		&report.EstimatedLoss,
		&report.Description,
		&report.ImageURL,
		&lon,
		&lat,
		&report.H3Index,
		&report.Status,
		&report.VerifiedBy,
		&report.VerifiedAt,
		&report.AdminNote,
		&report.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lon.Valid && lat.Valid {
		report.Location = &entity.Point{Longitude: lon.Float64, Latitude: lat.Float64}
	}
	return &report, nil
}

func (r *reportRepo) queryReports(ctx context.Context, query string, args ...any) ([]entity.Report, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []entity.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

func (r *reportRepo) Create(ctx context.Context, report *entity.Report) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var location sql.NullString
	if report.Location != nil {
		location = nullString(report.Location.WKT())
	}

	query := `INSERT INTO damage_reports (id, user_id, event_id, area_id, reporter_name, reporter_phone, event_type, damage_level, estimated_loss, description, image_url, location, h3_index, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, ST_GeomFromText($12, 4326), $13, $14, $15)`
	_, err = tx.ExecContext(ctx, query,
		report.ID,
		report.UserID,
		report.EventID,
		report.AreaID,
		report.ReporterName,
		report.ReporterPhone,
		report.EventType,
		report.DamageLevel,
		report.EstimatedLoss,
		report.Description,
		report.ImageURL,
		location,
		report.H3Index,
		report.Status,
		report.CreatedAt,
	)
	if err != nil {
		return err
	}

	for i := range report.Assets {
		if err := insertAsset(ctx, tx, &report.Assets[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *reportRepo) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM damage_reports r WHERE r.id = $1`
	report, err := scanReport(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return report, err
}

func (r *reportRepo) List(ctx context.Context, filter entity.ReportFilter) ([]entity.Report, error) {
	var c conditions
	if filter.Status != "" {
		c.add("r.status = $%d", filter.Status)
	}
	if filter.EventType != "" {
		c.add("r.event_type = $%d", filter.EventType)
	}
	if filter.UserID != "" {
		c.add("r.user_id = $%d", filter.UserID)
	}
	if filter.EventID != "" {
		c.add("r.event_id = $%d", filter.EventID)
	}
	if filter.AreaID != "" {
		c.add("r.area_id = $%d", filter.AreaID)
	}
	if filter.MinDamageLevel != nil {
		c.add("r.damage_level >= $%d", *filter.MinDamageLevel)
	}
	if filter.From != nil {
		c.add("r.created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		c.add("r.created_at <= $%d", *filter.To)
	}

	query := `SELECT ` + reportColumns + ` FROM damage_reports r` + c.where() + ` ORDER BY r.created_at DESC`
	return r.queryReports(ctx, query, c.args...)
}

func (r *reportRepo) UpdateFields(ctx context.Context, report *entity.Report) error {
	query := `UPDATE damage_reports SET event_type = $1, description = $2, image_url = $3, damage_level = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query,
		report.EventType,
		report.Description,
		report.ImageURL,
		report.DamageLevel,
		report.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *reportRepo) UpdateVerification(ctx context.Context, report *entity.Report) error {
	query := `UPDATE damage_reports SET status = $1, verified_by = $2, verified_at = $3, admin_note = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query,
		report.Status,
		report.VerifiedBy,
		report.VerifiedAt,
		report.AdminNote,
		report.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *reportRepo) AssignArea(ctx context.Context, id, areaID, eventID string) error {
	query := `UPDATE damage_reports SET area_id = $1, event_id = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, areaID, eventID, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *reportRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM damage_reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *reportRepo) CountGroupedBy(ctx context.Context, field entity.GroupField) (map[string]int64, error) {
	column, ok := groupColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported group field %q", field)
	}

	query := `SELECT ` + column + `, COUNT(*) FROM damage_reports GROUP BY ` + column
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

func (r *reportRepo) TotalEstimatedLossByEvent(ctx context.Context, eventID string) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(estimated_loss), 0) FROM damage_reports WHERE event_id = $1`
	err := r.db.QueryRowContext(ctx, query, eventID).Scan(&total)
	return total, err
}

func (r *reportRepo) FindWithinRadius(ctx context.Context, center entity.Point, radiusMeters float64) ([]entity.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM damage_reports r
		WHERE r.location IS NOT NULL
		AND ST_DWithin(r.location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY r.created_at DESC`
	return r.queryReports(ctx, query, center.Longitude, center.Latitude, radiusMeters)
}

func (r *reportRepo) FindInBoundingBox(ctx context.Context, box entity.BoundingBox) ([]entity.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM damage_reports r
		WHERE ST_Within(r.location, ST_MakeEnvelope($1, $2, $3, $4, 4326))
		ORDER BY r.created_at DESC`
	return r.queryReports(ctx, query, box.MinLon, box.MinLat, box.MaxLon, box.MaxLat)
}

func (r *reportRepo) FindInArea(ctx context.Context, areaID string) ([]entity.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM damage_reports r
		JOIN damage_areas a ON a.id = $1
		WHERE r.area_id = a.id OR ST_Contains(a.geom, r.location)
		ORDER BY r.created_at DESC`
	return r.queryReports(ctx, query, areaID)
}

func (r *reportRepo) FindByCell(ctx context.Context, cell string) ([]entity.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM damage_reports r WHERE r.h3_index = $1 ORDER BY r.created_at DESC`
	return r.queryReports(ctx, query, cell)
}
