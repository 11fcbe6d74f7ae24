package postgres

import (
	"context"
	"database/sql"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
)

const assetColumns = `id, report_id, asset_type, asset_name, quantity, unit, estimated_value, created_at`

type assetRepo struct {
	db *sql.DB
}

func NewAssetRepository(db *sql.DB) repository.AssetRepository {
	return &assetRepo{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAsset(ctx context.Context, ex execer, asset *entity.DamageAsset) error {
	query := `INSERT INTO damage_assets (` + assetColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := ex.ExecContext(ctx, query,
		asset.ID,
		asset.ReportID,
		asset.AssetType,
		asset.AssetName,
		asset.Quantity,
		asset.Unit,
		asset.EstimatedValue,
		asset.CreatedAt,
	)
	return err
}

func scanAsset(s rowScanner) (*entity.DamageAsset, error) {
	var a entity.DamageAsset
	err := s.Scan(&a.ID, &a.ReportID, &a.AssetType, &a.AssetName, &a.Quantity, &a.Unit, &a.EstimatedValue, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assetRepo) Create(ctx context.Context, asset *entity.DamageAsset) error {
	return insertAsset(ctx, r.db, asset)
}

func (r *assetRepo) GetByID(ctx context.Context, id string) (*entity.DamageAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM damage_assets WHERE id = $1`
	asset, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return asset, err
}

func (r *assetRepo) ListByReport(ctx context.Context, reportID string) ([]entity.DamageAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM damage_assets WHERE report_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := []entity.DamageAsset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	return assets, rows.Err()
}

func (r *assetRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM damage_assets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func (r *assetRepo) SummarizeByType(ctx context.Context) ([]repository.AssetSummary, error) {
	query := `SELECT asset_type, COUNT(*), COALESCE(SUM(estimated_value), 0) FROM damage_assets GROUP BY asset_type ORDER BY asset_type`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []repository.AssetSummary{}
	for rows.Next() {
		var s repository.AssetSummary
		if err := rows.Scan(&s.AssetType, &s.Count, &s.TotalValue); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
