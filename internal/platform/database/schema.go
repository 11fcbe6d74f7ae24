package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

type schemaStep struct {
	name string
	sql  string
}

var schemaSteps = []schemaStep{
	{"postgis extension", `CREATE EXTENSION IF NOT EXISTS postgis`},
	{"users table", `
	CREATE TABLE IF NOT EXISTS users(
		id UUID PRIMARY KEY,
		username VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(32) UNIQUE,
		email VARCHAR(255) UNIQUE,
		role VARCHAR(32) NOT NULL DEFAULT 'RESIDENT',
		management_area_code VARCHAR(64),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		last_login_at TIMESTAMPTZ
	)`},
	{"damage_events table", `
	CREATE TABLE IF NOT EXISTS damage_events(
		id UUID PRIMARY KEY,
		event_type VARCHAR(64) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		severity SMALLINT NOT NULL CHECK (severity BETWEEN 1 AND 5),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"damage_areas table", `
	CREATE TABLE IF NOT EXISTS damage_areas(
		id UUID PRIMARY KEY,
		event_id UUID NOT NULL REFERENCES damage_events(id) ON DELETE CASCADE,
		area_name VARCHAR(255) NOT NULL,
		geom GEOMETRY(Polygon, 4326) NOT NULL,
		risk_level SMALLINT NOT NULL CHECK (risk_level BETWEEN 1 AND 5),
		estimated_households INT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"damage_areas geom index", `CREATE INDEX IF NOT EXISTS damage_areas_geom_idx ON damage_areas USING GIST (geom)`},
	{"damage_reports table", `
	CREATE TABLE IF NOT EXISTS damage_reports(
		id UUID PRIMARY KEY,
		user_id UUID REFERENCES users(id) ON DELETE SET NULL,
		event_id UUID REFERENCES damage_events(id) ON DELETE CASCADE,
		area_id UUID REFERENCES damage_areas(id) ON DELETE CASCADE,
		reporter_name VARCHAR(255) NOT NULL DEFAULT '',
		reporter_phone VARCHAR(32) NOT NULL DEFAULT '',
		event_type VARCHAR(64) NOT NULL DEFAULT '',
		damage_level SMALLINT NOT NULL DEFAULT 0 CHECK (damage_level BETWEEN 0 AND 5),
		estimated_loss BIGINT,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT,
		location GEOMETRY(Point, 4326),
		h3_index VARCHAR(16) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'UNVERIFIED',
		verified_by UUID REFERENCES users(id) ON DELETE SET NULL,
		verified_at TIMESTAMPTZ,
		admin_note TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"damage_reports location index", `CREATE INDEX IF NOT EXISTS damage_reports_location_idx ON damage_reports USING GIST (location)`},
	{"damage_reports h3 index", `CREATE INDEX IF NOT EXISTS damage_reports_h3_idx ON damage_reports (h3_index)`},
	{"damage_reports status index", `CREATE INDEX IF NOT EXISTS damage_reports_status_idx ON damage_reports (status)`},
	{"damage_assets table", `
	CREATE TABLE IF NOT EXISTS damage_assets(
		id UUID PRIMARY KEY,
		report_id UUID NOT NULL REFERENCES damage_reports(id) ON DELETE CASCADE,
		asset_type VARCHAR(64) NOT NULL,
		asset_name VARCHAR(255) NOT NULL DEFAULT '',
		quantity INT NOT NULL DEFAULT 1,
		unit VARCHAR(32) NOT NULL DEFAULT '',
		estimated_value BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"locations table", `
	CREATE TABLE IF NOT EXISTS locations(
		id UUID PRIMARY KEY,
		address VARCHAR(512) NOT NULL DEFAULT '',
		point GEOMETRY(Point, 4326) NOT NULL,
		location_type VARCHAR(64) NOT NULL DEFAULT '',
		base_elevation DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
	{"locations point index", `CREATE INDEX IF NOT EXISTS locations_point_idx ON locations USING GIST (point)`},
	{"historical_data table", `
	CREATE TABLE IF NOT EXISTS historical_data(
		id UUID PRIMARY KEY,
		year INT NOT NULL,
		alert_level SMALLINT NOT NULL DEFAULT 0,
		impact_summary TEXT NOT NULL DEFAULT '',
		reference_geom GEOMETRY(Polygon, 4326),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`},
}

// InitSchema creates the tables and indexes the service needs if they are missing.
func InitSchema(ctx context.Context, db *sql.DB, log logrus.FieldLogger) error {
	log.Info("Initializing database schema...")
	for _, step := range schemaSteps {
		if _, err := db.ExecContext(ctx, step.sql); err != nil {
			return fmt.Errorf("failed to create %s: %w", step.name, err)
		}
		log.WithField("step", step.name).Debug("schema step applied")
	}
	log.Info("Database schema ready")
	return nil
}
