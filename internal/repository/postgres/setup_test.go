package postgres

import (
	"database/sql"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

var fixedTime = time.Date(2025, 10, 12, 8, 30, 0, 0, time.UTC)

var reportRowColumns = []string{
	"id", "user_id", "event_id", "area_id", "reporter_name", "reporter_phone", "event_type",
	"damage_level", "estimated_loss", "description", "image_url", "st_x", "st_y", "h3_index",
	"status", "verified_by", "verified_at", "admin_note", "created_at",
}
