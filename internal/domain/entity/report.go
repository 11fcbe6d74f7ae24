package entity

import (
	"strconv"
	"strings"
	"time"

	"gopkg.in/guregu/null.v3"
)

type ReportStatus string

const (
	StatusUnverified ReportStatus = "UNVERIFIED"
	StatusVerified   ReportStatus = "VERIFIED"
	StatusProcessing ReportStatus = "PROCESSING"
	StatusResolved   ReportStatus = "RESOLVED"
	StatusRejected   ReportStatus = "REJECTED"
)

var reportStatuses = []ReportStatus{StatusUnverified, StatusVerified, StatusProcessing, StatusResolved, StatusRejected}

// ParseReportStatus matches raw against the known statuses ignoring case.
func ParseReportStatus(raw string) (ReportStatus, bool) {
	candidate := ReportStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, s := range reportStatuses {
		if s == candidate {
			return s, true
		}
	}
	return "", false
}

// Point is a WGS84 longitude/latitude pair.
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// WKT renders the point as "POINT(lon lat)".
func (p Point) WKT() string {
	return "POINT(" + strconv.FormatFloat(p.Longitude, 'f', -1, 64) + " " + strconv.FormatFloat(p.Latitude, 'f', -1, 64) + ")"
}

const (
	MinDamageLevel = 0
	MaxDamageLevel = 5
)

type Report struct {
	ID            string        `json:"id"`
	UserID        null.String   `json:"user_id"`
	EventID       null.String   `json:"event_id"`
	AreaID        null.String   `json:"area_id"`
	ReporterName  string        `json:"reporter_name"`
	ReporterPhone string        `json:"reporter_phone"`
	EventType     string        `json:"event_type"`
	DamageLevel   int           `json:"damage_level"`
	EstimatedLoss null.Int      `json:"estimated_loss"`
	Description   string        `json:"description"`
	ImageURL      null.String   `json:"image_url"`
	Location      *Point        `json:"location,omitempty"`
	H3Index       string        `json:"h3_index,omitempty"`
	Status        ReportStatus  `json:"status"`
	VerifiedBy    null.String   `json:"verified_by"`
	VerifiedAt    null.Time     `json:"verified_at"`
	AdminNote     null.String   `json:"admin_note"`
	CreatedAt     time.Time     `json:"created_at"`
	Assets        []DamageAsset `json:"assets,omitempty"`
}

// TotalAssetValue sums the estimated value of the report's assets.
func (r *Report) TotalAssetValue() int64 {
	var total int64
	for _, a := range r.Assets {
		if a.EstimatedValue.Valid {
			total += a.EstimatedValue.Int64
		}
	}
	return total
}

// ReportDraft carries the client-supplied fields of a new report.
type ReportDraft struct {
	ReporterName  string
	ReporterPhone string
	EventType     string
	DamageLevel   int
	EstimatedLoss null.Int
	Description   string
	ImageURL      null.String
	Location      *Point
	EventID       string
	AreaID        string
	Assets        []AssetDraft
}

// ReportPatch updates the user-editable fields of a report. Absent fields are
// left unchanged.
type ReportPatch struct {
	EventType   Optional[string] `json:"event_type"`
	Description Optional[string] `json:"description"`
	ImageURL    Optional[string] `json:"image_url"`
	DamageLevel Optional[int]    `json:"damage_level"`
}

func (p ReportPatch) Empty() bool {
	return !p.EventType.Set && !p.Description.Set && !p.ImageURL.Set && !p.DamageLevel.Set
}

// Apply copies the present fields onto r. Validation is the caller's job.
func (p ReportPatch) Apply(r *Report) {
	if p.EventType.Set {
		r.EventType = p.EventType.Value
	}
	if p.Description.Set {
		r.Description = p.Description.Value
	}
	if p.ImageURL.Set {
		r.ImageURL = null.NewString(p.ImageURL.Value, !p.ImageURL.Null && p.ImageURL.Value != "")
	}
	if p.DamageLevel.Set {
		r.DamageLevel = p.DamageLevel.Value
	}
}

type ReportFilter struct {
	Status         ReportStatus
	EventType      string
	UserID         string
	EventID        string
	AreaID         string
	MinDamageLevel *int
	From           *time.Time
	To             *time.Time
}

// GroupField names a report column statistics may be grouped by.
type GroupField string

const (
	GroupByEventType GroupField = "event_type"
	GroupByStatus    GroupField = "status"
)

func (f GroupField) Valid() bool {
	return f == GroupByEventType || f == GroupByStatus
}

// BoundingBox is an axis aligned lon/lat envelope.
type BoundingBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Report lifecycle event types.
const (
	ReportCreated  = "report.created"
	ReportVerified = "report.verified"
	ReportUpdated  = "report.updated"
	ReportDeleted  = "report.deleted"
)

// ReportEvent is the message published on every report write.
type ReportEvent struct {
	Type       string       `json:"type"`
	ReportID   string       `json:"report_id"`
	Status     ReportStatus `json:"status,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
