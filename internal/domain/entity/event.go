package entity

import (
	"time"

	"gopkg.in/guregu/null.v3"
)

const (
	MinSeverity = 1
	MaxSeverity = 5
)

// DamageEvent is a disaster episode grouping areas and reports.
type DamageEvent struct {
	ID           string    `json:"id"`
	EventType    string    `json:"event_type"`
	Description  string    `json:"description"`
	StartTime    time.Time `json:"start_time"`
	EndTime      null.Time `json:"end_time"`
	Severity     int       `json:"severity"`
	CreatedAt    time.Time `json:"created_at"`
	AreasCount   int64     `json:"areas_count"`
	ReportsCount int64     `json:"reports_count"`
}

// Active reports whether the event has not ended yet.
func (e *DamageEvent) Active() bool {
	return !e.EndTime.Valid
}

type EventDraft struct {
	EventType   string
	Description string
	StartTime   *time.Time
	EndTime     *time.Time
	Severity    int
}

type EventPatch struct {
	EventType   Optional[string]    `json:"event_type"`
	Description Optional[string]    `json:"description"`
	StartTime   Optional[time.Time] `json:"start_time"`
	EndTime     Optional[time.Time] `json:"end_time"`
	Severity    Optional[int]       `json:"severity"`
}

func (p EventPatch) Apply(e *DamageEvent) {
	if p.EventType.Set {
		e.EventType = p.EventType.Value
	}
	if p.Description.Set {
		e.Description = p.Description.Value
	}
	if p.StartTime.Present() {
		e.StartTime = p.StartTime.Value
	}
	if p.EndTime.Set {
		e.EndTime = null.NewTime(p.EndTime.Value, !p.EndTime.Null)
	}
	if p.Severity.Set {
		e.Severity = p.Severity.Value
	}
}

type EventFilter struct {
	EventType   string
	MinSeverity int
	ActiveOnly  bool
	From        *time.Time
	To          *time.Time
}
