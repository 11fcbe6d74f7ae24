package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/observability"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/cache"
	"github.com/sirupsen/logrus"
)

const assignmentLockTTL = 30 * time.Second

// AreaAssignmentService attaches freshly created reports to the damage area
// that contains them.
type AreaAssignmentService interface {
	AssignArea(ctx context.Context, reportID string) error
}

type areaAssignmentService struct {
	reports repository.ReportRepository
	areas   repository.AreaRepository
	locker  cache.Locker
	metrics *observability.Metrics
	log     logrus.FieldLogger
}

func NewAreaAssignmentService(reports repository.ReportRepository, areas repository.AreaRepository, locker cache.Locker, metrics *observability.Metrics, log logrus.FieldLogger) AreaAssignmentService {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	return &areaAssignmentService{reports: reports, areas: areas, locker: locker, metrics: metrics, log: log}
}

func (s *areaAssignmentService) AssignArea(ctx context.Context, reportID string) error {
	lock, err := s.locker.Obtain(ctx, "report-area:"+reportID, assignmentLockTTL)
	if errors.Is(err, cache.ErrNotObtained) {
		// another worker is on it
		s.record("locked")
		return nil
	}
	if err != nil {
		s.record("error")
		return fmt.Errorf("failed to obtain lock: %w", err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.log.WithError(err).WithField("report_id", reportID).Warn("failed to release area lock")
		}
	}()

	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		s.record("error")
		return fmt.Errorf("failed to get report: %w", err)
	}
	if report == nil || report.Location == nil || report.AreaID.Valid {
		s.record("skipped")
		return nil
	}

	areas, err := s.areas.FindContaining(ctx, *report.Location)
	if err != nil {
		s.record("error")
		return fmt.Errorf("failed to find containing areas: %w", err)
	}
	area, ok := pickArea(areas, report.EventID.String)
	if !ok {
		s.record("no_area")
		return nil
	}

	if err := s.reports.AssignArea(ctx, reportID, area.ID, area.EventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// deleted in the meantime
			s.record("skipped")
			return nil
		}
		s.record("error")
		return fmt.Errorf("failed to assign area: %w", err)
	}

	s.record("assigned")
	s.log.WithFields(logrus.Fields{"report_id": reportID, "area_id": area.ID, "event_id": area.EventID, "risk_level": area.RiskLevel}).Info("report assigned to area")
	return nil
}

// pickArea returns the first of the risk-ordered areas that belongs to eventID,
// or the first area at all when the report has no event yet.
func pickArea(areas []entity.DamageArea, eventID string) (entity.DamageArea, bool) {
	for _, a := range areas {
		if eventID == "" || a.EventID == eventID {
			return a, true
		}
	}
	return entity.DamageArea{}, false
}

func (s *areaAssignmentService) record(outcome string) {
	s.metrics.AreaAssignments.WithLabelValues(outcome).Inc()
}
