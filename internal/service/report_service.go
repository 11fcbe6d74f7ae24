package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/apperr"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/geo"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/observability"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/phone"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/platform/cache"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"
)

type ReportService interface {
	CreateReport(ctx context.Context, draft entity.ReportDraft, owner entity.Identity) (*entity.Report, error)
	GetReport(ctx context.Context, id string) (*entity.Report, error)
	ListReports(ctx context.Context, filter entity.ReportFilter) ([]entity.Report, error)
	UpdateReport(ctx context.Context, id string, patch entity.ReportPatch, caller entity.Identity) (*entity.Report, error)
	VerifyReport(ctx context.Context, id, status string, verifier entity.Identity, note entity.Optional[string]) (*entity.Report, error)
	DeleteReport(ctx context.Context, id string) error

	FindWithinRadius(ctx context.Context, center entity.Point, radiusMeters float64) ([]entity.Report, error)
	FindInBoundingBox(ctx context.Context, box entity.BoundingBox) ([]entity.Report, error)
	FindInArea(ctx context.Context, areaID string) ([]entity.Report, error)
	FindByCell(ctx context.Context, cell string) ([]entity.Report, error)

	CountByField(ctx context.Context, field entity.GroupField) (map[string]int64, error)
	TotalEstimatedLossByEvent(ctx context.Context, eventID string) (int64, error)

	AddAsset(ctx context.Context, reportID string, draft entity.AssetDraft, caller entity.Identity) (*entity.DamageAsset, error)
	ListAssets(ctx context.Context, reportID string) ([]entity.DamageAsset, error)
	DeleteAsset(ctx context.Context, assetID string, caller entity.Identity) error
	SummarizeAssets(ctx context.Context) ([]repository.AssetSummary, error)
}

// ReportDeps groups the collaborators of the report service. Cache and
// Publisher may be nil.
type ReportDeps struct {
	Reports     repository.ReportRepository
	Assets      repository.AssetRepository
	Events      repository.EventRepository
	Areas       repository.AreaRepository
	Cache       cache.StatsCache
	Publisher   *ReportEventPublisher
	Clock       clockwork.Clock
	Metrics     *observability.Metrics
	Log         logrus.FieldLogger
	PhoneRegion string
}

type reportService struct {
	ReportDeps
}

func NewReportService(deps ReportDeps) ReportService {
	if deps.Cache == nil {
		deps.Cache = cache.NoopStatsCache{}
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	return &reportService{ReportDeps: deps}
}

var statsFields = []string{string(entity.GroupByEventType), string(entity.GroupByStatus)}

func (s *reportService) CreateReport(ctx context.Context, draft entity.ReportDraft, owner entity.Identity) (*entity.Report, error) {
	draft.ReporterName = strings.TrimSpace(draft.ReporterName)
	draft.EventType = strings.TrimSpace(draft.EventType)

	if owner.Anonymous() && draft.ReporterName == "" {
		return nil, apperr.InvalidArgument("reporter_name is required for anonymous reports")
	}
	if draft.EventType == "" {
		return nil, apperr.InvalidArgument("event_type is required")
	}
	if err := validateDamageLevel(draft.DamageLevel); err != nil {
		return nil, err
	}
	if draft.EstimatedLoss.Valid && draft.EstimatedLoss.Int64 < 0 {
		return nil, apperr.InvalidArgument("estimated_loss must not be negative")
	}

	report := &entity.Report{
		ID:            uuid.New().String(),
		ReporterName:  draft.ReporterName,
		EventType:     draft.EventType,
		DamageLevel:   draft.DamageLevel,
		EstimatedLoss: draft.EstimatedLoss,
		Description:   draft.Description,
		ImageURL:      draft.ImageURL,
		Status:        entity.StatusUnverified,
		CreatedAt:     s.Clock.Now(),
	}
	if !owner.Anonymous() {
		report.UserID = null.StringFrom(owner.UserID)
	}

	if draft.ReporterPhone != "" {
		normalized, err := phone.Normalize(draft.ReporterPhone, s.PhoneRegion)
		if err != nil {
			return nil, apperr.InvalidArgument("%s", err.Error())
		}
		report.ReporterPhone = normalized
	}

	if draft.Location != nil {
		if err := geo.ValidatePoint(*draft.Location); err != nil {
			return nil, apperr.InvalidArgument("%s", err.Error())
		}
		loc := *draft.Location
		report.Location = &loc
		report.H3Index = geo.CellFor(loc)
	}

	if err := s.resolveRefs(ctx, report, draft.EventID, draft.AreaID); err != nil {
		return nil, err
	}

	for _, ad := range draft.Assets {
		asset, err := s.newAsset(report.ID, ad)
		if err != nil {
			return nil, err
		}
		report.Assets = append(report.Assets, *asset)
	}

	if err := s.Reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save report to db: %w", err)
	}

	s.Metrics.ReportsCreated.Inc()
	s.invalidateStats(ctx)
	s.Publisher.Publish(ctx, entity.ReportCreated, report)
	return report, nil
}

// resolveRefs checks the optional event and area references. An area implies
// its event.
func (s *reportService) resolveRefs(ctx context.Context, report *entity.Report, eventID, areaID string) error {
	if areaID != "" {
		area, err := s.Areas.GetByID(ctx, areaID)
		if err != nil {
			return fmt.Errorf("failed to load area: %w", err)
		}
		if area == nil {
			return apperr.NotFound("DamageArea", areaID)
		}
		if eventID != "" && eventID != area.EventID {
			return apperr.InvalidArgument("area %s does not belong to event %s", areaID, eventID)
		}
		report.AreaID = null.StringFrom(area.ID)
		report.EventID = null.StringFrom(area.EventID)
		return nil
	}
	if eventID != "" {
		event, err := s.Events.GetByID(ctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to load event: %w", err)
		}
		if event == nil {
			return apperr.NotFound("DamageEvent", eventID)
		}
		report.EventID = null.StringFrom(event.ID)
	}
	return nil
}

func (s *reportService) newAsset(reportID string, draft entity.AssetDraft) (*entity.DamageAsset, error) {
	draft.AssetType = strings.TrimSpace(draft.AssetType)
	if draft.AssetType == "" {
		return nil, apperr.InvalidArgument("asset_type is required")
	}
	if draft.Quantity < 0 {
		return nil, apperr.InvalidArgument("quantity must not be negative")
	}
	if draft.Quantity == 0 {
		draft.Quantity = 1
	}
	if draft.EstimatedValue.Valid && draft.EstimatedValue.Int64 < 0 {
		return nil, apperr.InvalidArgument("estimated_value must not be negative")
	}
	return &entity.DamageAsset{
		ID:             uuid.New().String(),
		ReportID:       reportID,
		AssetType:      draft.AssetType,
		AssetName:      draft.AssetName,
		Quantity:       draft.Quantity,
		Unit:           draft.Unit,
		EstimatedValue: draft.EstimatedValue,
		CreatedAt:      s.Clock.Now(),
	}, nil
}

func (s *reportService) load(ctx context.Context, id string) (*entity.Report, error) {
	report, err := s.Reports.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	if report == nil {
		return nil, apperr.NotFound("Report", id)
	}
	return report, nil
}

func (s *reportService) GetReport(ctx context.Context, id string) (*entity.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	assets, err := s.Assets.ListByReport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}
	report.Assets = assets
	return report, nil
}

func (s *reportService) ListReports(ctx context.Context, filter entity.ReportFilter) ([]entity.Report, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperr.InvalidArgument("from must not be after to")
	}
	return s.Reports.List(ctx, filter)
}

func canModify(caller entity.Identity, report *entity.Report) bool {
	if caller.Anonymous() {
		return false
	}
	if caller.Role.IsOfficial() {
		return true
	}
	return report.UserID.Valid && report.UserID.String == caller.UserID
}

func validateDamageLevel(level int) error {
	if level < entity.MinDamageLevel || level > entity.MaxDamageLevel {
		return apperr.InvalidArgument("damage_level must be between %d and %d", entity.MinDamageLevel, entity.MaxDamageLevel)
	}
	return nil
}

func validateReportPatch(p entity.ReportPatch) error {
	if p.EventType.Set {
		if p.EventType.Null || strings.TrimSpace(p.EventType.Value) == "" {
			return apperr.InvalidArgument("event_type cannot be empty")
		}
	}
	if p.ImageURL.Present() && p.ImageURL.Value != "" {
		if err := fieldValidator.Var(p.ImageURL.Value, "url"); err != nil {
			return apperr.InvalidArgument("image_url must be a valid URL")
		}
	}
	if p.DamageLevel.Set {
		if p.DamageLevel.Null {
			return apperr.InvalidArgument("damage_level cannot be null")
		}
		if err := validateDamageLevel(p.DamageLevel.Value); err != nil {
			return err
		}
	}
	return nil
}

func (s *reportService) UpdateReport(ctx context.Context, id string, patch entity.ReportPatch, caller entity.Identity) (*entity.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(caller, report) {
		return nil, apperr.Forbidden("only the reporter or an official may edit this report")
	}
	if err := validateReportPatch(patch); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return report, nil
	}

	patch.Apply(report)
	if err := s.Reports.UpdateFields(ctx, report); err != nil {
		return nil, translateRepoErr(err, "Report", id, "update report")
	}
	if patch.EventType.Set {
		s.invalidateStats(ctx)
	}

	// status columns may have moved since the first read
	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Publisher.Publish(ctx, entity.ReportUpdated, updated)
	return updated, nil
}

func (s *reportService) VerifyReport(ctx context.Context, id, status string, verifier entity.Identity, note entity.Optional[string]) (*entity.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	target, ok := entity.ParseReportStatus(status)
	if !ok {
		return nil, apperr.InvalidArgument("invalid report status: %q", status)
	}

	report.Status = target
	report.VerifiedAt = null.TimeFrom(s.Clock.Now())
	if !verifier.Anonymous() {
		report.VerifiedBy = null.StringFrom(verifier.UserID)
	}
	if note.Set {
		report.AdminNote = null.NewString(note.Value, !note.Null)
	}

	if err := s.Reports.UpdateVerification(ctx, report); err != nil {
		return nil, translateRepoErr(err, "Report", id, "verify report")
	}

	s.Metrics.Verifications.WithLabelValues(string(target)).Inc()
	s.invalidateStats(ctx)
	s.Publisher.Publish(ctx, entity.ReportVerified, report)
	return report, nil
}

func (s *reportService) DeleteReport(ctx context.Context, id string) error {
	if err := s.Reports.Delete(ctx, id); err != nil {
		return translateRepoErr(err, "Report", id, "delete report")
	}
	s.invalidateStats(ctx)
	s.Publisher.Publish(ctx, entity.ReportDeleted, &entity.Report{ID: id})
	return nil
}

func (s *reportService) FindWithinRadius(ctx context.Context, center entity.Point, radiusMeters float64) ([]entity.Report, error) {
	if radiusMeters == 0 {
		radiusMeters = geo.DefaultRadiusMeters
	}
	if err := geo.ValidatePoint(center); err != nil {
		return nil, apperr.InvalidArgument("%s", err.Error())
	}
	if err := geo.ValidateRadius(radiusMeters); err != nil {
		return nil, apperr.InvalidArgument("%s", err.Error())
	}
	return s.Reports.FindWithinRadius(ctx, center, radiusMeters)
}

func (s *reportService) FindInBoundingBox(ctx context.Context, box entity.BoundingBox) ([]entity.Report, error) {
	return s.Reports.FindInBoundingBox(ctx, box)
}

func (s *reportService) FindInArea(ctx context.Context, areaID string) ([]entity.Report, error) {
	area, err := s.Areas.GetByID(ctx, areaID)
	if err != nil {
		return nil, fmt.Errorf("failed to load area: %w", err)
	}
	if area == nil {
		return nil, apperr.NotFound("DamageArea", areaID)
	}
	return s.Reports.FindInArea(ctx, areaID)
}

func (s *reportService) FindByCell(ctx context.Context, cell string) ([]entity.Report, error) {
	if !geo.ValidCell(cell) {
		return nil, apperr.InvalidArgument("invalid H3 cell: %q", cell)
	}
	return s.Reports.FindByCell(ctx, cell)
}

func (s *reportService) CountByField(ctx context.Context, field entity.GroupField) (map[string]int64, error) {
	if !field.Valid() {
		return nil, apperr.InvalidArgument("cannot group reports by %q", field)
	}

	counts, gen, hit, err := s.Cache.GetCounts(ctx, string(field))
	if err != nil {
		s.Log.WithError(err).Warn("stats cache read failed")
	}
	if hit {
		s.Metrics.StatsCache.WithLabelValues("hit").Inc()
		return counts, nil
	}
	s.Metrics.StatsCache.WithLabelValues("miss").Inc()

	counts, err = s.Reports.CountGroupedBy(ctx, field)
	if err != nil {
		return nil, fmt.Errorf("failed to count reports: %w", err)
	}
	if err := s.Cache.SetCounts(ctx, string(field), gen, counts); err != nil {
		s.Log.WithError(err).Warn("stats cache write failed")
	}
	return counts, nil
}

func (s *reportService) TotalEstimatedLossByEvent(ctx context.Context, eventID string) (int64, error) {
	event, err := s.Events.GetByID(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return 0, apperr.NotFound("DamageEvent", eventID)
	}
	return s.Reports.TotalEstimatedLossByEvent(ctx, eventID)
}

func (s *reportService) AddAsset(ctx context.Context, reportID string, draft entity.AssetDraft, caller entity.Identity) (*entity.DamageAsset, error) {
	report, err := s.load(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !canModify(caller, report) {
		return nil, apperr.Forbidden("only the reporter or an official may add assets")
	}
	asset, err := s.newAsset(reportID, draft)
	if err != nil {
		return nil, err
	}
	if err := s.Assets.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to save asset: %w", err)
	}
	return asset, nil
}

func (s *reportService) ListAssets(ctx context.Context, reportID string) ([]entity.DamageAsset, error) {
	if _, err := s.load(ctx, reportID); err != nil {
		return nil, err
	}
	return s.Assets.ListByReport(ctx, reportID)
}

func (s *reportService) DeleteAsset(ctx context.Context, assetID string, caller entity.Identity) error {
	asset, err := s.Assets.GetByID(ctx, assetID)
	if err != nil {
		return fmt.Errorf("failed to load asset: %w", err)
	}
	if asset == nil {
		return apperr.NotFound("DamageAsset", assetID)
	}
	report, err := s.load(ctx, asset.ReportID)
	if err != nil {
		return err
	}
	if !canModify(caller, report) {
		return apperr.Forbidden("only the reporter or an official may remove assets")
	}
	if err := s.Assets.Delete(ctx, assetID); err != nil {
		return translateRepoErr(err, "DamageAsset", assetID, "delete asset")
	}
	return nil
}

func (s *reportService) SummarizeAssets(ctx context.Context) ([]repository.AssetSummary, error) {
	return s.Assets.SummarizeByType(ctx)
}

func (s *reportService) invalidateStats(ctx context.Context) {
	if err := s.Cache.Invalidate(ctx, statsFields...); err != nil && !errors.Is(err, context.Canceled) {
		s.Log.WithError(err).Warn("stats cache invalidation failed")
	}
}
