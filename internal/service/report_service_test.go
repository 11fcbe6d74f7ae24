package service

import (
	"context"
	"testing"
	"time"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/apperr"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

var (
	resident = entity.Identity{UserID: "u-resident", Role: entity.RoleResident}
	official = entity.Identity{UserID: "u-official", Role: entity.RoleWardOfficial}
	anonymous = entity.Identity{}
)

type reportFixture struct {
	svc       ReportService
	reports   *mockReportRepo
	assets    *mockAssetRepo
	events    *mockEventRepo
	areas     *mockAreaRepo
	cache     *memoryStatsCache
	publisher *mockPublisher
	clock     *clockwork.FakeClock
	metrics   *observability.Metrics
}

func newReportFixture() *reportFixture {
	f := &reportFixture{
		reports:   newMockReportRepo(),
		assets:    newMockAssetRepo(),
		events:    newMockEventRepo(entity.DamageEvent{ID: "ev-1", EventType: "flood", Severity: 4}),
		areas:     newMockAreaRepo(entity.DamageArea{ID: "area-1", EventID: "ev-1", AreaName: "Riverside", RiskLevel: 5}),
		cache:     newMemoryStatsCache(),
		publisher: &mockPublisher{},
		clock:     clockwork.NewFakeClockAt(time.Date(2025, 10, 12, 8, 0, 0, 0, time.UTC)),
		metrics:   observability.NewMetricsForTesting(),
	}
	log := quietLogger()
	f.svc = NewReportService(ReportDeps{
		Reports:     f.reports,
		Assets:      f.assets,
		Events:      f.events,
		Areas:       f.areas,
		Cache:       f.cache,
		Publisher:   NewReportEventPublisher(f.publisher, "report_events", f.clock, f.metrics, log),
		Clock:       f.clock,
		Metrics:     f.metrics,
		Log:         log,
		PhoneRegion: "VN",
	})
	return f
}

func guestDraft() entity.ReportDraft {
	return entity.ReportDraft{
		ReporterName:  "Tran",
		ReporterPhone: "0912345678",
		EventType:     "flood",
		DamageLevel:   3,
		Description:   "water up to the windows",
		Location:      &entity.Point{Longitude: 105.85, Latitude: 21.03},
	}
}

func TestCreateReport_ForcesUnverified(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()

	report, err := f.svc.CreateReport(ctx, guestDraft(), anonymous)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusUnverified, report.Status)
	assert.Equal(t, f.clock.Now(), report.CreatedAt)
	assert.False(t, report.UserID.Valid)
	assert.False(t, report.VerifiedAt.Valid)
	assert.Equal(t, "+84912345678", report.ReporterPhone)
	assert.NotEmpty(t, report.H3Index)

	stored := f.reports.reports[report.ID]
	require.NotNil(t, stored)
	assert.Equal(t, entity.StatusUnverified, stored.Status)
	assert.Equal(t, []string{entity.ReportCreated}, f.publisher.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReportsCreated))
}

func TestCreateReport_OwnerComesFromIdentity(t *testing.T) {
	f := newReportFixture()
	draft := guestDraft()
	draft.ReporterName = ""

	report, err := f.svc.CreateReport(context.Background(), draft, resident)
	require.NoError(t, err)
	assert.Equal(t, null.StringFrom(resident.UserID), report.UserID)
}

func TestCreateReport_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *entity.ReportDraft)
		kind   apperr.Kind
	}{
		{"anonymous without name", func(d *entity.ReportDraft) { d.ReporterName = "  " }, apperr.KindInvalidArgument},
		{"missing event type", func(d *entity.ReportDraft) { d.EventType = "" }, apperr.KindInvalidArgument},
		{"damage level too high", func(d *entity.ReportDraft) { d.DamageLevel = 6 }, apperr.KindInvalidArgument},
		{"negative damage level", func(d *entity.ReportDraft) { d.DamageLevel = -1 }, apperr.KindInvalidArgument},
		{"bad phone", func(d *entity.ReportDraft) { d.ReporterPhone = "12" }, apperr.KindInvalidArgument},
		{"latitude out of range", func(d *entity.ReportDraft) { d.Location = &entity.Point{Longitude: 105, Latitude: 95} }, apperr.KindInvalidArgument},
		{"negative loss", func(d *entity.ReportDraft) { d.EstimatedLoss = null.IntFrom(-5) }, apperr.KindInvalidArgument},
		{"unknown event", func(d *entity.ReportDraft) { d.EventID = "ev-404" }, apperr.KindNotFound},
		{"unknown area", func(d *entity.ReportDraft) { d.AreaID = "area-404" }, apperr.KindNotFound},
		{"asset without type", func(d *entity.ReportDraft) { d.Assets = []entity.AssetDraft{{AssetName: "fridge"}} }, apperr.KindInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReportFixture()
			draft := guestDraft()
			tt.mutate(&draft)

			_, err := f.svc.CreateReport(context.Background(), draft, anonymous)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Empty(t, f.reports.reports)
		})
	}
}

func TestCreateReport_AreaImpliesEvent(t *testing.T) {
	f := newReportFixture()
	draft := guestDraft()
	draft.AreaID = "area-1"
	draft.Assets = []entity.AssetDraft{{AssetType: "house", EstimatedValue: null.IntFrom(30000000)}}

	report, err := f.svc.CreateReport(context.Background(), draft, anonymous)
	require.NoError(t, err)
	assert.Equal(t, "ev-1", report.EventID.String)
	assert.Equal(t, "area-1", report.AreaID.String)
	require.Len(t, report.Assets, 1)
	assert.Equal(t, 1, report.Assets[0].Quantity)
	assert.Equal(t, int64(30000000), report.TotalAssetValue())

	draft.EventID = "ev-other"
	_, err = f.svc.CreateReport(context.Background(), draft, anonymous)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestVerifyReport_CaseInsensitive(t *testing.T) {
	for _, input := range []string{"resolved", "RESOLVED", "Resolved"} {
		t.Run(input, func(t *testing.T) {
			f := newReportFixture()
			ctx := context.Background()
			created, err := f.svc.CreateReport(ctx, guestDraft(), anonymous)
			require.NoError(t, err)

			f.clock.Advance(time.Hour)
			report, err := f.svc.VerifyReport(ctx, created.ID, input, official, entity.Some("water receded"))
			require.NoError(t, err)

			assert.Equal(t, entity.StatusResolved, report.Status)
			require.True(t, report.VerifiedAt.Valid)
			assert.Equal(t, f.clock.Now(), report.VerifiedAt.Time)
			assert.Equal(t, official.UserID, report.VerifiedBy.String)
			assert.Equal(t, "water receded", report.AdminNote.String)
			assert.Equal(t, 1, f.reports.updates)
		})
	}
}

func TestVerifyReport_UnknownStatusLeavesReportUnchanged(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	created, err := f.svc.CreateReport(ctx, guestDraft(), anonymous)
	require.NoError(t, err)
	before := *f.reports.reports[created.ID]

	_, err = f.svc.VerifyReport(ctx, created.ID, "bogus", official, entity.Optional[string]{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "bogus")

	assert.Equal(t, before, *f.reports.reports[created.ID])
	assert.Equal(t, 0, f.reports.updates)
}

func TestVerifyReport_NotFound(t *testing.T) {
	f := newReportFixture()
	_, err := f.svc.VerifyReport(context.Background(), "missing", "verified", official, entity.Optional[string]{})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "missing")
}

func TestVerifyReport_NoteAbsentKeepsExisting(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	created, err := f.svc.CreateReport(ctx, guestDraft(), anonymous)
	require.NoError(t, err)

	_, err = f.svc.VerifyReport(ctx, created.ID, "processing", official, entity.Some("team dispatched"))
	require.NoError(t, err)
	report, err := f.svc.VerifyReport(ctx, created.ID, "resolved", official, entity.Optional[string]{})
	require.NoError(t, err)
	assert.Equal(t, "team dispatched", report.AdminNote.String)

	report, err = f.svc.VerifyReport(ctx, created.ID, "resolved", official, entity.Null[string]())
	require.NoError(t, err)
	assert.False(t, report.AdminNote.Valid)
}

func TestUpdateReport_OnlyDescription(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	created, err := f.svc.CreateReport(ctx, guestDraft(), resident)
	require.NoError(t, err)
	before := *f.reports.reports[created.ID]

	updated, err := f.svc.UpdateReport(ctx, created.ID, entity.ReportPatch{Description: entity.Some("x")}, resident)
	require.NoError(t, err)
	assert.Equal(t, "x", updated.Description)

	after := *f.reports.reports[created.ID]
	before.Description = "x"
	assert.Equal(t, before, after)
}

func TestUpdateReport_NullSemantics(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	draft := guestDraft()
	draft.ImageURL = null.StringFrom("https://img.example/1.jpg")
	created, err := f.svc.CreateReport(ctx, draft, resident)
	require.NoError(t, err)

	updated, err := f.svc.UpdateReport(ctx, created.ID, entity.ReportPatch{
		ImageURL:    entity.Null[string](),
		Description: entity.Null[string](),
	}, resident)
	require.NoError(t, err)
	assert.False(t, updated.ImageURL.Valid)
	assert.Equal(t, "", updated.Description)
	assert.Equal(t, "flood", updated.EventType)

	_, err = f.svc.UpdateReport(ctx, created.ID, entity.ReportPatch{EventType: entity.Null[string]()}, resident)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	_, err = f.svc.UpdateReport(ctx, created.ID, entity.ReportPatch{DamageLevel: entity.Null[int]()}, resident)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	_, err = f.svc.UpdateReport(ctx, created.ID, entity.ReportPatch{DamageLevel: entity.Some(9)}, resident)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestUpdateReport_ImageURL(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	created, err := f.svc.CreateReport(ctx, guestDraft(), resident)
	require.NoError(t, err)

	for _, bad := range []string{"not a url", "photo.jpg", "javascript"} {
		_, err = f.svc.UpdateReport(ctx, created.ID, entity.ReportPatch{ImageURL: entity.Some(bad)}, resident)
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err), bad)
	}
	assert.Equal(t, 0, f.reports.updates)

	updated, err := f.svc.UpdateReport(ctx, created.ID, entity.ReportPatch{ImageURL: entity.Some("https://img.example/2.jpg")}, resident)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/2.jpg", updated.ImageURL.String)

	updated, err = f.svc.UpdateReport(ctx, created.ID, entity.ReportPatch{ImageURL: entity.Some("")}, resident)
	require.NoError(t, err)
	assert.False(t, updated.ImageURL.Valid)
}

func TestUpdateReport_NeverTouchesStatus(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	created, err := f.svc.CreateReport(ctx, guestDraft(), resident)
	require.NoError(t, err)
	_, err = f.svc.VerifyReport(ctx, created.ID, "verified", official, entity.Optional[string]{})
	require.NoError(t, err)

	updated, err := f.svc.UpdateReport(ctx, created.ID, entity.ReportPatch{EventType: entity.Some("storm"), DamageLevel: entity.Some(5)}, official)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusVerified, updated.Status)
	assert.True(t, updated.VerifiedAt.Valid)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.UserID, updated.UserID)
}

func TestUpdateReport_KeepsConcurrentVerification(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	created, err := f.svc.CreateReport(ctx, guestDraft(), resident)
	require.NoError(t, err)

	f.reports.afterGet = func(id string) {
		_, err := f.svc.VerifyReport(ctx, id, "verified", official, entity.Some("confirmed on site"))
		require.NoError(t, err)
	}
	updated, err := f.svc.UpdateReport(ctx, created.ID, entity.ReportPatch{Description: entity.Some("x")}, resident)
	require.NoError(t, err)

	stored := f.reports.reports[created.ID]
	assert.Equal(t, "x", stored.Description)
	assert.Equal(t, entity.StatusVerified, stored.Status)
	assert.True(t, stored.VerifiedAt.Valid)
	assert.Equal(t, official.UserID, stored.VerifiedBy.String)
	assert.Equal(t, "confirmed on site", stored.AdminNote.String)

	assert.Equal(t, entity.StatusVerified, updated.Status)
	assert.Equal(t, "x", updated.Description)
}

func TestUpdateReport_Authorization(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	created, err := f.svc.CreateReport(ctx, guestDraft(), resident)
	require.NoError(t, err)

	stranger := entity.Identity{UserID: "u-stranger", Role: entity.RoleResident}
	_, err = f.svc.UpdateReport(ctx, created.ID, entity.ReportPatch{Description: entity.Some("mine now")}, stranger)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.svc.UpdateReport(ctx, created.ID, entity.ReportPatch{Description: entity.Some("ok")}, official)
	assert.NoError(t, err)

	_, err = f.svc.UpdateReport(ctx, "missing", entity.ReportPatch{}, official)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteReport(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()

	err := f.svc.DeleteReport(ctx, "unknown")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	created, err := f.svc.CreateReport(ctx, guestDraft(), anonymous)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteReport(ctx, created.ID))

	_, err = f.svc.GetReport(ctx, created.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, []string{entity.ReportCreated, entity.ReportDeleted}, f.publisher.types())
}

func TestCountByField_ExactKeys(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	for i, et := range []string{"flood", "flood", "flood", "storm", "storm"} {
		f.reports.reports[string(rune('a'+i))] = &entity.Report{ID: string(rune('a' + i)), EventType: et, Status: entity.StatusUnverified}
	}

	counts, err := f.svc.CountByField(ctx, entity.GroupByEventType)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"flood": 3, "storm": 2}, counts)

	_, err = f.svc.CountByField(ctx, entity.GroupField("description"))
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestCountByField_UsesCacheUntilWrite(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()

	_, err := f.svc.CreateReport(ctx, guestDraft(), anonymous)
	require.NoError(t, err)

	_, err = f.svc.CountByField(ctx, entity.GroupByStatus)
	require.NoError(t, err)
	_, err = f.svc.CountByField(ctx, entity.GroupByStatus)
	require.NoError(t, err)
	assert.Equal(t, 1, f.reports.groupCalls)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.StatsCache.WithLabelValues("hit")))

	_, err = f.svc.CreateReport(ctx, guestDraft(), anonymous)
	require.NoError(t, err)
	counts, err := f.svc.CountByField(ctx, entity.GroupByStatus)
	require.NoError(t, err)
	assert.Equal(t, 2, f.reports.groupCalls)
	assert.Equal(t, map[string]int64{"UNVERIFIED": 2}, counts)
}

func TestCountByField_WriteDuringFillIsNotMasked(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	_, err := f.svc.CreateReport(ctx, guestDraft(), anonymous)
	require.NoError(t, err)

	f.reports.afterCount = func() {
		_, err := f.svc.CreateReport(ctx, guestDraft(), anonymous)
		require.NoError(t, err)
	}
	counts, err := f.svc.CountByField(ctx, entity.GroupByStatus)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"UNVERIFIED": 1}, counts)

	counts, err = f.svc.CountByField(ctx, entity.GroupByStatus)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"UNVERIFIED": 2}, counts)
	assert.Equal(t, 2, f.reports.groupCalls)

	_, err = f.svc.CountByField(ctx, entity.GroupByStatus)
	require.NoError(t, err)
	assert.Equal(t, 2, f.reports.groupCalls)
}

func TestGuestReportScenario(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()

	created, err := f.svc.CreateReport(ctx, entity.ReportDraft{ReporterName: "Tran", EventType: "flood"}, anonymous)
	require.NoError(t, err)

	_, err = f.svc.VerifyReport(ctx, created.ID, "verified", official, entity.Optional[string]{})
	require.NoError(t, err)

	got, err := f.svc.GetReport(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusVerified, got.Status)
	assert.True(t, got.VerifiedAt.Valid)

	counts, err := f.svc.CountByField(ctx, entity.GroupByStatus)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["VERIFIED"])
	assert.Equal(t, []string{entity.ReportCreated, entity.ReportVerified}, f.publisher.types())
}

func TestFindWithinRadius_DefaultsAndValidation(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()

	_, err := f.svc.FindWithinRadius(ctx, entity.Point{Longitude: 105.85, Latitude: 21.03}, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{105.85, 21.03, 1000}, f.reports.nearbyArgs)

	_, err = f.svc.FindWithinRadius(ctx, entity.Point{Longitude: 105.85, Latitude: 21.03}, -10)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	_, err = f.svc.FindWithinRadius(ctx, entity.Point{Longitude: 200, Latitude: 21.03}, 10)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestFindByCellAndArea(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	created, err := f.svc.CreateReport(ctx, guestDraft(), anonymous)
	require.NoError(t, err)

	found, err := f.svc.FindByCell(ctx, created.H3Index)
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, err = f.svc.FindByCell(ctx, "zzz")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = f.svc.FindInArea(ctx, "area-404")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestTotalEstimatedLossByEvent(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	draft := guestDraft()
	draft.EventID = "ev-1"
	draft.EstimatedLoss = null.IntFrom(7000000)
	_, err := f.svc.CreateReport(ctx, draft, anonymous)
	require.NoError(t, err)

	total, err := f.svc.TotalEstimatedLossByEvent(ctx, "ev-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7000000), total)

	_, err = f.svc.TotalEstimatedLossByEvent(ctx, "ev-404")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestAssets(t *testing.T) {
	f := newReportFixture()
	ctx := context.Background()
	created, err := f.svc.CreateReport(ctx, guestDraft(), resident)
	require.NoError(t, err)

	asset, err := f.svc.AddAsset(ctx, created.ID, entity.AssetDraft{AssetType: "motorbike", Quantity: 2, EstimatedValue: null.IntFrom(15000000)}, resident)
	require.NoError(t, err)
	assert.Equal(t, created.ID, asset.ReportID)

	stranger := entity.Identity{UserID: "u-x", Role: entity.RoleResident}
	_, err = f.svc.AddAsset(ctx, created.ID, entity.AssetDraft{AssetType: "house"}, stranger)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	assets, err := f.svc.ListAssets(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, assets, 1)

	got, err := f.svc.GetReport(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15000000), got.TotalAssetValue())

	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(f.svc.DeleteAsset(ctx, asset.ID, stranger)))
	require.NoError(t, f.svc.DeleteAsset(ctx, asset.ID, official))
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(f.svc.DeleteAsset(ctx, asset.ID, official)))
}

func TestReportEventPublisher_FailureIsBestEffort(t *testing.T) {
	f := newReportFixture()
	f.publisher.err = assert.AnError

	_, err := f.svc.CreateReport(context.Background(), guestDraft(), anonymous)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EventsPublished.WithLabelValues(entity.ReportCreated, "error")))
}

func TestReportEventPublisher_NilBroker(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	p := NewReportEventPublisher(nil, "report_events", clockwork.NewFakeClock(), metrics, quietLogger())
	p.Publish(context.Background(), entity.ReportCreated, &entity.Report{ID: "r-1"})
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(entity.ReportCreated, "skipped")))
}
