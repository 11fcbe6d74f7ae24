package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/entity"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// mockReportRepo keeps reports in memory and counts writes.
type mockReportRepo struct {
	reports    map[string]*entity.Report
	updates    int
	assigned   map[string]string
	groupCalls int
	nearbyArgs []float64
	failCreate error

	// afterGet runs once, after the next GetByID has taken its copy.
	afterGet func(id string)
	// afterCount runs once, after the next CountGroupedBy has counted.
	afterCount func()
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: map[string]*entity.Report{}, assigned: map[string]string{}}
}

func (m *mockReportRepo) Create(ctx context.Context, report *entity.Report) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	cp := *report
	m.reports[report.ID] = &cp
	return nil
}

func (m *mockReportRepo) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	if hook := m.afterGet; hook != nil {
		m.afterGet = nil
		hook(id)
	}
	return &cp, nil
}

func (m *mockReportRepo) List(ctx context.Context, filter entity.ReportFilter) ([]entity.Report, error) {
	out := []entity.Report{}
	for _, r := range m.reports {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockReportRepo) UpdateFields(ctx context.Context, report *entity.Report) error {
	r, ok := m.reports[report.ID]
	if !ok {
		return repository.ErrNotFound
	}
	m.updates++
	r.EventType = report.EventType
	r.Description = report.Description
	r.ImageURL = report.ImageURL
	r.DamageLevel = report.DamageLevel
	return nil
}

func (m *mockReportRepo) UpdateVerification(ctx context.Context, report *entity.Report) error {
	r, ok := m.reports[report.ID]
	if !ok {
		return repository.ErrNotFound
	}
	m.updates++
	r.Status = report.Status
	r.VerifiedBy = report.VerifiedBy
	r.VerifiedAt = report.VerifiedAt
	r.AdminNote = report.AdminNote
	return nil
}

func (m *mockReportRepo) AssignArea(ctx context.Context, id, areaID, eventID string) error {
	r, ok := m.reports[id]
	if !ok {
		return repository.ErrNotFound
	}
	m.assigned[id] = areaID
	r.AreaID.SetValid(areaID)
	r.EventID.SetValid(eventID)
	return nil
}

func (m *mockReportRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.reports[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.reports, id)
	return nil
}

func (m *mockReportRepo) CountGroupedBy(ctx context.Context, field entity.GroupField) (map[string]int64, error) {
	m.groupCalls++
	counts := map[string]int64{}
	for _, r := range m.reports {
		switch field {
		case entity.GroupByEventType:
			counts[r.EventType]++
		case entity.GroupByStatus:
			counts[string(r.Status)]++
		default:
			return nil, errors.New("unsupported")
		}
	}
	if hook := m.afterCount; hook != nil {
		m.afterCount = nil
		hook()
	}
	return counts, nil
}

func (m *mockReportRepo) TotalEstimatedLossByEvent(ctx context.Context, eventID string) (int64, error) {
	var total int64
	for _, r := range m.reports {
		if r.EventID.String == eventID && r.EstimatedLoss.Valid {
			total += r.EstimatedLoss.Int64
		}
	}
	return total, nil
}

func (m *mockReportRepo) FindWithinRadius(ctx context.Context, center entity.Point, radiusMeters float64) ([]entity.Report, error) {
	m.nearbyArgs = []float64{center.Longitude, center.Latitude, radiusMeters}
	return []entity.Report{}, nil
}

func (m *mockReportRepo) FindInBoundingBox(ctx context.Context, box entity.BoundingBox) ([]entity.Report, error) {
	return []entity.Report{}, nil
}

func (m *mockReportRepo) FindInArea(ctx context.Context, areaID string) ([]entity.Report, error) {
	return []entity.Report{}, nil
}

func (m *mockReportRepo) FindByCell(ctx context.Context, cell string) ([]entity.Report, error) {
	out := []entity.Report{}
	for _, r := range m.reports {
		if r.H3Index == cell {
			out = append(out, *r)
		}
	}
	return out, nil
}

type mockAssetRepo struct {
	assets map[string]*entity.DamageAsset
}

func newMockAssetRepo() *mockAssetRepo {
	return &mockAssetRepo{assets: map[string]*entity.DamageAsset{}}
}

func (m *mockAssetRepo) Create(ctx context.Context, asset *entity.DamageAsset) error {
	cp := *asset
	m.assets[asset.ID] = &cp
	return nil
}

func (m *mockAssetRepo) GetByID(ctx context.Context, id string) (*entity.DamageAsset, error) {
	a, ok := m.assets[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *mockAssetRepo) ListByReport(ctx context.Context, reportID string) ([]entity.DamageAsset, error) {
	out := []entity.DamageAsset{}
	for _, a := range m.assets {
		if a.ReportID == reportID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockAssetRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.assets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.assets, id)
	return nil
}

func (m *mockAssetRepo) SummarizeByType(ctx context.Context) ([]repository.AssetSummary, error) {
	return nil, nil
}

type mockEventRepo struct {
	events map[string]*entity.DamageEvent
}

func newMockEventRepo(events ...entity.DamageEvent) *mockEventRepo {
	m := &mockEventRepo{events: map[string]*entity.DamageEvent{}}
	for i := range events {
		m.events[events[i].ID] = &events[i]
	}
	return m
}

func (m *mockEventRepo) Create(ctx context.Context, event *entity.DamageEvent) error {
	cp := *event
	m.events[event.ID] = &cp
	return nil
}

func (m *mockEventRepo) GetByID(ctx context.Context, id string) (*entity.DamageEvent, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *mockEventRepo) List(ctx context.Context, filter entity.EventFilter) ([]entity.DamageEvent, error) {
	out := []entity.DamageEvent{}
	for _, e := range m.events {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockEventRepo) Update(ctx context.Context, event *entity.DamageEvent) error {
	if _, ok := m.events[event.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *event
	m.events[event.ID] = &cp
	return nil
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

type mockAreaRepo struct {
	areas      map[string]*entity.DamageArea
	containing []entity.DamageArea
}

func newMockAreaRepo(areas ...entity.DamageArea) *mockAreaRepo {
	m := &mockAreaRepo{areas: map[string]*entity.DamageArea{}}
	for i := range areas {
		m.areas[areas[i].ID] = &areas[i]
	}
	return m
}

func (m *mockAreaRepo) Create(ctx context.Context, area *entity.DamageArea) error {
	cp := *area
	m.areas[area.ID] = &cp
	return nil
}

func (m *mockAreaRepo) GetByID(ctx context.Context, id string) (*entity.DamageArea, error) {
	a, ok := m.areas[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *mockAreaRepo) List(ctx context.Context, filter entity.AreaFilter) ([]entity.DamageArea, error) {
	out := []entity.DamageArea{}
	for _, a := range m.areas {
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockAreaRepo) Update(ctx context.Context, area *entity.DamageArea) error {
	if _, ok := m.areas[area.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *area
	m.areas[area.ID] = &cp
	return nil
}

func (m *mockAreaRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.areas[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.areas, id)
	return nil
}

func (m *mockAreaRepo) FindContaining(ctx context.Context, p entity.Point) ([]entity.DamageArea, error) {
	return m.containing, nil
}

func (m *mockAreaRepo) FindIntersecting(ctx context.Context, box entity.BoundingBox) ([]entity.DamageArea, error) {
	return []entity.DamageArea{}, nil
}

type mockGeometryValidator struct {
	err   error
	calls []string
}

func (m *mockGeometryValidator) ValidatePolygon(ctx context.Context, wkt string) error {
	m.calls = append(m.calls, wkt)
	return m.err
}

// mockPublisher records published messages.
type mockPublisher struct {
	mu       sync.Mutex
	messages []entity.ReportEvent
	err      error
}

func (p *mockPublisher) Publish(ctx context.Context, queueName string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if ev, ok := message.(entity.ReportEvent); ok {
		p.messages = append(p.messages, ev)
	}
	return nil
}

func (p *mockPublisher) Close() {}

func (p *mockPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Type)
	}
	return out
}

// memoryStatsCache is a map backed cache for exercising hit and miss paths.
// It keeps generations the same way the redis cache does.
type memoryStatsCache struct {
	data        map[string]map[string]int64
	generations map[string]int64
	invalidated int
}

func newMemoryStatsCache() *memoryStatsCache {
	return &memoryStatsCache{data: map[string]map[string]int64{}, generations: map[string]int64{}}
}

func memoryKey(field string, gen int64) string {
	return fmt.Sprintf("%s:%d", field, gen)
}

func (c *memoryStatsCache) GetCounts(ctx context.Context, field string) (map[string]int64, int64, bool, error) {
	gen := c.generations[field]
	v, ok := c.data[memoryKey(field, gen)]
	return v, gen, ok, nil
}

func (c *memoryStatsCache) SetCounts(ctx context.Context, field string, gen int64, counts map[string]int64) error {
	c.data[memoryKey(field, gen)] = counts
	return nil
}

func (c *memoryStatsCache) Invalidate(ctx context.Context, fields ...string) error {
	c.invalidated++
	for _, f := range fields {
		c.generations[f]++
	}
	return nil
}

type mockLocationRepo struct {
	locations   map[string]*entity.Location
	nearestArgs []int
}

func newMockLocationRepo() *mockLocationRepo {
	return &mockLocationRepo{locations: map[string]*entity.Location{}}
}

func (m *mockLocationRepo) Create(ctx context.Context, l *entity.Location) error {
	cp := *l
	m.locations[l.ID] = &cp
	return nil
}

func (m *mockLocationRepo) GetByID(ctx context.Context, id string) (*entity.Location, error) {
	l, ok := m.locations[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (m *mockLocationRepo) List(ctx context.Context, locationType string) ([]entity.Location, error) {
	out := []entity.Location{}
	for _, l := range m.locations {
		if locationType == "" || l.LocationType == locationType {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockLocationRepo) Update(ctx context.Context, l *entity.Location) error {
	if _, ok := m.locations[l.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *l
	m.locations[l.ID] = &cp
	return nil
}

func (m *mockLocationRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.locations[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.locations, id)
	return nil
}

func (m *mockLocationRepo) FindWithinRadius(ctx context.Context, center entity.Point, radiusMeters float64) ([]entity.Location, error) {
	return []entity.Location{}, nil
}

func (m *mockLocationRepo) FindInBoundingBox(ctx context.Context, box entity.BoundingBox) ([]entity.Location, error) {
	return []entity.Location{}, nil
}

func (m *mockLocationRepo) FindNearest(ctx context.Context, p entity.Point, limit int) ([]entity.Location, error) {
	m.nearestArgs = append(m.nearestArgs, limit)
	return []entity.Location{}, nil
}

type mockHistoricalRepo struct {
	records map[string]*entity.HistoricalData
}

func newMockHistoricalRepo() *mockHistoricalRepo {
	return &mockHistoricalRepo{records: map[string]*entity.HistoricalData{}}
}

func (m *mockHistoricalRepo) Create(ctx context.Context, d *entity.HistoricalData) error {
	cp := *d
	m.records[d.ID] = &cp
	return nil
}

func (m *mockHistoricalRepo) GetByID(ctx context.Context, id string) (*entity.HistoricalData, error) {
	d, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *mockHistoricalRepo) List(ctx context.Context, filter entity.HistoricalFilter) ([]entity.HistoricalData, error) {
	out := []entity.HistoricalData{}
	for _, d := range m.records {
		out = append(out, *d)
	}
	return out, nil
}

func (m *mockHistoricalRepo) Update(ctx context.Context, d *entity.HistoricalData) error {
	if _, ok := m.records[d.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *d
	m.records[d.ID] = &cp
	return nil
}

func (m *mockHistoricalRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockHistoricalRepo) FindContaining(ctx context.Context, p entity.Point) ([]entity.HistoricalData, error) {
	return []entity.HistoricalData{}, nil
}

func (m *mockHistoricalRepo) FindIntersecting(ctx context.Context, box entity.BoundingBox) ([]entity.HistoricalData, error) {
	return []entity.HistoricalData{}, nil
}

type mockUserRepo struct {
	users      map[string]*entity.User
	lastLogins int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*entity.User{}}
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) find(match func(u *entity.User) bool) (*entity.User, error) {
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.ID == id })
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.Username == username })
}

func (m *mockUserRepo) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.Phone.Valid && u.Phone.String == phone })
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.Email.Valid && u.Email.String == email })
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role entity.UserRole, area string) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	u.ManagementAreaCode.SetValid(area)
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	m.lastLogins++
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}
