// Package memory is a process-local repository.Store for demos and tests.
// Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
)

// Store keeps every table in maps guarded by one mutex.
type Store struct {
	mu       sync.Mutex
	nextID   int64
	sites    map[int64]domain.Site
	targets  map[[2]int64]domain.MonthlyTarget
	readings map[int64]domain.DailyReading
	records  map[int64]domain.MonthlyRecord
	alerts   []domain.Alert
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		sites:    map[int64]domain.Site{},
		targets:  map[[2]int64]domain.MonthlyTarget{},
		readings: map[int64]domain.DailyReading{},
		records:  map[int64]domain.MonthlyRecord{},
	}
}

func (m *Store) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Store) ListSites(context.Context) ([]domain.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Site
	for _, s := range m.sites {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SiteNumber < out[j].SiteNumber })
	return out, nil
}

func (m *Store) GetSite(_ context.Context, id int64) (*domain.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *Store) GetSiteByNumber(_ context.Context, number int) (*domain.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sites {
		if s.SiteNumber == number {
			s := s
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *Store) CreateSite(_ context.Context, s *domain.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.id()
	m.sites[s.ID] = *s
	return nil
}

func (m *Store) UpdateSite(_ context.Context, s *domain.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sites[s.ID]; !ok {
		return repository.ErrNotFound
	}
	m.sites[s.ID] = *s
	return nil
}

// DeleteSite drops the site together with its targets, readings, records and alerts.
func (m *Store) DeleteSite(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sites[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.sites, id)
	for k := range m.targets {
		if k[0] == id {
			delete(m.targets, k)
		}
	}
	for rid, r := range m.readings {
		if r.SiteID == id {
			delete(m.readings, rid)
		}
	}
	for rid, r := range m.records {
		if r.SiteID == id {
			delete(m.records, rid)
		}
	}
	kept := m.alerts[:0]
	for _, a := range m.alerts {
		if a.SiteID != id {
			kept = append(kept, a)
		}
	}
	m.alerts = kept
	return nil
}

func (m *Store) FindTarget(_ context.Context, siteID int64, fy int) (*domain.MonthlyTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.targets[[2]int64{siteID, int64(fy)}]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *Store) FindTargets(_ context.Context, siteID int64, fromFY, toFY int) ([]domain.MonthlyTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.MonthlyTarget
	for k, t := range m.targets {
		if k[0] == siteID && t.FiscalYear >= fromFY && t.FiscalYear <= toFY {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Store) ListTargets(ctx context.Context, siteID int64) ([]domain.MonthlyTarget, error) {
	out, err := m.FindTargets(ctx, siteID, 0, 1<<30)
	sort.Slice(out, func(i, j int) bool { return out[i].FiscalYear > out[j].FiscalYear })
	return out, err
}

func (m *Store) UpsertTarget(_ context.Context, t *domain.MonthlyTarget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{t.SiteID, int64(t.FiscalYear)}
	if prev, ok := m.targets[key]; ok {
		t.ID = prev.ID
	} else {
		t.ID = m.id()
	}
	m.targets[key] = *t
	return nil
}

func (m *Store) FindReadings(_ context.Context, q repository.ReadingQuery) ([]domain.DailyReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DailyReading
	for _, r := range m.readings {
		if q.SiteID != 0 && r.SiteID != q.SiteID {
			continue
		}
		if q.From != nil && r.Date.Before(fiscal.Normalize(*q.From)) {
			continue
		}
		if q.To != nil && r.Date.After(fiscal.Normalize(*q.To)) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.Newest {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (m *Store) upsertLocked(siteID int64, date time.Time, kwh float64) (domain.DailyReading, bool, bool) {
	for id, r := range m.readings {
		if r.SiteID == siteID && r.Date.Equal(date) {
			changed := r.GenerationKWh != kwh
			r.GenerationKWh = kwh
			m.readings[id] = r
			return r, false, changed
		}
	}
	r := domain.DailyReading{ID: m.id(), SiteID: siteID, Date: date, GenerationKWh: kwh}
	m.readings[r.ID] = r
	return r, true, true
}

func (m *Store) UpsertReading(_ context.Context, siteID int64, date time.Time, kwh float64) (*domain.DailyReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, _, _ := m.upsertLocked(siteID, date, kwh)
	return &r, nil
}

func (m *Store) BulkUpsertReadings(_ context.Context, rows []domain.DailyReading) (domain.BulkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := domain.BulkResult{Total: len(rows)}
	for _, row := range rows {
		_, inserted, changed := m.upsertLocked(row.SiteID, row.Date, row.GenerationKWh)
		switch {
		case inserted:
			res.Upserted++
		case changed:
			res.Modified++
			res.Matched++
		default:
			res.Matched++
		}
	}
	return res, nil
}

func (m *Store) UpdateReading(_ context.Context, id int64, date time.Time, kwh float64) (*domain.DailyReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.readings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	date = fiscal.Normalize(date)
	for otherID, other := range m.readings {
		if otherID != id && other.SiteID == r.SiteID && other.Date.Equal(date) {
			return nil, fmt.Errorf("%w: site %d already has reading %d on %s",
				repository.ErrConflict, r.SiteID, otherID, date.Format("2006-01-02"))
		}
	}
	r.Date, r.GenerationKWh, r.UpdatedAt = date, kwh, time.Now().UTC()
	m.readings[id] = r
	return &r, nil
}

func (m *Store) DeleteReading(_ context.Context, id int64) (*domain.DailyReading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.readings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.readings, id)
	return &r, nil
}

func (m *Store) FindMonthlyRecord(_ context.Context, siteID int64, year, month int) (*domain.MonthlyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.SiteID == siteID && r.Year == year && r.Month == month {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (m *Store) ListMonthlyRecords(_ context.Context, siteID int64, year int) ([]domain.MonthlyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.MonthlyRecord
	for _, r := range m.records {
		if r.SiteID == siteID && (year == 0 || r.Year == year) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Store) RecordsForFiscalYear(_ context.Context, fy int) ([]domain.MonthlyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.MonthlyRecord
	for _, r := range m.records {
		if (r.Year == fy && r.Month >= 3) || (r.Year == fy+1 && r.Month <= 2) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Store) upsertRecordLocked(rec *domain.MonthlyRecord) bool {
	for id, r := range m.records {
		if r.SiteID == rec.SiteID && r.Year == rec.Year && r.Month == rec.Month {
			rec.ID = id
			m.records[id] = *rec
			return false
		}
	}
	rec.ID = m.id()
	m.records[rec.ID] = *rec
	return true
}

func (m *Store) UpsertMonthlyRecord(_ context.Context, rec *domain.MonthlyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertRecordLocked(rec)
	return nil
}

func (m *Store) BulkUpsertMonthlyRecords(_ context.Context, rows []domain.MonthlyRecord) (domain.BulkResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := domain.BulkResult{Total: len(rows)}
	for i := range rows {
		if m.upsertRecordLocked(&rows[i]) {
			res.Upserted++
		} else {
			res.Matched++
			res.Modified++
		}
	}
	return res, nil
}

func (m *Store) DeleteMonthlyRecord(_ context.Context, id int64) (*domain.MonthlyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.records, id)
	return &r, nil
}

func (m *Store) CreateAlert(_ context.Context, a *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, *a)
	return nil
}

func (m *Store) ListAlerts(_ context.Context, q repository.AlertQuery) ([]domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Alert
	for i := len(m.alerts) - 1; i >= 0; i-- {
		a := m.alerts[i]
		if (q.SiteID != 0 && a.SiteID != q.SiteID) || (a.Resolved && !q.IncludeResolved) {
			continue
		}
		out = append(out, a)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (m *Store) ResolveAlert(_ context.Context, id string) (*domain.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].Resolved = true
			a := m.alerts[i]
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}
