package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/alerting"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/cache"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/metrics"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
)

type ReadingService struct {
	store   repository.Store
	trigger *alerting.Trigger
	cache   *cache.Cache
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// WriteResult is a stored reading plus the alert it raised, if any.
type WriteResult struct {
	Reading *domain.DailyReading `json:"reading"`
	Alert   *domain.Alert        `json:"alert,omitempty"`
}

func validAmount(kwh float64) bool {
	return kwh >= 0 && !math.IsInf(kwh, 0)
}

// List returns a site's raw readings newest first, optionally bounded.
func (s *ReadingService) List(ctx context.Context, siteID int64, from, to *time.Time) ([]domain.DailyReading, error) {
	out, err := s.store.FindReadings(ctx, repository.ReadingQuery{SiteID: siteID, From: from, To: to, Newest: true})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.DailyReading{}
	}
	return out, nil
}

// Record upserts one day's reading and runs the alert trigger on it. The
// trigger never fails the write.
func (s *ReadingService) Record(ctx context.Context, siteID int64, date time.Time, kwh float64, source string) (*WriteResult, error) {
	if !validAmount(kwh) {
		return nil, invalid("generation must be a non-negative number")
	}
	if _, err := s.store.GetSite(ctx, siteID); err != nil {
		return nil, err
	}
	r, err := s.store.UpsertReading(ctx, siteID, fiscal.Normalize(date), kwh)
	if err != nil {
		return nil, err
	}
	s.metrics.ReadingsWritten(source, 1)
	invalidate(ctx, s.cache, s.log, siteID)

	return &WriteResult{Reading: r, Alert: s.trigger.OnReading(ctx, *r)}, nil
}

// Bulk writes a batch in one transaction. No alerts are raised.
func (s *ReadingService) Bulk(ctx context.Context, siteID int64, rows []domain.ReadingInput) (domain.BulkResult, error) {
	if len(rows) == 0 {
		return domain.BulkResult{}, invalid("no readings supplied")
	}
	if _, err := s.store.GetSite(ctx, siteID); err != nil {
		return domain.BulkResult{}, err
	}
	batch := make([]domain.DailyReading, 0, len(rows))
	for i, in := range rows {
		if in.Date.IsZero() {
			return domain.BulkResult{}, invalid("row %d: date is required", i+1)
		}
		if !validAmount(in.GenerationKWh) {
			return domain.BulkResult{}, invalid("row %d: generation must be a non-negative number", i+1)
		}
		batch = append(batch, domain.DailyReading{SiteID: siteID, Date: fiscal.Normalize(in.Date), GenerationKWh: in.GenerationKWh})
	}
	res, err := s.store.BulkUpsertReadings(ctx, batch)
	if err != nil {
		return res, err
	}
	s.metrics.ReadingsWritten(metrics.SourceBulk, res.Upserted+res.Modified)
	invalidate(ctx, s.cache, s.log, siteID)
	return res, nil
}

// Update rewrites a reading addressed by id; the trigger runs as for Record.
func (s *ReadingService) Update(ctx context.Context, id int64, date time.Time, kwh float64) (*WriteResult, error) {
	if !validAmount(kwh) {
		return nil, invalid("generation must be a non-negative number")
	}
	r, err := s.store.UpdateReading(ctx, id, fiscal.Normalize(date), kwh)
	if err != nil {
		return nil, err
	}
	s.metrics.ReadingsWritten(metrics.SourceAPI, 1)
	invalidate(ctx, s.cache, s.log, r.SiteID)
	return &WriteResult{Reading: r, Alert: s.trigger.OnReading(ctx, *r)}, nil
}

func (s *ReadingService) Delete(ctx context.Context, id int64) (*domain.DailyReading, error) {
	r, err := s.store.DeleteReading(ctx, id)
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, s.log, r.SiteID)
	return r, nil
}

// FromMQTT ingests one ReadingMessage published by a site gateway.
func (s *ReadingService) FromMQTT(ctx context.Context, topic string, payload []byte) error {
	var msg domain.ReadingMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode %s payload: %w", topic, err)
	}
	date, err := fiscal.ParseDate(msg.Date)
	if err != nil {
		return fmt.Errorf("%s payload: %w", topic, err)
	}
	site, err := s.store.GetSiteByNumber(ctx, msg.SiteNumber)
	if err != nil {
		return fmt.Errorf("site %d: %w", msg.SiteNumber, err)
	}
	res, err := s.Record(ctx, site.ID, date, msg.GenerationKWh, metrics.SourceMQTT)
	if err != nil {
		return err
	}
	s.log.Debug().Str("topic", topic).Int64("site_id", site.ID).Time("date", date).Bool("alert", res.Alert != nil).Msg("reading ingested")
	return nil
}
