// Package alerting raises underperformance alerts after single reading writes.
package alerting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/metrics"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/performance"
)

const (
	WarningBelow  = 75.0
	CriticalBelow = 50.0
)

// Assess maps a daily PR to an alert severity. ok is false when no alert is due.
func Assess(pr float64) (sev domain.Severity, ok bool) {
	switch {
	case pr < CriticalBelow:
		return domain.SeverityCritical, true
	case pr < WarningBelow:
		return domain.SeverityWarning, true
	default:
		return "", false
	}
}

// TargetFinder returns the target document of a site's fiscal year, or nil when none exists.
type TargetFinder interface {
	FindTarget(ctx context.Context, siteID int64, fiscalYear int) (*domain.MonthlyTarget, error)
}

type AlertWriter interface {
	CreateAlert(ctx context.Context, a *domain.Alert) error
}

// Notifier fans a stored alert out to an external channel.
type Notifier interface {
	Notify(ctx context.Context, a domain.Alert) error
}

type Trigger struct {
	targets   TargetFinder
	alerts    AlertWriter
	notifiers []Notifier
	metrics   *metrics.Metrics
	log       zerolog.Logger
	now       func() time.Time
}

func NewTrigger(targets TargetFinder, alerts AlertWriter, m *metrics.Metrics, log zerolog.Logger, notifiers ...Notifier) *Trigger {
	return &Trigger{
		targets:   targets,
		alerts:    alerts,
		notifiers: notifiers,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// OnReading evaluates a freshly written reading and stores an alert when it
// underperforms. It never fails the caller: errors and panics are logged and
// counted. The returned alert is nil when none was raised.
func (t *Trigger) OnReading(ctx context.Context, r domain.DailyReading) (raised *domain.Alert) {
	defer func() {
		if p := recover(); p != nil {
			t.metrics.TriggerFailed()
			t.log.Error().Interface("panic", p).Int64("site_id", r.SiteID).Msg("alert trigger panicked")
			raised = nil
		}
	}()

	a, err := t.evaluate(ctx, r)
	if err != nil {
		t.metrics.TriggerFailed()
		t.log.Error().Err(err).Int64("site_id", r.SiteID).Time("date", r.Date).Msg("alert trigger failed")
		return nil
	}
	if a == nil {
		return nil
	}
	t.metrics.AlertRaised(a.Severity)
	t.log.Warn().Str("alert_id", a.ID).Str("severity", string(a.Severity)).Int64("site_id", a.SiteID).Msg(a.Message)

	for _, n := range t.notifiers {
		if err := n.Notify(ctx, *a); err != nil {
			t.log.Error().Err(err).Str("alert_id", a.ID).Msg("alert notification failed")
		}
	}
	return a
}

func (t *Trigger) evaluate(ctx context.Context, r domain.DailyReading) (*domain.Alert, error) {
	res := performance.Resolve(nil, r.Date)
	target, err := t.targets.FindTarget(ctx, r.SiteID, res.FiscalYear)
	if err != nil {
		return nil, fmt.Errorf("find target: %w", err)
	}
	if target == nil {
		return nil, nil
	}
	res = performance.Resolve(target, r.Date)
	// An unset month has nothing to compare against.
	if !(res.DailyTarget > 0) {
		return nil, nil
	}

	pr := performance.Ratio(r.GenerationKWh, res.DailyTarget)
	sev, ok := Assess(pr)
	if !ok {
		return nil, nil
	}
	a := &domain.Alert{
		ID:       uuid.NewString(),
		SiteID:   r.SiteID,
		Severity: sev,
		Category: domain.CategoryPerformance,
		Message: fmt.Sprintf("Low performance on %s: PR %.1f%% (target %.1f kWh, actual %g kWh)",
			r.Date.Format("2006-01-02"), pr, res.DailyTarget, r.GenerationKWh),
		CreatedAt: t.now().UTC(),
	}
	if err := t.alerts.CreateAlert(ctx, a); err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	return a, nil
}
