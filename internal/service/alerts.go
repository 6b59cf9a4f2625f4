package service

import (
	"context"
	"strings"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
)

const (
	defaultAlertLimit = 50
	maxAlertLimit     = 500
)

type AlertService struct {
	store repository.AlertStore
}

// List returns alerts newest first. By default only unresolved ones.
func (s *AlertService) List(ctx context.Context, q repository.AlertQuery) ([]domain.Alert, error) {
	switch {
	case q.Limit <= 0:
		q.Limit = defaultAlertLimit
	case q.Limit > maxAlertLimit:
		q.Limit = maxAlertLimit
	}
	out, err := s.store.ListAlerts(ctx, q)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Alert{}
	}
	return out, nil
}

// Resolve marks the alert resolved. Resolving twice is not an error.
func (s *AlertService) Resolve(ctx context.Context, id string) (*domain.Alert, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalid("alert id is required")
	}
	return s.store.ResolveAlert(ctx, id)
}
