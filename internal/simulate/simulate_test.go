package simulate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/forecast"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/performance"
)

// scripted replays values in a loop.
type scripted struct {
	values []float64
	i      int
}

func (s *scripted) Float64() float64 {
	v := s.values[s.i%len(s.values)]
	s.i++
	return v
}

func TestTargetScalesWithCapacityAndSeason(t *testing.T) {
	g := New(forecast.DefaultTable(), &scripted{values: []float64{0.5}})
	site := domain.Site{ID: 4, CapacityKWp: 250}

	target := g.Target(site, 2024)
	assert.Equal(t, int64(4), target.SiteID)
	assert.Equal(t, 2024, target.FiscalYear)
	assert.Equal(t, 36000.0, target.Get(fiscal.Apr))
	assert.Equal(t, 18000.0, target.Get(fiscal.Jul))
	assert.Equal(t, 22500.0, target.Get(fiscal.Jan))
}

func TestGenerationBounds(t *testing.T) {
	// weather draw 0.5 → 100%, cloud draw 0.95 → clear
	g := New(forecast.DefaultTable(), &scripted{values: []float64{0.5, 0.95}})
	assert.Equal(t, 100.0, g.Generation(100))

	// weather draw 0 → 80%, cloud draw 0.05 → halved
	g = New(forecast.DefaultTable(), &scripted{values: []float64{0, 0.05}})
	assert.Equal(t, 40.0, g.Generation(100))
}

func TestReadingsCoverRangeWithTargets(t *testing.T) {
	g := New(forecast.DefaultTable(), &scripted{values: []float64{0.5, 0.95}})
	site := domain.Site{ID: 1}
	targets := performance.NewTargetSet([]domain.MonthlyTarget{{SiteID: 1, FiscalYear: 2023, Mar: 3100}})

	readings := g.Readings(site, targets,
		time.Date(2024, 3, 30, 15, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC))

	// Apr 2024 belongs to fiscal 2024, which has no document.
	require.Len(t, readings, 2)
	assert.Equal(t, time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC), readings[0].Date)
	assert.Equal(t, 100.0, readings[0].GenerationKWh)
	assert.Equal(t, int64(1), readings[1].SiteID)
}

func TestDemoSitesAreNumberedUniquely(t *testing.T) {
	seen := map[int]bool{}
	for _, s := range DemoSites() {
		assert.False(t, seen[s.SiteNumber])
		seen[s.SiteNumber] = true
		assert.Greater(t, s.CapacityKWp, 0.0)
	}
}
