package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	api "github.com/ANIKETSHETTY47/solar-pr-monitor/internal/http"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository/memory"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/service"
)

// startAPI serves the real handlers over a memory store on a loopback port.
func startAPI(t *testing.T) string {
	t.Helper()
	svcs := service.New(service.Deps{Store: memory.New(), Log: zerolog.Nop()})
	app := api.NewApp(zerolog.Nop())
	api.Register(app, svcs, nil, zerolog.Nop())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String()
}

func run(args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T, url string) []seedResult {
	t.Helper()
	out, err := run("seed", "--api", url, "--from", "2024-04-01", "--to", "2024-04-10", "--seed", "1", "--format", "json")
	require.NoError(t, err)
	var results []seedResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	return results
}

func TestSeedIsRepeatable(t *testing.T) {
	url := startAPI(t)

	first := seed(t, url)
	require.Len(t, first, 3)
	for _, r := range first {
		assert.True(t, r.Created)
		assert.Equal(t, 1, r.Targets)
		assert.Equal(t, 10, r.Readings)
	}

	second := seed(t, url)
	require.Len(t, second, 3)
	for i, r := range second {
		assert.False(t, r.Created)
		assert.Equal(t, first[i].SiteID, r.SiteID)
	}
}

func TestDashboardTable(t *testing.T) {
	url := startAPI(t)
	sites := seed(t, url)

	out, err := run("dashboard", "--api", url, "--site", fmt.Sprint(sites[0].SiteID), "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "PERIOD")
	assert.Contains(t, out, "APR")
	assert.Contains(t, out, "FORECAST")

	out, err = run("dashboard", "--api", url, "--site", fmt.Sprint(sites[0].SiteID), "--start", "2024-04-01", "--end", "2024-04-02", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "granularity: daily")
	assert.Contains(t, out, "2024-04-01")

	_, err = run("dashboard", "--api", url, "--site", "1", "--start", "2024-04-01")
	assert.Error(t, err)
}

func TestAlertsAndResolve(t *testing.T) {
	url := startAPI(t)
	seed(t, url)

	out, err := run("alerts", "--api", url, "--format", "json")
	require.NoError(t, err)
	var alerts []domain.Alert
	require.NoError(t, json.Unmarshal([]byte(out), &alerts))
	assert.Empty(t, alerts)

	_, err = run("resolve", "--api", url, "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestImportMatrix(t *testing.T) {
	url := startAPI(t)
	seed(t, url)

	x := excelize.NewFile()
	for cell, v := range map[string]interface{}{
		"A1": "Site Number", "B1": "Apr", "C1": "Jan",
		"A2": 2000, "B2": "150000", "C2": "90000",
		"A3": "Total", "B3": "150000", "C3": "90000",
	} {
		require.NoError(t, x.SetCellValue("Sheet1", cell, v))
	}
	path := filepath.Join(t.TempDir(), "matrix.xlsx")
	require.NoError(t, x.SaveAs(path))
	require.NoError(t, x.Close())

	out, err := run("import", "matrix", path, "--api", url, "--year", "2024", "--format", "json")
	require.NoError(t, err)
	var res domain.BulkResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 2, res.Upserted)
	assert.Equal(t, 1, res.Skipped)

	_, err = run("import", "daily", path, "--api", url)
	assert.Error(t, err)
}

func TestForecastTable(t *testing.T) {
	url := startAPI(t)
	out, err := run("forecast", "--api", url)
	require.NoError(t, err)
	assert.Contains(t, out, "PREDICTED")
}
