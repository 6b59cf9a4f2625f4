// Package apiclient talks to the monitor's HTTP API. It backs the prctl CLI.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/fiscal"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/service"
)

// Error is a non-2xx answer carrying the server's message.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Sites(ctx context.Context) ([]domain.Site, error) {
	var out []domain.Site
	if err := c.do(ctx, http.MethodGet, "/api/sites", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSite(ctx context.Context, s domain.Site) (*domain.Site, error) {
	body := map[string]interface{}{
		"name":         s.Name,
		"site_number":  s.SiteNumber,
		"capacity_kwp": s.CapacityKWp,
		"location":     s.Location,
	}
	var out domain.Site
	if err := c.do(ctx, http.MethodPost, "/api/sites", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpsertTarget(ctx context.Context, t domain.MonthlyTarget) error {
	body := map[string]interface{}{
		"site_id": t.SiteID,
		"year":    t.FiscalYear,
	}
	for _, k := range fiscal.Order() {
		body[string(k)] = t.Get(k)
	}
	return c.do(ctx, http.MethodPost, "/api/targets", nil, body, nil)
}

type readingRow struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// BulkReadings writes readings of one site in a single batch.
func (c *Client) BulkReadings(ctx context.Context, siteID int64, readings []domain.DailyReading) (domain.BulkResult, error) {
	rows := make([]readingRow, len(readings))
	for i, r := range readings {
		rows[i] = readingRow{Date: r.Date.Format("2006-01-02"), Amount: r.GenerationKWh}
	}
	var out domain.BulkResult
	err := c.do(ctx, http.MethodPost, "/api/readings/bulk", nil, map[string]interface{}{
		"site_id":  siteID,
		"readings": rows,
	}, &out)
	return out, err
}

// Dashboard fetches fiscal-year mode, or range mode when start and end are set.
func (c *Client) Dashboard(ctx context.Context, siteID int64, year int, start, end string) (*service.Dashboard, error) {
	params := url.Values{}
	params.Set("site_id", strconv.FormatInt(siteID, 10))
	if start != "" || end != "" {
		params.Set("start", start)
		params.Set("end", end)
	} else if year != 0 {
		params.Set("year", strconv.Itoa(year))
	}
	var out service.Dashboard
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Forecast(ctx context.Context) ([]domain.ForecastPoint, error) {
	var out []domain.ForecastPoint
	if err := c.do(ctx, http.MethodGet, "/api/forecast", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Alerts(ctx context.Context, siteID int64, all bool, limit int) ([]domain.Alert, error) {
	params := url.Values{}
	if siteID != 0 {
		params.Set("site_id", strconv.FormatInt(siteID, 10))
	}
	if all {
		params.Set("all", "true")
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out []domain.Alert
	if err := c.do(ctx, http.MethodGet, "/api/alerts", params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ResolveAlert(ctx context.Context, id string) (*domain.Alert, error) {
	var out domain.Alert
	if err := c.do(ctx, http.MethodPatch, "/api/alerts/"+url.PathEscape(id)+"/resolve", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Import kinds accepted by Import.
const (
	ImportDaily  = "daily"
	ImportFleet  = "fleet"
	ImportMatrix = "matrix"
)

// Import uploads a workbook. siteID is used by daily imports and year by
// matrix imports.
func (c *Client) Import(ctx context.Context, kind, filename string, r io.Reader, siteID int64, year int) (domain.BulkResult, error) {
	params := url.Values{}
	switch kind {
	case ImportDaily:
		params.Set("site_id", strconv.FormatInt(siteID, 10))
	case ImportFleet:
	case ImportMatrix:
		params.Set("year", strconv.Itoa(year))
	default:
		return domain.BulkResult{}, fmt.Errorf("unknown import kind %q", kind)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return domain.BulkResult{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return domain.BulkResult{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return domain.BulkResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/import/"+kind, params), &body)
	if err != nil {
		return domain.BulkResult{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	var out domain.BulkResult
	if err := c.send(req, &out); err != nil {
		return domain.BulkResult{}, err
	}
	return out, nil
}

func (c *Client) url(path string, params url.Values) string {
	u := c.baseURL + path
	if q := params.Encode(); q != "" {
		u += "?" + q
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, params), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var env struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Message == "" {
			env.Message = resp.Status
		}
		return &Error{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
