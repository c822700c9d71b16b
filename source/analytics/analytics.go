// Package analytics fetches site usage metrics from the web-analytics
// API (Digital Analytics Program style: API-key header, per-report data
// endpoints) and renders them as usage reports.
package analytics

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/gsa/datagov-metrics/common"
	"github.com/gsa/datagov-metrics/config"
	"github.com/gsa/datagov-metrics/source"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the production web-analytics API endpoint
	DefaultBaseURL = "https://api.gsa.gov/analytics/dap/v2"
	// DefaultReport is the report fetched by Fetch
	DefaultReport = "site-traffic"
)

// Client fetches metrics from the web-analytics API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ source.Fetcher = (*Client)(nil)

// NewClient creates a new web-analytics API client
func NewClient(baseURL, apiKey string, cfg *config.Config) *Client {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: source.DefaultHTTPTimeout},
		logger:     cfg.GetLogger(),
	}
}

// WithHTTPClient sets a custom HTTP client, mainly for tests
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// Source implements source.Fetcher
func (c *Client) Source() common.ReportSource {
	return common.ReportSourceAnalytics
}

// Fetch implements source.Fetcher, retrieving the default site-traffic
// report for the given date.
func (c *Client) Fetch(ctx context.Context, date string) (*common.UsageReport, error) {
	return c.FetchReport(ctx, DefaultReport, date)
}

// FetchReport retrieves a named analytics report for a single day and
// renders it as CSV rows with deterministic (sorted) columns.
func (c *Client) FetchReport(ctx context.Context, reportName, date string) (*common.UsageReport, error) {
	endpoint := fmt.Sprintf("%s/reports/%s/data?%s", c.baseURL, url.PathEscape(reportName), url.Values{
		"after":  {date},
		"before": {date},
	}.Encode())

	header := http.Header{}
	if c.apiKey != "" {
		header.Set("X-Api-Key", c.apiKey)
	}

	var records []map[string]interface{}
	if err := source.GetJSON(ctx, c.httpClient, endpoint, header, &records); err != nil {
		return nil, fmt.Errorf("failed to fetch analytics report %s: %w", reportName, err)
	}

	columns := collectColumns(records)
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = formatValue(record[column])
		}
		rows = append(rows, row)
	}

	c.logger.Debug("Fetched analytics report",
		zap.String("report", reportName),
		zap.String("date", date),
		zap.Int("records", len(records)),
	)

	return &common.UsageReport{
		Source: common.ReportSourceAnalytics,
		Name:   reportName,
		Date:   date,
		Header: columns,
		Rows:   rows,
	}, nil
}

// collectColumns returns the sorted union of keys across all records so
// that generated reports have stable column order.
func collectColumns(records []map[string]interface{}) []string {
	seen := make(map[string]bool)
	for _, record := range records {
		for key := range record {
			seen[key] = true
		}
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}

// formatValue renders a decoded JSON value as a CSV cell
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
