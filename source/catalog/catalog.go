// Package catalog fetches dataset counts from the data-catalog API
// (CKAN action API) and renders them as usage reports.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gsa/datagov-metrics/common"
	"github.com/gsa/datagov-metrics/config"
	"github.com/gsa/datagov-metrics/source"
	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the production data-catalog endpoint
	DefaultBaseURL = "https://catalog.data.gov"
	// ReportName is the report produced by Fetch
	ReportName = "dataset-counts"
)

// organization is one entry of the CKAN organization_list response
type organization struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	PackageCount int    `json:"package_count"`
}

// organizationListResponse is the CKAN organization_list envelope
type organizationListResponse struct {
	Success bool           `json:"success"`
	Result  []organization `json:"result"`
}

// packageSearchResponse is the CKAN package_search envelope, used only
// for the total dataset count
type packageSearchResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Count int `json:"count"`
	} `json:"result"`
}

// Client fetches metrics from the data-catalog API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ source.Fetcher = (*Client)(nil)

// NewClient creates a new data-catalog API client
func NewClient(baseURL string, cfg *config.Config) *Client {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
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
	return common.ReportSourceCatalog
}

// Fetch implements source.Fetcher. It builds the dataset-counts report:
// one row per organization plus a total row, for the given date.
func (c *Client) Fetch(ctx context.Context, date string) (*common.UsageReport, error) {
	var orgList organizationListResponse
	orgURL := c.baseURL + "/api/3/action/organization_list?all_fields=true&include_dataset_count=true"
	if err := source.GetJSON(ctx, c.httpClient, orgURL, nil, &orgList); err != nil {
		return nil, fmt.Errorf("failed to fetch organization list: %w", err)
	}
	if !orgList.Success {
		return nil, fmt.Errorf("organization_list request was not successful")
	}

	var search packageSearchResponse
	searchURL := c.baseURL + "/api/3/action/package_search?rows=0"
	if err := source.GetJSON(ctx, c.httpClient, searchURL, nil, &search); err != nil {
		return nil, fmt.Errorf("failed to fetch dataset count: %w", err)
	}
	if !search.Success {
		return nil, fmt.Errorf("package_search request was not successful")
	}

	orgs := append([]organization(nil), orgList.Result...)
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })

	rows := make([][]string, 0, len(orgs)+1)
	for _, org := range orgs {
		rows = append(rows, []string{org.Name, org.Title, strconv.Itoa(org.PackageCount)})
	}
	rows = append(rows, []string{"total", "All organizations", strconv.Itoa(search.Result.Count)})

	c.logger.Debug("Fetched catalog metrics",
		zap.String("date", date),
		zap.Int("organizations", len(orgs)),
		zap.Int("total_datasets", search.Result.Count),
	)

	return &common.UsageReport{
		Source: common.ReportSourceCatalog,
		Name:   ReportName,
		Date:   date,
		Header: []string{"organization", "title", "dataset_count"},
		Rows:   rows,
	}, nil
}
