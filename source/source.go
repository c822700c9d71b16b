package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gsa/datagov-metrics/common"
)

// DefaultHTTPTimeout is the request timeout applied when the caller does
// not supply an http.Client.
const DefaultHTTPTimeout = 30 * time.Second

// Fetcher fetches usage metrics from an upstream API for one reporting day
type Fetcher interface {
	// Source returns the report source this fetcher produces
	Source() common.ReportSource
	// Fetch retrieves metrics for the given date (YYYY-MM-DD) and renders
	// them as a usage report
	Fetch(ctx context.Context, date string) (*common.UsageReport, error)
}

// GetJSON performs a GET request and decodes the JSON response body into
// target. Non-2xx responses are returned as errors with the status code.
func GetJSON(ctx context.Context, client *http.Client, url string, header http.Header, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
