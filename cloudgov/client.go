// Package cloudgov is a thin client for the cloud.gov platform API. It
// authenticates with the OAuth2 client-credentials flow, lists datasets
// scoped by organization and space, and releases datasets with an
// attached metadata payload.
//
// Public methods follow the platform client's historical contract:
// failures are reported as booleans or empty results, never as raised
// errors. Internally every failure is modeled as a tagged error
// (ErrAuthFailure, ErrFetchFailure, ErrReleaseFailure) so logs and tests
// keep the cause.
package cloudgov

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gsa/datagov-metrics/config"
	"go.uber.org/zap"
)

// DefaultMetadataPath is the repository-relative metadata file attached
// to releases when the caller supplies no metadata.
const DefaultMetadataPath = "metadata.json"

// Tagged failure kinds. Public methods collapse these to booleans or
// empty results; they are exported so tests and callers of the internal
// API can distinguish causes.
var (
	// ErrAuthFailure bad credentials or a failed token request
	ErrAuthFailure = errors.New("authentication failure")
	// ErrFetchFailure a failed or malformed dataset listing
	ErrFetchFailure = errors.New("dataset fetch failure")
	// ErrReleaseFailure a failed dataset release
	ErrReleaseFailure = errors.New("dataset release failure")
	// ErrNotAuthenticated an operation that needs a token was called
	// before a successful Authenticate
	ErrNotAuthenticated = errors.New("not authenticated")
)

// DatasetDescriptor is one dataset entry returned by the platform. ID
// and Name are extracted for convenience; Attributes carries every field
// of the entry verbatim.
type DatasetDescriptor struct {
	ID         string
	Name       string
	Attributes map[string]interface{}
}

// UnmarshalJSON keeps all fields of the API entry and pulls out the
// common identifiers. Entries use "id" or, in older responses, "guid".
func (d *DatasetDescriptor) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.Attributes = raw
	if id, ok := raw["id"].(string); ok {
		d.ID = id
	} else if guid, ok := raw["guid"].(string); ok {
		d.ID = guid
	}
	if name, ok := raw["name"].(string); ok {
		d.Name = name
	}
	return nil
}

// ConnectionStatus is a snapshot of the client's connection state
type ConnectionStatus struct {
	APIURL    string `json:"api_url"`
	Org       string `json:"org"`
	Space     string `json:"space"`
	Connected bool   `json:"connected"`
}

// session holds the ephemeral bearer token. It is never persisted and a
// new client always starts unauthenticated.
type session struct {
	token     string
	expiry    time.Time
	connected bool
}

// Client is the cloud.gov platform client. Methods are synchronous and
// perform at most one network round trip; the caller sequences
// Authenticate before Datasets or ReleaseDataset.
type Client struct {
	conn         ConnectionConfig
	logger       *zap.Logger
	httpClient   *http.Client
	metadataPath string
	session      session
}

// NewClient creates a platform client from a resolved connection
// configuration. No validation or network traffic happens here.
func NewClient(conn ConnectionConfig, cfg *config.Config) *Client {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	return &Client{
		conn:         conn,
		logger:       cfg.GetLogger(),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		metadataPath: DefaultMetadataPath,
	}
}

// WithHTTPClient sets a custom HTTP client, mainly for tests
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// WithMetadataPath sets the metadata file attached to releases when the
// caller supplies none
func (c *Client) WithMetadataPath(path string) *Client {
	c.metadataPath = path
	return c
}

// Authenticate performs the OAuth2 client-credentials flow against the
// configured API. It returns true on success and false on any failure:
// missing credentials, transport errors, non-200 responses, or a
// malformed token body. It never panics or raises.
func (c *Client) Authenticate(ctx context.Context) bool {
	if err := c.authenticate(ctx); err != nil {
		c.session = session{}
		c.logger.Warn("cloud.gov authentication failed", zap.Error(err))
		return false
	}

	c.logger.Info("Successfully authenticated with cloud.gov",
		zap.String("api_url", c.conn.APIURL),
	)
	return true
}

// tokenResponse is the OAuth2 token endpoint body
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (c *Client) authenticate(ctx context.Context) error {
	if c.conn.APIKey == "" || c.conn.APISecret == "" {
		return fmt.Errorf("%w: API key and secret are required", ErrAuthFailure)
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.conn.APIURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailure, err)
	}
	req.SetBasicAuth(c.conn.APIKey, c.conn.APISecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: token request failed: %v", ErrAuthFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: token endpoint returned status %d", ErrAuthFailure, resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("%w: malformed token response: %v", ErrAuthFailure, err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("%w: token response missing access_token", ErrAuthFailure)
	}

	c.session.token = token.AccessToken
	c.session.connected = true
	if token.ExpiresIn > 0 {
		c.session.expiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	} else {
		c.session.expiry = time.Time{}
	}

	return nil
}

// datasetsResponse is the dataset listing envelope
type datasetsResponse struct {
	Resources []DatasetDescriptor `json:"resources"`
}

// Datasets returns the datasets visible in the configured organization
// and space, passed through verbatim from the API. Calling it before a
// successful Authenticate returns an empty slice; so does any transport
// or parse failure. It never raises.
func (c *Client) Datasets(ctx context.Context) []DatasetDescriptor {
	datasets, err := c.fetchDatasets(ctx)
	if err != nil {
		c.logger.Warn("failed to fetch datasets", zap.Error(err))
		return []DatasetDescriptor{}
	}

	c.logger.Info("Successfully fetched datasets", zap.Int("count", len(datasets)))
	return datasets
}

func (c *Client) fetchDatasets(ctx context.Context) ([]DatasetDescriptor, error) {
	if !c.session.connected {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, ErrNotAuthenticated)
	}

	endpoint := fmt.Sprintf("%s/v3/datasets?%s", c.conn.APIURL, url.Values{
		"organization": {c.conn.Org},
		"space":        {c.conn.Space},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.session.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: dataset endpoint returned status %d", ErrFetchFailure, resp.StatusCode)
	}

	var body datasetsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed dataset response: %v", ErrFetchFailure, err)
	}

	return body.Resources, nil
}

// releaseRequest is the body of a dataset release call
type releaseRequest struct {
	DatasetID string                 `json:"dataset_id"`
	Status    string                 `json:"status"`
	Metadata  map[string]interface{} `json:"metadata"`
	Org       string                 `json:"org"`
	Space     string                 `json:"space"`
}

// ReleaseDataset releases the named dataset. When metadata is nil the
// default metadata file is attached; a missing or malformed file
// degrades to an empty metadata object and is never fatal. It returns
// true only for a 2xx response, false otherwise, and never raises.
func (c *Client) ReleaseDataset(ctx context.Context, datasetID string, metadata map[string]interface{}) bool {
	if err := c.releaseDataset(ctx, datasetID, metadata); err != nil {
		c.logger.Warn("failed to release dataset",
			zap.String("dataset_id", datasetID),
			zap.Error(err),
		)
		return false
	}

	c.logger.Info("Successfully released dataset", zap.String("dataset_id", datasetID))
	return true
}

func (c *Client) releaseDataset(ctx context.Context, datasetID string, metadata map[string]interface{}) error {
	if !c.session.connected {
		return fmt.Errorf("%w: %v", ErrReleaseFailure, ErrNotAuthenticated)
	}
	if datasetID == "" {
		return fmt.Errorf("%w: dataset ID cannot be empty", ErrReleaseFailure)
	}

	if metadata == nil {
		metadata = c.loadReleaseMetadata()
	}

	body, err := json.Marshal(releaseRequest{
		DatasetID: datasetID,
		Status:    "released",
		Metadata:  metadata,
		Org:       c.conn.Org,
		Space:     c.conn.Space,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReleaseFailure, err)
	}

	endpoint := fmt.Sprintf("%s/v3/datasets/%s/release", c.conn.APIURL, url.PathEscape(datasetID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReleaseFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.session.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", ErrReleaseFailure, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: release endpoint returned status %d", ErrReleaseFailure, resp.StatusCode)
	}

	return nil
}

// ConnectionStatus returns a snapshot of the current client state. It
// performs no network call and is idempotent.
func (c *Client) ConnectionStatus() ConnectionStatus {
	return ConnectionStatus{
		APIURL:    c.conn.APIURL,
		Org:       c.conn.Org,
		Space:     c.conn.Space,
		Connected: c.session.connected,
	}
}
