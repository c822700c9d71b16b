package cloudgov

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gsa/datagov-metrics/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer starts a platform API stub with a token endpoint, a
// dataset listing and a release endpoint for dataset "d1".
func newTestServer(t *testing.T) (*httptest.Server, *releaseRequest) {
	t.Helper()

	var lastRelease releaseRequest

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		key, secret, ok := r.BasicAuth()
		if !ok || key != "k" || secret != "s" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
	})
	mux.HandleFunc("/v3/datasets", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"resources":[{"id":"d1","name":"Sample"}]}`))
	})
	mux.HandleFunc("/v3/datasets/d1/release", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&lastRelease); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &lastRelease
}

func newTestClient(t *testing.T, apiURL string) *Client {
	t.Helper()
	conn := ResolveConnectionConfig(
		WithAPIURL(apiURL),
		WithAPIKey("k"),
		WithAPISecret("s"),
		WithOrg("o"),
		WithSpace("sp"),
	)
	// Point the metadata path at a nonexistent file so tests do not pick
	// up a real metadata.json from the working directory.
	return NewClient(conn, config.DefaultConfig()).
		WithMetadataPath(filepath.Join(t.TempDir(), "metadata.json"))
}

func TestResolveConnectionConfig(t *testing.T) {
	t.Run("from environment", func(t *testing.T) {
		t.Setenv("CLOUDGOV_API_URL", "https://env.example.test")
		t.Setenv("CLOUDGOV_API_KEY", "env-key")
		t.Setenv("CLOUDGOV_API_SECRET", "env-secret")
		t.Setenv("CLOUDGOV_ORG", "env-org")
		t.Setenv("CLOUDGOV_SPACE", "env-space")

		conn := ResolveConnectionConfig()
		assert.Equal(t, "https://env.example.test", conn.APIURL)
		assert.Equal(t, "env-key", conn.APIKey)
		assert.Equal(t, "env-secret", conn.APISecret)
		assert.Equal(t, "env-org", conn.Org)
		assert.Equal(t, "env-space", conn.Space)
	})

	t.Run("explicit overrides win", func(t *testing.T) {
		t.Setenv("CLOUDGOV_API_KEY", "env-key")

		conn := ResolveConnectionConfig(WithAPIKey("explicit-key"))
		assert.Equal(t, "explicit-key", conn.APIKey)
	})

	t.Run("default API URL", func(t *testing.T) {
		t.Setenv("CLOUDGOV_API_URL", "")

		conn := ResolveConnectionConfig()
		assert.Equal(t, DefaultAPIURL, conn.APIURL)
	})
}

func TestAuthenticate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server, _ := newTestServer(t)
		client := newTestClient(t, server.URL)

		assert.True(t, client.Authenticate(context.Background()))
		assert.True(t, client.ConnectionStatus().Connected)
	})

	t.Run("missing credentials returns false", func(t *testing.T) {
		conn := ResolveConnectionConfig(
			WithAPIURL("https://api.example.test"),
			WithAPIKey(""),
			WithAPISecret(""),
		)
		client := NewClient(conn, config.DefaultConfig())

		assert.False(t, client.Authenticate(context.Background()))
		assert.False(t, client.ConnectionStatus().Connected)
	})

	t.Run("rejected credentials return false", func(t *testing.T) {
		server, _ := newTestServer(t)
		conn := ResolveConnectionConfig(
			WithAPIURL(server.URL),
			WithAPIKey("wrong"),
			WithAPISecret("wrong"),
		)
		client := NewClient(conn, config.DefaultConfig())

		assert.False(t, client.Authenticate(context.Background()))
		assert.False(t, client.ConnectionStatus().Connected)
	})

	t.Run("server error returns false", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		assert.False(t, client.Authenticate(context.Background()))
	})

	t.Run("malformed token body returns false", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer server.Close()

		client := newTestClient(t, server.URL)
		assert.False(t, client.Authenticate(context.Background()))
	})

	t.Run("transport error returns false", func(t *testing.T) {
		client := newTestClient(t, "http://127.0.0.1:0")
		assert.False(t, client.Authenticate(context.Background()))
	})
}

func TestDatasets(t *testing.T) {
	t.Run("before authenticate returns empty slice", func(t *testing.T) {
		server, _ := newTestServer(t)
		client := newTestClient(t, server.URL)

		datasets := client.Datasets(context.Background())
		assert.NotNil(t, datasets)
		assert.Empty(t, datasets)
	})

	t.Run("returns entries verbatim", func(t *testing.T) {
		server, _ := newTestServer(t)
		client := newTestClient(t, server.URL)
		require.True(t, client.Authenticate(context.Background()))

		datasets := client.Datasets(context.Background())
		require.Len(t, datasets, 1)
		assert.Equal(t, "d1", datasets[0].ID)
		assert.Equal(t, "Sample", datasets[0].Name)
	})

	t.Run("server error returns empty slice", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"tok"}`))
		})
		mux.HandleFunc("/v3/datasets", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := newTestClient(t, server.URL)
		require.True(t, client.Authenticate(context.Background()))
		assert.Empty(t, client.Datasets(context.Background()))
	})
}

func TestDatasetDescriptorPassthrough(t *testing.T) {
	payload := []byte(`{"guid":"abc","name":"Example","state":"STOPPED","relationships":{"space":"sp1"}}`)

	var descriptor DatasetDescriptor
	require.NoError(t, json.Unmarshal(payload, &descriptor))

	assert.Equal(t, "abc", descriptor.ID)
	assert.Equal(t, "Example", descriptor.Name)
	// Opaque fields are preserved verbatim
	assert.Equal(t, "STOPPED", descriptor.Attributes["state"])
	assert.Contains(t, descriptor.Attributes, "relationships")
}

func TestReleaseDataset(t *testing.T) {
	t.Run("before authenticate returns false", func(t *testing.T) {
		server, _ := newTestServer(t)
		client := newTestClient(t, server.URL)

		assert.False(t, client.ReleaseDataset(context.Background(), "d1", nil))
	})

	t.Run("missing metadata file degrades to empty metadata", func(t *testing.T) {
		server, lastRelease := newTestServer(t)
		client := newTestClient(t, server.URL)
		require.True(t, client.Authenticate(context.Background()))

		assert.True(t, client.ReleaseDataset(context.Background(), "d1", nil))
		assert.Equal(t, "d1", lastRelease.DatasetID)
		assert.Equal(t, "released", lastRelease.Status)
		assert.Equal(t, "o", lastRelease.Org)
		assert.Equal(t, "sp", lastRelease.Space)
		assert.NotNil(t, lastRelease.Metadata)
		assert.Empty(t, lastRelease.Metadata)
	})

	t.Run("metadata file contents are attached", func(t *testing.T) {
		server, lastRelease := newTestServer(t)
		client := newTestClient(t, server.URL)

		metadataPath := filepath.Join(t.TempDir(), "metadata.json")
		require.NoError(t, os.WriteFile(metadataPath, []byte(`{"publisher":"data.gov"}`), 0644))
		client.WithMetadataPath(metadataPath)

		require.True(t, client.Authenticate(context.Background()))
		assert.True(t, client.ReleaseDataset(context.Background(), "d1", nil))
		assert.Equal(t, "data.gov", lastRelease.Metadata["publisher"])
	})

	t.Run("malformed metadata file degrades to empty metadata", func(t *testing.T) {
		server, lastRelease := newTestServer(t)
		client := newTestClient(t, server.URL)

		metadataPath := filepath.Join(t.TempDir(), "metadata.json")
		require.NoError(t, os.WriteFile(metadataPath, []byte("{broken"), 0644))
		client.WithMetadataPath(metadataPath)

		require.True(t, client.Authenticate(context.Background()))
		assert.True(t, client.ReleaseDataset(context.Background(), "d1", nil))
		assert.Empty(t, lastRelease.Metadata)
	})

	t.Run("caller metadata wins over file", func(t *testing.T) {
		server, lastRelease := newTestServer(t)
		client := newTestClient(t, server.URL)
		require.True(t, client.Authenticate(context.Background()))

		metadata := map[string]interface{}{"version": "2.0"}
		assert.True(t, client.ReleaseDataset(context.Background(), "d1", metadata))
		assert.Equal(t, "2.0", lastRelease.Metadata["version"])
	})

	t.Run("non-2xx returns false", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"access_token":"tok"}`))
		})
		mux.HandleFunc("/v3/datasets/d1/release", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := newTestClient(t, server.URL)
		require.True(t, client.Authenticate(context.Background()))
		assert.False(t, client.ReleaseDataset(context.Background(), "d1", nil))
	})
}

func TestConnectionStatus(t *testing.T) {
	conn := ResolveConnectionConfig(
		WithAPIURL("https://api.example.test"),
		WithOrg("o"),
		WithSpace("sp"),
	)
	client := NewClient(conn, config.DefaultConfig())

	first := client.ConnectionStatus()
	second := client.ConnectionStatus()

	assert.Equal(t, first, second)
	assert.Equal(t, "https://api.example.test", first.APIURL)
	assert.Equal(t, "o", first.Org)
	assert.Equal(t, "sp", first.Space)
	assert.False(t, first.Connected)
}

// TestEndToEnd walks the full authenticate, list, release sequence
// against a stubbed platform API.
func TestEndToEnd(t *testing.T) {
	server, _ := newTestServer(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	require.True(t, client.Authenticate(ctx))

	datasets := client.Datasets(ctx)
	require.Len(t, datasets, 1)
	assert.Equal(t, "d1", datasets[0].ID)
	assert.Equal(t, "Sample", datasets[0].Name)

	assert.True(t, client.ReleaseDataset(ctx, datasets[0].ID, nil))
}
