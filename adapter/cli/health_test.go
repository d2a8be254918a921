package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/felixgeelhaar/freebusy/adapter/api"
	"github.com/felixgeelhaar/freebusy/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthApp(status observability.HealthStatus) *App {
	health := observability.NewHealthRegistry()
	health.Register("database", func(ctx context.Context) observability.HealthCheckResult {
		return observability.HealthCheckResult{Status: status}
	})
	metrics := observability.NewInMemoryMetrics()
	metrics.Counter(observability.MetricProfileCacheHits, 3)
	return &App{Health: health, Metrics: metrics}
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHealthCmd(t *testing.T) {
	t.Cleanup(func() { SetApp(nil) })

	SetApp(newHealthApp(observability.HealthStatusHealthy))
	out, err := runRoot(t, "health")
	require.NoError(t, err)

	var overall observability.OverallHealth
	require.NoError(t, json.Unmarshal([]byte(out), &overall))
	assert.Equal(t, observability.HealthStatusHealthy, overall.Status)
	assert.Contains(t, overall.Checks, "database")

	SetApp(newHealthApp(observability.HealthStatusUnhealthy))
	_, err = runRoot(t, "health")
	assert.EqualError(t, err, "unhealthy")

	SetApp(nil)
	_, err = runRoot(t, "health")
	assert.EqualError(t, err, "app not initialized")
}

func TestHealthCmd_SingleComponent(t *testing.T) {
	t.Cleanup(func() { SetApp(nil) })
	SetApp(newHealthApp(observability.HealthStatusUnhealthy))

	out, err := runRoot(t, "health", "database")
	assert.EqualError(t, err, "unhealthy")
	var result observability.HealthCheckResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, observability.HealthStatusUnhealthy, result.Status)

	_, err = runRoot(t, "health", "ldap")
	assert.EqualError(t, err, `unknown health check "ldap"`)
}

func TestNewAPIServer(t *testing.T) {
	a := newHealthApp(observability.HealthStatusDegraded)
	srv := httptest.NewServer(a.NewAPIServer(api.DefaultServerConfig(), nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var overall observability.OverallHealth
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&overall))
	assert.Equal(t, observability.HealthStatusDegraded, overall.Status)

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	assert.Equal(t, http.StatusOK, mresp.StatusCode)
}

func TestNewAPIServer_WithoutMetrics(t *testing.T) {
	a := &App{}
	srv := httptest.NewServer(a.NewAPIServer(api.DefaultServerConfig(), nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	hresp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer hresp.Body.Close()
	assert.Equal(t, http.StatusOK, hresp.StatusCode)
}

func TestRunUntilDone(t *testing.T) {
	a := &App{}

	t.Run("shuts down on cancel", func(t *testing.T) {
		cfg := api.DefaultServerConfig()
		cfg.Addr = "127.0.0.1:0"
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, runUntilDone(ctx, a.NewAPIServer(cfg, nil)))
	})

	t.Run("returns listen errors", func(t *testing.T) {
		cfg := api.DefaultServerConfig()
		cfg.Addr = "not-an-address"
		err := runUntilDone(context.Background(), a.NewAPIServer(cfg, nil))
		require.Error(t, err)
		assert.False(t, errors.Is(err, http.ErrServerClosed))
	})
}

func TestServeCmd_RequiresApp(t *testing.T) {
	SetApp(nil)
	_, err := runRoot(t, "serve")
	assert.EqualError(t, err, "app not initialized")
}
