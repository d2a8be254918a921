package observability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry_Check(t *testing.T) {
	r := NewHealthRegistry()
	r.Register("database", DatabaseHealthChecker(func(context.Context) error { return nil }))
	r.Register("redis", RedisHealthChecker(func(context.Context) error { return errors.New("refused") }))

	results := r.Check(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, HealthStatusHealthy, results["database"].Status)
	assert.Equal(t, HealthStatusDegraded, results["redis"].Status)
	assert.Contains(t, results["redis"].Message, "refused")
	assert.False(t, results["redis"].Timestamp.IsZero())
	assert.Equal(t, HealthStatusDegraded, r.OverallStatus())
}

func TestHealthRegistry_UnhealthyWins(t *testing.T) {
	r := NewHealthRegistry()
	r.Register("database", DatabaseHealthChecker(func(context.Context) error { return errors.New("down") }))
	r.Register("redis", RedisHealthChecker(func(context.Context) error { return errors.New("down") }))

	health := r.GetOverallHealth(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, health.Status)

	raw, err := health.ToJSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "unhealthy", decoded["status"])
}

func TestHealthRegistry_Empty(t *testing.T) {
	r := NewHealthRegistry()
	assert.Empty(t, r.Check(context.Background()))
	assert.Equal(t, HealthStatusHealthy, r.OverallStatus())

	_, ok := r.CheckOne(context.Background(), "missing")
	assert.False(t, ok)
}

func TestCircuitHealthChecker(t *testing.T) {
	states := map[string]string{"google": "closed", "microsoft": "open", "apple": "half-open"}
	result := CircuitHealthChecker(func() map[string]string { return states })(context.Background())

	assert.Equal(t, HealthStatusDegraded, result.Status)
	assert.Equal(t, "circuit not closed for apple, microsoft", result.Message)
	assert.Equal(t, "open", result.Details["microsoft"])

	states = map[string]string{"google": "closed"}
	result = CircuitHealthChecker(func() map[string]string { return states })(context.Background())
	assert.Equal(t, HealthStatusHealthy, result.Status)
}
