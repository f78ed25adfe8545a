package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewBootstrap_Defaults(t *testing.T) {
	bc, err := NewBootstrap("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", bc.Server.Http.Addr)
	assert.Equal(t, 30*time.Second, bc.Server.Http.Timeout.AsDuration())

	assert.Equal(t, int32(5), bc.Breaker.TripThreshold)
	assert.Equal(t, 30*time.Second, bc.Breaker.Cooldown.AsDuration())
	assert.Equal(t, 50.0, bc.Breaker.MaxLatencyMs)
	assert.Equal(t, int32(50), bc.Breaker.MaxCircuits)
	assert.Equal(t, time.Second, bc.Breaker.ProbeTimeout.AsDuration())
	assert.Equal(t, int32(10000), bc.Breaker.AuditCapacity)
	assert.Equal(t, int32(1000), bc.Breaker.AlertCapacity)

	// Archive and mirror are opt-in.
	assert.Empty(t, bc.Data.Database.Source)
	assert.Empty(t, bc.Data.Redis.Addr)

	assert.Equal(t, "info", bc.Log.Level)
	assert.Equal(t, "json", bc.Log.Format)
}

func TestNewBootstrap_FromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    addr: ":9090"
    timeout: 10s
breaker:
  trip_threshold: 3
  cooldown: 5s
  max_circuits: 10
log:
  level: debug
  format: console
`)

	bc, err := NewBootstrap(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", bc.Server.Http.Addr)
	assert.Equal(t, int32(3), bc.Breaker.TripThreshold)
	assert.Equal(t, 5*time.Second, bc.Breaker.Cooldown.AsDuration())
	assert.Equal(t, int32(10), bc.Breaker.MaxCircuits)
	assert.Equal(t, "debug", bc.Log.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, 50.0, bc.Breaker.MaxLatencyMs)
}

func TestNewBootstrap_EnvOverride(t *testing.T) {
	t.Setenv("SWITCHBOARD_BREAKER_TRIP_THRESHOLD", "7")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")

	bc, err := NewBootstrap("")
	require.NoError(t, err)

	assert.Equal(t, int32(7), bc.Breaker.TripThreshold)
	assert.Equal(t, "127.0.0.1:6379", bc.Data.Redis.Addr)
}

func TestNewBootstrap_MissingFile(t *testing.T) {
	_, err := NewBootstrap("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	path := writeConfig(t, `
breaker:
  trip_threshold: 0
`)
	_, err := NewBootstrap(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trip_threshold")
}

func TestValidate_RejectsNegativeCooldown(t *testing.T) {
	path := writeConfig(t, `
breaker:
  cooldown: -5s
`)
	_, err := NewBootstrap(path)
	assert.Error(t, err)
}
