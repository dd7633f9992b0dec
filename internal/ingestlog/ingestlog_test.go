package ingestlog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/passbi/meetpoint/internal/schedule"
)

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("INGESTLOG_DB_HOST", "")
	t.Setenv("INGESTLOG_DB_PORT", "")
	t.Setenv("INGESTLOG_DB_NAME", "")

	cfg := LoadConfigFromEnv()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "meetpoint", cfg.Database)
}

func TestLoadConfigFromEnvOverride(t *testing.T) {
	t.Setenv("INGESTLOG_DB_HOST", "db.internal")
	t.Setenv("INGESTLOG_DB_PORT", "6543")

	cfg := LoadConfigFromEnv()

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
}

func TestFinishMessageFormatsStatsOnSuccess(t *testing.T) {
	stats := schedule.Stats{Stops: 10, Stations: 4, Trips: 20, Routes: 3, WalkEdges: 7}
	msg := successMessage(stats)
	assert.Contains(t, msg, "10 stops")
	assert.Contains(t, msg, "4 stations")
	assert.Contains(t, msg, "20 trips")
	assert.Contains(t, msg, "3 routes")
	assert.Contains(t, msg, "7 walk edges")
}
