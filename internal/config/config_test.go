package config

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{
		"BATTLEHEXES_RESOLVER_URL", "BATTLEHEXES_PORT", "BATTLEHEXES_DB_PATH",
		"BATTLEHEXES_THINK_DELAY_MS", "BATTLEHEXES_STEP_DELAY_MS",
		"BATTLEHEXES_ROWS", "BATTLEHEXES_COLUMNS", "BATTLEHEXES_SEED",
		"LOG_FORMAT", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.ResolverURL)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10, cfg.Rows)
	assert.Equal(t, 10, cfg.Columns)
	assert.Equal(t, 500*time.Millisecond, cfg.ThinkDelay)
	assert.Equal(t, 300*time.Millisecond, cfg.StepDelay)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestOverrides(t *testing.T) {
	t.Setenv("BATTLEHEXES_RESOLVER_URL", "http://resolver:9000")
	t.Setenv("BATTLEHEXES_ROWS", "12")
	t.Setenv("BATTLEHEXES_THINK_DELAY_MS", "0")
	t.Setenv("BATTLEHEXES_SEED", strconv.Itoa(77))

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://resolver:9000", cfg.ResolverURL)
	assert.Equal(t, 12, cfg.Rows)
	assert.Equal(t, time.Duration(0), cfg.ThinkDelay)
	assert.Equal(t, int64(77), cfg.Seed)
}

func TestMalformedNumber(t *testing.T) {
	t.Setenv("BATTLEHEXES_PORT", "eighty")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "BATTLEHEXES_PORT")

	t.Setenv("BATTLEHEXES_PORT", "")
	t.Setenv("BATTLEHEXES_COLUMNS", "0")
	_, err = FromEnv()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("LOG_FORMAT", "JSON")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)

	cfg.ResolverURL = "not a url"
	assert.ErrorContains(t, cfg.Validate(), "ResolverURL")

	cfg.ResolverURL = "http://localhost:8000"
	cfg.LogFormat = "xml"
	assert.ErrorContains(t, cfg.Validate(), "LogFormat")

	cfg.LogFormat = "text"
	cfg.StepDelay = -time.Second
	assert.ErrorContains(t, cfg.Validate(), "StepDelay")
}
