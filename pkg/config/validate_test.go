package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-scanner/pkg/utils"
)

func TestValidateDefaults(t *testing.T) {
	cfg := &AppConfig{}
	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)

	assert.Equal(t, 50, cfg.MaxPages)
	assert.Equal(t, 12, cfg.Concurrency)
	assert.Equal(t, 20, cfg.ProbeConcurrency)
	assert.Equal(t, 8*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxPageSizeBytes)
	assert.Equal(t, "./scanner_state", cfg.StateDir)
	assert.Equal(t, "./exports", cfg.ExportDir)
	assert.NotEmpty(t, cfg.UserAgent)

	assert.Equal(t, 15*time.Second, cfg.HTTPClient.Timeout)
	assert.Equal(t, 100, cfg.HTTPClient.MaxIdleConns)
}

func TestValidateKeepsExplicitValues(t *testing.T) {
	cfg := &AppConfig{
		UserAgent:        "scanner-test/1.0",
		MaxPages:         200,
		Concurrency:      4,
		ProbeConcurrency: 8,
		ProbeTimeout:     2 * time.Second,
		MaxPageSizeBytes: 1 << 20,
		StateDir:         "/tmp/state",
		ExportDir:        "/tmp/out",
		HTTPClient: HTTPClientConfig{
			Timeout: 5 * time.Second,
		},
	}
	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, "scanner-test/1.0", cfg.UserAgent)
	assert.Equal(t, 200, cfg.MaxPages)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, int64(1<<20), cfg.MaxPageSizeBytes)
	assert.Equal(t, 5*time.Second, cfg.HTTPClient.Timeout)
}

func TestValidateNegativeValues(t *testing.T) {
	cfg := &AppConfig{
		MaxPages:         -1,
		Concurrency:      -2,
		MaxPageSizeBytes: -100,
		MinSizeKB:        -5,
		MaxSizeKB:        -5,
	}
	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)

	assert.Equal(t, 50, cfg.MaxPages)
	assert.Equal(t, 12, cfg.Concurrency)
	assert.Equal(t, float64(0), cfg.MinSizeKB)
	assert.Equal(t, float64(0), cfg.MaxSizeKB)
}

func TestValidateSizeFilterBounds(t *testing.T) {
	cfg := &AppConfig{MinSizeKB: 100, MaxSizeKB: 10}
	_, err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrConfigValidation)

	// Unbounded max never conflicts with min
	cfg = &AppConfig{MinSizeKB: 100}
	_, err = cfg.Validate()
	require.NoError(t, err)
}
