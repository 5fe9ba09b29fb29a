package config

import (
	"fmt"
	"time"

	"image-scanner/pkg/utils"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/140.0.0.0 Safari/537.36"

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// UserAgent
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}

	// MaxPages
	if c.MaxPages <= 0 {
		warnings = append(warnings, "max_pages should be > 0, defaulting to 50")
		c.MaxPages = 50
	}

	// Concurrency
	if c.Concurrency <= 0 {
		warnings = append(warnings, "concurrency should be > 0, defaulting to 12")
		c.Concurrency = 12
	}

	// ProbeConcurrency
	if c.ProbeConcurrency <= 0 {
		warnings = append(warnings, "probe_concurrency not specified or invalid, defaulting to 20")
		c.ProbeConcurrency = 20
	}

	// ProbeTimeout
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 8 * time.Second
	}

	// MaxPageSizeBytes
	if c.MaxPageSizeBytes < 0 {
		warnings = append(warnings, "max_page_size_bytes cannot be negative, setting to default")
		c.MaxPageSizeBytes = 0
	}
	if c.MaxPageSizeBytes == 0 {
		c.MaxPageSizeBytes = 10 << 20 // 10MB page body cap
	}

	// Size filter bounds
	if c.MinSizeKB < 0 {
		warnings = append(warnings, "min_size_kb cannot be negative, setting to 0")
		c.MinSizeKB = 0
	}
	if c.MaxSizeKB < 0 {
		warnings = append(warnings, "max_size_kb cannot be negative, setting to 0 (unbounded)")
		c.MaxSizeKB = 0
	}
	if c.MaxSizeKB > 0 && c.MinSizeKB > c.MaxSizeKB {
		return warnings, fmt.Errorf("%w: min_size_kb (%v) exceeds max_size_kb (%v)",
			utils.ErrConfigValidation, c.MinSizeKB, c.MaxSizeKB)
	}

	// StateDir
	if c.StateDir == "" {
		warnings = append(warnings, "state_dir is empty, defaulting to './scanner_state'")
		c.StateDir = "./scanner_state"
	}

	// ExportDir
	if c.ExportDir == "" {
		warnings = append(warnings, "export_dir is empty, defaulting to './exports'")
		c.ExportDir = "./exports"
	}

	// HTTPClient defaults
	c.validateHTTPClientSettings()

	return warnings, nil
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.HTTPClient
	if h.Timeout <= 0 {
		h.Timeout = 15 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 10
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}
