package config

import "time"

// AppConfig holds the global application configuration
type AppConfig struct {
	UserAgent        string           `yaml:"user_agent,omitempty"`
	MaxPages         int              `yaml:"max_pages,omitempty"`
	Concurrency      int              `yaml:"concurrency,omitempty"`
	ProbeConcurrency int              `yaml:"probe_concurrency,omitempty"`
	ProbeTimeout     time.Duration    `yaml:"probe_timeout,omitempty"`
	MaxPageSizeBytes int64            `yaml:"max_page_size_bytes,omitempty"` // Cap on fetched page bodies (0 = default)
	ImageExtensions  []string         `yaml:"image_extensions,omitempty"`
	ExcludeKeywords  []string         `yaml:"exclude_keywords,omitempty"`
	MinSizeKB        float64          `yaml:"min_size_kb,omitempty"`
	MaxSizeKB        float64          `yaml:"max_size_kb,omitempty"` // 0 = unbounded
	StateDir         string           `yaml:"state_dir,omitempty"`
	ExportDir        string           `yaml:"export_dir,omitempty"`
	HTTPClient       HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // Explicitly enable/disable HTTP/2 attempt (use pointer for tri-state: nil=default, true=force, false=disable)
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}
