package storage

import (
	"time"

	"image-scanner/pkg/models"
)

// ScanSummary is the lightweight listing view of a stored scan.
type ScanSummary struct {
	RunID        string    `json:"run_id"`
	BaseURL      string    `json:"base_url"`
	StartedAt    time.Time `json:"started_at"`
	PagesVisited int       `json:"pages_visited"`
	ImageCount   int       `json:"image_count"`
	Cancelled    bool      `json:"cancelled"`
}

// ScanStore defines the interface for persisting completed scan runs.
type ScanStore interface {
	// SaveScan persists a completed scan record keyed by its run ID.
	SaveScan(record *models.ScanRecord) error

	// GetScan retrieves a scan record by run ID. Returns ErrScanNotFound
	// if no record exists for the given ID.
	GetScan(runID string) (*models.ScanRecord, error)

	// ListScans returns summaries of all stored scans, most recent first.
	ListScans() ([]ScanSummary, error)

	// Close releases the underlying store resources.
	Close() error
}
