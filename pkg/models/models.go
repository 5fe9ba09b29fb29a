package models

import "time"

// ImageRecord is one row of the reduced result table.
// Records are never mutated after construction; filtering and sorting
// produce new slices, not in-place edits.
type ImageRecord struct {
	URL      string  `json:"url"`      // Normalized absolute image URL (fragment and query stripped)
	Filename string  `json:"filename"` // Last path segment of the URL
	SizeKB   float64 `json:"size_kb"`  // Probed size in KB, 0.0 when the probe failed
	Part1    string  `json:"part1,omitempty"`
	Part2    string  `json:"part2,omitempty"`
	Part3    string  `json:"part3,omitempty"`
	Part4    string  `json:"part4,omitempty"`
	FileType string  `json:"file_type"` // Lowercased extension without the dot
}

// Parts returns the filename tokens in column order.
func (r ImageRecord) Parts() [4]string {
	return [4]string{r.Part1, r.Part2, r.Part3, r.Part4}
}

// ScanRecord stores the outcome of one completed scan in the history store.
type ScanRecord struct {
	RunID        string        `json:"run_id"`
	BaseURL      string        `json:"base_url"`
	Keywords     []string      `json:"keywords,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   time.Time     `json:"finished_at"`
	PagesVisited int           `json:"pages_visited"`
	Cancelled    bool          `json:"cancelled"` // True when the scan was stopped before the frontier drained
	Images       []ImageRecord `json:"images"`
}
