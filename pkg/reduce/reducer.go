package reduce

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"image-scanner/pkg/models"
	"image-scanner/pkg/parse"
)

// Pre-compiled regex for alphanumeric runs in a filename stem.
var tokenRe = regexp.MustCompile(`[A-Za-z0-9]+`)

// maxParts is the number of filename tokens carried into the result table.
const maxParts = 4

// SizeFilter is an optional size-range restriction applied to the reduced
// table. MaxKB of 0 means no upper bound.
type SizeFilter struct {
	MinKB float64
	MaxKB float64
}

// Reduce builds the deduplicated result table from raw discovered image URLs
// and their probed sizes (parallel slices, same order as the probe call).
// The steps run in a fixed order for determinism: build records, sort
// descending by size, dedup by filename keeping the first (largest)
// occurrence, then apply the size filter. Reducing an already-reduced set with
// the same filter is a no-op.
func Reduce(urls []string, sizesKB []float64, filter SizeFilter) []models.ImageRecord {
	records := make([]models.ImageRecord, 0, len(urls))
	for i, u := range urls {
		var size float64
		if i < len(sizesKB) {
			size = sizesKB[i]
		}
		records = append(records, newRecord(u, size))
	}

	// Keep-max-by-key dedup: largest-size variant of each filename survives.
	// SliceStable keeps input order among equal sizes so the pick is
	// deterministic, not arbitrary.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SizeKB > records[j].SizeKB
	})
	seen := make(map[string]struct{}, len(records))
	deduped := records[:0]
	for _, rec := range records {
		if _, dup := seen[rec.Filename]; dup {
			continue
		}
		seen[rec.Filename] = struct{}{}
		deduped = append(deduped, rec)
	}

	return applyFilter(deduped, filter)
}

// newRecord derives the immutable row fields from one image URL.
func newRecord(rawURL string, sizeKB float64) models.ImageRecord {
	filename := Filename(rawURL)
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	stem := strings.TrimSuffix(filename, path.Ext(filename))

	rec := models.ImageRecord{
		URL:      rawURL,
		Filename: filename,
		SizeKB:   sizeKB,
		FileType: strings.ToLower(ext),
	}

	tokens := tokenRe.FindAllString(stem, maxParts)
	for i, tok := range tokens {
		switch i {
		case 0:
			rec.Part1 = tok
		case 1:
			rec.Part2 = tok
		case 2:
			rec.Part3 = tok
		case 3:
			rec.Part4 = tok
		}
	}
	return rec
}

// Filename returns the last path segment of a URL with any query stripped.
func Filename(rawURL string) string {
	stripped := parse.StripQuery(rawURL)
	if idx := strings.LastIndex(stripped, "/"); idx >= 0 {
		return stripped[idx+1:]
	}
	return stripped
}

// applyFilter keeps records with size >= MinKB and, when MaxKB is nonzero,
// size <= MaxKB.
func applyFilter(records []models.ImageRecord, filter SizeFilter) []models.ImageRecord {
	if filter.MinKB <= 0 && filter.MaxKB <= 0 {
		return records
	}
	kept := make([]models.ImageRecord, 0, len(records))
	for _, rec := range records {
		if rec.SizeKB < filter.MinKB {
			continue
		}
		if filter.MaxKB > 0 && rec.SizeKB > filter.MaxKB {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}
