package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-scanner/pkg/config"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// A scan stopped mid-crawl must still size and export what it already found:
// the probe and export phases run to completion on the partial image set even
// though the crawl context is cancelled.
func TestExecuteScanStoppedMidCrawlExportsSizedResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stopOnce sync.Once
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			// Stop the scan while the first page is in flight
			stopOnce.Do(cancel)
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<a href="/more">more</a><img src="/partial.png">`)
		case "/partial.png":
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Content-Length", "2048")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := &config.AppConfig{
		ExportDir: t.TempDir(),
		StateDir:  t.TempDir(),
		MinSizeKB: 1, // would discard every row if the sizes came back 0.0
	}
	_, err := cfg.Validate()
	require.NoError(t, err)

	err = executeScan(ctx, cfg, server.URL+"/", nil, "csv", false, testLogger())
	require.NoError(t, err)

	entries, err := os.ReadDir(cfg.ExportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "expected exactly one export file")

	data, err := os.ReadFile(filepath.Join(cfg.ExportDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "partial.png")
	assert.Contains(t, string(data), "2.00", "probed size should survive cancellation")
}
