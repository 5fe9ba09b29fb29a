package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func TestSizes_ContentLengthConversion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD request, got %s", r.Method)
		}
		size, _ := strconv.Atoi(r.URL.Query().Get("bytes"))
		w.Header().Set("Content-Length", strconv.Itoa(size))
	}))
	t.Cleanup(server.Close)

	prober := NewSizeProber(server.Client(), "ua", testLogger())
	urls := []string{
		server.URL + "/a.jpg?bytes=1024",   // exactly 1 KB
		server.URL + "/b.jpg?bytes=153600", // 150 KB
		server.URL + "/c.jpg?bytes=1500",   // 1.46 KB
		server.URL + "/d.jpg?bytes=0",
	}

	sizes := prober.Sizes(context.Background(), urls, 4, 2*time.Second)

	assert.Equal(t, []float64{1.0, 150.0, 1.46, 0.0}, sizes)
}

func TestSizes_FailuresResolveToZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			w.Header().Set("Content-Length", "2048")
		case "/missing.jpg":
			w.WriteHeader(http.StatusNotFound)
		case "/badheader.jpg":
			w.Header().Set("Content-Length", "not-a-number")
		}
	}))
	t.Cleanup(server.Close)

	prober := NewSizeProber(server.Client(), "ua", testLogger())
	urls := []string{
		server.URL + "/ok.jpg",
		server.URL + "/missing.jpg",
		server.URL + "/badheader.jpg",
		"http://127.0.0.1:1/unreachable.jpg",
	}

	sizes := prober.Sizes(context.Background(), urls, 2, 2*time.Second)

	// Order matches input; every failure is 0.0, never an error
	assert.Equal(t, []float64{2.0, 0.0, 0.0, 0.0}, sizes)
}

func TestSizes_EmptyInput(t *testing.T) {
	prober := NewSizeProber(http.DefaultClient, "ua", testLogger())
	sizes := prober.Sizes(context.Background(), nil, 4, time.Second)
	assert.Empty(t, sizes)
}

func TestSizes_ConcurrencyBound(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		w.Header().Set("Content-Length", "1024")
	}))
	t.Cleanup(server.Close)

	var urls []string
	for i := 0; i < 12; i++ {
		urls = append(urls, fmt.Sprintf("%s/img%d.jpg", server.URL, i))
	}

	prober := NewSizeProber(server.Client(), "ua", testLogger())
	sizes := prober.Sizes(context.Background(), urls, 3, 5*time.Second)

	assert.Len(t, sizes, 12)
	for _, s := range sizes {
		assert.Equal(t, 1.0, s)
	}
	assert.LessOrEqual(t, peak.Load(), int32(3), "semaphore must bound in-flight probes")
}

func TestSizes_PerRequestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Header().Set("Content-Length", "1024")
	}))
	t.Cleanup(server.Close)

	prober := NewSizeProber(server.Client(), "ua", testLogger())
	sizes := prober.Sizes(context.Background(), []string{server.URL + "/slow.jpg"}, 1, 50*time.Millisecond)

	assert.Equal(t, []float64{0.0}, sizes)
}

func TestRoundKB(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected float64
	}{
		{0, 0.0},
		{512, 0.5},
		{1024, 1.0},
		{1500, 1.46},
		{1536, 1.5},
		{10240, 10.0},
	}
	for _, tt := range tests {
		if got := RoundKB(tt.bytes); got != tt.expected {
			t.Errorf("RoundKB(%d) = %v, want %v", tt.bytes, got, tt.expected)
		}
	}
}
