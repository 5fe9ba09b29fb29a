package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"image-scanner/pkg/config"
	"image-scanner/pkg/crawler"
	"image-scanner/pkg/export"
	"image-scanner/pkg/extract"
	"image-scanner/pkg/fetch"
	"image-scanner/pkg/models"
	"image-scanner/pkg/probe"
	"image-scanner/pkg/reduce"
	"image-scanner/pkg/storage"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "scan":
		runScan(os.Args[2:])
	case "probe":
		runProbe(os.Args[2:])
	case "history":
		runHistory(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "version":
		fmt.Printf("image-scanner %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `image-scanner - Single-site image crawler

Usage:
  image-scanner <command> [options]

Commands:
  scan      Crawl a site, size its images and export the results
  probe     HEAD-probe a list of image URLs for their sizes
  history   List or inspect stored scan runs
  validate  Validate configuration file
  version   Show version info

Run 'image-scanner <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file. An empty path yields a zero
// config that Validate fills with defaults.
func loadConfig(path string) (*config.AppConfig, error) {
	var cfg config.AppConfig
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// setupLogger creates a configured logrus.Logger with the given log level.
func setupLogger(logLevelStr string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", logLevelStr, err)
	} else {
		log.SetLevel(level)
	}
	return log
}

// loadAndValidateConfig loads the config file, validates it, and logs warnings.
func loadAndValidateConfig(configFile string, log *logrus.Logger) *config.AppConfig {
	if configFile != "" {
		log.Infof("Loading configuration from %s", configFile)
	}
	appCfg, err := loadConfig(configFile)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		log.Warn(w)
	}
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	return appCfg
}

// splitKeywords parses a comma-separated keyword flag into trimmed,
// lowercased, non-empty entries.
func splitKeywords(raw string) []string {
	var keywords []string
	for _, k := range strings.Split(raw, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// runScan handles the scan subcommand: crawl, probe, reduce, export.
func runScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	baseURL := fs.String("url", "", "Base URL to scan (required)")
	configFile := fs.String("config", "", "Path to config file (optional)")
	maxPages := fs.Int("max-pages", 0, "Page budget override")
	concurrency := fs.Int("concurrency", 0, "Concurrent fetch limit override")
	keywordsFlag := fs.String("keywords", "", "Comma-separated keywords an image URL or its context must contain")
	minKB := fs.Float64("min-kb", -1, "Minimum image size in KB")
	maxKB := fs.Float64("max-kb", -1, "Maximum image size in KB (0 = unbounded)")
	format := fs.String("format", "both", "Export format: csv, xlsx or both")
	noStore := fs.Bool("no-history", false, "Skip persisting the run to the history store")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: image-scanner scan [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  image-scanner scan -url https://example.com\n")
		fmt.Fprintf(os.Stderr, "  image-scanner scan -url https://example.com -keywords banner,hero -max-pages 100\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *baseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: -url is required")
		fs.Usage()
		os.Exit(1)
	}

	log := setupLogger(*logLevel)
	appCfg := loadAndValidateConfig(*configFile, log)

	// CLI flags override config values
	if *maxPages > 0 {
		appCfg.MaxPages = *maxPages
	}
	if *concurrency > 0 {
		appCfg.Concurrency = *concurrency
	}
	if *minKB >= 0 {
		appCfg.MinSizeKB = *minKB
	}
	if *maxKB >= 0 {
		appCfg.MaxSizeKB = *maxKB
	}

	switch *format {
	case "csv", "xlsx", "both":
	default:
		log.Fatalf("Invalid format %q (want csv, xlsx or both)", *format)
	}

	// Cancellation: first signal stops the crawl cooperatively, letting
	// in-flight fetches drain and partial results flow through the pipeline.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal %v, stopping scan (partial results will be kept)...", sig)
		cancel()
		// A second signal falls through to default handling and hard-stops.
		signal.Stop(sigChan)
	}()

	if err := executeScan(ctx, appCfg, *baseURL, splitKeywords(*keywordsFlag), *format, !*noStore, log); err != nil {
		log.Fatalf("Scan failed: %v", err)
	}
}

// executeScan runs the full pipeline for one site.
func executeScan(ctx context.Context, appCfg *config.AppConfig, baseURL string, keywords []string, format string, persist bool, log *logrus.Logger) error {
	startedAt := time.Now().UTC()

	client := fetch.NewClient(appCfg.HTTPClient, log)
	fetcher := fetch.NewPageFetcher(client, appCfg.UserAgent, appCfg.MaxPageSizeBytes, log.WithField("component", "fetcher"))
	extractor := extract.NewExtractor(appCfg.ImageExtensions, appCfg.ExcludeKeywords, log.WithField("component", "extractor"))
	scheduler := crawler.NewScheduler(fetcher, extractor, log.WithField("component", "crawler"))

	// Periodic progress reporting while the crawl runs
	progressDone := make(chan struct{})
	go reportProgress(scheduler, progressDone, log)

	crawlResult, err := scheduler.Run(ctx, crawler.Options{
		BaseURL:     baseURL,
		MaxPages:    appCfg.MaxPages,
		Concurrency: appCfg.Concurrency,
		Keywords:    keywords,
	})
	close(progressDone)
	if err != nil {
		return err
	}
	if crawlResult.Cancelled {
		log.Warn("Scan cancelled; continuing with partial results")
	}

	log.Infof("Probing %d image URL(s) for size...", len(crawlResult.Images))
	prober := probe.NewSizeProber(client, appCfg.UserAgent, log.WithField("component", "prober"))
	// Cancellation stops discovery only. Whatever was found still gets sized
	// and exported, so the probe runs on a context detached from the crawl's
	// cancel; its own per-request timeout bounds this phase.
	sizes := prober.Sizes(context.WithoutCancel(ctx), crawlResult.Images, appCfg.ProbeConcurrency, appCfg.ProbeTimeout)

	filter := reduce.SizeFilter{MinKB: appCfg.MinSizeKB, MaxKB: appCfg.MaxSizeKB}
	records := reduce.Reduce(crawlResult.Images, sizes, filter)
	log.Infof("%d unique image(s) after dedup and size filter", len(records))

	finishedAt := time.Now().UTC()

	writer := export.NewWriter(appCfg.ExportDir, log.WithField("component", "export"))
	if len(records) > 0 {
		if format == "csv" || format == "both" {
			path, err := writer.WriteCSV(records, finishedAt)
			if err != nil {
				return fmt.Errorf("CSV export: %w", err)
			}
			fmt.Printf("CSV written to %s\n", path)
		}
		if format == "xlsx" || format == "both" {
			path, err := writer.WriteXLSX(records, finishedAt)
			if err != nil {
				return fmt.Errorf("XLSX export: %w", err)
			}
			fmt.Printf("XLSX written to %s\n", path)
		}
	} else {
		log.Info("No images matched; skipping export")
	}

	if persist {
		record := &models.ScanRecord{
			RunID:        uuid.New().String(),
			BaseURL:      baseURL,
			Keywords:     keywords,
			StartedAt:    startedAt,
			FinishedAt:   finishedAt,
			PagesVisited: crawlResult.PagesVisited,
			Cancelled:    crawlResult.Cancelled,
			Images:       records,
		}
		if err := saveScanRecord(appCfg.StateDir, record, log); err != nil {
			// History is best-effort; the exports already happened
			log.Warnf("Failed to persist scan history: %v", err)
		} else {
			fmt.Printf("Run stored as %s\n", record.RunID)
		}
	}

	fmt.Printf("\nScan complete: %d page(s) visited, %d image(s) kept in %v\n",
		crawlResult.PagesVisited, len(records), crawlResult.Duration.Round(time.Millisecond))
	if crawlResult.Cancelled {
		fmt.Println("Note: scan was cancelled before the frontier drained; results are partial.")
	}
	return nil
}

// reportProgress polls the scheduler until done closes.
func reportProgress(scheduler *crawler.Scheduler, done <-chan struct{}, log *logrus.Logger) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			p := scheduler.Progress()
			log.WithFields(logrus.Fields{
				"pages":  p.PagesVisited,
				"images": p.ImagesFound,
			}).Info(p.CurrentActivity)
		}
	}
}

// saveScanRecord opens the history store just long enough to persist one run.
func saveScanRecord(stateDir string, record *models.ScanRecord, log *logrus.Logger) error {
	store, err := storage.NewBadgerStore(stateDir, log.WithField("component", "storage"))
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveScan(record)
}

// runProbe handles the probe subcommand
func runProbe(args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to config file (optional)")
	logLevel := fs.String("loglevel", "warn", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: image-scanner probe [options] <url> [url...]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	urls := fs.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one URL is required")
		fs.Usage()
		os.Exit(1)
	}

	log := setupLogger(*logLevel)
	appCfg := loadAndValidateConfig(*configFile, log)

	client := fetch.NewClient(appCfg.HTTPClient, log)
	prober := probe.NewSizeProber(client, appCfg.UserAgent, log.WithField("component", "prober"))
	sizes := prober.Sizes(context.Background(), urls, appCfg.ProbeConcurrency, appCfg.ProbeTimeout)

	for i, u := range urls {
		fmt.Printf("%10.2f KB  %s\n", sizes[i], u)
	}
}

// runHistory handles the history subcommand
func runHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to config file (optional)")
	runID := fs.String("run", "", "Run ID to show in full (lists all runs if empty)")
	logLevel := fs.String("loglevel", "warn", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: image-scanner history [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)
	appCfg := loadAndValidateConfig(*configFile, log)

	store, err := storage.NewBadgerStore(appCfg.StateDir, log.WithField("component", "storage"))
	if err != nil {
		log.Fatalf("Cannot open history store: %v", err)
	}
	defer store.Close()

	if *runID != "" {
		record, err := store.GetScan(*runID)
		if err != nil {
			log.Fatalf("Cannot load run: %v", err)
		}
		out, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			log.Fatalf("Cannot render run: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	summaries, err := store.ListScans()
	if err != nil {
		log.Fatalf("Cannot list runs: %v", err)
	}
	if len(summaries) == 0 {
		fmt.Println("No stored runs.")
		return
	}

	for _, s := range summaries {
		status := "completed"
		if s.Cancelled {
			status = "cancelled"
		}
		fmt.Printf("  %s\n", s.RunID)
		fmt.Printf("    URL: %s\n", s.BaseURL)
		fmt.Printf("    Started: %s  Pages: %d  Images: %d  Status: %s\n",
			s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.PagesVisited, s.ImageCount, status)
		fmt.Println()
	}
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: image-scanner validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doValidate(*configFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "Configuration valid.")
	return 0
}
