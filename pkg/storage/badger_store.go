package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"image-scanner/pkg/log"
	"image-scanner/pkg/models"
	"image-scanner/pkg/utils"
)

const (
	scanKeyPrefix = "scan:"      // Prefix for scan record keys in DB
	historyDBDir  = "history_db" // Subdirectory name within stateDir for Badger DB files
)

// ErrScanNotFound is returned by GetScan when no record exists for a run ID.
var ErrScanNotFound = errors.New("scan record not found")

// BadgerStore implements the ScanStore interface using BadgerDB
type BadgerStore struct {
	db  *badger.DB
	log *logrus.Entry
}

// NewBadgerStore initializes and returns a new BadgerStore rooted at stateDir
func NewBadgerStore(stateDir string, logger *logrus.Entry) (*BadgerStore, error) {
	dbPath := filepath.Join(stateDir, historyDBDir)

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("cannot create state directory %s: %w", dbPath, err)
	}

	logger.Debugf("Opening scan history database at: %s", dbPath)

	badgerLogger := log.NewBadgerLogger(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(dbPath).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1) // Only the latest version of each record matters

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", dbPath, err)
	}

	return &BadgerStore{db: db, log: logger}, nil
}

// SaveScan implements the ScanStore interface
func (s *BadgerStore) SaveScan(record *models.ScanRecord) error {
	if s.db == nil {
		return errors.New("history store not initialized")
	}
	if record.RunID == "" {
		return fmt.Errorf("%w: scan record has empty run ID", utils.ErrStorage)
	}

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: marshaling scan record %s: %v", utils.ErrStorage, record.RunID, err)
	}

	key := []byte(scanKeyPrefix + record.RunID)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("%w: writing scan record %s: %v", utils.ErrStorage, record.RunID, err)
	}

	s.log.WithFields(logrus.Fields{
		"run_id": record.RunID,
		"images": len(record.Images),
	}).Debug("Scan record saved")
	return nil
}

// GetScan implements the ScanStore interface
func (s *BadgerStore) GetScan(runID string) (*models.ScanRecord, error) {
	if s.db == nil {
		return nil, errors.New("history store not initialized")
	}

	key := []byte(scanKeyPrefix + runID)
	var record models.ScanRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrScanNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading scan record %s: %v", utils.ErrStorage, runID, err)
	}
	return &record, nil
}

// ListScans implements the ScanStore interface
func (s *BadgerStore) ListScans() ([]ScanSummary, error) {
	if s.db == nil {
		return nil, errors.New("history store not initialized")
	}

	var summaries []ScanSummary
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(scanKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var record models.ScanRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				s.log.Warnf("Skipping unreadable scan record %s: %v", it.Item().Key(), err)
				continue
			}
			summaries = append(summaries, ScanSummary{
				RunID:        record.RunID,
				BaseURL:      record.BaseURL,
				StartedAt:    record.StartedAt,
				PagesVisited: record.PagesVisited,
				ImageCount:   len(record.Images),
				Cancelled:    record.Cancelled,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing scan records: %v", utils.ErrStorage, err)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})
	return summaries, nil
}

// Close implements the ScanStore interface
func (s *BadgerStore) Close() error {
	if s.db == nil {
		return nil
	}
	s.log.Debug("Closing scan history database")
	return s.db.Close()
}
