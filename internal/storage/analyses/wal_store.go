// Package analyses persists completed comparison runs in an append-only WAL.
// The log feeds the dashboard activity stream; it stores no session or chat
// state.
package analyses

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/stockpair/internal/entity"
)

const (
	DefaultDir   = "./wal/analyses"
	segmentLimit = 100
	maxSegments  = 10

	analysisKeyPrefix = "analysis_"
)

// WALStore persists analysis events in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed analysis store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "analysis_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init analysis WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends one analysis event to the log.
func (s *WALStore) Save(event entity.AnalysisEvent) error {
	if s == nil || s.wal == nil {
		return errors.New("analysis store is not initialized")
	}
	if event.SymbolA == "" || event.SymbolB == "" {
		return errors.New("analysis event symbols are required")
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal analysis event")
	}

	key := fmt.Sprintf("%s%s_%s", analysisKeyPrefix, event.SymbolA, event.SymbolB)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// EventsAfter returns all analysis events written after the provided index.
func (s *WALStore) EventsAfter(index uint64) ([]entity.AnalysisEventRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("analysis store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]entity.AnalysisEventRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(key, analysisKeyPrefix) {
			continue
		}

		var event entity.AnalysisEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, errors.Wrap(err, "decode analysis event")
		}
		records = append(records, entity.AnalysisEventRecord{Index: idx, Event: event})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("analysis store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
