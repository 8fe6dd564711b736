package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/marcin-skalski/progress-tracker/internal/fsutil"
)

type Record struct {
	Timestamp time.Time `json:"timestamp"`
	WordCount int       `json:"word_count"`
	CommitSHA string    `json:"commit_sha"`
	Message   string    `json:"message"`
}

// Error reports a progress log that exists but could not be decoded.
// Callers recover by treating the log as empty.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("progress log %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Store is the append-only progress log persisted as a JSON array.
// It assumes a single writer.
type Store struct {
	path   string
	logger *slog.Logger
}

func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the stored records. A missing file is an empty log; a corrupt one is
// an empty log plus an *Error.
func (s *Store) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read progress log: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &Error{Path: s.path, Err: err}
	}
	return records, nil
}

// Prepare returns the log as it would be after appending rec, without writing it.
// A corrupt log is logged and replaced by an empty one.
func (s *Store) Prepare(rec Record) ([]Record, error) {
	records, err := s.Load()
	if err != nil {
		var storeErr *Error
		if !errors.As(err, &storeErr) {
			return nil, err
		}
		s.logger.Warn("progress log is corrupt, starting a new one", "path", s.path, "err", storeErr.Err)
		records = nil
	}

	rec.Timestamp = rec.Timestamp.UTC()
	return upsert(records, rec), nil
}

// Save replaces the stored log with records atomically.
func (s *Store) Save(records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode progress log: %w", err)
	}
	data = append(data, '\n')

	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write progress log: %w", err)
	}
	s.logger.Debug("progress log written", "path", s.path, "records", len(records))
	return nil
}

// Append adds rec, replacing any record with the same commit, keeps the log
// sorted by timestamp and writes it back atomically. It returns the new log.
func (s *Store) Append(rec Record) ([]Record, error) {
	records, err := s.Prepare(rec)
	if err != nil {
		return nil, err
	}
	if err := s.Save(records); err != nil {
		return nil, err
	}
	return records, nil
}

func upsert(records []Record, rec Record) []Record {
	replaced := false
	for i := range records {
		if records[i].CommitSHA == rec.CommitSHA {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return records
}
