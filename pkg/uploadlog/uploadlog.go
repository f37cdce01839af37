// Package uploadlog records the outcome of wiki page uploads in a CSV file,
// so interrupted batch runs can be resumed without re-saving pages.
package uploadlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status values recorded per page.
const (
	StatusUploaded = "uploaded"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

var header = []string{"batch_id", "timestamp", "page_title", "status", "detail"}

// Entry is one recorded upload attempt.
type Entry struct {
	BatchID   string
	Timestamp time.Time
	PageTitle string
	Status    string
	Detail    string
}

// Log appends upload results to a CSV file. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	f       *os.File
	w       *csv.Writer
	batchID string
}

// Open opens (or creates) the log file at path and starts a new batch.
// The header row is written only when the file is new or empty.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat upload log: %w", err)
	}

	l := &Log{
		f:       f,
		w:       csv.NewWriter(f),
		batchID: uuid.NewString(),
	}

	if info.Size() == 0 {
		if err := l.w.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write upload log header: %w", err)
		}
		l.w.Flush()
		if err := l.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write upload log header: %w", err)
		}
	}

	return l, nil
}

// BatchID returns the identifier assigned to this run.
func (l *Log) BatchID() string {
	return l.batchID
}

// Record appends one entry for the current batch and flushes it to disk.
func (l *Log) Record(pageTitle, status, detail string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	row := []string{
		l.batchID,
		time.Now().UTC().Format(time.RFC3339),
		pageTitle,
		status,
		detail,
	}
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("failed to write upload log entry: %w", err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("failed to flush upload log: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

// Read parses all entries from a log file. Rows that do not parse are
// skipped rather than aborting the read.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var entries []Entry
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read upload log: %w", err)
		}
		if first {
			first = false
			if len(row) > 0 && row[0] == header[0] {
				continue
			}
		}
		if len(row) < 5 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, row[1])
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			BatchID:   row[0],
			Timestamp: ts,
			PageTitle: row[2],
			Status:    row[3],
			Detail:    row[4],
		})
	}
	return entries, nil
}

// Uploaded returns the set of page titles already recorded as uploaded,
// across all batches in the file. A missing file yields an empty set.
func Uploaded(path string) (map[string]bool, error) {
	entries, err := Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]bool{}, nil
		}
		return nil, err
	}

	done := make(map[string]bool)
	for _, e := range entries {
		if e.Status == StatusUploaded {
			done[e.PageTitle] = true
		}
	}
	return done, nil
}
