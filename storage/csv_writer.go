package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"weblog-stats/models"
	"weblog-stats/services"
)

var csvHeader = []string{"path", "timestamp", "user_agent", "browser", "is_image"}

// CSVWriter exports normalized records, one row each, with the derived
// browser family and image flag. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRecords appends records to the file. Absent timestamps are written
// as an empty field.
func (c *CSVWriter) WriteRecords(records []models.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range records {
		ts := ""
		if r.HasTimestamp() {
			ts = r.Timestamp.Format(time.DateTime)
		}
		row := []string{
			r.Path,
			ts,
			r.UserAgent,
			string(services.ClassifyBrowser(r.UserAgent)),
			strconv.FormatBool(services.IsImage(r.Path)),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}
