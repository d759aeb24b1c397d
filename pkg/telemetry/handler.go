// Package telemetry mirrors error-level log records into Parquet files so
// failures can be analyzed offline without scraping console output.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
)

// defaultBatchSize is how many records accumulate before an automatic
// flush.
const defaultBatchSize = 100

// Record is one captured log entry in the Parquet schema.
type Record struct {
	ID         string    `parquet:"id"`
	Timestamp  time.Time `parquet:"timestamp"`
	Level      string    `parquet:"level"`
	Message    string    `parquet:"message"`
	SourceFile string    `parquet:"source_file"`
	LineNumber int       `parquet:"line_number"`
	Attributes string    `parquet:"attributes"`
}

// ParquetHandler forwards every record to the next handler and buffers
// error-level records for batch writes. Handlers derived through WithAttrs
// or WithGroup share one buffer, so Flush drains everything.
type ParquetHandler struct {
	next slog.Handler
	sink *sink
}

type sink struct {
	mu        sync.Mutex
	outputDir string
	batchSize int
	buffer    []Record
}

var _ slog.Handler = (*ParquetHandler)(nil)

// NewParquetHandler wraps next with error capture into outputDir.
func NewParquetHandler(next slog.Handler, outputDir string) (*ParquetHandler, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	return &ParquetHandler{
		next: next,
		sink: &sink{
			outputDir: outputDir,
			batchSize: defaultBatchSize,
			buffer:    make([]Record, 0, defaultBatchSize),
		},
	}, nil
}

func (h *ParquetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle forwards the record, then captures it when it is an error.
func (h *ParquetHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level < slog.LevelError {
		return nil
	}

	attrs := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	attrsJSON, _ := json.Marshal(attrs)

	frames := runtime.CallersFrames([]uintptr{r.PC})
	frame, _ := frames.Next()

	return h.sink.add(Record{
		ID:         uuid.New().String(),
		Timestamp:  r.Time.UTC(),
		Level:      r.Level.String(),
		Message:    r.Message,
		SourceFile: frame.File,
		LineNumber: frame.Line,
		Attributes: string(attrsJSON),
	})
}

func (h *ParquetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ParquetHandler{next: h.next.WithAttrs(attrs), sink: h.sink}
}

func (h *ParquetHandler) WithGroup(name string) slog.Handler {
	return &ParquetHandler{next: h.next.WithGroup(name), sink: h.sink}
}

// Flush writes any buffered records immediately. Call it on shutdown so
// partial batches are not lost.
func (h *ParquetHandler) Flush() error {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	return h.sink.flushLocked()
}

func (s *sink) add(record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer = append(s.buffer, record)
	if len(s.buffer) >= s.batchSize {
		return s.flushLocked()
	}
	return nil
}

// flushLocked writes the buffer to a fresh timestamped file. Caller holds
// the lock.
func (s *sink) flushLocked() error {
	if len(s.buffer) == 0 {
		return nil
	}

	name := fmt.Sprintf("errors_%s_%d.parquet", time.Now().UTC().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(s.outputDir, name)

	if err := parquet.WriteFile(path, s.buffer); err != nil {
		return fmt.Errorf("failed to write telemetry file: %w", err)
	}

	s.buffer = s.buffer[:0]
	return nil
}
