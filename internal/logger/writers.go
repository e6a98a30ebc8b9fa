package logger

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// openAppend creates parent directories and opens path for appending.
func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// periodic calls flush on every interval until stop is closed.
type periodic struct {
	stop chan struct{}
	once sync.Once
}

func startPeriodic(interval time.Duration, flush func() error, onErr func(error)) *periodic {
	p := &periodic{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := flush(); err != nil {
					onErr(err)
				}
			case <-p.stop:
				return
			}
		}
	}()
	return p
}

// halt stops the loop; reports false if it was already stopped.
func (p *periodic) halt() bool {
	stopped := false
	p.once.Do(func() {
		close(p.stop)
		stopped = true
	})
	return stopped
}

// SafeFileWriter is a buffered, mutex-guarded line writer with periodic flush.
type SafeFileWriter struct {
	mu       sync.Mutex
	writer   *bufio.Writer
	file     *os.File
	loop     *periodic
	logger   *zap.Logger
	filePath string

	writtenLines uint64
	flushCount   uint64
}

// NewSafeFileWriter opens filePath for appending.
func NewSafeFileWriter(filePath string, flushInterval time.Duration, logger *zap.Logger) (*SafeFileWriter, error) {
	file, err := openAppend(filePath)
	if err != nil {
		return nil, err
	}

	sfw := &SafeFileWriter{
		writer:   bufio.NewWriter(file),
		file:     file,
		logger:   logger,
		filePath: filePath,
	}
	sfw.loop = startPeriodic(flushInterval, sfw.Flush, func(err error) {
		logger.Error("Periodic flush failed", zap.String("file", filePath), zap.Error(err))
	})
	return sfw, nil
}

// WriteLine writes line followed by a newline.
func (sfw *SafeFileWriter) WriteLine(line string) error {
	sfw.mu.Lock()
	defer sfw.mu.Unlock()

	if _, err := sfw.writer.WriteString(line + "\n"); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}
	sfw.writtenLines++
	return nil
}

// Flush writes buffered data and syncs the file.
func (sfw *SafeFileWriter) Flush() error {
	sfw.mu.Lock()
	defer sfw.mu.Unlock()

	if err := sfw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}
	if err := sfw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	sfw.flushCount++
	return nil
}

// Close flushes and closes the file. Later calls are no-ops.
func (sfw *SafeFileWriter) Close() error {
	if !sfw.loop.halt() {
		return nil
	}

	sfw.mu.Lock()
	defer sfw.mu.Unlock()

	if err := sfw.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := sfw.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	sfw.logger.Debug("File writer closed",
		zap.String("file", sfw.filePath),
		zap.Uint64("lines", sfw.writtenLines))
	return nil
}

// GetStats returns lines written and flushes performed.
func (sfw *SafeFileWriter) GetStats() (lines, flushes uint64) {
	sfw.mu.Lock()
	defer sfw.mu.Unlock()
	return sfw.writtenLines, sfw.flushCount
}

// SafeCSVWriter is a mutex-guarded CSV writer with periodic flush.
type SafeCSVWriter struct {
	mu       sync.Mutex
	writer   *csv.Writer
	file     *os.File
	loop     *periodic
	logger   *zap.Logger
	filePath string

	writtenRecords uint64
	flushCount     uint64
}

// NewSafeCSVWriter opens filePath for appending. header is written only when
// the file is empty and is not counted as a record.
func NewSafeCSVWriter(filePath string, header []string, flushInterval time.Duration, logger *zap.Logger) (*SafeCSVWriter, error) {
	file, err := openAppend(filePath)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	w := csv.NewWriter(file)
	if stat.Size() == 0 && len(header) > 0 {
		if err := w.Write(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		w.Flush()
	}

	scw := &SafeCSVWriter{
		writer:   w,
		file:     file,
		logger:   logger,
		filePath: filePath,
	}
	scw.loop = startPeriodic(flushInterval, scw.Flush, func(err error) {
		logger.Error("Periodic CSV flush failed", zap.String("file", filePath), zap.Error(err))
	})
	return scw, nil
}

// WriteRecord appends one CSV record.
func (scw *SafeCSVWriter) WriteRecord(record []string) error {
	scw.mu.Lock()
	defer scw.mu.Unlock()

	if err := scw.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	scw.writtenRecords++
	return nil
}

// Flush writes buffered records and syncs the file.
func (scw *SafeCSVWriter) Flush() error {
	scw.mu.Lock()
	defer scw.mu.Unlock()

	scw.writer.Flush()
	if err := scw.writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	if err := scw.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	scw.flushCount++
	return nil
}

// Close flushes and closes the file. Later calls are no-ops.
func (scw *SafeCSVWriter) Close() error {
	if !scw.loop.halt() {
		return nil
	}

	scw.mu.Lock()
	defer scw.mu.Unlock()

	scw.writer.Flush()
	if err := scw.writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error on close: %w", err)
	}
	if err := scw.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	scw.logger.Debug("CSV writer closed",
		zap.String("file", scw.filePath),
		zap.Uint64("records", scw.writtenRecords))
	return nil
}

// GetStats returns records written and flushes performed.
func (scw *SafeCSVWriter) GetStats() (records, flushes uint64) {
	scw.mu.Lock()
	defer scw.mu.Unlock()
	return scw.writtenRecords, scw.flushCount
}

// Path returns the file being written.
func (scw *SafeCSVWriter) Path() string {
	return scw.filePath
}
