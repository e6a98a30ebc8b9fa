package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const iso8601Layout = "2006-01-02T15:04:05.000Z0700"

// LogEntry represents a single log entry in the buffer
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogBuffer provides a thread-safe ring buffer for logs with file backup.
// Its own logger must not write back into the buffer.
type LogBuffer struct {
	mu           sync.Mutex
	ringBuffer   []LogEntry
	maxSize      int
	currentIndex int
	wrapped      bool
	closed       bool
	spillFile    *os.File
	spillWriter  *bufio.Writer
	logger       *zap.Logger

	// Stats
	totalEntries   uint64
	spilledEntries uint64
}

// NewLogBuffer creates a new log buffer with the specified size
func NewLogBuffer(maxSize int, spillFilePath string, logger *zap.Logger) (*LogBuffer, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("invalid log buffer size %d", maxSize)
	}

	// Ensure directory exists
	dir := filepath.Dir(spillFilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Open spill file in append mode
	spillFile, err := os.OpenFile(spillFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open spill file: %w", err)
	}

	return &LogBuffer{
		ringBuffer:  make([]LogEntry, maxSize),
		maxSize:     maxSize,
		spillFile:   spillFile,
		spillWriter: bufio.NewWriter(spillFile),
		logger:      logger,
	}, nil
}

// Add adds a new log entry to the buffer
func (lb *LogBuffer) Add(level, message string, fields map[string]interface{}) error {
	return lb.add(LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    fields,
	})
}

func (lb *LogBuffer) add(entry LogEntry) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.closed {
		return nil
	}

	// The slot at currentIndex holds the oldest entry once the ring is full.
	if lb.wrapped {
		if err := lb.spillToFile(lb.ringBuffer[lb.currentIndex]); err != nil {
			lb.logger.Error("Failed to spill log entry to file", zap.Error(err))
			return err
		}
		lb.spilledEntries++
	}

	lb.ringBuffer[lb.currentIndex] = entry
	lb.currentIndex = (lb.currentIndex + 1) % lb.maxSize
	if lb.currentIndex == 0 {
		lb.wrapped = true
	}
	lb.totalEntries++

	return nil
}

// spillToFile writes an entry to the spill file
func (lb *LogBuffer) spillToFile(entry LogEntry) error {
	// Write as JSON for easy parsing
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	if _, err := lb.spillWriter.Write(data); err != nil {
		return fmt.Errorf("failed to write to spill file: %w", err)
	}

	if _, err := lb.spillWriter.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	// Don't flush on every write for performance, rely on periodic flush
	return nil
}

// GetRecentLogs returns up to limit of the newest entries, oldest first.
// A non-positive limit returns everything held in memory.
func (lb *LogBuffer) GetRecentLogs(limit int) []LogEntry {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	count := lb.maxSize
	oldest := lb.currentIndex
	if !lb.wrapped {
		count = lb.currentIndex
		oldest = 0
	}

	skip := 0
	if limit > 0 && limit < count {
		skip = count - limit
		count = limit
	}

	logs := make([]LogEntry, 0, count)
	for i := 0; i < count; i++ {
		logs = append(logs, lb.ringBuffer[(oldest+skip+i)%lb.maxSize])
	}
	return logs
}

// Write implements io.Writer for zap JSON lines. Each line becomes one entry;
// lines that are not JSON are kept verbatim as info messages.
func (lb *LogBuffer) Write(p []byte) (int, error) {
	for _, line := range bytes.Split(p, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		entry := parseLine(line)
		if err := lb.add(entry); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func parseLine(line []byte) LogEntry {
	var raw map[string]interface{}
	if err := json.Unmarshal(line, &raw); err != nil {
		return LogEntry{Timestamp: time.Now(), Level: "info", Message: string(line)}
	}

	entry := LogEntry{Timestamp: time.Now()}
	if v, ok := raw["msg"].(string); ok {
		entry.Message = v
		delete(raw, "msg")
	}
	if v, ok := raw["level"].(string); ok {
		entry.Level = v
		delete(raw, "level")
	}
	if v, ok := raw["time"].(string); ok {
		if ts, err := time.Parse(iso8601Layout, v); err == nil {
			entry.Timestamp = ts
		}
		delete(raw, "time")
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry
}

// Flush forces a write of any buffered data to the spill file
func (lb *LogBuffer) Flush() error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.closed {
		return nil
	}

	if err := lb.spillWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush spill writer: %w", err)
	}

	if err := lb.spillFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync spill file: %w", err)
	}

	return nil
}

// Close closes the log buffer and ensures all data is written
func (lb *LogBuffer) Close() error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.closed {
		return nil
	}
	lb.closed = true

	// Write all remaining entries to spill file
	if lb.wrapped {
		// Write all entries if buffer wrapped
		for i := 0; i < lb.maxSize; i++ {
			index := (lb.currentIndex + i) % lb.maxSize
			if err := lb.spillToFile(lb.ringBuffer[index]); err != nil {
				lb.logger.Error("Failed to spill entry during close", zap.Error(err))
			}
		}
	} else {
		// Write only valid entries if not wrapped
		for i := 0; i < lb.currentIndex; i++ {
			if err := lb.spillToFile(lb.ringBuffer[i]); err != nil {
				lb.logger.Error("Failed to spill entry during close", zap.Error(err))
			}
		}
	}

	// Flush and close
	if err := lb.spillWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush during close: %w", err)
	}

	if err := lb.spillFile.Close(); err != nil {
		return fmt.Errorf("failed to close spill file: %w", err)
	}

	lb.logger.Info("Log buffer closed",
		zap.Uint64("totalEntries", lb.totalEntries),
		zap.Uint64("spilledEntries", lb.spilledEntries))

	return nil
}

// GetStats returns buffer statistics
func (lb *LogBuffer) GetStats() (total, spilled uint64) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.totalEntries, lb.spilledEntries
}

// StartPeriodicFlush starts a goroutine that periodically flushes the buffer
func (lb *LogBuffer) StartPeriodicFlush(interval time.Duration) chan struct{} {
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := lb.Flush(); err != nil {
					lb.logger.Error("Periodic flush failed", zap.Error(err))
				}
			case <-done:
				return
			}
		}
	}()

	return done
}
