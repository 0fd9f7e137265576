package logger

import (
	"encoding/json"
	"sync"
	"time"
)

// LogEntry represents a single log entry in the buffer
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogBuffer is a thread-safe ring buffer of recent log entries. It
// implements zapcore.WriteSyncer over JSON-encoded lines so a full-screen
// UI can keep logging without writing to the terminal.
type LogBuffer struct {
	mu           sync.Mutex
	ringBuffer   []LogEntry
	maxSize      int
	currentIndex int
	wrapped      bool

	// Stats
	totalEntries   uint64
	droppedEntries uint64
}

// NewLogBuffer creates a new log buffer with the specified size
func NewLogBuffer(maxSize int) *LogBuffer {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LogBuffer{
		ringBuffer: make([]LogEntry, maxSize),
		maxSize:    maxSize,
	}
}

// Add adds a new log entry to the buffer, overwriting the oldest when full.
func (lb *LogBuffer) Add(entry LogEntry) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.wrapped {
		lb.droppedEntries++
	}
	lb.ringBuffer[lb.currentIndex] = entry
	lb.currentIndex = (lb.currentIndex + 1) % lb.maxSize
	if lb.currentIndex == 0 {
		lb.wrapped = true
	}
	lb.totalEntries++
}

// Write decodes one JSON log line written by a zap JSON encoder.
func (lb *LogBuffer) Write(p []byte) (int, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(p, &raw); err != nil {
		lb.Add(LogEntry{Timestamp: time.Now(), Level: "info", Message: string(p)})
		return len(p), nil
	}

	entry := LogEntry{Timestamp: time.Now()}
	if v, ok := raw["level"].(string); ok {
		entry.Level = v
	}
	if v, ok := raw["msg"].(string); ok {
		entry.Message = v
	}
	if v, ok := raw["time"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			entry.Timestamp = ts
		}
	}
	delete(raw, "level")
	delete(raw, "msg")
	delete(raw, "time")
	delete(raw, "logger")
	if len(raw) > 0 {
		entry.Fields = raw
	}

	lb.Add(entry)
	return len(p), nil
}

// Sync is a no-op; entries live in memory only.
func (lb *LogBuffer) Sync() error {
	return nil
}

// GetRecentLogs returns up to limit of the most recent entries, oldest first.
// A limit <= 0 returns everything held.
func (lb *LogBuffer) GetRecentLogs(limit int) []LogEntry {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	count := lb.currentIndex
	start := 0
	if lb.wrapped {
		count = lb.maxSize
		start = lb.currentIndex
	}
	if limit > 0 && limit < count {
		start += count - limit
		count = limit
	}

	logs := make([]LogEntry, 0, count)
	for i := 0; i < count; i++ {
		logs = append(logs, lb.ringBuffer[(start+i)%lb.maxSize])
	}
	return logs
}

// GetStats returns buffer statistics
func (lb *LogBuffer) GetStats() (total, dropped uint64) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.totalEntries, lb.droppedEntries
}
