package retrieval

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// QueryLogger records retrieval queries as JSON lines for later analysis.
type QueryLogger struct {
	mu     sync.Mutex
	writer io.Writer
}

func NewQueryLogger(w io.Writer) *QueryLogger {
	return &QueryLogger{writer: w}
}

// NewFileQueryLogger logs to the given file and stdout, creating parent
// directories as needed.
func NewFileQueryLogger(path string) (*QueryLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating query log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening query log: %w", err)
	}
	return NewQueryLogger(io.MultiWriter(os.Stdout, f)), nil
}

type queryLogEntry struct {
	Timestamp    time.Time `json:"timestamp"`
	Question     string    `json:"question"`
	NumFragments int       `json:"num_fragments"`
	LatencyMs    int64     `json:"latency_ms"`
}

// Log writes one entry. Failures are swallowed; query logging never blocks
// retrieval.
func (l *QueryLogger) Log(question string, numFragments int, latency time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := queryLogEntry{
		Timestamp:    time.Now().UTC(),
		Question:     question,
		NumFragments: numFragments,
		LatencyMs:    latency.Milliseconds(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = l.writer.Write(append(data, '\n'))
}
