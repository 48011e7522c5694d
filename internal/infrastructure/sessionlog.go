package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SessionLog appends the raw output of one session to the daily download log.
// All sessions of a day share download-YYYYMMDD.log, delimited by a header
// and footer.
type SessionLog struct {
	mu     sync.Mutex
	file   *os.File
	closed bool
}

// OpenSessionLog opens today's download log and writes the session header
func OpenSessionLog(logsDir, sessionID, cmdLine string) (*SessionLog, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	path := filepath.Join(logsDir, "download-"+time.Now().Format("20060102")+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open download log: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(file, "\n=== [%s] Session: %s ===\n$ %s\n", timestamp, sessionID, cmdLine)

	return &SessionLog{file: file}, nil
}

// Stdout records a line of standard output
func (l *SessionLog) Stdout(line string) {
	l.write(line)
}

// Stderr records text from standard error
func (l *SessionLog) Stderr(text string) {
	l.write("[stderr] " + text)
}

func (l *SessionLog) write(text string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	fmt.Fprintln(l.file, text)
}

// Close writes the footer and closes the file. Further writes are ignored.
func (l *SessionLog) Close(status, message string) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(l.file, "[%s] %s: %s\n=== END ===\n\n", timestamp, status, message)
	return l.file.Close()
}
