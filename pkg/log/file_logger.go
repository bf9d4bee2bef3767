package log

import (
	"bytes"
	"os"
	"sync"
)

// FileOption configures a FileLogger.
type FileOption func(*FileLogger)

// WithMaxSize caps the log file at n bytes. When an event would push the
// file past the cap, the file is renamed to path + ".1" (replacing any older
// backup) and a new file is started. Zero disables rotation.
func WithMaxSize(n int64) FileOption {
	return func(l *FileLogger) {
		l.maxSize = n
	}
}

// FileLogger appends encoded events to a file.
// It is safe for concurrent use from multiple goroutines.
type FileLogger struct {
	path    string
	maxSize int64

	mu      sync.Mutex
	file    *os.File
	size    int64
	buf     bytes.Buffer
	dropped int
	closed  bool
}

// NewFileLogger opens path for appending, creating it with mode 0644.
func NewFileLogger(path string, opts ...FileOption) (*FileLogger, error) {
	l := &FileLogger{path: path}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.open(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *FileLogger) open() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	l.file = f
	l.size = info.Size()
	return nil
}

// Log appends the event. Events that cannot be encoded or written are
// counted in Dropped.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}

	l.buf.Reset()
	if err := NewEncoder(&l.buf).Encode(event); err != nil {
		l.dropped++
		return
	}

	if l.maxSize > 0 && l.size > 0 && l.size+int64(l.buf.Len()) > l.maxSize {
		if err := l.rotate(); err != nil {
			l.dropped++
			return
		}
	}

	n, err := l.file.Write(l.buf.Bytes())
	l.size += int64(n)
	if err != nil {
		l.dropped++
	}
}

func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(l.path, l.path+".1"); err != nil {
		return err
	}
	return l.open()
}

// Dropped returns the number of events that were not written.
func (l *FileLogger) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close flushes and closes the file. Later calls to Log are ignored and
// repeated calls to Close return nil.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	syncErr := l.file.Sync()
	if err := l.file.Close(); err != nil {
		return err
	}
	return syncErr
}
