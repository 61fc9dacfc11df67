package logger

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	writerQueueSize = 1000
	flushInterval   = 2 * time.Second
)

// AsyncFileWriter decouples log emission from disk writes. Entries are
// queued onto a channel and flushed by a single background goroutine, so a
// slow disk never blocks the submission path. When the queue is full entries
// are dropped rather than delaying the caller.
type AsyncFileWriter struct {
	mu      sync.Mutex
	writer  *bufio.Writer
	file    *os.File
	entries chan []byte
	done    chan struct{}
}

func NewAsyncFileWriter(logFile string, bufferSize int) (*AsyncFileWriter, error) {
	file, err := os.OpenFile(filepath.Clean(logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	w := &AsyncFileWriter{
		writer:  bufio.NewWriterSize(file, bufferSize),
		file:    file,
		entries: make(chan []byte, writerQueueSize),
		done:    make(chan struct{}),
	}
	go w.drain()
	return w, nil
}

func (w *AsyncFileWriter) Write(p []byte) (int, error) {
	// The caller may reuse p after Write returns.
	entry := make([]byte, len(p))
	copy(entry, p)

	select {
	case w.entries <- entry:
		return len(p), nil
	default:
		// Queue full: drop the entry instead of stalling the caller.
		return 0, nil
	}
}

func (w *AsyncFileWriter) drain() {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case entry := <-w.entries:
			w.mu.Lock()
			_, _ = w.writer.Write(entry)
			w.mu.Unlock()
		case <-ticker.C:
			w.flush()
		case <-w.done:
			w.flush()
			return
		}
	}
}

func (w *AsyncFileWriter) flush() {
	w.mu.Lock()
	_ = w.writer.Flush()
	w.mu.Unlock()
}

func (w *AsyncFileWriter) Close() {
	close(w.done)
	_ = w.file.Close()
}
