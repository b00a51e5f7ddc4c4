package tracing

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVTraceWriter writes events into a CSV file.
type CSVTraceWriter struct {
	mu         sync.Mutex
	path       string
	file       *os.File
	out        *csv.Writer
	pending    []Event
	bufferSize int
}

// NewCSVTraceWriter creates a writer for <path>.csv.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 100,
	}
}

// FileName returns the file the writer uses.
func (w *CSVTraceWriter) FileName() string {
	return w.path + ".csv"
}

// Init creates the file and writes the header. It fails if the file already
// exists.
func (w *CSVTraceWriter) Init() error {
	if w.path == "" {
		w.path = "autosplit_trace_" + xid.New().String()
	}

	filename := w.FileName()
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	w.file = file
	w.out = csv.NewWriter(file)

	err = w.out.Write([]string{"SessionID", "Tick", "Kind", "What", "State", "Time"})
	if err != nil {
		return err
	}

	atexit.Register(func() {
		_ = w.Flush()
		_ = w.file.Close()
	})

	return nil
}

// Write buffers an event.
func (w *CSVTraceWriter) Write(e Event) {
	w.mu.Lock()
	w.pending = append(w.pending, e)
	full := len(w.pending) >= w.bufferSize
	w.mu.Unlock()

	if full {
		_ = w.Flush()
	}
}

// Flush writes the buffered events.
func (w *CSVTraceWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.out == nil {
		return nil
	}

	for _, e := range w.pending {
		err := w.out.Write([]string{
			e.SessionID,
			strconv.FormatUint(e.Tick, 10),
			e.Kind,
			e.What,
			e.State,
			e.Time.Format(time.RFC3339Nano),
		})
		if err != nil {
			return err
		}
	}

	w.pending = nil
	w.out.Flush()

	return w.out.Error()
}
