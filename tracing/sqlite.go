package tracing

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteTraceWriter writes events into a SQLite database.
type SQLiteTraceWriter struct {
	*sql.DB

	mu        sync.Mutex
	statement *sql.Stmt
	path      string
	pending   []Event
	batchSize int
}

// NewSQLiteTraceWriter creates a writer for <path>.sqlite3. With an empty
// path, the file is named after a fresh id.
func NewSQLiteTraceWriter(path string) *SQLiteTraceWriter {
	w := &SQLiteTraceWriter{
		path:      path,
		batchSize: 1000,
	}

	atexit.Register(func() { _ = w.Flush() })

	return w
}

// FileName returns the database file the writer uses.
func (w *SQLiteTraceWriter) FileName() string {
	return w.path + ".sqlite3"
}

// Init creates the database. It fails if the file already exists.
func (w *SQLiteTraceWriter) Init() error {
	if w.path == "" {
		w.path = "autosplit_trace_" + xid.New().String()
	}

	filename := w.FileName()
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return err
	}

	w.DB = db

	if err := w.createTable(); err != nil {
		return err
	}

	w.statement, err = w.Prepare(`INSERT INTO trace VALUES (?, ?, ?, ?, ?, ?)`)

	return err
}

func (w *SQLiteTraceWriter) createTable() error {
	queries := []string{
		`create table trace
		(
			session_id varchar(40)  not null default '',
			tick       integer      not null default 0,
			kind       varchar(40)  not null,
			what       varchar(100) not null,
			state      varchar(200) default '',
			time       float        not null
		);`,
		`create index trace_session_id_index on trace (session_id);`,
		`create index trace_kind_index on trace (kind);`,
	}

	for _, q := range queries {
		if _, err := w.Exec(q); err != nil {
			return fmt.Errorf("failed to execute %q: %w", q, err)
		}
	}

	return nil
}

// Write buffers an event. The buffer is flushed when it is full.
func (w *SQLiteTraceWriter) Write(e Event) {
	w.mu.Lock()
	w.pending = append(w.pending, e)
	full := len(w.pending) >= w.batchSize
	w.mu.Unlock()

	if full {
		_ = w.Flush()
	}
}

// Flush writes the buffered events in one transaction.
func (w *SQLiteTraceWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 || w.DB == nil {
		return nil
	}

	tx, err := w.Begin()
	if err != nil {
		return err
	}

	stmt := tx.Stmt(w.statement)
	for _, e := range w.pending {
		_, err := stmt.Exec(
			e.SessionID,
			e.Tick,
			e.Kind,
			e.What,
			e.State,
			float64(e.Time.UnixNano())/float64(time.Second),
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	w.pending = nil

	return nil
}

// SQLiteTraceReader reads events back from a trace database.
type SQLiteTraceReader struct {
	*sql.DB

	filename string
}

// NewSQLiteTraceReader creates a reader of filename.
func NewSQLiteTraceReader(filename string) *SQLiteTraceReader {
	return &SQLiteTraceReader{filename: filename}
}

// Init opens the database.
func (r *SQLiteTraceReader) Init() error {
	db, err := sql.Open("sqlite3", r.filename)
	if err != nil {
		return err
	}

	r.DB = db

	return nil
}

// EventQuery filters the events listed by a reader. Empty fields match
// everything.
type EventQuery struct {
	SessionID string
	Kind      string
}

// ListEvents returns the events matching query in insertion order.
func (r *SQLiteTraceReader) ListEvents(query EventQuery) ([]Event, error) {
	sqlStr := `
		SELECT session_id, tick, kind, what, state, time
		FROM trace
		WHERE (? = '' OR session_id = ?) AND (? = '' OR kind = ?)
		ORDER BY rowid
	`

	rows, err := r.Query(sqlStr,
		query.SessionID, query.SessionID, query.Kind, query.Kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e  Event
			ts float64
		)

		err := rows.Scan(&e.SessionID, &e.Tick, &e.Kind, &e.What, &e.State, &ts)
		if err != nil {
			return nil, err
		}

		e.Time = time.Unix(0, int64(ts*float64(time.Second)))
		events = append(events, e)
	}

	return events, rows.Err()
}
