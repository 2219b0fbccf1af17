package hypercube

// recorder.go keeps the results of runs in an SQLite database, so that the
// completion ticks of many experiments can be compared with plain SQL

import (
	"database/sql"
	"fmt"

	// register the sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
)

const createResultsTableSQL = `CREATE TABLE IF NOT EXISTS flow_results (
	run_id     TEXT    NOT NULL,
	experiment TEXT    NOT NULL,
	flow_idx   INTEGER NOT NULL,
	src        INTEGER NOT NULL,
	dst        INTEGER NOT NULL,
	size       INTEGER NOT NULL,
	start      INTEGER NOT NULL,
	completion INTEGER NOT NULL,
	PRIMARY KEY (run_id, flow_idx)
);`

const insertResultSQL = `INSERT INTO flow_results
	(run_id, experiment, flow_idx, src, dst, size, start, completion)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// SQLiteResultSink writes results into the flow_results table of an SQLite
// database.  Every WriteResults call is one run with its own run id.
type SQLiteResultSink struct {
	db         *sql.DB
	experiment string
	lastRunID  string
}

// NewSQLiteResultSink opens (creating if needed) the database file and makes
// sure the results table exists
func NewSQLiteResultSink(filename, experiment string) (*SQLiteResultSink, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}
	sink, err := NewSQLiteResultSinkWithDB(db, experiment)
	if err != nil {
		db.Close()
		return nil, err
	}
	return sink, nil
}

// NewSQLiteResultSinkWithDB uses an already opened database
func NewSQLiteResultSinkWithDB(db *sql.DB, experiment string) (*SQLiteResultSink, error) {
	if _, err := db.Exec(createResultsTableSQL); err != nil {
		return nil, fmt.Errorf("creating flow_results table: %w", err)
	}
	return &SQLiteResultSink{db: db, experiment: experiment}, nil
}

// WriteResults inserts the results in a single transaction under a fresh run id
func (rs *SQLiteResultSink) WriteResults(results []FlowResult) error {
	runID := xid.New().String()

	tx, err := rs.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(insertResultSQL)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for idx, res := range results {
		_, err := stmt.Exec(runID, rs.experiment, idx,
			int(res.Src), int(res.Dst), res.Size, res.Start, res.Completion)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("recording flow %d: %w", idx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	rs.lastRunID = runID
	return nil
}

// LastRunID returns the run id of the most recent successful WriteResults
func (rs *SQLiteResultSink) LastRunID() string {
	return rs.lastRunID
}

// ReadRun loads the results recorded under runID, ordered by input position
func (rs *SQLiteResultSink) ReadRun(runID string) ([]FlowResult, error) {
	rows, err := rs.db.Query(`SELECT src, dst, size, start, completion FROM flow_results
		WHERE run_id = ? ORDER BY flow_idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]FlowResult, 0)
	for rows.Next() {
		var src, dst int
		var res FlowResult
		if err := rows.Scan(&src, &dst, &res.Size, &res.Start, &res.Completion); err != nil {
			return nil, err
		}
		res.Src = Node(src)
		res.Dst = Node(dst)
		results = append(results, res)
	}
	return results, rows.Err()
}

// Close releases the database
func (rs *SQLiteResultSink) Close() error {
	return rs.db.Close()
}
