// Package history keeps a persistent ledger of every external lookup
// the enrichment passes make. The ledger answers two operational
// questions: how many billable calls a run actually made, and which
// queries keep failing across runs.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS lookup_calls (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	provider   TEXT NOT NULL,
	query      TEXT NOT NULL,
	outcome    TEXT NOT NULL,
	ok         INTEGER NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lookup_calls_run ON lookup_calls(run_id);
CREATE INDEX IF NOT EXISTS idx_lookup_calls_query ON lookup_calls(provider, query);
`

// Ledger records lookup calls in a sqlite file next to the data.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lookup ledger: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init lookup ledger: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Record appends one lookup call. outcome is the provider's status tag
// ("ok", "no_results", "rate_limited", "denied", an http code).
func (l *Ledger) Record(runID, provider, query, outcome string, ok bool) error {
	okInt := 0
	if ok {
		okInt = 1
	}
	_, err := l.db.Exec(
		`INSERT INTO lookup_calls (run_id, provider, query, outcome, ok, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, provider, query, outcome, okInt, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record lookup: %w", err)
	}
	return nil
}

// CountForRun returns total and failed call counts for one run.
func (l *Ledger) CountForRun(runID string) (total, failed int, err error) {
	row := l.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN ok = 0 THEN 1 ELSE 0 END), 0) FROM lookup_calls WHERE run_id = ?`,
		runID,
	)
	if err := row.Scan(&total, &failed); err != nil {
		return 0, 0, fmt.Errorf("failed to count lookups: %w", err)
	}
	return total, failed, nil
}

// RepeatedFailures lists queries that failed in at least minRuns
// distinct runs, worst first. Useful for spotting facilities that will
// never resolve without a hand fix.
func (l *Ledger) RepeatedFailures(provider string, minRuns int) ([]string, error) {
	rows, err := l.db.Query(
		`SELECT query FROM lookup_calls WHERE provider = ? AND ok = 0
		 GROUP BY query HAVING COUNT(DISTINCT run_id) >= ?
		 ORDER BY COUNT(DISTINCT run_id) DESC, query`,
		provider, minRuns,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query repeated failures: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan failure row: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (l *Ledger) Close() error { return l.db.Close() }
