// Package stats persists per-run proof-translation statistics to an embedded
// SQLite database, so repeated runs over the same formula/proof pair can be
// compared across invocations — a regression-tracking feature
// ipbip_hints.cpp approximates only with ad hoc cout timing lines.
//
// Grounded on sentra-language-sentra's internal/database package for the
// database/sql + modernc.org/sqlite pure-Go driver idiom (sql.Open, schema
// creation on connect, parameterized inserts).
package stats

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"
)

// Run is one recorded invocation of the translator.
type Run struct {
	RunID            string
	Formula          string
	Proof            string
	InputClauses     int
	DerivedClauses   int
	TrimmedClauses   int
	PropagationRounds int
	Elapsed          time.Duration
	OutputBytes      int64
	Err              string
}

// Recorder owns the SQLite connection the run history is written to.
type Recorder struct {
	db *sql.DB
}

// Open creates (if necessary) and connects to the SQLite database at path.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("stats: open %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("stats: ping %s: %w", path, err)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id             TEXT PRIMARY KEY,
	formula            TEXT NOT NULL,
	proof              TEXT NOT NULL,
	input_clauses      INTEGER NOT NULL,
	derived_clauses    INTEGER NOT NULL,
	trimmed_clauses    INTEGER NOT NULL,
	propagation_rounds INTEGER NOT NULL,
	elapsed_ns         INTEGER NOT NULL,
	output_bytes       INTEGER NOT NULL,
	error              TEXT NOT NULL DEFAULT '',
	recorded_at        TEXT NOT NULL
)`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("stats: create schema: %w", err)
	}

	return &Recorder{db: db}, nil
}

// Close releases the underlying connection.
func (r *Recorder) Close() error {
	return r.db.Close()
}

// Record inserts one run's statistics.
func (r *Recorder) Record(run Run) error {
	const insert = `
INSERT INTO runs (
	run_id, formula, proof, input_clauses, derived_clauses, trimmed_clauses,
	propagation_rounds, elapsed_ns, output_bytes, error, recorded_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(insert,
		run.RunID, run.Formula, run.Proof, run.InputClauses, run.DerivedClauses,
		run.TrimmedClauses, run.PropagationRounds, run.Elapsed.Nanoseconds(),
		run.OutputBytes, run.Err, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("stats: record run %s: %w", run.RunID, err)
	}

	return nil
}

// History returns every previously recorded run over the given formula/proof
// pair, most recent first.
func (r *Recorder) History(formula, proof string) ([]Run, error) {
	const query = `
SELECT run_id, formula, proof, input_clauses, derived_clauses, trimmed_clauses,
       propagation_rounds, elapsed_ns, output_bytes, error
FROM runs
WHERE formula = ? AND proof = ?
ORDER BY recorded_at DESC`

	rows, err := r.db.Query(query, formula, proof)
	if err != nil {
		return nil, fmt.Errorf("stats: history: %w", err)
	}
	defer rows.Close()

	var runs []Run

	for rows.Next() {
		var (
			run       Run
			elapsedNs int64
		)

		if err := rows.Scan(&run.RunID, &run.Formula, &run.Proof, &run.InputClauses,
			&run.DerivedClauses, &run.TrimmedClauses, &run.PropagationRounds,
			&elapsedNs, &run.OutputBytes, &run.Err); err != nil {
			return nil, fmt.Errorf("stats: history scan: %w", err)
		}

		run.Elapsed = time.Duration(elapsedNs)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Summary renders a Run as a one-line human-readable summary, e.g. for a
// verbose CLI progress report.
func Summary(run Run) string {
	return fmt.Sprintf("%d input, %d derived, %d trimmed, %d propagation rounds, %s elapsed, %s output",
		run.InputClauses, run.DerivedClauses, run.TrimmedClauses, run.PropagationRounds,
		run.Elapsed.Round(time.Millisecond), humanize.Bytes(uint64(max64(run.OutputBytes, 0))))
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}

	return b
}
