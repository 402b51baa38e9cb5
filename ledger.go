package lmg

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS results (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT    NOT NULL,
	command       TEXT    NOT NULL,
	backend       TEXT    NOT NULL,
	qubits        INTEGER NOT NULL,
	clique        INTEGER NOT NULL,
	point         INTEGER NOT NULL,
	parameters    TEXT    NOT NULL,
	probabilities TEXT    NOT NULL,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS results_run ON results(run_id);
`

// Record is one clique distribution measured during a run.
type Record struct {
	RunID         string
	Command       string
	Backend       string
	Qubits        int
	Clique        Clique
	Point         int
	Parameters    []float64
	Probabilities Probabilities
	CreatedAt     time.Time
}

/*
Ledger is an SQLite index of every distribution a run produced, so sweeps can
be queried without re-reading the result files.
*/
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens or creates the ledger database at path.
func OpenLedger(ctx context.Context, path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating ledger directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening ledger %s", path)
	}
	// One writer; grid workers record concurrently.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating ledger schema")
	}

	return &Ledger{db: db}, nil
}

const insertRecord = `INSERT INTO results
	(run_id, command, backend, qubits, clique, point, parameters, probabilities, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Record appends one row.
func (l *Ledger) Record(ctx context.Context, rec Record) error {
	return insert(ctx, l.db, rec)
}

// RecordAll appends rows in one transaction: either all are written or none.
func (l *Ledger) RecordAll(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting ledger transaction")
	}

	for _, rec := range recs {
		if err := insert(ctx, tx, rec); err != nil {
			tx.Rollback()
			return err
		}
	}

	return errors.Wrap(tx.Commit(), "committing ledger transaction")
}

func insert(ctx context.Context, db execer, rec Record) error {
	params, err := json.Marshal(rec.Parameters)
	if err != nil {
		return errors.Wrap(err, "encoding parameters")
	}

	probs, err := json.Marshal(rec.Probabilities)
	if err != nil {
		return errors.Wrap(err, "encoding probabilities")
	}

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err = db.ExecContext(ctx, insertRecord,
		rec.RunID, rec.Command, rec.Backend, rec.Qubits, int(rec.Clique), rec.Point,
		string(params), string(probs), rec.CreatedAt.UnixNano(),
	)
	return errors.Wrap(err, "recording result")
}

// Results returns a run's rows ordered by point, then clique.
func (l *Ledger) Results(ctx context.Context, runID string) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, command, backend, qubits, clique, point, parameters, probabilities, created_at
		 FROM results WHERE run_id = ? ORDER BY qubits, point, clique, id`,
		runID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying ledger")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec           Record
			clique        int
			params, probs string
			created       int64
		)

		if err := rows.Scan(
			&rec.RunID, &rec.Command, &rec.Backend, &rec.Qubits, &clique, &rec.Point,
			&params, &probs, &created,
		); err != nil {
			return nil, errors.Wrap(err, "scanning ledger row")
		}

		if err := json.Unmarshal([]byte(params), &rec.Parameters); err != nil {
			return nil, errors.Wrap(err, "decoding parameters")
		}
		if err := json.Unmarshal([]byte(probs), &rec.Probabilities); err != nil {
			return nil, errors.Wrap(err, "decoding probabilities")
		}

		rec.Clique = Clique(clique)
		rec.CreatedAt = time.Unix(0, created)
		out = append(out, rec)
	}

	return out, errors.Wrap(rows.Err(), "reading ledger")
}

// Runs lists the distinct run ids in the ledger, oldest first.
func (l *Ledger) Runs(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id FROM results GROUP BY run_id ORDER BY MIN(id)`,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying runs")
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scanning run id")
		}
		runs = append(runs, id)
	}

	return runs, errors.Wrap(rows.Err(), "reading runs")
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
