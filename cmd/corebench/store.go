package main

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"concore/debug"
)

// runStore persists bench results in a single sqlite table.
type runStore struct {
	db *sql.DB
}

const runsSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT    NOT NULL,
	config      TEXT    NOT NULL,
	started_at  INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	ok          INTEGER NOT NULL,
	fingerprint TEXT    NOT NULL,
	detail      TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_name ON runs(name, started_at);`

// openStore opens or creates the result database at path.
func openStore(path string) (*runStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(runsSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &runStore{db: db}, nil
}

// record inserts r and returns its row id.
func (s *runStore) record(r Result) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (name, config, started_at, duration_ns, ok, fingerprint, detail)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.Config, r.Started.UnixNano(), int64(r.Duration), r.OK, r.Fingerprint, r.Detail,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// history returns the newest limit runs named name, newest first.
func (s *runStore) history(name string, limit int) ([]Result, error) {
	rows, err := s.db.Query(
		`SELECT name, config, started_at, duration_ns, ok, fingerprint, detail
		 FROM runs WHERE name = ? ORDER BY started_at DESC, id DESC LIMIT ?`,
		name, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r       Result
			started int64
			dur     int64
		)
		if err := rows.Scan(&r.Name, &r.Config, &started, &dur, &r.OK, &r.Fingerprint, &r.Detail); err != nil {
			return nil, err
		}
		r.Started = time.Unix(0, started)
		r.Duration = time.Duration(dur)
		out = append(out, r)
	}
	return out, rows.Err()
}

// printHistory logs the newest limit runs named name and returns how many
// it found.
func (s *runStore) printHistory(name string, limit int) (int, error) {
	hist, err := s.history(name, limit)
	if err != nil {
		return 0, err
	}
	for _, r := range hist {
		status := "ok"
		if !r.OK {
			status = "FAILED"
		}
		debug.DropMessage("HISTORY", r.Started.UTC().Format(time.RFC3339)+" "+r.Name+" "+status+" in "+r.Duration.String()+" ("+r.Detail+")")
	}
	return len(hist), nil
}

func (s *runStore) Close() error { return s.db.Close() }
