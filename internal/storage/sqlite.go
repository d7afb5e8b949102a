package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/iiviie/liveblog-watch/internal/models"
)

// SQLiteJournal implements Journal using SQLite
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (creating if needed) the journal database
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	journal := &SQLiteJournal{db: db}
	if err := journal.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return journal, nil
}

// initDB initializes the database schema
func (j *SQLiteJournal) initDB() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		found INTEGER NOT NULL DEFAULT 0,
		new INTEGER NOT NULL DEFAULT 0,
		notified INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error TEXT,
		notified_ids TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_outcome ON runs(outcome);
	`

	_, err := j.db.Exec(query)
	return err
}

// RecordRun saves a finished run and sets its ID
func (j *SQLiteJournal) RecordRun(ctx context.Context, run *models.Run) error {
	idsJSON, err := json.Marshal(run.NotifiedIDs)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO runs (started_at, finished_at, found, new, notified, failed, outcome, error, notified_ids)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := j.db.ExecContext(ctx, query,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Found,
		run.New,
		run.Notified,
		run.Failed,
		run.Outcome,
		run.Error,
		string(idsJSON),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	run.ID, err = res.LastInsertId()
	return err
}

// RecentRuns retrieves up to limit runs, newest first
func (j *SQLiteJournal) RecentRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	query := `SELECT id, started_at, finished_at, found, new, notified, failed, outcome, error, notified_ids
	          FROM runs ORDER BY id DESC LIMIT ?`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var run models.Run
		var startedAt, finishedAt string
		var runErr, idsJSON sql.NullString

		err := rows.Scan(
			&run.ID,
			&startedAt,
			&finishedAt,
			&run.Found,
			&run.New,
			&run.Notified,
			&run.Failed,
			&run.Outcome,
			&runErr,
			&idsJSON,
		)
		if err != nil {
			return nil, err
		}

		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("run %d: parse started_at: %w", run.ID, err)
		}
		if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
			return nil, fmt.Errorf("run %d: parse finished_at: %w", run.ID, err)
		}
		run.Error = runErr.String
		if idsJSON.Valid && idsJSON.String != "" {
			if err := json.Unmarshal([]byte(idsJSON.String), &run.NotifiedIDs); err != nil {
				return nil, fmt.Errorf("run %d: parse notified_ids: %w", run.ID, err)
			}
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// Close closes the database connection
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
