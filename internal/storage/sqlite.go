package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"modbot/internal/model"
	"modbot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// RecordOutcome appends a triage outcome and populates its ID and CreatedAt.
func (s *SQLite) RecordOutcome(ctx context.Context, o *model.Outcome) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (kind, rule_key, title, permalink, actor, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(o.Kind), o.RuleKey, o.Title, o.Permalink, o.Actor, o.Detail, now,
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	o.ID = id
	o.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListRecentOutcomes returns up to limit outcomes, newest first.
func (s *SQLite) ListRecentOutcomes(ctx context.Context, limit int) ([]model.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, rule_key, title, permalink, actor, detail, created_at
		 FROM audit_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var outcomes []model.Outcome
	for rows.Next() {
		var o model.Outcome
		var kindStr, createdStr string
		if err := rows.Scan(&o.ID, &kindStr, &o.RuleKey, &o.Title, &o.Permalink, &o.Actor, &o.Detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Kind = model.OutcomeKind(kindStr)
		o.CreatedAt, _ = time.Parse(timeLayout, createdStr)
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
