package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/hushh/deepsearch/internal/db"
	"github.com/hushh/deepsearch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS osint_searches (
	id                 TEXT PRIMARY KEY,
	input_name         TEXT NOT NULL,
	input_email        TEXT,
	input_phone        TEXT,
	status             TEXT NOT NULL,
	current_phase      INTEGER NOT NULL DEFAULT 1,
	overall_confidence INTEGER NOT NULL DEFAULT 0,
	phases_completed   TEXT NOT NULL DEFAULT '[]',
	execution_time_ms  INTEGER NOT NULL DEFAULT 0,
	mode               TEXT NOT NULL DEFAULT '',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS osint_profiles (
	search_id          TEXT PRIMARY KEY REFERENCES osint_searches(id) ON DELETE CASCADE,
	verified_name      TEXT,
	verified_emails    TEXT NOT NULL DEFAULT '[]',
	verified_phones    TEXT NOT NULL DEFAULT '[]',
	profile_photos     TEXT NOT NULL DEFAULT '[]',
	location_city      TEXT,
	location_state     TEXT,
	location_country   TEXT,
	current_company    TEXT,
	current_title      TEXT,
	social_profiles    TEXT NOT NULL DEFAULT '[]',
	skills             TEXT NOT NULL DEFAULT '[]',
	bio                TEXT,
	overall_confidence INTEGER NOT NULL DEFAULT 0,
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS osint_api_calls (
	id                TEXT PRIMARY KEY,
	search_id         TEXT NOT NULL REFERENCES osint_searches(id) ON DELETE CASCADE,
	api_name          TEXT NOT NULL,
	branded_name      TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL,
	confidence        REAL NOT NULL DEFAULT 0,
	execution_time_ms INTEGER NOT NULL DEFAULT 0,
	response_data     TEXT,
	error_message     TEXT,
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (search_id, api_name)
);

CREATE INDEX IF NOT EXISTS idx_osint_searches_status ON osint_searches(status);
CREATE INDEX IF NOT EXISTS idx_osint_searches_created_at ON osint_searches(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSearch(ctx context.Context, req model.SearchRequest, sess *model.SearchSession) error {
	rows, err := buildRows(req, sess, s.now().UTC())
	if err != nil {
		return err
	}
	stmts, err := rows.statements(db.Question)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save search")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, st := range stmts {
		if _, err := tx.ExecContext(ctx, st.sql, st.args...); err != nil {
			return eris.Wrapf(err, "sqlite: save search %s", sess.SearchID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit save search")
}

func (s *SQLiteStore) GetSearch(ctx context.Context, searchID string) (*model.SearchSession, error) {
	sess := &model.SearchSession{}
	var status string
	var phases []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, current_phase, overall_confidence, phases_completed, execution_time_ms, mode FROM osint_searches WHERE id = ?`,
		searchID,
	).Scan(&sess.SearchID, &status, &sess.CurrentPhase, &sess.OverallConfidence, &phases, &sess.ExecutionTimeMs, &sess.Mode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get search %s", searchID)
	}
	sess.Status = model.SessionStatus(status)
	if sess.PhasesCompleted, err = unmarshalPhases(phases); err != nil {
		return nil, err
	}

	var pc profileColumns
	err = s.db.QueryRowContext(ctx,
		`SELECT verified_name, verified_emails, verified_phones, profile_photos, location_city, location_state, location_country, current_company, current_title, social_profiles, skills, bio FROM osint_profiles WHERE search_id = ?`,
		searchID,
	).Scan(pc.dest()...)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		sess.MergedProfile = model.NewMergedProfile()
	case err != nil:
		return nil, eris.Wrapf(err, "sqlite: get profile %s", searchID)
	default:
		if sess.MergedProfile, err = pc.profile(); err != nil {
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT api_name, branded_name, status, confidence, execution_time_ms, response_data, error_message FROM osint_api_calls WHERE search_id = ? ORDER BY api_name`,
		searchID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list api calls %s", searchID)
	}
	defer rows.Close() //nolint:errcheck

	sess.APIs = make(map[string]model.APIResult)
	for rows.Next() {
		var c apiCallColumns
		if err := rows.Scan(c.dest()...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan api call")
		}
		sess.APIs[c.name] = c.result()
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate api calls")
	}
	return sess, nil
}

func (s *SQLiteStore) ListSearches(ctx context.Context, filter SearchFilter) ([]SearchSummary, error) {
	query := `SELECT id, input_name, status, current_phase, overall_confidence, mode, execution_time_ms, created_at FROM osint_searches WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list searches")
	}
	defer rows.Close() //nolint:errcheck

	out := []SearchSummary{}
	for rows.Next() {
		var sum SearchSummary
		var status string
		if err := rows.Scan(&sum.SearchID, &sum.Name, &status, &sum.CurrentPhase,
			&sum.OverallConfidence, &sum.Mode, &sum.ExecutionTimeMs, &sum.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan search")
		}
		sum.Status = model.SessionStatus(status)
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate searches")
}
