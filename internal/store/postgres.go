package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/hushh/deepsearch/internal/db"
	"github.com/hushh/deepsearch/internal/model"
)

// PostgresStore implements Store using a pgx connection pool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `mapstructure:"max_conns"`
	MinConns int32 `mapstructure:"min_conns"`
}

const (
	sqlGetSearch    = `SELECT id, status, current_phase, overall_confidence, phases_completed, execution_time_ms, mode FROM osint_searches WHERE id = $1`
	sqlGetProfile   = `SELECT verified_name, verified_emails, verified_phones, profile_photos, location_city, location_state, location_country, current_company, current_title, social_profiles, skills, bio FROM osint_profiles WHERE search_id = $1`
	sqlListAPICalls = `SELECT api_name, branded_name, status, confidence, execution_time_ms, response_data, error_message FROM osint_api_calls WHERE search_id = $1 ORDER BY api_name`
)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"get_search":     sqlGetSearch,
	"get_profile":    sqlGetProfile,
	"list_api_calls": sqlListAPICalls,
}

// NewPostgres creates a PostgresStore connected to the given database URL.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				// Tables may not exist before the first migrate.
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
					continue
				}
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS osint_searches (
	id                 TEXT PRIMARY KEY,
	input_name         TEXT NOT NULL,
	input_email        TEXT,
	input_phone        TEXT,
	status             TEXT NOT NULL,
	current_phase      INTEGER NOT NULL DEFAULT 1,
	overall_confidence INTEGER NOT NULL DEFAULT 0,
	phases_completed   JSONB NOT NULL DEFAULT '[]',
	execution_time_ms  BIGINT NOT NULL DEFAULT 0,
	mode               TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS osint_profiles (
	search_id          TEXT PRIMARY KEY REFERENCES osint_searches(id) ON DELETE CASCADE,
	verified_name      TEXT,
	verified_emails    JSONB NOT NULL DEFAULT '[]',
	verified_phones    JSONB NOT NULL DEFAULT '[]',
	profile_photos     JSONB NOT NULL DEFAULT '[]',
	location_city      TEXT,
	location_state     TEXT,
	location_country   TEXT,
	current_company    TEXT,
	current_title      TEXT,
	social_profiles    JSONB NOT NULL DEFAULT '[]',
	skills             JSONB NOT NULL DEFAULT '[]',
	bio                TEXT,
	overall_confidence INTEGER NOT NULL DEFAULT 0,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS osint_api_calls (
	id                TEXT PRIMARY KEY,
	search_id         TEXT NOT NULL REFERENCES osint_searches(id) ON DELETE CASCADE,
	api_name          TEXT NOT NULL,
	branded_name      TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL,
	confidence        DOUBLE PRECISION NOT NULL DEFAULT 0,
	execution_time_ms BIGINT NOT NULL DEFAULT 0,
	response_data     JSONB,
	error_message     TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (search_id, api_name)
);

CREATE INDEX IF NOT EXISTS idx_osint_searches_status ON osint_searches(status);
CREATE INDEX IF NOT EXISTS idx_osint_searches_created_at ON osint_searches(created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

func (s *PostgresStore) SaveSearch(ctx context.Context, req model.SearchRequest, sess *model.SearchSession) error {
	rows, err := buildRows(req, sess, s.clock())
	if err != nil {
		return err
	}
	stmts, err := rows.statements(db.Dollar)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save search")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, st := range stmts {
		if _, err := tx.Exec(ctx, st.sql, st.args...); err != nil {
			return eris.Wrapf(err, "postgres: save search %s", sess.SearchID)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit save search")
	}
	return nil
}

func (s *PostgresStore) GetSearch(ctx context.Context, searchID string) (*model.SearchSession, error) {
	sess := &model.SearchSession{SearchID: searchID}
	var status string
	var phases []byte
	err := s.pool.QueryRow(ctx, sqlGetSearch, searchID).Scan(
		&sess.SearchID, &status, &sess.CurrentPhase, &sess.OverallConfidence,
		&phases, &sess.ExecutionTimeMs, &sess.Mode,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get search %s", searchID)
	}
	sess.Status = model.SessionStatus(status)
	if sess.PhasesCompleted, err = unmarshalPhases(phases); err != nil {
		return nil, err
	}

	var pc profileColumns
	err = s.pool.QueryRow(ctx, sqlGetProfile, searchID).Scan(pc.dest()...)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		sess.MergedProfile = model.NewMergedProfile()
	case err != nil:
		return nil, eris.Wrapf(err, "postgres: get profile %s", searchID)
	default:
		if sess.MergedProfile, err = pc.profile(); err != nil {
			return nil, err
		}
	}

	rows, err := s.pool.Query(ctx, sqlListAPICalls, searchID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list api calls %s", searchID)
	}
	defer rows.Close()

	sess.APIs = make(map[string]model.APIResult)
	for rows.Next() {
		var c apiCallColumns
		if err := rows.Scan(c.dest()...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan api call")
		}
		sess.APIs[c.name] = c.result()
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate api calls")
	}
	return sess, nil
}

func (s *PostgresStore) ListSearches(ctx context.Context, filter SearchFilter) ([]SearchSummary, error) {
	query := `SELECT id, input_name, status, current_phase, overall_confidence, mode, execution_time_ms, created_at FROM osint_searches WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += ` AND status = $` + strconv.Itoa(argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argIdx)
	args = append(args, listLimit(filter))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list searches")
	}
	defer rows.Close()

	out := []SearchSummary{}
	for rows.Next() {
		var sum SearchSummary
		var status string
		if err := rows.Scan(&sum.SearchID, &sum.Name, &status, &sum.CurrentPhase,
			&sum.OverallConfidence, &sum.Mode, &sum.ExecutionTimeMs, &sum.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan search")
		}
		sum.Status = model.SessionStatus(status)
		out = append(out, sum)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate searches")
}
