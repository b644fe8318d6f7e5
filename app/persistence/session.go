package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// DefaultPath is the database file used when Config.Path is empty
const DefaultPath = "db.sql"

// Row is one result row, values in column order
type Row []any

// Config defines how a session is opened
type Config struct {
	Path      string       // database file, DefaultPath if empty
	Bootstrap Bootstrapper // optional schema strategy, runs on every open
	Pragmas   []string     // optional pragmas applied on open, i.e. "journal_mode=WAL"
	Logger    log.L        // diagnostics destination, lgr.Default() if nil
}

// Session owns a single database connection between Open and Close
type Session struct {
	path string
	db   *sqlx.DB
	conn *sqlx.Conn
	log  log.L
	err  error
}

// Open opens database file and pins a connection for the session. It doesn't return an error,
// connection failures are logged and reported by Err, and the session is left without a connection.
// If cfg.Bootstrap is set it runs before Open returns.
func Open(ctx context.Context, cfg Config) *Session {
	s := &Session{path: cfg.Path, log: cfg.Logger}
	if s.path == "" {
		s.path = DefaultPath
	}

	if err := s.connect(ctx, cfg.Pragmas); err != nil {
		s.err = s.fail(KindConnection, "open", "", err)
		return s
	}
	s.logger().Logf("[DEBUG] connected to %s", s.path)

	if cfg.Bootstrap != nil {
		if err := cfg.Bootstrap.Bootstrap(ctx, s); err != nil {
			s.logger().Logf("[WARN] schema bootstrap for %s failed: %v", s.path, err)
			s.err = err
		}
	}
	return s
}

// With opens a session, calls fn with it and closes the session on every exit path, including panics.
// Close error is returned only if fn succeeded.
func With(ctx context.Context, cfg Config, fn func(s *Session) error) (err error) {
	s := Open(ctx, cfg)
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close session: %w", closeErr)
		}
	}()
	return fn(s)
}

func (s *Session) connect(ctx context.Context, pragmas []string) error {
	db, err := sqlx.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	conn, err := db.Connx(ctx)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return fmt.Errorf("failed to connect: %w (also failed to close db: %v)", err, closeErr)
		}
		return fmt.Errorf("failed to connect: %w", err)
	}

	for _, p := range pragmas {
		if _, err = conn.ExecContext(ctx, "PRAGMA "+p); err != nil {
			err = fmt.Errorf("failed to set pragma %s: %w", p, err)
			break
		}
	}
	if err != nil {
		return errors.Join(err, conn.Close(), db.Close())
	}

	s.db, s.conn = db, conn
	return nil
}

// Err returns the failure recorded while opening: connection or schema bootstrap error
func (s *Session) Err() error {
	if s == nil {
		return nil
	}
	return s.err
}

// Live checks if session holds a connection
func (s *Session) Live() bool {
	return s != nil && s.conn != nil
}

// Path returns database file path
func (s *Session) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// String returns session description with database path
func (s *Session) String() string {
	return fmt.Sprintf("DB(%q)", s.Path())
}

// Close releases the connection and then the database. Safe to call more than once and on failed sessions.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
		s.conn = nil
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
		s.db = nil
	}
	return errors.Join(errs...)
}

// ReadQuery runs a query returning rows. The result is never nil; on any failure it is empty,
// the failure is logged and returned as *QueryError. Batch params are rejected with KindParams.
func (s *Session) ReadQuery(ctx context.Context, query string, params Params) ([]Row, error) {
	res := []Row{}
	if err := s.ready("read", query); err != nil {
		return res, err
	}
	if params.IsBatch() {
		return res, s.fail(KindParams, "read", query, fmt.Errorf("%s parameters can't be used for read", params))
	}

	rows, err := s.conn.QueryxContext(ctx, query, params.args()...)
	if err != nil {
		return res, s.fail(KindExecution, "read", query, err)
	}
	defer rows.Close()

	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return []Row{}, s.fail(KindExecution, "read", query, fmt.Errorf("failed to scan row: %w", err))
		}
		res = append(res, Row(vals))
	}
	if err := rows.Err(); err != nil {
		return []Row{}, s.fail(KindExecution, "read", query, fmt.Errorf("error iterating rows: %w", err))
	}
	return res, nil
}

// WriteQuery runs a modifying query and commits it. For None and Single params the key of the
// inserted row is returned if the statement produced one. Batch params execute the query once per
// set and return an invalid key even when rows were written. On failure the write is rolled back,
// logged, and returned as *QueryError with an invalid key.
func (s *Session) WriteQuery(ctx context.Context, query string, params Params) (sql.NullInt64, error) {
	if err := s.ready("write", query); err != nil {
		return sql.NullInt64{}, err
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return sql.NullInt64{}, s.fail(KindExecution, "write", query, fmt.Errorf("failed to begin transaction: %w", err))
	}

	key, err := execTx(ctx, tx, query, params)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = fmt.Errorf("%w (also failed to rollback: %v)", err, rbErr)
		}
		return sql.NullInt64{}, s.fail(KindExecution, "write", query, err)
	}

	if err := tx.Commit(); err != nil {
		return sql.NullInt64{}, s.fail(KindExecution, "write", query, fmt.Errorf("failed to commit: %w", err))
	}
	return key, nil
}

func execTx(ctx context.Context, tx *sqlx.Tx, query string, params Params) (sql.NullInt64, error) {
	if params.IsBatch() {
		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return sql.NullInt64{}, fmt.Errorf("failed to prepare: %w", err)
		}
		defer stmt.Close()
		for i, set := range params.sets {
			if _, err := stmt.ExecContext(ctx, set.args()...); err != nil {
				return sql.NullInt64{}, fmt.Errorf("parameter set %d: %w", i, err)
			}
		}
		return sql.NullInt64{}, nil
	}

	res, err := tx.ExecContext(ctx, query, params.args()...)
	if err != nil {
		return sql.NullInt64{}, err
	}
	id, err := res.LastInsertId()
	if err != nil || id <= 0 {
		return sql.NullInt64{}, nil //nolint:nilerr // no key is a valid outcome of a write
	}
	return sql.NullInt64{Int64: id, Valid: true}, nil
}

// ExecScript executes multiple semicolon separated statements in a single transaction
func (s *Session) ExecScript(ctx context.Context, script string) error {
	if err := s.ready("script", script); err != nil {
		return err
	}

	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return s.fail(KindExecution, "script", script, fmt.Errorf("failed to begin transaction: %w", err))
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = fmt.Errorf("%w (also failed to rollback: %v)", err, rbErr)
		}
		return s.fail(KindExecution, "script", script, err)
	}
	if err := tx.Commit(); err != nil {
		return s.fail(KindExecution, "script", script, fmt.Errorf("failed to commit: %w", err))
	}
	return nil
}

// ready checks the session has a live connection
func (s *Session) ready(op, query string) error {
	if s.Live() {
		return nil
	}
	err := ErrNoSession
	if s != nil && s.err != nil {
		err = fmt.Errorf("%w: %w", ErrNoSession, s.err)
	}
	return s.fail(KindPrecondition, op, query, err)
}

// fail logs diagnostic and makes *QueryError
func (s *Session) fail(kind ErrorKind, op, query string, err error) *QueryError {
	qe := &QueryError{Kind: kind, Op: op, Query: query, Err: err}
	s.logger().Logf("[ERROR] %v", qe)
	return qe
}

func (s *Session) logger() log.L {
	if s == nil || s.log == nil {
		return log.Default()
	}
	return s.log
}

// compact collapses whitespace of multiline queries for diagnostics
func compact(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
