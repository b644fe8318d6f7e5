package persistence

import (
	"context"
	"database/sql"

	"github.com/timeblock/timeblock/app/action"
)

const (
	addActionQuery   = "INSERT INTO action(desc, est_duration) VALUES (?, ?)"
	listActionsQuery = "SELECT * FROM action"
)

// AddAction inserts action description and estimated duration (in seconds) and returns the new row key.
// Invalid actions are rejected with KindInvalid, engine failures (i.e. duplicate description)
// are reported as KindExecution.
func (s *Session) AddAction(ctx context.Context, a action.Action) (sql.NullInt64, error) {
	if err := a.Validate(); err != nil {
		return sql.NullInt64{}, s.fail(KindInvalid, "add action", addActionQuery, err)
	}
	return s.WriteQuery(ctx, addActionQuery, Args(a.Desc, action.Seconds(a.EstDuration())))
}

// ListActions reads all stored actions in storage order. Rows which can't be converted
// to action are logged and skipped.
func (s *Session) ListActions(ctx context.Context) ([]action.Action, error) {
	rows, err := s.ReadQuery(ctx, listActionsQuery, None())
	res := make([]action.Action, 0, len(rows))
	if err != nil {
		return res, err
	}
	for _, row := range rows {
		a, err := action.FromRow(row)
		if err != nil {
			s.logger().Logf("[WARN] failed to convert action row %v: %v", row, err)
			continue
		}
		res = append(res, a)
	}
	return res, nil
}

// Gateway opens a scoped session for every call, the way request handlers use the store
type Gateway struct {
	cfg Config
}

// NewGateway makes Gateway opening sessions with cfg
func NewGateway(cfg Config) *Gateway {
	return &Gateway{cfg: cfg}
}

// Config returns the session config used by gateway
func (g *Gateway) Config() Config {
	return g.cfg
}

// AddAction stores action in a new session, see Session.AddAction
func (g *Gateway) AddAction(ctx context.Context, a action.Action) (key sql.NullInt64, err error) {
	err = With(ctx, g.cfg, func(s *Session) error {
		var addErr error
		key, addErr = s.AddAction(ctx, a)
		return addErr
	})
	return key, err
}

// ListActions reads all actions in a new session, see Session.ListActions
func (g *Gateway) ListActions(ctx context.Context) (res []action.Action, err error) {
	err = With(ctx, g.cfg, func(s *Session) error {
		var listErr error
		res, listErr = s.ListActions(ctx)
		return listErr
	})
	return res, err
}
