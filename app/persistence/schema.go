package persistence

import (
	"context"
	"fmt"
	"slices"
)

// Bootstrapper prepares database schema for a freshly opened session
type Bootstrapper interface {
	Bootstrap(ctx context.Context, s *Session) error
}

// TableSchema creates tables with Script unless all of Tables already exist.
// Only table names are checked, not their columns.
type TableSchema struct {
	Tables []string
	Script string
}

// TimeblockSchema is the schema of timeblock database: actions and the selected action reference
var TimeblockSchema = TableSchema{
	Tables: []string{"action", "app_data"},
	Script: `
		CREATE TABLE IF NOT EXISTS action(
			id INTEGER PRIMARY KEY,
			desc TEXT NOT NULL UNIQUE,
			est_duration INTEGER,
			actual_duration INTEGER,
			start_datetime REAL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS app_data(
			selected INTEGER,
			FOREIGN KEY(selected) REFERENCES action(id)
		);
	`,
}

// Bootstrap runs creation script if any of the tables is missing
func (t TableSchema) Bootstrap(ctx context.Context, s *Session) error {
	if t.Exists(ctx, s) {
		return nil
	}
	if err := s.ExecScript(ctx, t.Script); err != nil {
		return fmt.Errorf("failed to create tables %v: %w", t.Tables, err)
	}
	s.logger().Logf("[INFO] created tables %v in %s", t.Tables, s.Path())
	return nil
}

// Exists checks all tables are present, names compared exactly. Failure to read
// the catalog counts as missing tables.
func (t TableSchema) Exists(ctx context.Context, s *Session) bool {
	rows, err := s.ReadQuery(ctx, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name", None())
	if err != nil {
		return false
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if name, ok := row[0].(string); ok {
			names = append(names, name)
		}
	}
	for _, tbl := range t.Tables {
		if !slices.Contains(names, tbl) {
			return false
		}
	}
	return true
}
