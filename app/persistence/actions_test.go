package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeblock/timeblock/app/action"
)

func timeblockConfig(t *testing.T) (Config, *logBuffer) {
	t.Helper()
	cfg, lb := testConfig(t)
	cfg.Bootstrap = TimeblockSchema
	return cfg, lb
}

func TestSession_AddAction(t *testing.T) {
	cfg, _ := timeblockConfig(t)
	ctx := context.Background()
	s := Open(ctx, cfg)
	defer s.Close()

	key, err := s.AddAction(ctx, action.New("test"))
	require.NoError(t, err)
	assert.True(t, key.Valid)
	assert.Equal(t, int64(1), key.Int64)

	a := action.New("focus")
	a.SetEstDuration(25 * time.Minute)
	key, err = s.AddAction(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(2), key.Int64)

	rows, err := s.ReadQuery(ctx, "SELECT * FROM action", None())
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{int64(1), "test", nil, nil, nil},
		{int64(2), "focus", int64(1500), nil, nil},
	}, rows)
}

func TestSession_AddActionDuplicate(t *testing.T) {
	cfg, lb := timeblockConfig(t)
	ctx := context.Background()
	s := Open(ctx, cfg)
	defer s.Close()

	first := action.New("same")
	first.SetEstDuration(time.Minute)
	key, err := s.AddAction(ctx, first)
	require.NoError(t, err)
	assert.True(t, key.Valid)

	key, err = s.AddAction(ctx, action.New("same"))
	require.Error(t, err)
	assert.False(t, key.Valid)
	assert.True(t, IsKind(err, KindExecution))
	assert.Contains(t, lb.String(), "[ERROR] execution error on write")

	actions, err := s.ListActions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "same", actions[0].Desc)
	assert.Equal(t, time.Minute, actions[0].EstDuration(), "first row intact")
}

func TestSession_AddActionInvalid(t *testing.T) {
	cfg, lb := timeblockConfig(t)
	ctx := context.Background()
	s := Open(ctx, cfg)
	defer s.Close()

	key, err := s.AddAction(ctx, action.New(""))
	assert.False(t, key.Valid)
	assert.True(t, IsKind(err, KindInvalid))
	assert.Contains(t, lb.String(), "[ERROR] invalid error on add action")

	actions, err := s.ListActions(ctx)
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestSession_ListActions(t *testing.T) {
	cfg, lb := timeblockConfig(t)
	ctx := context.Background()
	s := Open(ctx, cfg)
	defer s.Close()

	_, err := s.WriteQuery(ctx, "INSERT INTO action(desc, est_duration, actual_duration, start_datetime) VALUES (?, ?, ?, ?)",
		Args("test", 1500, 1200, 1700000000.5))
	require.NoError(t, err)
	_, err = s.WriteQuery(ctx, "INSERT INTO action(desc, est_duration) VALUES (?, ?)", Args("broken", "not a number"))
	require.NoError(t, err)
	_, err = s.AddAction(ctx, action.New("plain"))
	require.NoError(t, err)

	actions, err := s.ListActions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 2, "broken row skipped")
	assert.Equal(t, "test", actions[0].Desc)
	assert.Equal(t, 25*time.Minute, actions[0].EstDuration())
	assert.True(t, actions[0].Start().IsZero(), "start is not restored")
	assert.Equal(t, time.Duration(0), actions[0].ActualDuration, "actual duration is not restored")
	assert.Equal(t, "plain", actions[1].Desc)
	assert.Contains(t, lb.String(), "[WARN] failed to convert action row")
}

func TestSession_ListActionsNoSession(t *testing.T) {
	lb := &logBuffer{}
	s := &Session{log: lb.logger()}
	actions, err := s.ListActions(context.Background())
	assert.NotNil(t, actions)
	assert.Empty(t, actions)
	assert.True(t, IsKind(err, KindPrecondition))
}

func TestGateway(t *testing.T) {
	cfg, _ := timeblockConfig(t)
	ctx := context.Background()
	gw := NewGateway(cfg)
	assert.Equal(t, cfg.Path, gw.Config().Path)

	a := action.New("write the report")
	a.SetEstDuration(90 * time.Minute)
	key, err := gw.AddAction(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, int64(1), key.Int64)

	actions, err := gw.ListActions(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "write the report", actions[0].Desc)
	assert.Equal(t, 90*time.Minute, actions[0].EstDuration())

	_, err = gw.AddAction(ctx, a)
	assert.True(t, IsKind(err, KindExecution), "duplicate description")
}

func TestGateway_BadPath(t *testing.T) {
	lb := &logBuffer{}
	gw := NewGateway(Config{Path: "/invalid/path/test.db", Bootstrap: TimeblockSchema, Logger: lb.logger()})

	key, err := gw.AddAction(context.Background(), action.New("test"))
	assert.False(t, key.Valid)
	assert.ErrorIs(t, err, ErrNoSession)

	actions, err := gw.ListActions(context.Background())
	assert.Empty(t, actions)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSession_AddActionSubSecondDuration(t *testing.T) {
	cfg, _ := timeblockConfig(t)
	ctx := context.Background()
	s := Open(ctx, cfg)
	defer s.Close()

	a := action.New("blink")
	a.SetEstDuration(500 * time.Millisecond)
	_, err := s.AddAction(ctx, a)
	require.NoError(t, err)

	rows, err := s.ReadQuery(ctx, "SELECT est_duration FROM action WHERE desc = ?", Args("blink"))
	require.NoError(t, err)
	assert.Equal(t, []Row{{nil}}, rows, "stored as NULL, not 0")
}
