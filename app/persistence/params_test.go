package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsOf(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    Params
		wantErr bool
	}{
		{name: "nil", in: nil, want: None()},
		{name: "empty slice", in: []any{}, want: None()},
		{name: "single tuple", in: []any{"a"}, want: Args("a")},
		{name: "single tuple of scalars", in: []any{"a", 1, 2.5, nil}, want: Args("a", 1, 2.5, nil)},
		{name: "bare string", in: "abc", want: Args("abc")},
		{name: "bytes are a value", in: []any{[]byte("blob")}, want: Args([]byte("blob"))},
		{name: "batch of tuples", in: []any{[]any{"a"}, []any{"b"}},
			want: Batch(Positional{"a"}, Positional{"b"})},
		{name: "single element batch", in: [][]any{{"a"}}, want: Batch(Positional{"a"})},
		{name: "batch of arrays", in: [][1]string{{"a"}, {"b"}}, want: Batch(Positional{"a"}, Positional{"b"})},
		{name: "strings are not sets", in: []string{"a", "b"}, want: Args("a", "b")},
		{name: "mixed is single", in: []any{"a", []any{"b"}}, want: Args("a", []any{"b"})},
		{name: "named", in: map[string]any{"name": "Jim"}, want: Single(Named{"name": "Jim"})},
		{name: "batch of named", in: []map[string]any{{"name": "Steve"}, {"name": "Joe"}},
			want: Batch(Named{"name": "Steve"}, Named{"name": "Joe"})},
		{name: "positional type", in: Positional{"x"}, want: Args("x")},
		{name: "params passthrough", in: Batch(Positional{"x"}), want: Batch(Positional{"x"})},
		{name: "scalar", in: 42, wantErr: true},
		{name: "non-string keys", in: map[int]any{1: "a"}, wantErr: true},
		{name: "non-string keys in batch", in: []any{map[int]any{1: "a"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParamsOf(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParams(t *testing.T) {
	assert.True(t, None().IsNone())
	assert.True(t, Params{}.IsNone(), "zero value is none")
	assert.True(t, Single(nil).IsNone())
	assert.True(t, Single(Positional{}).IsNone())
	assert.True(t, Args().IsNone())
	assert.False(t, Args("a").IsBatch())
	assert.True(t, Batch(Positional{"a"}).IsBatch())
	assert.True(t, Batch().IsNone(), "empty batch is none")
	assert.Equal(t, 2, Batch(Positional{"a"}, Positional{"b"}).Len())

	assert.Equal(t, "none", None().String())
	assert.Equal(t, "single", Args(1).String())
	assert.Equal(t, "batch(2)", Batch(Positional{1}, Positional{2}).String())

	assert.Nil(t, None().args())
	assert.Nil(t, Batch(Positional{1}).args())
	assert.Equal(t, []any{sql.Named("a", 1), sql.Named("b", 2)}, Single(Named{"b": 2, "a": 1}).args())
}

func TestParamsOf_WriteClassification(t *testing.T) {
	cfg, _ := testConfig(t)
	ctx := context.Background()
	s := Open(ctx, cfg)
	defer s.Close()
	_, err := s.WriteQuery(ctx, "CREATE TABLE customers(name)", None())
	require.NoError(t, err)

	batch, err := ParamsOf([]any{[]any{"a"}, []any{"b"}})
	require.NoError(t, err)
	key, err := s.WriteQuery(ctx, "INSERT INTO customers VALUES (?)", batch)
	require.NoError(t, err)
	assert.False(t, key.Valid, "batch returns no key")

	single, err := ParamsOf([]any{"c"})
	require.NoError(t, err)
	key, err = s.WriteQuery(ctx, "INSERT INTO customers VALUES (?)", single)
	require.NoError(t, err)
	assert.Equal(t, sql.NullInt64{Int64: 3, Valid: true}, key)

	str, err := ParamsOf("dee")
	require.NoError(t, err)
	key, err = s.WriteQuery(ctx, "INSERT INTO customers VALUES (?)", str)
	require.NoError(t, err)
	assert.Equal(t, int64(4), key.Int64)

	rows, err := s.ReadQuery(ctx, "SELECT * FROM customers", None())
	require.NoError(t, err)
	assert.Equal(t, []Row{{"a"}, {"b"}, {"c"}, {"dee"}}, rows)
}
