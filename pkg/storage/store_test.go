package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "slidegenius-presentations"

func TestStores_RoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
	}
	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, ok, err := s.Get(ctx, testKey)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, testKey, `[{"id":"a"}]`))
			require.NoError(t, s.Set(ctx, testKey, `[{"id":"b"}]`))

			v, ok, err := s.Get(ctx, testKey)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[{"id":"b"}]`, v)

			assert.ErrorIs(t, s.Set(ctx, "../escape", "x"), ErrInvalidKey)
		})
	}
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), testKey, "[]"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testKey+".json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, testKey+".json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestWithQuota(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	s := WithQuota(inner, 64)

	require.NoError(t, s.Set(ctx, testKey, "small"))

	err := s.Set(ctx, testKey, strings.Repeat("x", 64))
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	v, _, err := s.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Equal(t, "small", v, "拒否された書き込みは既存の値を変えないこと")

	assert.Same(t, inner, WithQuota(inner, 0))
}

func TestSQLStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s, err := NewSQLStore(db)
	require.NoError(t, err)
	ctx := context.Background()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv_store").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, s.EnsureSchema(ctx))

	mock.ExpectQuery("SELECT value FROM kv_store WHERE key = \\$1").
		WithArgs(testKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, ok, err := s.Get(ctx, testKey)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectExec("INSERT INTO kv_store").
		WithArgs(testKey, "[]").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.Set(ctx, testKey, "[]"))

	mock.ExpectQuery("SELECT value FROM kv_store WHERE key = \\$1").
		WithArgs(testKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("[]"))
	v, ok, err := s.Get(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)

	dbErr := errors.New("disk full")
	mock.ExpectExec("INSERT INTO kv_store").WillReturnError(dbErr)
	assert.ErrorIs(t, s.Set(ctx, testKey, "[1]"), dbErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}
