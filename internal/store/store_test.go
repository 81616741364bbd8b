package store

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ev-configurator-backend/internal/config"
)

// testStoreContract проверяет общее поведение всех бэкендов.
func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := s.Get(ctx, "ascendanceConfig/nobody")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("put overwrites", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "ascendanceConfig/v1", []byte(`{"totalPrice":5000}`)))
		require.NoError(t, s.Put(ctx, "ascendanceConfig/v1", []byte(`{"totalPrice":10400}`)))

		v, ok, err := s.Get(ctx, "ascendanceConfig/v1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.JSONEq(t, `{"totalPrice":10400}`, string(v))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "ascendanceConfig/v2", []byte("x")))
		require.NoError(t, s.Delete(ctx, "ascendanceConfig/v2"))
		require.NoError(t, s.Delete(ctx, "ascendanceConfig/never-existed"))

		_, ok, err := s.Get(ctx, "ascendanceConfig/v2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("keys by prefix", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "quote/b", []byte("2")))
		require.NoError(t, s.Put(ctx, "quote/a", []byte("1")))
		require.NoError(t, s.Put(ctx, "quote_x", []byte("3")))
		require.NoError(t, s.Put(ctx, "quote*", []byte("4")))

		keys, err := s.Keys(ctx, "quote/")
		require.NoError(t, err)
		assert.Equal(t, []string{"quote/a", "quote/b"}, keys)

		keys, err = s.Keys(ctx, "nothing/")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	testStoreContract(t, s)

	require.NoError(t, s.Close())
	_, _, err := s.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Put(context.Background(), "k", nil), ErrClosed)
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Put(context.Background(), "k", buf))
	buf[0] = 'z'

	v, _, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v))
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "configurator.sqlite")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	testStoreContract(t, s)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configurator.sqlite")
	ctx := context.Background()

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "ascendanceConfig/v", []byte("saved")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, "ascendanceConfig/v")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "saved", string(v))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client, zerolog.Nop())
	defer s.Close()

	testStoreContract(t, s)

	// ключи лежат в своём пространстве имён
	assert.True(t, mr.Exists("evcfg:ascendanceConfig/v1"))
}

func TestRedisStore_LogsFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	var buf bytes.Buffer
	s := NewRedisStore(client, zerolog.New(&buf))
	defer s.Close()

	mr.Close()
	ctx := context.Background()

	_, _, err := s.Get(ctx, "ascendanceConfig/v1")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "redis get failed")
	assert.Contains(t, buf.String(), `"key":"ascendanceConfig/v1"`)

	require.Error(t, s.Put(ctx, "k", []byte("v")))
	assert.Contains(t, buf.String(), "redis set failed")

	require.Error(t, s.Delete(ctx, "k"))
	assert.Contains(t, buf.String(), "redis delete failed")

	_, err = s.Keys(ctx, "quote/")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "redis scan failed")
}

func TestOpenRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := OpenRedis(context.Background(), RedisConfig{Addr: addr}, zerolog.Nop())
	require.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CONFIGURATOR_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CONFIGURATOR_TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	_, _ = db.ExecContext(ctx, `DROP TABLE IF EXISTS kv_records`)

	s, err := NewPostgresStore(ctx, db)
	require.NoError(t, err)
	defer s.Close()

	testStoreContract(t, s)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.StoreConfig{Backend: config.BackendMemory}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(ctx, config.StoreConfig{}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(ctx, config.StoreConfig{
		Backend:    config.BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "s.sqlite"),
	}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = New(ctx, config.StoreConfig{Backend: config.BackendRedis, RedisAddr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = New(ctx, config.StoreConfig{Backend: "badger"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")

	_, err = New(ctx, config.StoreConfig{Backend: config.BackendPostgres}, zerolog.Nop())
	require.Error(t, err)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `quote/`, escapeGlob("quote/"))
	assert.Equal(t, `a\*b\?\[c\]\\`, escapeGlob(`a*b?[c]\`))
}
