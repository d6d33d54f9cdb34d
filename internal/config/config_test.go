package config

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/openrelief/surveyflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = strings.Repeat("ab", 32)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvPort, EnvLogLevel, EnvLogJSON, EnvRedisAddr, EnvRedisPassword, EnvRedisDB, EnvRedisTTL,
		EnvSQLitePath, EnvEncryptionKey, EnvFallbackKeys, EnvPIIQuestions,
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogJSON)
	assert.Empty(t, cfg.RedisAddr)
	assert.Nil(t, cfg.EncryptionKey)
}

func TestFromEnv_Values(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvLogJSON, "true")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvRedisDB, "2")
	t.Setenv(EnvRedisTTL, "24h")
	t.Setenv(EnvEncryptionKey, testKey)
	t.Setenv(EnvFallbackKeys, testKey+", "+testKey)
	t.Setenv(EnvPIIQuestions, "^contact, email$")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.LogJSON)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 24*time.Hour, cfg.RedisTTL)
	assert.Len(t, cfg.EncryptionKey, 32)
	assert.Len(t, cfg.FallbackKeys, 2)
	assert.Equal(t, []string{"^contact", "email$"}, cfg.PIIQuestions)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"Bad DB", map[string]string{EnvRedisDB: "two"}},
		{"Bad TTL", map[string]string{EnvRedisTTL: "soon"}},
		{"Short key", map[string]string{EnvEncryptionKey: "abcd"}},
		{"Bad pattern", map[string]string{EnvPIIQuestions: "("}},
		{"Two backends", map[string]string{EnvRedisAddr: "localhost:6379", EnvSQLitePath: "x.db"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv(EnvPort))
	require.NoError(t, os.Unsetenv(EnvSQLitePath))

	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SURVEYFLOW_PORT=7070\nSURVEYFLOW_SQLITE_PATH="+filepath.Join(dir, "s.db")+"\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv(EnvPort)
		os.Unsetenv(EnvSQLitePath)
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, filepath.Join(dir, "s.db"), cfg.SQLitePath)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func submission() *domain.Submission {
	return &domain.Submission{
		SessionID:   "s1",
		FormID:      "done",
		History:     []string{"start", "done"},
		Answers:     []domain.Answer{{QuestionID: "contact", Value: domain.One("yes")}},
		CompletedAt: time.Unix(1700000000, 0).UTC(),
	}
}

func TestOpenBackend_Memory(t *testing.T) {
	ctx := context.Background()
	b, err := OpenBackend(ctx, &Config{})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "memory", b.Name)
	assert.Nil(t, b.Locker)
	assert.Len(t, b.SessionOptions(), 1)
}

func TestOpenBackend_SQLiteWithMiddleware(t *testing.T) {
	ctx := context.Background()
	key, err := hex.DecodeString(testKey)
	require.NoError(t, err)

	b, err := OpenBackend(ctx, &Config{
		SQLitePath:    filepath.Join(t.TempDir(), "submissions.db"),
		EncryptionKey: key,
		PIIQuestions:  []string{"^contact$"},
	})
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "sqlite", b.Name)

	require.NoError(t, b.Store.Save(ctx, submission()))
	got, err := b.Store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got.Answers, 1)
	assert.True(t, got.Answers[0].Value.Equal(domain.One("***")))
	assert.Equal(t, []string{"start", "done"}, got.History)
}

func TestOpenBackend_Redis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	b, err := OpenBackend(ctx, &Config{RedisAddr: mr.Addr(), RedisTTL: time.Hour})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "redis", b.Name)
	assert.NotNil(t, b.Locker)
	assert.Len(t, b.SessionOptions(), 2)

	require.NoError(t, b.Store.Save(ctx, submission()))
	ids, err := b.Store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestOpenBackend_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := OpenBackend(context.Background(), &Config{RedisAddr: addr})
	assert.Error(t, err)
}
