package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/presence/backend/pkg/config"
)

func TestNew(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, "postgres", status.Driver)
	assert.NotZero(t, status.Stats.MaxConns)

	// Double close should not panic
	db.Close()
}

func TestNewWithInvalidURL(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			URL:      "invalid://url",
			MaxConns: 4,
		},
	}

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()

	db, err := OpenSQLite(ctx, "")
	require.NoError(t, err)
	defer db.Close()

	status, err := SQLiteHealth(ctx, db)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, "sqlite", status.Driver)
	assert.EqualValues(t, 1, status.Stats.MaxConns)
}

func TestOpenSQLiteMissingFile(t *testing.T) {
	_, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}
