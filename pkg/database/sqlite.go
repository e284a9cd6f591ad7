package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens a local snapshot of the audit tables.
// The file must already exist; an empty path opens an in-memory database.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := ":memory:"
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("sqlite path error: %w", err)
		}
		dsn = "file:" + path + "?_pragma=query_only(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps an in-memory database alive and shared
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// SQLiteHealth pings a sqlite handle and reports it in the same shape as HealthCheck
func SQLiteHealth(ctx context.Context, db *sql.DB) (*HealthStatus, error) {
	status := &HealthStatus{Driver: "sqlite", Timestamp: time.Now()}

	start := time.Now()
	if err := db.PingContext(ctx); err != nil {
		status.Error = err.Error()
		return status, err
	}
	status.ResponseTime = time.Since(start)

	st := db.Stats()
	status.Stats = PoolStats{
		AcquireCount:  st.WaitCount,
		AcquiredConns: int32(st.InUse),
		IdleConns:     int32(st.Idle),
		MaxConns:      int32(st.MaxOpenConnections),
		TotalConns:    int32(st.OpenConnections),
	}
	status.Healthy = true

	return status, nil
}
