package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/presence/backend/internal/contracts"
)

// PostgresSource reads whole tables through a pgx pool
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a source over pool
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Query runs SELECT * on table, which may be schema-qualified
func (s *PostgresSource) Query(ctx context.Context, table string) (*contracts.Table, error) {
	query := "SELECT * FROM " + pgx.Identifier(strings.Split(table, ".")).Sanitize()

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	result := &contracts.Table{
		Name:    table,
		Columns: make([]string, len(fields)),
	}
	for i, fd := range fields {
		result.Columns[i] = fd.Name
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}
