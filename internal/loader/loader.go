package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/internal/settings"
	"github.com/wonny/presence/backend/pkg/logger"
)

// Loader reads the observation, product and point-of-sale tables
// ⭐ SSOT: the three reads the dashboard depends on
type Loader struct {
	source  contracts.TableSource
	tables  settings.Tables
	timeout time.Duration
	logger  *logger.Logger
}

// New creates a Loader reading the configured tables from source
func New(source contracts.TableSource, tables settings.Tables, log *logger.Logger) *Loader {
	return &Loader{
		source: source,
		tables: tables,
		logger: log.WithComponent("loader"),
	}
}

// WithTimeout bounds each Load as a whole. Zero means no bound.
func (l *Loader) WithTimeout(d time.Duration) *Loader {
	l.timeout = d
	return l
}

// Load performs the three full-table reads. Any failure is reported as
// contracts.ErrDataUnavailable wrapping the underlying error.
func (l *Loader) Load(ctx context.Context) (*contracts.RawTables, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	observations, err := l.read(ctx, l.tables.Observations)
	if err != nil {
		return nil, err
	}
	products, err := l.read(ctx, l.tables.Products)
	if err != nil {
		return nil, err
	}
	pointsOfSale, err := l.read(ctx, l.tables.PointsOfSale)
	if err != nil {
		return nil, err
	}

	return &contracts.RawTables{
		Observations: observations,
		Products:     products,
		PointsOfSale: pointsOfSale,
	}, nil
}

func (l *Loader) read(ctx context.Context, table string) (*contracts.Table, error) {
	start := time.Now()

	t, err := l.source.Query(ctx, table)
	if err != nil {
		l.logger.WithError(err).WithField("table", table).Error("Failed to read table")
		return nil, fmt.Errorf("%w: %w", contracts.ErrDataUnavailable, err)
	}

	l.logger.WithFields(map[string]interface{}{
		"table":    table,
		"rows":     t.Len(),
		"columns":  len(t.Columns),
		"duration": time.Since(start).String(),
	}).Debug("Table loaded")

	return t, nil
}
