// Package testhelpers builds the fixtures shared by the package tests.
package testhelpers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/wonny/presence/backend/internal/contracts"
	"github.com/wonny/presence/backend/pkg/database"
)

// Date returns midnight UTC of the given day
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ExampleTables is the worked example: three observations over two
// products (brands A and B) and two points of sale without opening date,
// plus a third point of sale nobody observed.
func ExampleTables() *contracts.RawTables {
	return &contracts.RawTables{
		Observations: &contracts.Table{
			Name:    "tracking_presence",
			Columns: []string{"id", "product_id", "id_point_de_vente", "value", "created_on"},
			Rows: [][]any{
				{int64(1), int64(1), "pos1", int64(1), Date(2023, 1, 1)},
				{int64(2), int64(1), "pos1", int64(0), Date(2023, 1, 2)},
				{int64(3), int64(2), "pos2", int64(1), Date(2023, 1, 1)},
			},
		},
		Products: &contracts.Table{
			Name:    "produits",
			Columns: []string{"id", "nom", "marque", "segment"},
			Rows: [][]any{
				{int64(1), "Eau 1L", "A", "Boissons"},
				{int64(2), "Chips 200g", "B", "Snacks"},
			},
		},
		PointsOfSale: &contracts.Table{
			Name:    "points_de_vente",
			Columns: []string{"id", "nom", "zone", "latitude", "longitude", "date_ouverture"},
			Rows: [][]any{
				{int64(10), "pos1", "Nord", nil, nil, nil},
				{int64(11), "pos2", "Sud", nil, nil, nil},
				{int64(12), "pos3", "Est", nil, nil, nil},
			},
		},
	}
}

// RichTables covers the cases the example leaves out: numeric point-of-sale
// names, opening dates (valid and garbage), coordinates, an unknown product,
// an unknown point of sale, extra columns and a null zone.
func RichTables() *contracts.RawTables {
	return &contracts.RawTables{
		Observations: &contracts.Table{
			Name:    "tracking_presence",
			Columns: []string{"id", "product_id", "id_point_de_vente", "value", "created_on", "agent"},
			Rows: [][]any{
				{int64(1), int64(1), "101", int64(1), Date(2024, 3, 4), "alice"},
				{int64(2), int64(2), "101", int64(0), Date(2024, 3, 4), "alice"},
				{int64(3), int64(1), "102", int64(1), Date(2024, 3, 5), "bob"},
				{int64(4), int64(3), "102", int64(1), Date(2024, 3, 5), "bob"},
				{int64(5), int64(2), "103", int64(0), Date(2024, 3, 6), "bob"},
				{int64(6), int64(4), "101", int64(1), Date(2024, 3, 6), "alice"},
				{int64(7), int64(3), "999", int64(0), Date(2024, 3, 7), "carol"},
				{int64(8), int64(99), "104", int64(1), Date(2024, 3, 8), "carol"},
			},
		},
		Products: &contracts.Table{
			Name:    "produits",
			Columns: []string{"id", "nom", "marque", "segment", "date_creation", "prix"},
			Rows: [][]any{
				{int64(1), "Eau 1L", "Alpha", "Boissons", "2020-01-01", 0.5},
				{int64(2), "Soda 33cl", "Alpha", "Boissons", "not a date", 0.8},
				{int64(3), "Chips 200g", "Beta", "Snacks", nil, 1.9},
				{int64(4), "Biscuits", "Gamma", "Snacks", nil, 2.1},
			},
		},
		PointsOfSale: &contracts.Table{
			Name:    "points_de_vente",
			Columns: []string{"id", "nom", "zone", "latitude", "longitude", "date_ouverture", "prix"},
			Rows: [][]any{
				{int64(1), int64(101), "Nord", 48.85, 2.35, "2024-02-01", nil},
				{int64(2), int64(102), "Sud", 43.30, 5.37, "n/a", "premium"},
				{int64(3), int64(103), nil, nil, nil, nil, nil},
				{int64(4), int64(104), "Nord", 48.85, 2.35, nil, nil},
			},
		},
	}
}

// fixtureSchema mirrors the production tables closely enough for SELECT *
const fixtureSchema = `
CREATE TABLE tracking_presence (
	id INTEGER PRIMARY KEY,
	product_id INTEGER,
	id_point_de_vente TEXT,
	value INTEGER,
	created_on DATETIME
);
CREATE TABLE produits (
	id INTEGER PRIMARY KEY,
	nom TEXT,
	marque TEXT,
	segment TEXT,
	date_creation TEXT
);
CREATE TABLE points_de_vente (
	id INTEGER PRIMARY KEY,
	nom TEXT,
	zone TEXT,
	latitude REAL,
	longitude REAL,
	date_ouverture TEXT
);
INSERT INTO produits VALUES
	(1, 'Eau 1L', 'A', 'Boissons', '2020-01-01'),
	(2, 'Chips 200g', 'B', 'Snacks', NULL);
INSERT INTO points_de_vente VALUES
	(10, 'pos1', 'Nord', 48.85, 2.35, NULL),
	(11, 'pos2', 'Sud', NULL, NULL, NULL),
	(12, 'pos3', 'Est', 45.76, 4.83, '2022-06-01');
INSERT INTO tracking_presence VALUES
	(1, 1, 'pos1', 1, '2023-01-01 09:30:00'),
	(2, 1, 'pos1', 0, '2023-01-02 10:00:00'),
	(3, 2, 'pos2', 1, '2023-01-01 11:15:00');
`

// OpenSQLite returns an in-memory sqlite database seeded with the worked
// example, closed when the test ends
func OpenSQLite(tb testing.TB) *sql.DB {
	tb.Helper()

	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, "")
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	if _, err := db.ExecContext(ctx, fixtureSchema); err != nil {
		tb.Fatalf("seed sqlite: %v", err)
	}

	return db
}
