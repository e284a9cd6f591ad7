package contracts

import "context"

// TableSource reads a whole table by name
// ⭐ SSOT: the only way the dashboard touches the store
type TableSource interface {
	Query(ctx context.Context, table string) (*Table, error)
}

// RawLoader produces the three raw tables
type RawLoader interface {
	Load(ctx context.Context) (*RawTables, error)
}
