package contracts

// Table is the raw result of a full-table read, in the column order
// returned by the store
type Table struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Index returns the position of col, or -1 when the table has no such column
func (t *Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether the table carries col
func (t *Table) Has(col string) bool {
	return t.Index(col) >= 0
}

// Value returns the cell at (row, col), nil when the column is absent
func (t *Table) Value(row int, col string) any {
	i := t.Index(col)
	if i < 0 || i >= len(t.Rows[row]) {
		return nil
	}
	return t.Rows[row][i]
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// RawTables groups the three reads the dashboard is built from
type RawTables struct {
	Observations *Table `json:"observations"`
	Products     *Table `json:"products"`
	PointsOfSale *Table `json:"points_of_sale"`
}
