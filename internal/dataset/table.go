package dataset

import (
	"fmt"
	"slices"
)

// Column names of the Telco export that the dashboard reads.
const (
	ColCustomerID     = "customerID"
	ColGender         = "gender"
	ColTenure         = "tenure"
	ColMonthlyCharges = "MonthlyCharges"
	ColTotalCharges   = "TotalCharges"
	ColChurn          = "Churn"
)

// RequiredColumns must be present in every input file.
var RequiredColumns = []string{ColGender, ColTenure, ColMonthlyCharges, ColTotalCharges, ColChurn}

// Customer is the typed view of one row. TotalCharges stays raw because the
// export uses a blank placeholder for customers who have not been billed yet.
// MonthlyCharges is NaN when the cell is empty.
type Customer struct {
	CustomerID     string
	Gender         string
	Tenure         float64 `validate:"gte=0"`
	MonthlyCharges float64 `validate:"charge"`
	TotalCharges   string
	Churn          string
}

// Table is the loaded dataset. Rows keep every column as the original text
// in Columns order; Customers is the typed projection of the same rows.
// A Table is not modified after Load; derived columns produce a new Table.
type Table struct {
	Source    string
	Columns   []string
	Rows      [][]string
	Customers []Customer
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Customers)
}

// ColumnIndex returns the position of name in Columns, or -1.
func (t *Table) ColumnIndex(name string) int {
	return slices.Index(t.Columns, name)
}

// Column returns a copy of the raw values of the named column.
func (t *Table) Column(name string) ([]string, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// WithColumn returns a copy of t with values attached as column name. An
// existing column of the same name is replaced.
func (t *Table) WithColumn(name string, values []string) (*Table, error) {
	if len(values) != len(t.Rows) {
		return nil, fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.Rows))
	}

	idx := t.ColumnIndex(name)
	cols := slices.Clone(t.Columns)
	if idx < 0 {
		cols = append(cols, name)
	}

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		next := make([]string, len(cols))
		copy(next, row)
		if idx < 0 {
			next[len(cols)-1] = values[i]
		} else {
			next[idx] = values[i]
		}
		rows[i] = next
	}

	return &Table{
		Source:    t.Source,
		Columns:   cols,
		Rows:      rows,
		Customers: t.Customers,
	}, nil
}

// Subset returns a table holding only the rows at index, in that order.
func (t *Table) Subset(index []int) *Table {
	rows := make([][]string, len(index))
	customers := make([]Customer, len(index))
	for i, idx := range index {
		rows[i] = t.Rows[idx]
		customers[i] = t.Customers[idx]
	}
	return &Table{
		Source:    t.Source,
		Columns:   t.Columns,
		Rows:      rows,
		Customers: customers,
	}
}

// Head returns the first n rows, or all of them when the table is shorter.
func (t *Table) Head(n int) [][]string {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	if n < 0 {
		n = 0
	}
	return t.Rows[:n]
}
