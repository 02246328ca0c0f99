package features

import (
	"strconv"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/dataset"
)

// Churn labels and the flag values they map to.
const (
	LabelNo  = "No"
	LabelYes = "Yes"
)

var churnMapping = map[string]uint8{
	LabelNo:  0,
	LabelYes: 1,
}

// ChurnFlag is the numeric churn indicator of one row. Valid is false when
// the label is neither Yes nor No.
type ChurnFlag struct {
	Value uint8
	Valid bool
}

// String renders the flag for the data preview; undefined flags print as NaN.
func (f ChurnFlag) String() string {
	if !f.Valid {
		return "NaN"
	}
	return strconv.Itoa(int(f.Value))
}

// DeriveChurnFlag maps every row's Churn label through {No: 0, Yes: 1}.
// Labels are matched exactly; anything else yields an undefined flag.
func DeriveChurnFlag(table *dataset.Table) []ChurnFlag {
	flags := make([]ChurnFlag, table.Len())
	for i, c := range table.Customers {
		if v, ok := churnMapping[c.Churn]; ok {
			flags[i] = ChurnFlag{Value: v, Valid: true}
		}
	}
	return flags
}

// UndefinedRows returns the indexes of flags that are not Valid.
func UndefinedRows(flags []ChurnFlag) []int {
	var rows []int
	for i, f := range flags {
		if !f.Valid {
			rows = append(rows, i)
		}
	}
	return rows
}
