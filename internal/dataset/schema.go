package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "github.com/sxyz5675/Steamlit-Dashboard/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// charge accepts a non-negative amount or NaN for an empty cell.
	_ = v.RegisterValidation("charge", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return math.IsNaN(f) || f >= 0
	})
	return v
}

var fieldColumns = map[string]string{
	"CustomerID":     ColCustomerID,
	"Gender":         ColGender,
	"Tenure":         ColTenure,
	"MonthlyCharges": ColMonthlyCharges,
	"TotalCharges":   ColTotalCharges,
	"Churn":          ColChurn,
}

// buildCustomers checks the header against RequiredColumns and converts each
// row to a Customer, failing on the first cell that does not fit.
func buildCustomers(columns []string, rows [][]string) ([]Customer, error) {
	idx := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}

	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, apierrors.NewSchemaError(
			fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil).
			WithContext("missing", missing)
	}

	idID, hasID := idx[ColCustomerID]
	customers := make([]Customer, len(rows))
	for r, row := range rows {
		line := r + 1

		tenure, err := parseNumber(row[idx[ColTenure]], false)
		if err != nil {
			return nil, cellError(ColTenure, line, err)
		}
		monthly, err := parseNumber(row[idx[ColMonthlyCharges]], true)
		if err != nil {
			return nil, cellError(ColMonthlyCharges, line, err)
		}

		c := Customer{
			Gender:         row[idx[ColGender]],
			Tenure:         tenure,
			MonthlyCharges: monthly,
			TotalCharges:   row[idx[ColTotalCharges]],
			Churn:          row[idx[ColChurn]],
		}
		if hasID {
			c.CustomerID = row[idID]
		}

		if err := validate.Struct(c); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				fe := verrs[0]
				return nil, cellError(fieldColumns[fe.StructField()], line,
					fmt.Errorf("value %v fails %s", fe.Value(), fe.Tag()))
			}
			return nil, apierrors.NewSchemaError("row validation failed", err)
		}
		customers[r] = c
	}
	return customers, nil
}

// parseNumber converts a numeric cell. An empty cell is NaN when allowEmpty
// is set and an error otherwise.
func parseNumber(raw string, allowEmpty bool) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		if allowEmpty {
			return math.NaN(), nil
		}
		return 0, errors.New("empty value")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if math.IsInf(f, 0) || (math.IsNaN(f) && !allowEmpty) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return f, nil
}

func cellError(column string, row int, cause error) error {
	return apierrors.NewSchemaError(fmt.Sprintf("column %q row %d", column, row), cause).
		WithContext("column", column).
		WithContext("row", row)
}
