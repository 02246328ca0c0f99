package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// TelcoHeader is the column layout of the Telco customer churn export.
var TelcoHeader = []string{
	"customerID", "gender", "SeniorCitizen", "Partner", "Dependents", "tenure",
	"PhoneService", "MultipleLines", "InternetService", "OnlineSecurity",
	"OnlineBackup", "DeviceProtection", "TechSupport", "StreamingTV",
	"StreamingMovies", "Contract", "PaperlessBilling", "PaymentMethod",
	"MonthlyCharges", "TotalCharges", "Churn",
}

// CustomerRow is a fixture row. Every field is raw text so tests can inject
// malformed cells.
type CustomerRow struct {
	ID             string
	Gender         string
	Tenure         string
	MonthlyCharges string
	TotalCharges   string
	Churn          string
}

// Record expands the row to the full Telco column layout.
func (r CustomerRow) Record() []string {
	return []string{
		r.ID, r.Gender, "0", "Yes", "No", r.Tenure,
		"Yes", "No", "DSL", "No",
		"Yes", "No", "No", "No",
		"No", "Month-to-month", "Yes", "Electronic check",
		r.MonthlyCharges, r.TotalCharges, r.Churn,
	}
}

// SampleRows is a small dataset covering both genders, both churn labels and
// one blank TotalCharges placeholder.
func SampleRows() []CustomerRow {
	return []CustomerRow{
		{"7590-VHVEG", "Female", "1", "29.85", "29.85", "No"},
		{"5575-GNVDE", "Male", "34", "56.95", "1889.5", "No"},
		{"3668-QPYBK", "Male", "2", "53.85", "108.15", "Yes"},
		{"7795-CFOCW", "Male", "45", "42.30", "1840.75", "No"},
		{"9237-HQITU", "Female", "2", "70.70", "151.65", "Yes"},
		{"9305-CDSKC", "Female", "8", "99.65", "820.5", "Yes"},
		{"1452-KIOVK", "Male", "22", "89.10", "1949.4", "No"},
		{"6713-OKOMC", "Female", "10", "29.75", "301.9", "No"},
		{"7892-POOKP", "Female", "28", "104.80", "3046.05", "Yes"},
		{"6388-TABGU", "Male", "62", "56.15", "3487.95", "No"},
		{"4472-LVYGI", "Female", "0", "52.55", " ", "No"},
		{"9763-GRSKD", "Male", "13", "49.95", "587.45", "No"},
	}
}

// WriteCSV writes rows under dir with the Telco header and returns the path.
func WriteCSV(t *testing.T, dir, name string, rows []CustomerRow) string {
	t.Helper()
	return WriteDelimited(t, dir, name, ',', TelcoHeader, records(rows))
}

// WriteDelimited writes a header plus records using delim and returns the path.
func WriteDelimited(t *testing.T, dir, name string, delim rune, header []string, recs [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = delim
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(recs); err != nil {
		t.Fatalf("write records: %v", err)
	}
	return path
}

func records(rows []CustomerRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Record()
	}
	return out
}
