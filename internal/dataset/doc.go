// Package dataset loads the customer churn table.
//
// Load accepts comma, semicolon, tab or pipe separated text (sniffed from
// the header unless a delimiter is configured) and .xlsx workbooks. All
// columns are kept as text in Table.Rows for the data preview. The columns
// the dashboard computes on are validated once here and exposed as typed
// Customer records, so a bad cell fails the load with a schema error naming
// the column and row instead of surfacing later while charts are drawn.
//
// Required columns: gender, tenure, MonthlyCharges, TotalCharges, Churn.
// customerID is read when present. TotalCharges is left as raw text because
// the export writes a single space for customers with no billing history.
package dataset
